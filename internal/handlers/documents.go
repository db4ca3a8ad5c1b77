package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"loan-application-engine/internal/models"
	s3service "loan-application-engine/internal/services/s3"
	"loan-application-engine/internal/utils"
)

// DocumentUploadHandler issues presigned S3 upload URLs for supporting documents.
type DocumentUploadHandler struct {
	applications ApplicationReader
	documents    DocumentPresigner
	logger       *zap.Logger
}

// NewDocumentUploadHandler creates a document upload handler.
func NewDocumentUploadHandler(applications ApplicationReader, documents DocumentPresigner, logger *zap.Logger) *DocumentUploadHandler {
	if logger == nil {
		logger = utils.GetLogger()
	}
	return &DocumentUploadHandler{applications: applications, documents: documents, logger: logger}
}

// Handle expects the application id as the "id" path parameter.
func (h *DocumentUploadHandler) Handle(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	headers := corsHeaders()

	if request.HTTPMethod == http.MethodOptions {
		return events.APIGatewayProxyResponse{StatusCode: http.StatusOK, Headers: headers}, nil
	}
	if h.applications == nil || h.documents == nil {
		return errorResponse(headers, http.StatusServiceUnavailable, "Document uploads are not configured")
	}

	id := request.PathParameters["id"]
	if id == "" {
		return errorResponse(headers, http.StatusBadRequest, "Application id is required")
	}
	if _, err := h.applications.GetApplication(ctx, id); err != nil {
		if errors.Is(err, models.ErrApplicationNotFound) {
			return errorResponse(headers, http.StatusNotFound, "Application not found")
		}
		h.logger.Error("Failed to load application", zap.String("application_id", id), zap.Error(err))
		return errorResponse(headers, http.StatusInternalServerError, "Failed to load application")
	}

	var req DocumentRequest
	if err := json.Unmarshal([]byte(request.Body), &req); err != nil {
		return errorResponse(headers, http.StatusBadRequest, "Invalid request body")
	}

	result, err := h.documents.PresignDocumentUpload(ctx, id, req.Filename, req.ContentType, 0)
	if err != nil {
		if errors.Is(err, s3service.ErrUnsupportedContentType) {
			return errorResponse(headers, http.StatusBadRequest, err.Error())
		}
		h.logger.Error("Failed to generate presigned URL", zap.Error(err))
		return errorResponse(headers, http.StatusInternalServerError, "Failed to generate upload URL")
	}

	body, _ := json.Marshal(result)
	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Headers:    headers,
		Body:       string(body),
	}, nil
}
