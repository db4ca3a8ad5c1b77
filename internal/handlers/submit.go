package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"loan-application-engine/internal/models"
	"loan-application-engine/internal/utils"
)

// SubmitHandler handles API Gateway form submissions.
type SubmitHandler struct {
	pipeline Evaluator
	logger   *zap.Logger
}

// NewSubmitHandler creates a submit handler.
func NewSubmitHandler(pipeline Evaluator, logger *zap.Logger) *SubmitHandler {
	if logger == nil {
		logger = utils.GetLogger()
	}
	return &SubmitHandler{pipeline: pipeline, logger: logger}
}

// Handle validates, decides and stores one submission.
func (h *SubmitHandler) Handle(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	headers := corsHeaders()

	if request.HTTPMethod == http.MethodOptions {
		return events.APIGatewayProxyResponse{StatusCode: http.StatusOK, Headers: headers}, nil
	}

	fields, err := DecodeFields([]byte(request.Body))
	if err != nil {
		return errorResponse(headers, http.StatusBadRequest, err.Error())
	}

	record, err := h.pipeline.Submit(ctx, fields)
	if err != nil {
		var pe *models.ProfileError
		if errors.As(err, &pe) {
			return errorResponse(headers, http.StatusBadRequest, profileErrorText(pe))
		}
		h.logger.Error("Submission failed", zap.String("request_id", request.RequestContext.RequestID), zap.Error(err))
		return errorResponse(headers, http.StatusInternalServerError, "Failed to save data")
	}

	body, _ := json.Marshal(map[string]interface{}{
		"ok":       true,
		"id":       record.ID,
		"eligible": record.Decision.Eligible,
		"record":   record.Fields(),
	})

	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Headers:    headers,
		Body:       string(body),
	}, nil
}

func corsHeaders() map[string]string {
	return map[string]string{
		"Access-Control-Allow-Origin":  "*",
		"Access-Control-Allow-Headers": "Content-Type,Authorization",
		"Access-Control-Allow-Methods": "GET,POST,OPTIONS",
		"Content-Type":                 "application/json",
	}
}

// errorResponse creates an error response.
func errorResponse(headers map[string]string, statusCode int, message string) (events.APIGatewayProxyResponse, error) {
	body, _ := json.Marshal(map[string]string{
		"error":   http.StatusText(statusCode),
		"message": message,
	})

	return events.APIGatewayProxyResponse{
		StatusCode: statusCode,
		Headers:    headers,
		Body:       string(body),
	}, nil
}
