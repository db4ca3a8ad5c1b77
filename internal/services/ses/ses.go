// Package ses sends decision notification emails via AWS SES
package ses

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"go.uber.org/zap"

	"loan-application-engine/internal/models"
	"loan-application-engine/internal/utils"
)

// ErrNoSender is returned when no verified sender address is configured.
var ErrNoSender = errors.New("SES sender email not configured")

// emailAPI is the subset of the SES client the service uses.
type emailAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// Service handles SES email operations
type Service struct {
	client    emailAPI
	fromEmail string
	logger    *zap.Logger
}

// EmailParams represents parameters for sending an email
type EmailParams struct {
	To       string
	Subject  string
	HTMLBody string
	TextBody string
	ReplyTo  string
}

// SendEmailResult contains the result of sending an email
type SendEmailResult struct {
	MessageID string
	SentAt    time.Time
}

// decisionView is the template data for a decision email.
type decisionView struct {
	Name           string
	ApplicationID  string
	Eligible       bool
	BestProduct    string
	Score          int
	Reasons        []string
	Recommendation string
}

// NewService creates a new SES service from the default AWS credential chain.
func NewService(ctx context.Context, region, fromEmail string, logger *zap.Logger) (*Service, error) {
	if strings.TrimSpace(fromEmail) == "" {
		return nil, ErrNoSender
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return NewServiceWithClient(ses.NewFromConfig(cfg), fromEmail, logger), nil
}

// NewServiceWithClient wraps an existing SES client.
func NewServiceWithClient(client emailAPI, fromEmail string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = utils.GetLogger()
	}
	return &Service{client: client, fromEmail: fromEmail, logger: logger}
}

// SendEmail sends a basic email
func (s *Service) SendEmail(ctx context.Context, params EmailParams) (*SendEmailResult, error) {
	input := &ses.SendEmailInput{
		Source: aws.String(s.fromEmail),
		Destination: &types.Destination{
			ToAddresses: []string{params.To},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data:    aws.String(params.Subject),
				Charset: aws.String("UTF-8"),
			},
			Body: &types.Body{},
		},
	}

	if params.HTMLBody != "" {
		input.Message.Body.Html = &types.Content{
			Data:    aws.String(params.HTMLBody),
			Charset: aws.String("UTF-8"),
		}
	}
	if params.TextBody != "" {
		input.Message.Body.Text = &types.Content{
			Data:    aws.String(params.TextBody),
			Charset: aws.String("UTF-8"),
		}
	}
	if params.ReplyTo != "" {
		input.ReplyToAddresses = []string{params.ReplyTo}
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		s.logger.Error("Failed to send email",
			zap.String("to", params.To),
			zap.String("subject", params.Subject),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to send email: %w", err)
	}

	messageID := aws.ToString(result.MessageId)
	s.logger.Info("Email sent successfully",
		zap.String("to", params.To),
		zap.String("messageId", messageID),
	)

	return &SendEmailResult{
		MessageID: messageID,
		SentAt:    time.Now(),
	}, nil
}

// SendDecision emails the applicant the outcome of their application.
func (s *Service) SendDecision(ctx context.Context, to string, record *models.ApplicationRecord) error {
	view := buildDecisionView(record)

	htmlBody, err := renderDecisionHTML(view)
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	subject := "Update on your loan application"
	if view.Eligible {
		subject = "Good news about your loan application"
	}

	_, err = s.SendEmail(ctx, EmailParams{
		To:       to,
		Subject:  subject,
		HTMLBody: htmlBody,
		TextBody: renderDecisionText(view),
	})
	return err
}

func buildDecisionView(record *models.ApplicationRecord) decisionView {
	name := strings.TrimSpace(record.Submitted["fullName"])
	if name == "" {
		name = "there"
	}

	var reasons []string
	for _, r := range strings.Split(record.Decision.EligibilityReasons, ";") {
		if r = strings.TrimSpace(r); r != "" {
			reasons = append(reasons, r)
		}
	}

	return decisionView{
		Name:           name,
		ApplicationID:  record.ID,
		Eligible:       record.Decision.Eligible,
		BestProduct:    record.Decision.BestProductName,
		Score:          record.Decision.EligibilityScore,
		Reasons:        reasons,
		Recommendation: string(record.Decision.Verdict.Recommendation),
	}
}

var decisionTemplate = template.Must(template.New("decision").Parse(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: #2f4b7c; color: white; padding: 24px; border-radius: 10px 10px 0 0; text-align: center; }
        .content { background: #f9f9f9; padding: 24px; border-radius: 0 0 10px 10px; }
        .badge { display: inline-block; padding: 4px 12px; border-radius: 20px; font-weight: bold; color: white; }
        .yes { background: #28a745; }
        .no { background: #6c757d; }
        .footer { text-align: center; margin-top: 24px; color: #999; font-size: 12px; }
    </style>
</head>
<body>
    <div class="header">
        <h1>Your loan application</h1>
        <p>Hi {{.Name}}, we have reviewed your application.</p>
    </div>
    <div class="content">
        {{if .Eligible}}<p><span class="badge yes">Eligible</span></p>{{else}}<p><span class="badge no">Under review</span></p>{{end}}
        {{if .BestProduct}}<p>Best matching product: <strong>{{.BestProduct}}</strong> (score {{.Score}})</p>{{end}}
        {{if .Reasons}}<ul>{{range .Reasons}}<li>{{.}}</li>{{end}}</ul>{{end}}
        <p>Reference: {{.ApplicationID}}</p>
    </div>
    <div class="footer">
        <p>This email was sent by Loan Application Engine</p>
    </div>
</body>
</html>`))

func renderDecisionHTML(view decisionView) (string, error) {
	var buf bytes.Buffer
	if err := decisionTemplate.Execute(&buf, view); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func renderDecisionText(view decisionView) string {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Hi %s,\n\n", view.Name))
	if view.Eligible {
		buf.WriteString("Good news! Your loan application is eligible.\n\n")
	} else {
		buf.WriteString("Your loan application needs further review.\n\n")
	}
	if view.BestProduct != "" {
		buf.WriteString(fmt.Sprintf("Best matching product: %s (score %d)\n", view.BestProduct, view.Score))
	}
	for _, r := range view.Reasons {
		buf.WriteString(fmt.Sprintf("  - %s\n", r))
	}
	buf.WriteString(fmt.Sprintf("\nReference: %s\n\n", view.ApplicationID))
	buf.WriteString("Best regards,\nLoan Application Engine Team\n")

	return buf.String()
}
