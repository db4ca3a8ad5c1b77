package ses

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"loan-application-engine/internal/models"
)

type fakeSES struct {
	input *ses.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &ses.SendEmailOutput{MessageId: aws.String("msg-123")}, nil
}

func sampleRecord() *models.ApplicationRecord {
	return &models.ApplicationRecord{
		ID:        "app-1",
		Submitted: map[string]string{"fullName": "Jane <Roe>"},
		Decision: models.EligibilityDecision{
			Eligible:           true,
			EligibilityScore:   95,
			EligibilityReasons: "Amount within range; Gender OK",
			BestProductName:    "Personal Loan Basic",
		},
	}
}

func TestSendDecision(t *testing.T) {
	client := &fakeSES{}
	svc := NewServiceWithClient(client, "noreply@example.com", zap.NewNop())

	require.NoError(t, svc.SendDecision(context.Background(), "jane@example.com", sampleRecord()))

	in := client.input
	require.NotNil(t, in)
	assert.Equal(t, "noreply@example.com", aws.ToString(in.Source))
	assert.Equal(t, []string{"jane@example.com"}, in.Destination.ToAddresses)
	assert.Equal(t, "Good news about your loan application", aws.ToString(in.Message.Subject.Data))

	html := aws.ToString(in.Message.Body.Html.Data)
	assert.Contains(t, html, "Jane &lt;Roe&gt;")
	assert.Contains(t, html, "Personal Loan Basic")
	assert.Contains(t, html, "<li>Gender OK</li>")

	text := aws.ToString(in.Message.Body.Text.Data)
	assert.Contains(t, text, "  - Amount within range\n")
	assert.Contains(t, text, "Reference: app-1")
}

func TestSendDecision_NotEligible(t *testing.T) {
	client := &fakeSES{}
	record := sampleRecord()
	record.Decision.Eligible = false

	require.NoError(t, NewServiceWithClient(client, "a@b.c", zap.NewNop()).SendDecision(context.Background(), "x@y.z", record))
	assert.Equal(t, "Update on your loan application", aws.ToString(client.input.Message.Subject.Data))
}

func TestSendDecision_ClientError(t *testing.T) {
	client := &fakeSES{err: errors.New("throttled")}

	err := NewServiceWithClient(client, "a@b.c", zap.NewNop()).SendDecision(context.Background(), "x@y.z", sampleRecord())
	assert.ErrorContains(t, err, "throttled")
}

func TestNewService_RequiresSender(t *testing.T) {
	_, err := NewService(context.Background(), "us-east-1", " ", zap.NewNop())
	assert.ErrorIs(t, err, ErrNoSender)
}
