package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"go.uber.org/zap"

	"familyspace/internal/models"
)

// SESAPI is the part of the SES client the email sink uses
type SESAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// EmailSink mails activity digests through Amazon SES. Without a sender
// address it is disabled and skips every delivery.
type EmailSink struct {
	client    SESAPI
	fromEmail string
	fromName  string
	enabled   bool
	logger    *zap.Logger
}

// NewEmailSink creates an SES backed sink
func NewEmailSink(ctx context.Context, region, fromEmail, fromName string, logger *zap.Logger) (*EmailSink, error) {
	if fromEmail == "" {
		logger.Info("email notifications disabled: SES_FROM_EMAIL not configured")
		return &EmailSink{enabled: false, logger: logger}, nil
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	logger.Info("email notifications enabled", zap.String("from", fromEmail), zap.String("region", region))
	return NewEmailSinkWithClient(sesv2.NewFromConfig(cfg), fromEmail, fromName, logger), nil
}

// NewEmailSinkWithClient creates an enabled sink over an existing client
func NewEmailSinkWithClient(client SESAPI, fromEmail, fromName string, logger *zap.Logger) *EmailSink {
	return &EmailSink{
		client:    client,
		fromEmail: fromEmail,
		fromName:  fromName,
		enabled:   true,
		logger:    logger,
	}
}

func (s *EmailSink) Name() string { return "email" }

// IsEnabled returns whether the sink sends mail
func (s *EmailSink) IsEnabled() bool {
	return s.enabled
}

func (s *EmailSink) Deliver(ctx context.Context, event Event, recipients []models.Member) error {
	if !s.enabled {
		s.logger.Debug("skipping email delivery (disabled)", zap.String("event", string(event.Type)))
		return nil
	}

	subject, body := renderEmail(event)

	var errs []error
	for _, r := range recipients {
		if r.Email == "" {
			continue
		}
		if err := s.send(ctx, r.Email, subject, body); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func renderEmail(event Event) (subject, body string) {
	who := event.ActorNickname
	if who == "" {
		who = "A family member"
	}
	switch event.Type {
	case EventAttendance:
		return who + " checked in today", who + " checked in and helped your family plant grow.\n"
	case EventPost:
		return who + " shared a new post", who + " wrote:\n\n" + event.Content + "\n"
	default:
		return "New family activity", who + " did something new.\n"
	}
}

func (s *EmailSink) send(ctx context.Context, toEmail, subject, textBody string) error {
	fromAddress := s.fromEmail
	if s.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Text: &types.Content{
						Data:    aws.String(textBody),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	if _, err := s.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}
	return nil
}
