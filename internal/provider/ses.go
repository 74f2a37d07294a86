package provider

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/google/uuid"

	appconfig "github.com/eventra/campaign-engine/internal/config"
	"github.com/eventra/campaign-engine/internal/pkg/logger"
)

// SESProvider sends email through AWS SES v2. Each recipient gets its own
// SendEmail call; SES accepting the message is counted as delivered,
// bounces arrive later through the engagement endpoints.
type SESProvider struct {
	Tracking
	client *sesv2.Client
}

// NewSESProvider creates an SES-backed email provider.
func NewSESProvider(ctx context.Context, cfg appconfig.SESConfig, tracking Tracking) (*SESProvider, error) {
	creds := credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(creds),
	)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return &SESProvider{
		Tracking: tracking,
		client:   sesv2.NewFromConfig(awsCfg),
	}, nil
}

// Name implements EmailProvider.
func (p *SESProvider) Name() string { return "ses" }

// Send delivers one batch through SES. Per-recipient failures are logged
// and reflected in the result; Send errors only when SES rejects the
// entire batch.
func (p *SESProvider) Send(ctx context.Context, from string, recipients []string, subject, html string, campaignID uuid.UUID) (*SendResult, error) {
	result := &SendResult{Sent: len(recipients)}

	var lastErr error
	for _, to := range recipients {
		input := &sesv2.SendEmailInput{
			FromEmailAddress: aws.String(from),
			Destination: &types.Destination{
				ToAddresses: []string{to},
			},
			Content: &types.EmailContent{
				Simple: &types.Message{
					Subject: &types.Content{Data: aws.String(subject)},
					Body: &types.Body{
						Html: &types.Content{Data: aws.String(html)},
					},
				},
			},
		}

		if _, err := p.client.SendEmail(ctx, input); err != nil {
			lastErr = err
			logger.Warn("ses send failed",
				"campaign_id", campaignID.String(),
				"recipient", to,
				"error", err.Error())
			continue
		}
		result.Delivered++
	}

	if result.Delivered == 0 && lastErr != nil {
		return nil, fmt.Errorf("ses rejected batch: %w", lastErr)
	}
	return result, nil
}
