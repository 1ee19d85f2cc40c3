package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"schedulr/internal/config"
	"schedulr/internal/middleware"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// sesAPI は SESMailer が使う sesv2.Client のメソッドだけを切り出したもの
type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESMailer は AWS SES v2 でメールを送る
type SESMailer struct {
	client sesAPI
	from   string
}

// NewSESMailer は auth_type に応じて認証情報を切り替えます
func NewSESMailer(ctx context.Context, cfg config.SESConfig) (*SESMailer, error) {
	if cfg.From == "" {
		return nil, errors.New("ses: from address is required")
	}
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}

	switch cfg.AuthType {
	case "static_credentials":
		if cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
			return nil, errors.New("ses: static_credentials requires access_key_id and secret_access_key")
		}
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	case "iam_role", "":
		// SDK のデフォルトチェーン
	default:
		slog.Warn("Unknown SES auth_type, using the default credential chain", "type", cfg.AuthType)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("ses: load aws config: %w", err)
	}
	return &SESMailer{client: sesv2.NewFromConfig(awsCfg), from: cfg.From}, nil
}

func utf8Content(s string) *types.Content {
	return &types.Content{Data: aws.String(s), Charset: aws.String("UTF-8")}
}

func (m *SESMailer) Send(ctx context.Context, msg Message) error {
	logger := middleware.GetLogger(ctx)
	out, err := m.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(m.from),
		Destination:      &types.Destination{ToAddresses: []string{msg.To}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: utf8Content(msg.Subject),
				Body:    &types.Body{Text: utf8Content(msg.Body)},
			},
		},
		EmailTags: []types.MessageTag{{Name: aws.String("kind"), Value: aws.String(msg.Kind)}},
	})
	if err != nil {
		logger.Error("Failed to send email via SES", "error", err, "kind", msg.Kind, "to", msg.To)
		return fmt.Errorf("ses: send %s mail: %w", msg.Kind, err)
	}
	logger.Info("Email sent via SES", "kind", msg.Kind, "to", msg.To, "message_id", aws.ToString(out.MessageId))
	return nil
}
