//go:generate mockery --name Mailer --output ./mocks --outpkg mocks --case=underscore
package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"schedulr/internal/config"
	"schedulr/internal/middleware"
)

// Message は送信するメール1通分。本文はプレーンテキスト
type Message struct {
	Kind    string // ログ用の種別
	To      string
	Subject string
	Body    string
}

// MentorCodeMessage はメンター登録時にコードを知らせるメールを組み立てます
func MentorCodeMessage(appName, to, code string) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Welcome to %s!\n\n", appName)
	fmt.Fprintf(&b, "Your mentor code is: %s\n", code)
	b.WriteString("Share this with your students so they can link to you when they sign up.")
	return Message{
		Kind:    "mentor_code",
		To:      to,
		Subject: fmt.Sprintf("[%s] Your mentor code", appName),
		Body:    b.String(),
	}
}

// rfc822 は SMTP の DATA に流すヘッダ付きの本文を返す
func (m Message) rfc822(from string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + m.To + "\r\n")
	b.WriteString("Subject: " + m.Subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(strings.ReplaceAll(m.Body, "\n", "\r\n"))
	b.WriteString("\r\n")
	return []byte(b.String())
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// LogMailer は送信せずログに出すだけ
type LogMailer struct{}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	middleware.GetLogger(ctx).Info("Email (log mailer)", "kind", msg.Kind, "to", msg.To, "subject", msg.Subject, "body", msg.Body)
	return nil
}

// SMTPMailer は開発用の MailHog などを想定した認証なしの SMTP
type SMTPMailer struct {
	cfg config.SMTPConfig
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	logger := middleware.GetLogger(ctx)
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	if err := smtp.SendMail(addr, nil, m.cfg.From, []string{msg.To}, msg.rfc822(m.cfg.From)); err != nil {
		logger.Error("Failed to send email via SMTP", "error", err, "addr", addr, "kind", msg.Kind, "to", msg.To)
		return fmt.Errorf("smtp: send %s mail: %w", msg.Kind, err)
	}
	logger.Info("Email sent via SMTP", "kind", msg.Kind, "to", msg.To)
	return nil
}

// NewMailer は mailer.type に応じた実装を返します
func NewMailer(ctx context.Context, cfg *config.Config) (Mailer, error) {
	switch cfg.Mailer.Type {
	case "smtp":
		slog.Info("Using SMTP mailer", "host", cfg.SMTP.Host, "port", cfg.SMTP.Port)
		return &SMTPMailer{cfg: cfg.SMTP}, nil
	case "ses":
		slog.Info("Using SES mailer", "region", cfg.SES.Region)
		m, err := NewSESMailer(ctx, cfg.SES)
		if err != nil {
			return nil, err
		}
		return m, nil
	case "log", "":
		slog.Info("Using log mailer")
		return &LogMailer{}, nil
	default:
		slog.Warn("Unknown mailer type, falling back to log mailer", "type", cfg.Mailer.Type)
		return &LogMailer{}, nil
	}
}
