// Package notify delivers phase emails to newsletter owners over SMTP.
//
// When no SMTP host is configured a noop implementation is returned, so
// callers never need to check whether mail is enabled.
package notify

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"missive/internal/config"
)

// Service defines the notification surface exposed to the cycle workflow.
type Service interface {
	// QuestionsOpen announces the start of the question collection window.
	QuestionsOpen(ctx context.Context, recipient, title string, issue int) error
	// AnswersOpen announces the start of the answer collection window.
	AnswersOpen(ctx context.Context, recipient, title string, issue int) error
	// IssuePublished announces a finished issue with a link to read it.
	IssuePublished(ctx context.Context, recipient, title, link string, issue int) error
	// Test sends a throwaway message to verify delivery settings.
	Test(ctx context.Context, recipient string) error
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// NewService builds a notification service backed by SMTP when configured.
// When no host is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	host := strings.TrimSpace(cfg.SMTP.Host)
	if host == "" {
		return noopService{}
	}
	return &smtpService{
		addr:     net.JoinHostPort(host, strconv.Itoa(cfg.SMTP.Port)),
		host:     host,
		username: cfg.SMTP.Username,
		password: cfg.SMTP.Password,
		from:     cfg.SMTP.From,
		send:     smtp.SendMail,
	}
}

type smtpService struct {
	addr     string
	host     string
	username string
	password string
	from     string
	send     sendFunc
}

func (s *smtpService) QuestionsOpen(ctx context.Context, recipient, title string, issue int) error {
	subject := fmt.Sprintf("%s #%d: questions are open", title, issue)
	return s.deliver(ctx, recipient, subject, "Time to submit your questions!")
}

func (s *smtpService) AnswersOpen(ctx context.Context, recipient, title string, issue int) error {
	subject := fmt.Sprintf("%s #%d: answers are open", title, issue)
	return s.deliver(ctx, recipient, subject, "Time to submit your responses!")
}

func (s *smtpService) IssuePublished(ctx context.Context, recipient, title, link string, issue int) error {
	subject := fmt.Sprintf("%s #%d is out", title, issue)
	body := fmt.Sprintf("A new issue has been published. Read it here: %s", link)
	return s.deliver(ctx, recipient, subject, body)
}

func (s *smtpService) Test(ctx context.Context, recipient string) error {
	return s.deliver(ctx, recipient, "Missive test", "Mail delivery is working.")
}

func (s *smtpService) deliver(ctx context.Context, recipient, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	recipient = strings.TrimSpace(recipient)
	if recipient == "" {
		return fmt.Errorf("no recipient for %q", subject)
	}

	var auth smtp.Auth
	if s.username != "" {
		auth = smtp.PlainAuth("", s.username, s.password, s.host)
	}

	msg := buildMessage(s.from, recipient, subject, body)
	if err := s.send(s.addr, auth, s.from, []string{recipient}, msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", recipient, err)
	}
	return nil
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	b.WriteString("\r\n")
	return []byte(b.String())
}

type noopService struct{}

func (noopService) QuestionsOpen(context.Context, string, string, int) error { return nil }
func (noopService) AnswersOpen(context.Context, string, string, int) error   { return nil }
func (noopService) IssuePublished(context.Context, string, string, string, int) error {
	return nil
}
func (noopService) Test(context.Context, string) error { return nil }
