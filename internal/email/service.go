// Package email sends transactional mail (team invitations and OTP codes)
// through the Resend API. With Enabled=false the service logs and returns
// nil so local development needs no API key.
package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/mail"
	"net/url"
	"strings"

	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog"
)

type Service struct {
	client  *resend.Client
	enabled bool
	from    string
	logger  zerolog.Logger
}

func NewService(apiKey, from string, enabled bool, logger zerolog.Logger) (*Service, error) {
	if enabled {
		if err := validateAddress(from); err != nil {
			return nil, fmt.Errorf("invalid sender address: %w", err)
		}
	}

	var client *resend.Client
	if enabled {
		client = resend.NewClient(apiKey)
	}

	return &Service{
		client:  client,
		enabled: enabled,
		from:    from,
		logger:  logger.With().Str("component", "email").Logger(),
	}, nil
}

var invitationTmpl = template.Must(template.New("invitation").Parse(`<p>Hello {{.Name}},</p>
<p>You have been invited to the ExpoTrade admin panel. Use the link below to set your password:</p>
<p><a href="{{.Link}}">{{.Link}}</a></p>
<p>This link expires in 24 hours.</p>`))

var otpTmpl = template.Must(template.New("otp").Parse(`<p>Your verification code is <strong>{{.Code}}</strong>.</p>
<p>It expires in 5 minutes.</p>`))

// SendInvitation emails a password-setup link to a newly invited team member.
func (s *Service) SendInvitation(ctx context.Context, to, name, link string) error {
	if err := validateAddress(to); err != nil {
		return fmt.Errorf("invalid recipient: %w", err)
	}
	if err := validateLink(link); err != nil {
		return fmt.Errorf("invalid setup link: %w", err)
	}

	body, err := render(invitationTmpl, map[string]string{"Name": name, "Link": link})
	if err != nil {
		return err
	}
	return s.send(ctx, to, "Set Your Password", body)
}

// SendOTP emails a one-time verification code.
func (s *Service) SendOTP(ctx context.Context, to, code string) error {
	if err := validateAddress(to); err != nil {
		return fmt.Errorf("invalid recipient: %w", err)
	}

	body, err := render(otpTmpl, map[string]string{"Code": code})
	if err != nil {
		return err
	}
	return s.send(ctx, to, "Your OTP Code", body)
}

func (s *Service) send(ctx context.Context, to, subject, htmlBody string) error {
	if !s.enabled {
		s.logger.Info().
			Str("to", to).
			Str("subject", subject).
			Msg("email disabled, skipping send")
		return nil
	}

	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{to},
		Subject: subject,
		Html:    htmlBody,
	}

	sent, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("resend API error: %w", err)
	}

	s.logger.Info().
		Str("email_id", sent.Id).
		Str("to", to).
		Str("subject", subject).
		Msg("email sent")
	return nil
}

func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render email template: %w", err)
	}
	return buf.String(), nil
}

func validateAddress(address string) error {
	parsed, err := mail.ParseAddress(address)
	if err != nil {
		return fmt.Errorf("invalid email format: %w", err)
	}
	if strings.ContainsAny(parsed.Address, "\r\n") {
		return fmt.Errorf("address contains newline characters")
	}
	return nil
}

// validateLink rejects non-HTTP(S) schemes so a poisoned frontend URL cannot
// smuggle javascript: links into invitation mail.
func validateLink(link string) error {
	parsed, err := url.Parse(link)
	if err != nil {
		return err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}
