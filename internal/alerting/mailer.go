package alerting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	mail "github.com/wneessen/go-mail"
)

// EmailOptions parameterises the SMTP notifier.
type EmailOptions struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       []string
	Timeout  time.Duration
}

// EmailNotifier delivers alerts as plain-text email over SMTP with mandatory
// STARTTLS.
type EmailNotifier struct {
	opts   EmailOptions
	client *mail.Client
	logger zerolog.Logger
}

var _ Notifier = (*EmailNotifier)(nil)

// NewEmailNotifier builds the SMTP notifier. The connection is dialed per
// delivery, not here, so construction only validates the options.
func NewEmailNotifier(opts EmailOptions, logger zerolog.Logger) (*EmailNotifier, error) {
	if opts.Host == "" {
		return nil, errors.New("smtp host not configured")
	}
	if opts.From == "" {
		return nil, errors.New("sender address not configured")
	}
	if len(opts.To) == 0 {
		return nil, errors.New("at least one recipient required")
	}

	port := opts.Port
	if port <= 0 {
		port = 587
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	clientOpts := []mail.Option{
		mail.WithPort(port),
		mail.WithTLSPolicy(mail.TLSMandatory),
		mail.WithTimeout(timeout),
	}
	if opts.Username != "" {
		clientOpts = append(clientOpts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(opts.Username),
			mail.WithPassword(opts.Password),
		)
	}

	client, err := mail.NewClient(opts.Host, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}

	return &EmailNotifier{
		opts:   opts,
		client: client,
		logger: logger.With().Str("component", "alert_email").Logger(),
	}, nil
}

// Notify renders the alert and sends it to every configured recipient.
func (n *EmailNotifier) Notify(ctx context.Context, note Notification) error {
	msg := mail.NewMsg()
	if err := msg.From(n.opts.From); err != nil {
		return fmt.Errorf("set sender: %w", err)
	}
	if err := msg.To(n.opts.To...); err != nil {
		return fmt.Errorf("set recipients: %w", err)
	}
	msg.Subject(renderSubject(note))
	msg.SetBodyString(mail.TypeTextPlain, renderBody(note))

	if err := n.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send alert email: %w", err)
	}

	n.logger.Info().
		Str("type", string(note.Alert.Type)).
		Str("severity", string(note.Alert.Severity)).
		Int("recipients", len(n.opts.To)).
		Msg("alert email sent")
	return nil
}
