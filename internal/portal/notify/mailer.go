package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aussiebroadwan/portal/pkg/retryx"
	"github.com/resend/resend-go/v2"
)

// MailerConfig configures the transactional mail provider.
type MailerConfig struct {
	APIKey  string
	From    string
	Brand   string
	SiteURL string
	// Endpoint overrides the API base URL.
	Endpoint string
	// HTTPClient defaults to a client with a 30 second timeout.
	HTTPClient *http.Client
}

// MailError is a failed send with the HTTP status the provider answered.
type MailError struct {
	StatusCode int
	Message    string
}

func (e *MailError) Error() string {
	return fmt.Sprintf("resend: status %d: %s", e.StatusCode, e.Message)
}

// Mailer sends mail through Resend. A Mailer without an API key can be
// constructed; every send then fails with ErrNotConfigured.
type Mailer struct {
	cfg    MailerConfig
	client *resend.Client
}

var _ Notifier = (*Mailer)(nil)

func NewMailer(cfg MailerConfig) *Mailer {
	if cfg.Brand == "" {
		cfg.Brand = "Portal"
	}
	if cfg.From == "" {
		cfg.From = cfg.Brand + " <onboarding@resend.dev>"
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}
	if cfg.HTTPClient != nil {
		c := *cfg.HTTPClient
		httpClient = &c
	}
	base := httpClient.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	httpClient.Transport = statusTransport{base: base}

	client := resend.NewCustomClient(httpClient, cfg.APIKey)
	if cfg.Endpoint != "" {
		if u, err := url.Parse(strings.TrimSuffix(cfg.Endpoint, "/") + "/"); err == nil {
			client.BaseURL = u
		}
	}
	return &Mailer{cfg: cfg, client: client}
}

// Configured reports whether an API key is present.
func (m *Mailer) Configured() bool { return m.cfg.APIKey != "" }

// SendWelcome mails the welcome message to email and returns the provider's
// message id.
func (m *Mailer) SendWelcome(ctx context.Context, name, email string) (string, error) {
	if !m.Configured() {
		return "", fmt.Errorf("%w: RESEND_API_KEY environment variable is not set", ErrNotConfigured)
	}

	html, err := RenderWelcome(m.cfg.Brand, name, m.cfg.SiteURL)
	if err != nil {
		return "", err
	}

	return m.send(ctx, &resend.SendEmailRequest{
		From:    m.cfg.From,
		To:      []string{email},
		Subject: fmt.Sprintf("Welcome to %s, %s!", m.cfg.Brand, name),
		Html:    html,
	})
}

// NotifyRegistered sends the welcome mail for a new registration.
func (m *Mailer) NotifyRegistered(ctx context.Context, ev Event) error {
	name := ev.FullName()
	if name == "" {
		name = ev.Email
	}
	_, err := m.SendWelcome(ctx, name, ev.Email)
	if errors.Is(err, ErrNotConfigured) {
		return retryx.Permanent(err)
	}
	return err
}

func (m *Mailer) send(ctx context.Context, req *resend.SendEmailRequest) (string, error) {
	status := new(int)
	sent, err := m.client.Emails.SendWithContext(context.WithValue(ctx, statusKey{}, status), req)
	if err != nil {
		if *status == 0 {
			return "", fmt.Errorf("failed to send request to resend: %w", err)
		}
		return "", classifyStatus(*status, &MailError{
			StatusCode: *status,
			Message:    strings.TrimPrefix(err.Error(), "[ERROR]: "),
		})
	}
	return sent.Id, nil
}

type statusKey struct{}

// statusTransport records the response status into the *int carried by the
// request context. The SDK's errors do not carry it.
type statusTransport struct {
	base http.RoundTripper
}

func (t statusTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if rec, ok := req.Context().Value(statusKey{}).(*int); ok && resp != nil {
		*rec = resp.StatusCode
	}
	return resp, err
}

// classifyStatus marks client errors other than 408 and 429 as permanent.
func classifyStatus(status int, err error) error {
	if status >= 400 && status < 500 && status != http.StatusRequestTimeout && status != http.StatusTooManyRequests {
		return retryx.Permanent(err)
	}
	return err
}
