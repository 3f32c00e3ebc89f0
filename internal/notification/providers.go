package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/smtp"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/bihar-gov/sevalink/internal/shared/config"
)

// Provider delivers a notification over one channel
type Provider interface {
	Send(ctx context.Context, n *Notification) error
}

// SMTPEmailProvider sends email through a plain SMTP relay
type SMTPEmailProvider struct {
	addr     string
	auth     smtp.Auth
	fromName string
	fromAddr string
}

// NewSMTPEmailProvider creates an email provider from notify config
func NewSMTPEmailProvider(cfg config.NotifyConfig) *SMTPEmailProvider {
	var auth smtp.Auth
	if cfg.SMTPUser != "" {
		auth = smtp.PlainAuth("", cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPHost)
	}

	return &SMTPEmailProvider{
		addr:     fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
		auth:     auth,
		fromName: cfg.FromName,
		fromAddr: cfg.FromAddr,
	}
}

// Send sends one email. The context deadline is not honored below the
// dial because net/smtp offers no hook for it; the worker pool keeps
// slow sends off the request path.
func (p *SMTPEmailProvider) Send(_ context.Context, n *Notification) error {
	if n.Recipient == "" {
		return fmt.Errorf("no recipient email address")
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s <%s>\r\n", p.fromName, p.fromAddr)
	fmt.Fprintf(&msg, "To: %s\r\n", n.Recipient)
	fmt.Fprintf(&msg, "Subject: %s\r\n", n.Subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(n.Body)

	if err := smtp.SendMail(p.addr, p.auth, p.fromAddr, []string{n.Recipient}, msg.Bytes()); err != nil {
		return fmt.Errorf("smtp send failed: %w", err)
	}

	return nil
}

// HTTPSMSProvider sends SMS through an HTTP gateway
type HTTPSMSProvider struct {
	client     *http.Client
	gatewayURL string
	apiKey     string
	sender     string
}

// NewHTTPSMSProvider creates an SMS provider from notify config
func NewHTTPSMSProvider(cfg config.NotifyConfig) *HTTPSMSProvider {
	return &HTTPSMSProvider{
		client:     &http.Client{Timeout: 10 * time.Second},
		gatewayURL: cfg.SMSGatewayURL,
		apiKey:     cfg.SMSAPIKey,
		sender:     cfg.SMSSender,
	}
}

// Send posts one SMS to the gateway
func (p *HTTPSMSProvider) Send(ctx context.Context, n *Notification) error {
	if n.Recipient == "" {
		return fmt.Errorf("no recipient phone number")
	}

	payload, err := json.Marshal(map[string]string{
		"sender":  p.sender,
		"to":      n.Recipient,
		"message": n.Body,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal sms payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.gatewayURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("sms gateway unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("sms gateway returned %d", resp.StatusCode)
	}

	return nil
}

// ConsoleProvider logs notifications instead of delivering them. Used
// in local development where no SMTP relay or SMS gateway exists.
type ConsoleProvider struct {
	channel Channel
}

// NewConsoleProvider creates a console logging provider
func NewConsoleProvider(channel Channel) *ConsoleProvider {
	return &ConsoleProvider{channel: channel}
}

// Send logs the notification
func (p *ConsoleProvider) Send(_ context.Context, n *Notification) error {
	logrus.WithFields(logrus.Fields{
		"channel":   p.channel,
		"recipient": n.Recipient,
		"complaint": n.ComplaintID,
		"subject":   n.Subject,
	}).Info("notification (console delivery)")
	return nil
}

// MockProvider records sends for tests
type MockProvider struct {
	mu         sync.Mutex
	sent       []*Notification
	failOnSend bool
}

// NewMockProvider creates a mock provider
func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

// Send records the notification, or fails when configured to
func (p *MockProvider) Send(_ context.Context, n *Notification) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.failOnSend {
		return fmt.Errorf("mock send failure")
	}

	p.sent = append(p.sent, n)
	return nil
}

// SetFailOnSend sets whether Send should fail
func (p *MockProvider) SetFailOnSend(fail bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failOnSend = fail
}

// Sent returns a copy of recorded notifications
func (p *MockProvider) Sent() []*Notification {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]*Notification, len(p.sent))
	copy(out, p.sent)
	return out
}
