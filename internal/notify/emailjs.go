package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"
)

// EmailJSConfig configures the templated relay.
type EmailJSConfig struct {
	Endpoint   string
	ServiceID  string
	TemplateID string
	PublicKey  string
	PrivateKey string
	Timeout    time.Duration
}

// EmailJSClient posts receipts to an EmailJS-compatible REST relay.
type EmailJSClient struct {
	cfg        EmailJSConfig
	httpClient *http.Client
}

type emailJSRequest struct {
	ServiceID      string            `json:"service_id"`
	TemplateID     string            `json:"template_id"`
	UserID         string            `json:"user_id"`
	AccessToken    string            `json:"accessToken,omitempty"`
	TemplateParams map[string]string `json:"template_params"`
}

// NewEmailJSClient creates a relay client. A nil httpClient gets one with cfg.Timeout.
func NewEmailJSClient(cfg EmailJSConfig, httpClient *http.Client) *EmailJSClient {
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &EmailJSClient{cfg: cfg, httpClient: httpClient}
}

// TemplateParams returns the relay template fields for r.
func TemplateParams(r Receipt) map[string]string {
	return map[string]string{
		"to_email":   r.ToEmail,
		"to_name":    r.ToName,
		"amount":     r.AmountText(),
		"receipt_id": r.ReceiptID,
		"date":       r.DateText(),
	}
}

// SendPaymentReceipt implements Dispatcher.
func (c *EmailJSClient) SendPaymentReceipt(ctx context.Context, r Receipt) error {
	body, err := json.Marshal(emailJSRequest{
		ServiceID:      c.cfg.ServiceID,
		TemplateID:     c.cfg.TemplateID,
		UserID:         c.cfg.PublicKey,
		AccessToken:    c.cfg.PrivateKey,
		TemplateParams: TemplateParams(r),
	})
	if err != nil {
		return failure("marshal request: %v", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return failure("create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return failure("relay request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Code: resp.StatusCode, Message: strings.TrimSpace(string(msg))}
	}
	return nil
}

// StatusError is a non-2xx relay response.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return ErrNotificationFailure.Error() + ": relay status " + http.StatusText(e.Code) + ": " + e.Message
}

// Unwrap makes errors.Is(err, ErrNotificationFailure) hold.
func (e *StatusError) Unwrap() error { return ErrNotificationFailure }

// Temporary reports whether retrying may help.
func (e *StatusError) Temporary() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}
