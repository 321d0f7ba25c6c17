package notify

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

const gmailSendInterval = time.Second

// GmailSender sends receipts from a Google Workspace mailbox through the Gmail API.
type GmailSender struct {
	service  *gmail.Service
	from     string
	subject  string
	mu       sync.Mutex
	lastSend time.Time
}

// NewGmailSender creates a sender authorised with a stored refresh token.
func NewGmailSender(ctx context.Context, oauthCfg *oauth2.Config, refreshToken, from string) (*GmailSender, error) {
	httpClient := oauthCfg.Client(ctx, &oauth2.Token{RefreshToken: refreshToken})
	service, err := gmail.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail service: %w", err)
	}
	return &GmailSender{service: service, from: from, subject: "Payment receipt"}, nil
}

// SendPaymentReceipt implements Dispatcher. Sends are spaced to stay under Gmail rate limits.
func (s *GmailSender) SendPaymentReceipt(ctx context.Context, r Receipt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if wait := gmailSendInterval - time.Since(s.lastSend); wait > 0 {
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return failure("%v", ctx.Err())
		}
	}

	raw := base64.URLEncoding.EncodeToString([]byte(BuildReceiptMessage(s.from, s.subject, r)))
	_, err := s.service.Users.Messages.Send("me", &gmail.Message{Raw: raw}).Context(ctx).Do()
	s.lastSend = time.Now()
	if err != nil {
		return failure("gmail send: %v", err)
	}
	return nil
}

// BuildReceiptMessage renders an RFC 822 plain-text receipt.
func BuildReceiptMessage(from, subject string, r Receipt) string {
	var b strings.Builder
	to := r.ToEmail
	if r.ToName != "" {
		to = mime.QEncoding.Encode("utf-8", r.ToName) + " <" + r.ToEmail + ">"
	}
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject+" "+r.ReceiptID))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n\r\n")
	fmt.Fprintf(&b, "Dear %s,\r\n\r\n", r.ToName)
	fmt.Fprintf(&b, "We have received your payment of %s.\r\n", r.AmountText())
	fmt.Fprintf(&b, "Receipt ID: %s\r\n", r.ReceiptID)
	fmt.Fprintf(&b, "Date: %s\r\n\r\n", r.DateText())
	b.WriteString("Thank you.\r\n")
	return b.String()
}
