package notify

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"

	"github.com/retreat-admin/backend/config"
)

// NewDispatcher picks the receipt transport from config: Gmail when a refresh token is set, then the
// EmailJS relay, otherwise NopDispatcher. Real transports are wrapped in a RetryingDispatcher.
func NewDispatcher(ctx context.Context, gcfg config.GoogleConfig, ecfg config.EmailConfig, logger *zap.Logger) (Dispatcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var next Dispatcher
	switch {
	case gcfg.GmailRefreshToken != "" && gcfg.ClientID != "":
		oauthCfg := &oauth2.Config{
			ClientID:     gcfg.ClientID,
			ClientSecret: gcfg.ClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{gmail.GmailSendScope},
		}
		sender, err := NewGmailSender(ctx, oauthCfg, gcfg.GmailRefreshToken, gcfg.GmailFrom)
		if err != nil {
			return nil, err
		}
		logger.Info("receipts via gmail", zap.String("from", gcfg.GmailFrom))
		next = sender
	case ecfg.ServiceID != "" && ecfg.TemplateID != "":
		next = NewEmailJSClient(EmailJSConfig{
			Endpoint:   ecfg.RelayURL,
			ServiceID:  ecfg.ServiceID,
			TemplateID: ecfg.TemplateID,
			PublicKey:  ecfg.PublicKey,
			PrivateKey: ecfg.PrivateKey,
			Timeout:    time.Duration(ecfg.RequestTimeoutSec) * time.Second,
		}, nil)
		logger.Info("receipts via relay", zap.String("endpoint", ecfg.RelayURL))
	default:
		logger.Warn("no receipt transport configured, receipts are logged only")
		return NopDispatcher{Logger: logger}, nil
	}
	return NewRetryingDispatcher(next, ecfg.MaxAttempts, time.Duration(ecfg.InitialBackoffMS)*time.Millisecond, logger), nil
}
