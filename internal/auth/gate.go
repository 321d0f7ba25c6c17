package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/retreat-admin/backend/internal/invitations"
	"github.com/retreat-admin/backend/internal/models"
	"github.com/retreat-admin/backend/pkg/utils"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotAuthorized      = errors.New("account is not authorized for the dashboard")
	ErrEmailMismatch      = errors.New("signed-in email does not match the invitation")
	ErrStoreUnavailable   = errors.New("account store unavailable")
)

// AccountStore is the account persistence the gate reads and writes.
type AccountStore interface {
	GetByIdentifier(ctx context.Context, identifier string) (*models.StaffAccount, error)
	GetByGoogleEmail(ctx context.Context, email string) (*models.StaffAccount, error)
	Create(ctx context.Context, a *models.StaffAccount) (*models.StaffAccount, error)
}

// InvitationDecoder verifies invitation links.
type InvitationDecoder interface {
	Decode(raw string) (*invitations.Grant, error)
}

// InvitationLedger records single use of invitations.
type InvitationLedger interface {
	Consume(ctx context.Context, g *invitations.Grant) error
	Release(ctx context.Context, tokenID string) error
}

// Gate admits staff into the dashboard by password, Google identity or invitation.
type Gate struct {
	accounts      AccountStore
	tokens        *JWTService
	verifier      IdentityVerifier
	invites       InvitationDecoder
	consumed      InvitationLedger
	signInTimeout time.Duration
	logger        *zap.Logger
}

// NewGate creates a credential gate. verifier may be nil when Google sign-in is not configured.
func NewGate(accounts AccountStore, tokens *JWTService, verifier IdentityVerifier, invites InvitationDecoder, consumed InvitationLedger, signInTimeout time.Duration, logger *zap.Logger) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	if signInTimeout <= 0 {
		signInTimeout = 30 * time.Second
	}
	return &Gate{
		accounts:      accounts,
		tokens:        tokens,
		verifier:      verifier,
		invites:       invites,
		consumed:      consumed,
		signInTimeout: signInTimeout,
		logger:        logger,
	}
}

var (
	dummyOnce sync.Once
	dummyHash string
)

// equalizeTiming spends one bcrypt comparison when no account matched.
func equalizeTiming(secret string) {
	dummyOnce.Do(func() {
		dummyHash, _ = utils.HashPassword("no-such-account")
	})
	utils.CheckPassword(secret, dummyHash)
}

// Authenticate signs in a password account.
func (g *Gate) Authenticate(ctx context.Context, identifier, secret string) (*Session, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || secret == "" {
		return nil, ErrInvalidCredentials
	}
	acct, err := g.accounts.GetByIdentifier(ctx, identifier)
	if errors.Is(err, ErrAccountNotFound) {
		equalizeTiming(secret)
		g.failure("password", identifier, ErrInvalidCredentials)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		g.failure("password", identifier, err)
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if acct.AuthMethod != models.AuthMethodPassword || !utils.CheckPassword(secret, acct.PasswordHash) {
		g.failure("password", identifier, ErrInvalidCredentials)
		return nil, ErrInvalidCredentials
	}
	return g.issue(acct)
}

// AuthenticateFederated signs in a pre-authorized Google account.
func (g *Gate) AuthenticateFederated(ctx context.Context, a Assertion) (*Session, error) {
	ident, err := g.verify(ctx, a)
	if err != nil {
		g.failure("google", "", err)
		return nil, err
	}
	acct, err := g.accounts.GetByGoogleEmail(ctx, ident.Email)
	if errors.Is(err, ErrAccountNotFound) {
		g.failure("google", ident.Email, ErrNotAuthorized)
		return nil, ErrNotAuthorized
	}
	if err != nil {
		g.failure("google", ident.Email, err)
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return g.issue(acct)
}

// AcceptInvitation redeems an invitation for the signed-in Google identity.
// Nothing is written unless the identity's email matches the invitation.
func (g *Gate) AcceptInvitation(ctx context.Context, raw string, a Assertion) (*Session, error) {
	grant, err := g.invites.Decode(raw)
	if err != nil {
		g.failure("invitation", "", err)
		return nil, err
	}
	ident, err := g.verify(ctx, a)
	if err != nil {
		g.failure("invitation", grant.Email, err)
		return nil, err
	}
	if !strings.EqualFold(strings.TrimSpace(ident.Email), strings.TrimSpace(grant.Email)) {
		g.failure("invitation", ident.Email, ErrEmailMismatch)
		return nil, ErrEmailMismatch
	}

	if err := g.consumed.Consume(ctx, grant); err != nil {
		g.failure("invitation", ident.Email, err)
		if errors.Is(err, invitations.ErrInvitationConsumed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	acct, err := g.accounts.GetByGoogleEmail(ctx, ident.Email)
	if errors.Is(err, ErrAccountNotFound) {
		acct, err = g.accounts.Create(ctx, &models.StaffAccount{
			AuthMethod:  models.AuthMethodGoogle,
			GoogleEmail: ident.Email,
			GoogleUID:   ident.Subject,
			DisplayName: ident.DisplayName,
			PhotoURL:    ident.PhotoURL,
			Role:        grant.Role,
			Permissions: grant.Permissions,
		})
		if errors.Is(err, ErrAccountExists) {
			acct, err = g.accounts.GetByGoogleEmail(ctx, ident.Email)
		}
	}
	if err != nil {
		if rerr := g.consumed.Release(ctx, grant.ID); rerr != nil {
			g.logger.Warn("release invitation failed", zap.String("token_id", grant.ID), zap.Error(rerr))
		}
		g.failure("invitation", ident.Email, err)
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	g.logger.Info("invitation accepted",
		zap.String("email", ident.Email),
		zap.String("role", string(acct.Role)),
		zap.String("token_id", grant.ID),
	)
	return g.issue(acct)
}

func (g *Gate) verify(ctx context.Context, a Assertion) (*Identity, error) {
	if g.verifier == nil {
		return nil, ErrFederatedDisabled
	}
	ctx, cancel := context.WithTimeout(ctx, g.signInTimeout)
	defer cancel()
	ident, err := g.verifier.Verify(ctx, a)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: sign-in timed out", ErrInvalidCredentials)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}
	return ident, nil
}

func (g *Gate) issue(acct *models.StaffAccount) (*Session, error) {
	s, err := g.tokens.Issue(acct)
	if err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}
	return s, nil
}

func (g *Gate) failure(method, identity string, err error) {
	g.logger.Warn("sign-in rejected",
		zap.String("event", "credential_gate_failure"),
		zap.String("method", method),
		zap.String("identity", identity),
		zap.Error(err),
	)
}
