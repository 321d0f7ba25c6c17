package auth

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retreat-admin/backend/internal/invitations"
	"github.com/retreat-admin/backend/internal/models"
	"github.com/retreat-admin/backend/pkg/utils"
)

type memAccounts struct {
	mu       sync.Mutex
	accounts []*models.StaffAccount
	err      error
}

func (m *memAccounts) GetByIdentifier(_ context.Context, identifier string) (*models.StaffAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, a := range m.accounts {
		if a.AuthMethod == models.AuthMethodPassword && a.EmailOrPhone == identifier {
			return a, nil
		}
	}
	return nil, ErrAccountNotFound
}

func (m *memAccounts) GetByGoogleEmail(_ context.Context, email string) (*models.StaffAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, a := range m.accounts {
		if a.AuthMethod == models.AuthMethodGoogle && strings.EqualFold(a.GoogleEmail, email) {
			return a, nil
		}
	}
	return nil, ErrAccountNotFound
}

func (m *memAccounts) Create(_ context.Context, a *models.StaffAccount) (*models.StaffAccount, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	cp.ID = uuid.New()
	cp.CreatedAt = time.Now()
	m.accounts = append(m.accounts, &cp)
	return &cp, nil
}

type staticVerifier struct {
	ident *Identity
	err   error
}

func (v staticVerifier) Verify(context.Context, Assertion) (*Identity, error) {
	return v.ident, v.err
}

type memConsumed struct {
	used map[string]bool
}

func (m *memConsumed) Consume(_ context.Context, g *invitations.Grant) error {
	if m.used[g.ID] {
		return invitations.ErrInvitationConsumed
	}
	m.used[g.ID] = true
	return nil
}

func (m *memConsumed) Release(_ context.Context, id string) error {
	delete(m.used, id)
	return nil
}

func passwordAccount(t *testing.T, identifier, password string) *models.StaffAccount {
	t.Helper()
	hash, err := utils.HashPassword(password)
	require.NoError(t, err)
	return &models.StaffAccount{
		ID:           uuid.New(),
		AuthMethod:   models.AuthMethodPassword,
		EmailOrPhone: identifier,
		PasswordHash: hash,
		Role:         models.RoleOperator,
		Permissions:  []string{models.ModuleUsers},
	}
}

type gateFixture struct {
	gate     *Gate
	accounts *memAccounts
	issuer   *invitations.Issuer
	consumed *memConsumed
	tokens   *JWTService
}

func newGateFixture(verifier IdentityVerifier, accounts ...*models.StaffAccount) *gateFixture {
	f := &gateFixture{
		accounts: &memAccounts{accounts: accounts},
		issuer:   invitations.NewIssuer("invite-secret", time.Hour, "https://admin.example.com/accept"),
		consumed: &memConsumed{used: map[string]bool{}},
		tokens:   NewJWTService("session-secret", 1),
	}
	f.gate = NewGate(f.accounts, f.tokens, verifier, f.issuer, f.consumed, time.Second, nil)
	return f
}

func TestAuthenticate(t *testing.T) {
	acct := passwordAccount(t, "+971500000000", "s3cret")
	f := newGateFixture(nil, acct)

	s, err := f.gate.Authenticate(context.Background(), " +971500000000 ", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, acct.ID, s.Account.ID)

	claims, err := f.tokens.Validate(s.Token)
	require.NoError(t, err)
	assert.Equal(t, models.RoleOperator, claims.Role)
	assert.Equal(t, []string{models.ModuleUsers}, claims.Permissions)
	assert.Equal(t, "+971500000000", claims.Identifier)

	_, err = f.gate.Authenticate(context.Background(), "+971500000000", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.gate.Authenticate(context.Background(), "nobody", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.gate.Authenticate(context.Background(), "", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateStoreFailure(t *testing.T) {
	f := newGateFixture(nil)
	f.accounts.err = errors.New("connection refused")

	_, err := f.gate.Authenticate(context.Background(), "a@b.com", "x")
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestAuthenticateFederated(t *testing.T) {
	google := &models.StaffAccount{
		ID:          uuid.New(),
		AuthMethod:  models.AuthMethodGoogle,
		GoogleEmail: "Volunteer.Lead@gmail.com",
		Role:        models.RoleStaff,
		Permissions: []string{models.ModuleAttendance},
	}

	f := newGateFixture(staticVerifier{ident: &Identity{Email: "volunteer.lead@gmail.com"}}, google)
	s, err := f.gate.AuthenticateFederated(context.Background(), Assertion{IDToken: "tok"})
	require.NoError(t, err)
	assert.Equal(t, google.ID, s.Account.ID)

	f = newGateFixture(staticVerifier{ident: &Identity{Email: "stranger@gmail.com"}}, google)
	_, err = f.gate.AuthenticateFederated(context.Background(), Assertion{IDToken: "tok"})
	assert.ErrorIs(t, err, ErrNotAuthorized)

	f = newGateFixture(staticVerifier{err: ErrUnverifiedIdentity}, google)
	_, err = f.gate.AuthenticateFederated(context.Background(), Assertion{IDToken: "tok"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	f = newGateFixture(nil, google)
	_, err = f.gate.AuthenticateFederated(context.Background(), Assertion{IDToken: "tok"})
	assert.ErrorIs(t, err, ErrFederatedDisabled)
}

func TestAcceptInvitationEmailMismatchWritesNothing(t *testing.T) {
	f := newGateFixture(staticVerifier{ident: &Identity{Email: "c@d.com"}})
	link, _, err := f.issuer.Issue("a@b.com", models.RoleOperator, []string{"users"})
	require.NoError(t, err)

	_, err = f.gate.AcceptInvitation(context.Background(), link, Assertion{IDToken: "tok"})
	assert.ErrorIs(t, err, ErrEmailMismatch)
	assert.Empty(t, f.accounts.accounts)
	assert.Empty(t, f.consumed.used)
}

func TestAcceptInvitationCreatesAccountOnce(t *testing.T) {
	f := newGateFixture(staticVerifier{ident: &Identity{Email: "A@B.com", Subject: "g-123", DisplayName: "Anna"}})
	link, _, err := f.issuer.Issue("a@b.com", models.RoleOperator, []string{"users"})
	require.NoError(t, err)

	s, err := f.gate.AcceptInvitation(context.Background(), link, Assertion{IDToken: "tok"})
	require.NoError(t, err)
	require.Len(t, f.accounts.accounts, 1)
	created := f.accounts.accounts[0]
	assert.Equal(t, models.AuthMethodGoogle, created.AuthMethod)
	assert.Equal(t, "A@B.com", created.GoogleEmail)
	assert.Equal(t, "g-123", created.GoogleUID)
	assert.Equal(t, models.RoleOperator, created.Role)
	assert.Equal(t, []string{"users"}, created.Permissions)
	assert.Equal(t, created.ID, s.Account.ID)

	_, err = f.gate.AcceptInvitation(context.Background(), link, Assertion{IDToken: "tok"})
	assert.ErrorIs(t, err, invitations.ErrInvitationConsumed)
	assert.Len(t, f.accounts.accounts, 1)
}

func TestAcceptInvitationReusesExistingAccount(t *testing.T) {
	existing := &models.StaffAccount{
		ID:          uuid.New(),
		AuthMethod:  models.AuthMethodGoogle,
		GoogleEmail: "a@b.com",
		Role:        models.RoleStaff,
	}
	f := newGateFixture(staticVerifier{ident: &Identity{Email: "a@b.com"}}, existing)
	link, _, err := f.issuer.Issue("a@b.com", models.RoleOperator, nil)
	require.NoError(t, err)

	s, err := f.gate.AcceptInvitation(context.Background(), link, Assertion{IDToken: "tok"})
	require.NoError(t, err)
	assert.Equal(t, existing.ID, s.Account.ID)
	assert.Len(t, f.accounts.accounts, 1)
}

func TestAcceptInvitationRejectsTamperedLink(t *testing.T) {
	f := newGateFixture(staticVerifier{ident: &Identity{Email: "a@b.com"}})
	link, _, err := f.issuer.Issue("a@b.com", models.RoleStaff, nil)
	require.NoError(t, err)

	_, err = f.gate.AcceptInvitation(context.Background(), strings.Replace(link, "role=Staff", "role=Admin", 1), Assertion{IDToken: "tok"})
	assert.ErrorIs(t, err, invitations.ErrInvalidInvitation)
	assert.Empty(t, f.accounts.accounts)
}

func TestSeedAdmin(t *testing.T) {
	store := &memAccounts{}

	created, err := SeedAdmin(context.Background(), store, "admin@example.com", "pw", "Root", nil)
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, models.RoleAdmin, created.Role)
	assert.ElementsMatch(t, models.AllModules(), created.Permissions)
	assert.True(t, utils.CheckPassword("pw", created.PasswordHash))

	again, err := SeedAdmin(context.Background(), store, "admin@example.com", "other", "", nil)
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)
	assert.Len(t, store.accounts, 1)

	none, err := SeedAdmin(context.Background(), store, "", "", "", nil)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestJWTServiceExpiry(t *testing.T) {
	svc := NewJWTService("secret", 1)
	start := time.Now()
	svc.now = func() time.Time { return start }
	s, err := svc.Issue(passwordAccount(t, "x", "y"))
	require.NoError(t, err)

	_, err = svc.Validate(s.Token)
	require.NoError(t, err)

	svc.now = func() time.Time { return start.Add(2 * time.Hour) }
	_, err = svc.Validate(s.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSessionRejectsInvitationToken(t *testing.T) {
	issuer := invitations.NewIssuer("shared", time.Hour, "https://admin.example.com/accept")
	link, _, err := issuer.Issue("victim@b.com", models.RoleAdmin, []string{models.ModuleUsers})
	require.NoError(t, err)
	u, err := url.Parse(link)
	require.NoError(t, err)

	_, err = NewJWTService("shared", 12).Validate(u.Query().Get("token"))
	assert.ErrorIs(t, err, ErrInvalidToken)

	s, err := NewJWTService("shared", 12).Issue(passwordAccount(t, "desk", "pw"))
	require.NoError(t, err)
	_, err = issuer.Decode(s.Token)
	assert.ErrorIs(t, err, invitations.ErrInvalidInvitation)
}

func TestIdentityFromClaims(t *testing.T) {
	id, err := identityFromClaims("sub", map[string]interface{}{"email": "a@b.com", "email_verified": true, "name": "A"})
	require.NoError(t, err)
	assert.Equal(t, "A", id.DisplayName)

	_, err = identityFromClaims("sub", map[string]interface{}{"email": "a@b.com", "email_verified": false})
	assert.ErrorIs(t, err, ErrUnverifiedIdentity)
}
