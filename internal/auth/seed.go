package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/retreat-admin/backend/internal/models"
	"github.com/retreat-admin/backend/pkg/utils"
)

// SeedStore is the subset of account persistence SeedAdmin needs.
type SeedStore interface {
	GetByIdentifier(ctx context.Context, identifier string) (*models.StaffAccount, error)
	Create(ctx context.Context, a *models.StaffAccount) (*models.StaffAccount, error)
}

// SeedAdmin ensures a password Admin account exists for identifier. An empty identifier is a no-op.
// An existing account is left untouched.
func SeedAdmin(ctx context.Context, store SeedStore, identifier, password, displayName string, logger *zap.Logger) (*models.StaffAccount, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, nil
	}
	existing, err := store.GetByIdentifier(ctx, identifier)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrAccountNotFound) {
		return nil, fmt.Errorf("lookup bootstrap admin: %w", err)
	}
	if password == "" {
		return nil, models.ErrMissingPassword
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash bootstrap password: %w", err)
	}
	created, err := store.Create(ctx, &models.StaffAccount{
		AuthMethod:   models.AuthMethodPassword,
		EmailOrPhone: identifier,
		PasswordHash: hash,
		DisplayName:  displayName,
		Role:         models.RoleAdmin,
		Permissions:  models.AllModules(),
	})
	if err != nil {
		return nil, fmt.Errorf("create bootstrap admin: %w", err)
	}
	logger.Info("bootstrap admin created", zap.String("identifier", identifier))
	return created, nil
}
