package model

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"fileharbor/internal/auth"
	"fileharbor/internal/config"
	"fileharbor/internal/entity"
	"fileharbor/internal/rbac"
)

// SeedOwnerAccount ensures a bootstrap owner account exists when the
// configuration provides one. An already-present account (by email) is left
// untouched so repeated startups stay idempotent.
func SeedOwnerAccount(ctx context.Context, repo Repository, cfg config.Config) error {
	if repo == nil {
		return nil
	}

	email := strings.ToLower(strings.TrimSpace(cfg.SeedOwnerEmail))
	password := strings.TrimSpace(cfg.SeedOwnerPassword)
	if email == "" || password == "" {
		return nil
	}

	_, err := repo.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		// fall through and create
	default:
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	username := strings.TrimSpace(cfg.SeedOwnerUsername)
	if username == "" {
		username = "owner"
	}

	owner := &entity.DbUser{
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		DisplayName:  "Owner",
		Role:         string(rbac.RoleOwner),
		IsActive:     true,
	}
	return repo.CreateUser(ctx, owner)
}
