// Package seed creates the first administrator so a fresh install can log in.
package seed

import (
	"context"
	"errors"
	"strings"

	authdomain "github.com/smallbiznis/pharmapos/internal/auth/domain"
	"github.com/smallbiznis/pharmapos/internal/config"
	"go.uber.org/zap"
)

// EnsureAdmin creates an admin from the bootstrap settings when no user
// exists yet. It reports whether a user was created.
func EnsureAdmin(ctx context.Context, log *zap.Logger, users authdomain.Repository, svc authdomain.Service, cfg config.BootstrapConfig) (bool, error) {
	if users == nil || svc == nil {
		return false, errors.New("seed requires the auth repository and service")
	}
	if strings.TrimSpace(cfg.AdminEmail) == "" || cfg.AdminPassword == "" {
		return false, nil
	}

	count, err := users.Count(ctx)
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	user, err := svc.CreateUser(ctx, authdomain.CreateUserRequest{
		Name:     cfg.AdminName,
		Email:    cfg.AdminEmail,
		Password: cfg.AdminPassword,
		Role:     string(authdomain.RoleAdmin),
	})
	if errors.Is(err, authdomain.ErrUserExists) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if log != nil {
		log.Info("bootstrap admin created", zap.String("user_id", user.ID.String()), zap.String("email", user.Email))
	}
	return true, nil
}
