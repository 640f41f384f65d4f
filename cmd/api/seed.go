package main

import (
	"context"

	"foodshare/internal/domain/entity"
	"foodshare/internal/domain/repository"
	"foodshare/pkg/logger"
)

// seedDemoUsers gives an in-memory development server accounts to mint dev tokens for.
func seedDemoUsers(ctx context.Context, users repository.UserRepository) {
	demo := []*entity.User{
		{ID: "demo-donor", Name: "Demo Donor", Email: "donor@foodshare.local", Role: entity.RoleDonor},
		{ID: "demo-buyer", Name: "Demo Buyer", Email: "buyer@foodshare.local", Role: entity.RoleBuyer},
		{ID: "demo-ngo", Name: "Demo NGO", Email: "ngo@foodshare.local", Role: entity.RoleNGO},
		{ID: "demo-admin", Name: "Demo Admin", Email: "admin@foodshare.local", Role: entity.RoleAdmin},
	}

	for _, user := range demo {
		if err := users.Create(ctx, user); err != nil {
			logger.Warn().Err(err).Str("user", user.ID).Msg("failed to seed demo user")
			continue
		}
		logger.Debug().Str("user", user.ID).Str("role", user.Role).Msg("seeded demo user")
	}
}
