// Package accessctl implements role-based access control for the token.
// Role membership is many-to-many; the default admin role gates every
// grant and revoke, including of itself.
package accessctl

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/SLC-Network/token_layer/internal/app/domain/token"
	"github.com/SLC-Network/token_layer/internal/app/events"
	"github.com/SLC-Network/token_layer/internal/app/storage"
	"github.com/SLC-Network/token_layer/pkg/logger"
)

// Service manages role membership.
type Service struct {
	roles storage.RoleStore
	bus   *events.Bus
	log   *logger.Logger
}

// New creates an access control service backed by the provided role store.
func New(roles storage.RoleStore, bus *events.Bus, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("accessctl")
	}
	return &Service{roles: roles, bus: bus, log: log}
}

// Grant adds account to role. Only default admins may grant. Granting a role
// the account already holds succeeds without emitting an event.
func (s *Service) Grant(ctx context.Context, actor common.Address, role token.Role, account common.Address) error {
	if !token.ValidRole(role) {
		return token.InvalidArgument("unknown role %q", role)
	}
	if account == (common.Address{}) {
		return token.ZeroAddress("role account")
	}
	if err := s.RequireRole(ctx, token.RoleDefaultAdmin, actor); err != nil {
		return err
	}

	changed, err := s.roles.GrantRole(ctx, role, account)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	s.log.WithField("role", string(role)).WithField("account", account.Hex()).Info("role granted")
	s.bus.Publish(token.TopicRoleGranted, "accessctl", token.RoleEvent{
		Role:    role,
		Account: account,
		Admin:   actor,
	})
	return nil
}

// Revoke removes account from role. Only default admins may revoke. Revoking
// a role the account does not hold succeeds without emitting an event.
func (s *Service) Revoke(ctx context.Context, actor common.Address, role token.Role, account common.Address) error {
	if !token.ValidRole(role) {
		return token.InvalidArgument("unknown role %q", role)
	}
	if err := s.RequireRole(ctx, token.RoleDefaultAdmin, actor); err != nil {
		return err
	}

	changed, err := s.roles.RevokeRole(ctx, role, account)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	s.log.WithField("role", string(role)).WithField("account", account.Hex()).Info("role revoked")
	s.bus.Publish(token.TopicRoleRevoked, "accessctl", token.RoleEvent{
		Role:    role,
		Account: account,
		Admin:   actor,
	})
	return nil
}

// Has reports whether account holds role.
func (s *Service) Has(ctx context.Context, role token.Role, account common.Address) (bool, error) {
	return s.roles.HasRole(ctx, role, account)
}

// Holders lists every account holding role.
func (s *Service) Holders(ctx context.Context, role token.Role) ([]common.Address, error) {
	if !token.ValidRole(role) {
		return nil, token.InvalidArgument("unknown role %q", role)
	}
	return s.roles.ListRoleHolders(ctx, role)
}

// RequireRole returns Unauthorized unless account holds role. Other services
// use it as their permission gate.
func (s *Service) RequireRole(ctx context.Context, role token.Role, account common.Address) error {
	ok, err := s.roles.HasRole(ctx, role, account)
	if err != nil {
		return err
	}
	if !ok {
		return token.Unauthorized("account %s is missing role %s", account.Hex(), role)
	}
	return nil
}
