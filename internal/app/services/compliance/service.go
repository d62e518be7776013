// Package compliance implements the pause switch and the account blocklist.
// Blocking freezes an account entirely: it can neither send nor receive,
// and its balance cannot be burned.
package compliance

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/SLC-Network/token_layer/internal/app/domain/token"
	"github.com/SLC-Network/token_layer/internal/app/events"
	"github.com/SLC-Network/token_layer/internal/app/services/accessctl"
	"github.com/SLC-Network/token_layer/internal/app/storage"
	"github.com/SLC-Network/token_layer/pkg/logger"
)

// Service manages the pause flag and per-account block flags.
type Service struct {
	store  storage.ComplianceStore
	access *accessctl.Service
	bus    *events.Bus
	log    *logger.Logger
}

// New creates a compliance service.
func New(store storage.ComplianceStore, access *accessctl.Service, bus *events.Bus, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("compliance")
	}
	return &Service{store: store, access: access, bus: bus, log: log}
}

// Pause halts every balance-mutating operation. Requires the pauser role.
// Pausing an already-paused ledger is a no-op.
func (s *Service) Pause(ctx context.Context, actor common.Address) error {
	if err := s.access.RequireRole(ctx, token.RolePauser, actor); err != nil {
		return err
	}
	paused, err := s.store.Paused(ctx)
	if err != nil {
		return err
	}
	if paused {
		return nil
	}
	if err := s.store.SetPaused(ctx, true); err != nil {
		return err
	}
	s.log.WithField("actor", actor.Hex()).Warn("ledger paused")
	s.bus.Publish(token.TopicPaused, "compliance", token.ComplianceEvent{Actor: actor})
	return nil
}

// Unpause resumes operations. Requires the pauser role.
func (s *Service) Unpause(ctx context.Context, actor common.Address) error {
	if err := s.access.RequireRole(ctx, token.RolePauser, actor); err != nil {
		return err
	}
	paused, err := s.store.Paused(ctx)
	if err != nil {
		return err
	}
	if !paused {
		return nil
	}
	if err := s.store.SetPaused(ctx, false); err != nil {
		return err
	}
	s.log.WithField("actor", actor.Hex()).Info("ledger unpaused")
	s.bus.Publish(token.TopicUnpaused, "compliance", token.ComplianceEvent{Actor: actor})
	return nil
}

// Paused reports whether the ledger is paused.
func (s *Service) Paused(ctx context.Context) (bool, error) {
	return s.store.Paused(ctx)
}

// Block freezes an account. Requires the blocklister role. Blocking an
// already-blocked account fails with AlreadyBlocked.
func (s *Service) Block(ctx context.Context, actor, account common.Address) error {
	if err := s.access.RequireRole(ctx, token.RoleBlocklister, actor); err != nil {
		return err
	}
	if account == (common.Address{}) {
		return token.ZeroAddress("blocked account")
	}
	if err := s.store.BlockAccount(ctx, account); err != nil {
		return err
	}
	s.log.WithField("actor", actor.Hex()).WithField("account", account.Hex()).Warn("account blocked")
	s.bus.Publish(token.TopicAccountBlocked, "compliance", token.ComplianceEvent{
		Account: account,
		Actor:   actor,
	})
	return nil
}

// Unblock unfreezes an account. Requires the blocklister role. Unblocking an
// unblocked account fails with NotBlocked.
func (s *Service) Unblock(ctx context.Context, actor, account common.Address) error {
	if err := s.access.RequireRole(ctx, token.RoleBlocklister, actor); err != nil {
		return err
	}
	if err := s.store.UnblockAccount(ctx, account); err != nil {
		return err
	}
	s.log.WithField("actor", actor.Hex()).WithField("account", account.Hex()).Info("account unblocked")
	s.bus.Publish(token.TopicAccountUnblocked, "compliance", token.ComplianceEvent{
		Account: account,
		Actor:   actor,
	})
	return nil
}

// IsBlocked reports whether account is frozen.
func (s *Service) IsBlocked(ctx context.Context, account common.Address) (bool, error) {
	return s.store.IsBlocked(ctx, account)
}

// EnsureActive fails with Paused while the ledger is paused.
func (s *Service) EnsureActive(ctx context.Context) error {
	paused, err := s.store.Paused(ctx)
	if err != nil {
		return err
	}
	if paused {
		return token.PausedErr()
	}
	return nil
}

// EnsureUnblocked fails with Frozen if any of the accounts is blocked.
func (s *Service) EnsureUnblocked(ctx context.Context, accounts ...common.Address) error {
	for _, account := range accounts {
		blocked, err := s.store.IsBlocked(ctx, account)
		if err != nil {
			return err
		}
		if blocked {
			return token.FrozenErr(account.Hex())
		}
	}
	return nil
}
