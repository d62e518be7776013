package compliance

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/SLC-Network/token_layer/internal/app/domain/token"
	"github.com/SLC-Network/token_layer/internal/app/events"
	"github.com/SLC-Network/token_layer/internal/app/services/accessctl"
	"github.com/SLC-Network/token_layer/internal/app/storage/memory"
)

var (
	admin    = common.HexToAddress("0x00000000000000000000000000000000000000ad")
	pauser   = common.HexToAddress("0x000000000000000000000000000000000000000e")
	blocker  = common.HexToAddress("0x000000000000000000000000000000000000000f")
	suspect  = common.HexToAddress("0x0000000000000000000000000000000000000bad")
	bystand  = common.HexToAddress("0x000000000000000000000000000000000000beef")
)

func newService(t *testing.T) (*Service, *events.Bus) {
	t.Helper()
	ctx := context.Background()
	store := memory.New()
	if _, err := store.GrantRole(ctx, token.RoleDefaultAdmin, admin); err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	bus := events.NewBus()
	access := accessctl.New(store, bus, nil)
	if err := access.Grant(ctx, admin, token.RolePauser, pauser); err != nil {
		t.Fatalf("grant pauser: %v", err)
	}
	if err := access.Grant(ctx, admin, token.RoleBlocklister, blocker); err != nil {
		t.Fatalf("grant blocklister: %v", err)
	}
	return New(store, access, bus, nil), bus
}

func TestPauseUnpause(t *testing.T) {
	ctx := context.Background()
	svc, bus := newService(t)

	var pausedEvents, unpausedEvents int
	bus.Subscribe(token.TopicPaused, func(events.Event) { pausedEvents++ })
	bus.Subscribe(token.TopicUnpaused, func(events.Event) { unpausedEvents++ })

	err := svc.Pause(ctx, suspect)
	if !token.IsCode(err, token.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}

	if err := svc.Pause(ctx, pauser); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if err := svc.Pause(ctx, pauser); err != nil {
		t.Fatalf("repeat pause: %v", err)
	}
	if pausedEvents != 1 {
		t.Fatalf("expected one paused event, got %d", pausedEvents)
	}

	if err := svc.EnsureActive(ctx); !token.IsCode(err, token.CodePaused) {
		t.Fatalf("expected paused, got %v", err)
	}

	if err := svc.Unpause(ctx, pauser); err != nil {
		t.Fatalf("unpause: %v", err)
	}
	if unpausedEvents != 1 {
		t.Fatalf("expected one unpaused event, got %d", unpausedEvents)
	}
	if err := svc.EnsureActive(ctx); err != nil {
		t.Fatalf("expected active ledger, got %v", err)
	}
}

func TestBlockUnblock(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	err := svc.Block(ctx, suspect, bystand)
	if !token.IsCode(err, token.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}

	if err := svc.Block(ctx, blocker, suspect); err != nil {
		t.Fatalf("block: %v", err)
	}
	err = svc.Block(ctx, blocker, suspect)
	if !token.IsCode(err, token.CodeAlreadyBlocked) {
		t.Fatalf("expected already blocked, got %v", err)
	}

	err = svc.EnsureUnblocked(ctx, bystand, suspect)
	if !token.IsCode(err, token.CodeFrozen) {
		t.Fatalf("expected frozen, got %v", err)
	}

	if err := svc.Unblock(ctx, blocker, suspect); err != nil {
		t.Fatalf("unblock: %v", err)
	}
	err = svc.Unblock(ctx, blocker, suspect)
	if !token.IsCode(err, token.CodeNotBlocked) {
		t.Fatalf("expected not blocked, got %v", err)
	}
	if err := svc.EnsureUnblocked(ctx, bystand, suspect); err != nil {
		t.Fatalf("expected unblocked accounts, got %v", err)
	}
}

func TestBlockZeroAddress(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	err := svc.Block(ctx, blocker, common.Address{})
	if !token.IsCode(err, token.CodeZeroAddress) {
		t.Fatalf("expected zero address, got %v", err)
	}
}
