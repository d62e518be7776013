package ledger

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/SLC-Network/token_layer/internal/app/domain/token"
	"github.com/SLC-Network/token_layer/internal/app/events"
	"github.com/SLC-Network/token_layer/internal/app/services/accessctl"
	"github.com/SLC-Network/token_layer/internal/app/services/compliance"
	"github.com/SLC-Network/token_layer/internal/app/services/fees"
	"github.com/SLC-Network/token_layer/internal/app/storage/memory"
)

var (
	admin     = common.HexToAddress("0x00000000000000000000000000000000000000ad")
	minter    = common.HexToAddress("0x0000000000000000000000000000000000000011")
	burner    = common.HexToAddress("0x0000000000000000000000000000000000000022")
	alice     = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	bob       = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	collector = common.HexToAddress("0x00000000000000000000000000000000000000fe")
)

type fixture struct {
	svc   *Service
	store *memory.Store
	comp  *compliance.Service
	bus   *events.Bus
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.New()
	for holder, role := range map[common.Address]token.Role{
		admin:  token.RoleDefaultAdmin,
		minter: token.RoleMinter,
		burner: token.RoleBurner,
	} {
		if _, err := store.GrantRole(ctx, role, holder); err != nil {
			t.Fatalf("seed role: %v", err)
		}
	}
	if _, err := store.GrantRole(ctx, token.RolePauser, admin); err != nil {
		t.Fatalf("seed pauser: %v", err)
	}
	if _, err := store.GrantRole(ctx, token.RoleBlocklister, admin); err != nil {
		t.Fatalf("seed blocklister: %v", err)
	}
	if err := store.SetFeeConfig(ctx, token.FeeConfig{
		TransferFeeBasisPoints: 100,
		FeeCollector:           collector,
		FixedGasFee:            uint256.NewInt(0),
		GasFeeCollector:        collector,
	}); err != nil {
		t.Fatalf("seed fee config: %v", err)
	}

	bus := events.NewBus()
	access := accessctl.New(store, bus, nil)
	comp := compliance.New(store, access, bus, nil)
	feeSvc := fees.New(store, store, access, comp, bus, nil)
	meta := token.Metadata{Name: "Stable Lori Coin", Symbol: "SLC", Decimals: 8, Version: "1", ChainID: 1}
	return &fixture{
		svc:   New(meta, store, access, comp, feeSvc, bus, nil),
		store: store,
		comp:  comp,
		bus:   bus,
	}
}

func TestMintRequiresRole(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	err := f.svc.Mint(ctx, alice, alice, uint256.NewInt(100))
	if !token.IsCode(err, token.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if err := f.svc.Mint(ctx, minter, alice, uint256.NewInt(100)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	balance, _ := f.svc.BalanceOf(ctx, alice)
	if balance.Uint64() != 100 {
		t.Fatalf("expected 100, got %s", balance.Dec())
	}
}

func TestMintToZeroAddress(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	err := f.svc.Mint(ctx, minter, common.Address{}, uint256.NewInt(100))
	if !token.IsCode(err, token.CodeZeroAddress) {
		t.Fatalf("expected zero address, got %v", err)
	}
}

func TestMintEventCarriesComment(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	var got token.MintEvent
	f.bus.Subscribe(token.TopicMint, func(e events.Event) {
		got = e.Data.(token.MintEvent)
	})
	if err := f.svc.Mint(ctx, minter, alice, uint256.NewInt(42)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if got.Comment != MintComment {
		t.Fatalf("expected comment %q, got %q", MintComment, got.Comment)
	}
	if got.Amount.Uint64() != 42 {
		t.Fatalf("expected amount 42, got %s", got.Amount.Dec())
	}
}

func TestBurnOwnBalance(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	if err := f.svc.Mint(ctx, minter, burner, uint256.NewInt(100)); err != nil {
		t.Fatalf("mint: %v", err)
	}

	if err := f.svc.Burn(ctx, burner, uint256.NewInt(60)); err != nil {
		t.Fatalf("burn: %v", err)
	}
	supply, _ := f.svc.TotalSupply(ctx)
	if supply.Uint64() != 40 {
		t.Fatalf("expected supply 40, got %s", supply.Dec())
	}

	err := f.svc.Burn(ctx, burner, uint256.NewInt(41))
	if !token.IsCode(err, token.CodeInsufficientBalance) {
		t.Fatalf("expected insufficient balance, got %v", err)
	}
}

func TestBurnRejectsFrozenCaller(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	if err := f.svc.Mint(ctx, minter, burner, uint256.NewInt(100)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := f.comp.Block(ctx, admin, burner); err != nil {
		t.Fatalf("block: %v", err)
	}

	err := f.svc.Burn(ctx, burner, uint256.NewInt(10))
	if !token.IsCode(err, token.CodeFrozen) {
		t.Fatalf("expected frozen, got %v", err)
	}
}

func TestTransferSplitsFee(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	if err := f.svc.Mint(ctx, minter, alice, uint256.NewInt(500)); err != nil {
		t.Fatalf("mint: %v", err)
	}

	var got token.TransferEvent
	f.bus.Subscribe(token.TopicTransfer, func(e events.Event) {
		got = e.Data.(token.TransferEvent)
	})

	if err := f.svc.Transfer(ctx, alice, bob, uint256.NewInt(500), "rent"); err != nil {
		t.Fatalf("transfer: %v", err)
	}

	bobBalance, _ := f.svc.BalanceOf(ctx, bob)
	if bobBalance.Uint64() != 495 {
		t.Fatalf("expected bob to receive 495, got %s", bobBalance.Dec())
	}
	collected, _ := f.svc.BalanceOf(ctx, collector)
	if collected.Uint64() != 5 {
		t.Fatalf("expected collector to receive 5, got %s", collected.Dec())
	}
	if got.Fee.Uint64() != 5 || got.Comment != "rent" {
		t.Fatalf("unexpected transfer event: %+v", got)
	}

	// Conservation: supply is untouched by transfers.
	snapshot, _ := f.svc.Snapshot(ctx)
	sum := uint256.NewInt(0)
	for _, balance := range snapshot.Balances {
		sum = new(uint256.Int).Add(sum, balance)
	}
	if !sum.Eq(snapshot.TotalSupply) {
		t.Fatalf("balances sum %s does not match supply %s", sum.Dec(), snapshot.TotalSupply.Dec())
	}
}

func TestTransferWhilePaused(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	if err := f.svc.Mint(ctx, minter, alice, uint256.NewInt(100)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := f.comp.Pause(ctx, admin); err != nil {
		t.Fatalf("pause: %v", err)
	}

	err := f.svc.Transfer(ctx, alice, bob, uint256.NewInt(10), "")
	if !token.IsCode(err, token.CodePaused) {
		t.Fatalf("expected paused, got %v", err)
	}
	// Approvals are not balance movements and still work.
	if err := f.svc.Approve(ctx, alice, bob, uint256.NewInt(10)); err != nil {
		t.Fatalf("approve while paused: %v", err)
	}

	if err := f.comp.Unpause(ctx, admin); err != nil {
		t.Fatalf("unpause: %v", err)
	}
	if err := f.svc.Transfer(ctx, alice, bob, uint256.NewInt(10), ""); err != nil {
		t.Fatalf("transfer after unpause: %v", err)
	}
}

func TestTransferBlockedParties(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	if err := f.svc.Mint(ctx, minter, alice, uint256.NewInt(100)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := f.comp.Block(ctx, admin, bob); err != nil {
		t.Fatalf("block: %v", err)
	}

	err := f.svc.Transfer(ctx, alice, bob, uint256.NewInt(10), "")
	if !token.IsCode(err, token.CodeFrozen) {
		t.Fatalf("expected frozen recipient, got %v", err)
	}
}

func TestTransferFromConsumesAllowance(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	if err := f.svc.Mint(ctx, minter, alice, uint256.NewInt(1000)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := f.svc.Approve(ctx, alice, bob, uint256.NewInt(500)); err != nil {
		t.Fatalf("approve: %v", err)
	}

	if err := f.svc.TransferFrom(ctx, bob, alice, bob, uint256.NewInt(500), ""); err != nil {
		t.Fatalf("transfer from: %v", err)
	}
	remaining, _ := f.svc.Allowance(ctx, alice, bob)
	if !remaining.IsZero() {
		t.Fatalf("expected allowance spent, got %s", remaining.Dec())
	}

	err := f.svc.TransferFrom(ctx, bob, alice, bob, uint256.NewInt(1), "")
	if !token.IsCode(err, token.CodeInsufficientAllowance) {
		t.Fatalf("expected insufficient allowance, got %v", err)
	}
}

func TestApproveOverwrites(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	if err := f.svc.Approve(ctx, alice, bob, uint256.NewInt(100)); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := f.svc.Approve(ctx, alice, bob, uint256.NewInt(30)); err != nil {
		t.Fatalf("approve: %v", err)
	}
	got, _ := f.svc.Allowance(ctx, alice, bob)
	if got.Uint64() != 30 {
		t.Fatalf("expected allowance 30, got %s", got.Dec())
	}
}
