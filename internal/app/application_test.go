package app

import (
	"context"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/SLC-Network/token_layer/internal/app/domain/token"
	"github.com/SLC-Network/token_layer/internal/app/services/pricefeed"
)

var (
	admin     = common.HexToAddress("0x00000000000000000000000000000000000000ad")
	collector = common.HexToAddress("0x00000000000000000000000000000000000000fe")
	user      = common.HexToAddress("0x00000000000000000000000000000000000000a1")
)

func testConfig() Config {
	return Config{
		Admin:         admin,
		InitialSupply: uint256.NewInt(1_000_000),
		Fees: token.FeeConfig{
			TransferFeeBasisPoints: 1,
			FeeCollector:           collector,
			FixedGasFee:            uint256.NewInt(0),
			GasFeeCollector:        collector,
		},
		Stabilization: token.StabilizationConfig{
			PeggedPrice:          324000000,
			ToleranceBasisPoints: 100,
			SupplyHolder:         admin,
			MaxPriceAge:          time.Hour,
		},
		PriceSource: pricefeed.NewStatic(),
	}
}

func TestNewAndInitialize(t *testing.T) {
	ctx := context.Background()
	application, err := New(testConfig(), Stores{}, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := application.Initialize(ctx); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	meta := application.Ledger.Metadata()
	if meta.Name != "Stable Lori Coin" || meta.Symbol != "SLC" || meta.Decimals != 8 {
		t.Fatalf("unexpected metadata defaults: %+v", meta)
	}

	supply, _ := application.Ledger.TotalSupply(ctx)
	if supply.Uint64() != 1_000_000 {
		t.Fatalf("expected initial supply, got %s", supply.Dec())
	}
	held, _ := application.Ledger.BalanceOf(ctx, admin)
	if held.Uint64() != 1_000_000 {
		t.Fatalf("expected admin to hold initial supply, got %s", held.Dec())
	}

	for _, role := range token.Roles() {
		has, err := application.Access.Has(ctx, role, admin)
		if err != nil || !has {
			t.Fatalf("expected admin to hold %s, got has=%v err=%v", role, has, err)
		}
	}
}

func TestInitializeTwice(t *testing.T) {
	ctx := context.Background()
	application, err := New(testConfig(), Stores{}, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := application.Initialize(ctx); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	err = application.Initialize(ctx)
	if !token.IsCode(err, token.CodeAlreadyInitialized) {
		t.Fatalf("expected already initialized, got %v", err)
	}
}

func TestNewValidation(t *testing.T) {
	cfg := testConfig()
	cfg.Admin = common.Address{}
	if _, err := New(cfg, Stores{}, nil); !token.IsCode(err, token.CodeZeroAddress) {
		t.Fatalf("expected zero address for admin, got %v", err)
	}

	cfg = testConfig()
	cfg.Stabilization.PeggedPrice = 0
	if _, err := New(cfg, Stores{}, nil); !token.IsCode(err, token.CodeInvalidArgument) {
		t.Fatalf("expected invalid argument for peg, got %v", err)
	}

	cfg = testConfig()
	cfg.Fees.FeeCollector = common.Address{}
	if _, err := New(cfg, Stores{}, nil); !token.IsCode(err, token.CodeZeroAddress) {
		t.Fatalf("expected zero address for collector, got %v", err)
	}

	cfg = testConfig()
	cfg.PriceSource = nil
	if _, err := New(cfg, Stores{}, nil); !token.IsCode(err, token.CodeInvalidArgument) {
		t.Fatalf("expected invalid argument for nil price source, got %v", err)
	}
}

func TestEndToEndTransferAfterInitialize(t *testing.T) {
	ctx := context.Background()
	application, err := New(testConfig(), Stores{}, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := application.Initialize(ctx); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	// 1 bp fee on 10000: 1 to the collector, 9999 delivered.
	if err := application.Ledger.Transfer(ctx, admin, user, uint256.NewInt(10000), ""); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	got, _ := application.Ledger.BalanceOf(ctx, user)
	if got.Uint64() != 9999 {
		t.Fatalf("expected 9999, got %s", got.Dec())
	}
	collected, _ := application.Ledger.BalanceOf(ctx, collector)
	if collected.Uint64() != 1 {
		t.Fatalf("expected fee 1, got %s", collected.Dec())
	}
}
