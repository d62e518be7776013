// Package storage defines the persistence interfaces for the token ledger.
// Every mutator that touches more than one balance is a single primitive so
// implementations can apply it atomically: either all of its effects land or
// none do.
package storage

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/SLC-Network/token_layer/internal/app/domain/token"
)

// Credit is one leg of a multi-target distribution.
type Credit struct {
	To     common.Address
	Amount *uint256.Int
}

// RoleStore persists role membership.
type RoleStore interface {
	// GrantRole adds the account to the role. It reports whether membership
	// actually changed (granting an existing member is a no-op).
	GrantRole(ctx context.Context, role token.Role, account common.Address) (bool, error)
	// RevokeRole removes the account from the role, reporting change.
	RevokeRole(ctx context.Context, role token.Role, account common.Address) (bool, error)
	HasRole(ctx context.Context, role token.Role, account common.Address) (bool, error)
	ListRoleHolders(ctx context.Context, role token.Role) ([]common.Address, error)
}

// ComplianceStore persists the pause flag and per-account block flags.
type ComplianceStore interface {
	SetPaused(ctx context.Context, paused bool) error
	Paused(ctx context.Context) (bool, error)
	// BlockAccount sets the block flag; blocking an already-blocked account
	// fails with AlreadyBlocked.
	BlockAccount(ctx context.Context, account common.Address) error
	// UnblockAccount clears the flag; fails with NotBlocked if not set.
	UnblockAccount(ctx context.Context, account common.Address) error
	IsBlocked(ctx context.Context, account common.Address) (bool, error)
}

// LedgerStore persists balances, supply, allowances and permit nonces.
// All mutators preserve sum(balances) == totalSupply.
type LedgerStore interface {
	BalanceOf(ctx context.Context, account common.Address) (*uint256.Int, error)
	TotalSupply(ctx context.Context) (*uint256.Int, error)
	Allowance(ctx context.Context, owner, spender common.Address) (*uint256.Int, error)
	Nonce(ctx context.Context, owner common.Address) (uint64, error)
	Snapshot(ctx context.Context) (token.LedgerSnapshot, error)

	// Mint credits the account and grows the supply; Overflow if the supply
	// would leave the 256-bit domain.
	Mint(ctx context.Context, to common.Address, amount *uint256.Int) error
	// Burn debits the account and shrinks the supply; InsufficientBalance if
	// the balance is short.
	Burn(ctx context.Context, from common.Address, amount *uint256.Int) error
	// Move transfers the full amount between two accounts.
	Move(ctx context.Context, from, to common.Address, amount *uint256.Int) error
	// Transfer debits net+fee from the sender, crediting net to the recipient
	// and fee to the collector in one step.
	Transfer(ctx context.Context, from, to common.Address, net *uint256.Int, collector common.Address, fee *uint256.Int) error
	// TransferFrom additionally spends the owner->spender allowance by
	// net+fee, atomically with the balance moves; InsufficientAllowance if
	// the allowance is short.
	TransferFrom(ctx context.Context, owner, spender, to common.Address, net *uint256.Int, collector common.Address, fee *uint256.Int) error
	// Distribute debits the source and credits every leg in one step.
	Distribute(ctx context.Context, from common.Address, credits []Credit) error

	SetAllowance(ctx context.Context, owner, spender common.Address, value *uint256.Int) error
	// ApplyPermit sets the allowance and increments the owner nonce by one,
	// atomically with a check that nonce is still the owner's current nonce;
	// InvalidSignature if it has advanced, so one verified permit can only
	// ever be consumed once.
	ApplyPermit(ctx context.Context, owner, spender common.Address, value *uint256.Int, nonce uint64) error
}

// ConfigStore persists mutable fee and stabilization configuration.
type ConfigStore interface {
	FeeConfig(ctx context.Context) (token.FeeConfig, error)
	SetFeeConfig(ctx context.Context, cfg token.FeeConfig) error
	StabilizationConfig(ctx context.Context) (token.StabilizationConfig, error)
	SetStabilizationConfig(ctx context.Context, cfg token.StabilizationConfig) error
}
