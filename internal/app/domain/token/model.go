// Package token defines the core model for the price-pegged token ledger:
// roles, configuration, typed errors and event payloads. Balances and supply
// are 256-bit unsigned integers; prices are 8-decimal fixed-point int64
// values matching the oracle encoding.
package token

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// PriceDecimals is the fixed-point scale of oracle prices (10^8).
const PriceDecimals = 8

// BasisPointDivisor converts basis points to a ratio (10000 bp = 100%).
const BasisPointDivisor = 10000

// Role names a permission an account can hold. Roles are many-to-many with
// accounts; DefaultAdmin administers every role including itself.
type Role string

const (
	RoleDefaultAdmin Role = "default_admin"
	RoleMinter       Role = "minter"
	RoleBurner       Role = "burner"
	RolePauser       Role = "pauser"
	RoleBlocklister  Role = "blocklister"
	RoleOracle       Role = "oracle"
	RoleUpgrade      Role = "upgrade"
	RoleFeeWrapper   Role = "fee_wrapper"
)

// Roles lists every known role.
func Roles() []Role {
	return []Role{
		RoleDefaultAdmin,
		RoleMinter,
		RoleBurner,
		RolePauser,
		RoleBlocklister,
		RoleOracle,
		RoleUpgrade,
		RoleFeeWrapper,
	}
}

// ValidRole reports whether r names a known role.
func ValidRole(r Role) bool {
	for _, known := range Roles() {
		if r == known {
			return true
		}
	}
	return false
}

// Metadata describes the token and the signing domain for permits.
type Metadata struct {
	Name     string
	Symbol   string
	Decimals uint8
	Version  string
	ChainID  uint64
	// Contract identifies the token within the permit signing domain.
	Contract common.Address
}

// FeeConfig controls the proportional transfer fee and the fixed gas fee.
type FeeConfig struct {
	TransferFeeBasisPoints uint32
	FeeCollector           common.Address
	FixedGasFee            *uint256.Int
	GasFeeCollector        common.Address
}

// StabilizationConfig controls the peg and the rebase tolerance band.
type StabilizationConfig struct {
	// PeggedPrice is the target price, 8-decimal fixed point. Always positive.
	PeggedPrice          int64
	ToleranceBasisPoints uint32
	// SupplyHolder is the account rebases mint to and burn from.
	SupplyHolder common.Address
	// MaxPriceAge bounds oracle staleness; older rounds are PriceInvalid.
	MaxPriceAge time.Duration
}

// AccountView is a read-model of a single ledger account.
type AccountView struct {
	Address common.Address
	Balance *uint256.Int
	Nonce   uint64
	Blocked bool
}

// LedgerSnapshot is a consistent read of every balance plus the supply.
type LedgerSnapshot struct {
	TotalSupply *uint256.Int
	Balances    map[common.Address]*uint256.Int
}
