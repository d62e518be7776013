package token

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Event topics published on the application bus. Observers are notified
// synchronously with the state change.
const (
	TopicRoleGranted      = "token.role_granted"
	TopicRoleRevoked      = "token.role_revoked"
	TopicMint             = "token.mint"
	TopicBurn             = "token.burn"
	TopicTransfer         = "token.transfer"
	TopicPaused           = "token.paused"
	TopicUnpaused         = "token.unpaused"
	TopicAccountBlocked   = "token.account_blocked"
	TopicAccountUnblocked = "token.account_unblocked"
	TopicFeeUpdated       = "token.fee_updated"
	TopicSupplyAdjusted   = "token.supply_adjusted"
)

// RoleEvent reports a role membership change.
type RoleEvent struct {
	Role    Role
	Account common.Address
	Admin   common.Address
}

// MintEvent reports newly issued tokens.
type MintEvent struct {
	To      common.Address
	Amount  *uint256.Int
	Comment string
}

// BurnEvent reports destroyed tokens.
type BurnEvent struct {
	From    common.Address
	Amount  *uint256.Int
	Comment string
}

// TransferEvent reports a balance move, including the fee split.
type TransferEvent struct {
	From    common.Address
	To      common.Address
	Amount  *uint256.Int
	Fee     *uint256.Int
	Comment string
}

// ComplianceEvent reports a pause or block flag change.
type ComplianceEvent struct {
	Account common.Address
	Actor   common.Address
}

// FeeUpdateEvent reports a fee configuration change.
type FeeUpdateEvent struct {
	TransferFeeBasisPoints uint32
	FeeCollector           common.Address
}

// SupplyDirection tells which way a rebase moved the supply.
type SupplyDirection string

const (
	SupplyExpanded   SupplyDirection = "expanded"
	SupplyContracted SupplyDirection = "contracted"
)

// SupplyAdjustmentEvent reports a completed rebase.
type SupplyAdjustmentEvent struct {
	Direction    SupplyDirection
	Delta        *uint256.Int
	Price        int64
	PeggedPrice  int64
	DeviationBps uint64
}
