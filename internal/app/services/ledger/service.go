// Package ledger implements the token balance operations: issuance, burns,
// fee-splitting transfers and allowances. All amounts are 256-bit unsigned
// integers and conservation holds after every operation: the sum of all
// balances equals the total supply.
package ledger

import (
	"context"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/SLC-Network/token_layer/internal/app/domain/token"
	"github.com/SLC-Network/token_layer/internal/app/events"
	"github.com/SLC-Network/token_layer/internal/app/metrics"
	"github.com/SLC-Network/token_layer/internal/app/services/accessctl"
	"github.com/SLC-Network/token_layer/internal/app/services/compliance"
	"github.com/SLC-Network/token_layer/internal/app/services/fees"
	"github.com/SLC-Network/token_layer/internal/app/storage"
	"github.com/SLC-Network/token_layer/pkg/logger"
)

// Comments attached to supply-changing transfer events.
const (
	MintComment = "Mint executed"
	BurnComment = "Burn executed"
)

// Service exposes the token ledger operations.
type Service struct {
	meta       token.Metadata
	store      storage.LedgerStore
	access     *accessctl.Service
	compliance *compliance.Service
	fees       *fees.Service
	bus        *events.Bus
	log        *logger.Logger
}

// New creates a ledger service.
func New(meta token.Metadata, store storage.LedgerStore, access *accessctl.Service, comp *compliance.Service, feeSvc *fees.Service, bus *events.Bus, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("ledger")
	}
	return &Service{
		meta:       meta,
		store:      store,
		access:     access,
		compliance: comp,
		fees:       feeSvc,
		bus:        bus,
		log:        log,
	}
}

// Metadata returns the token descriptor.
func (s *Service) Metadata() token.Metadata {
	return s.meta
}

// BalanceOf returns the balance of account. Unknown accounts hold zero.
func (s *Service) BalanceOf(ctx context.Context, account common.Address) (*uint256.Int, error) {
	return s.store.BalanceOf(ctx, account)
}

// TotalSupply returns the current total supply.
func (s *Service) TotalSupply(ctx context.Context) (*uint256.Int, error) {
	return s.store.TotalSupply(ctx)
}

// Allowance returns what spender may move from owner's balance.
func (s *Service) Allowance(ctx context.Context, owner, spender common.Address) (*uint256.Int, error) {
	return s.store.Allowance(ctx, owner, spender)
}

// Nonce returns the next unused permit nonce for owner.
func (s *Service) Nonce(ctx context.Context, owner common.Address) (uint64, error) {
	return s.store.Nonce(ctx, owner)
}

// Account returns a consolidated view of one account.
func (s *Service) Account(ctx context.Context, account common.Address) (token.AccountView, error) {
	balance, err := s.store.BalanceOf(ctx, account)
	if err != nil {
		return token.AccountView{}, err
	}
	nonce, err := s.store.Nonce(ctx, account)
	if err != nil {
		return token.AccountView{}, err
	}
	blocked, err := s.compliance.IsBlocked(ctx, account)
	if err != nil {
		return token.AccountView{}, err
	}
	return token.AccountView{
		Address: account,
		Balance: balance,
		Nonce:   nonce,
		Blocked: blocked,
	}, nil
}

// Snapshot returns a consistent copy of every balance plus the supply.
func (s *Service) Snapshot(ctx context.Context) (token.LedgerSnapshot, error) {
	return s.store.Snapshot(ctx)
}

// Mint issues amount to the recipient. Requires the minter role.
func (s *Service) Mint(ctx context.Context, actor, to common.Address, amount *uint256.Int) (err error) {
	defer func() { metrics.RecordLedgerOperation("mint", err) }()

	if err = s.access.RequireRole(ctx, token.RoleMinter, actor); err != nil {
		return err
	}
	if to == (common.Address{}) {
		return token.ZeroAddress("mint recipient")
	}
	if err = s.compliance.EnsureActive(ctx); err != nil {
		return err
	}
	if err = s.compliance.EnsureUnblocked(ctx, to); err != nil {
		return err
	}
	if err = s.store.Mint(ctx, to, amount); err != nil {
		return err
	}

	s.log.WithField("to", to.Hex()).WithField("amount", amount.Dec()).Info("tokens minted")
	s.publishSupply(ctx)
	s.bus.Publish(token.TopicMint, "ledger", token.MintEvent{
		To:      to,
		Amount:  amount.Clone(),
		Comment: MintComment,
	})
	return nil
}

// Burn destroys amount from the actor's own balance. Requires the burner
// role; a frozen account cannot burn.
func (s *Service) Burn(ctx context.Context, actor common.Address, amount *uint256.Int) (err error) {
	defer func() { metrics.RecordLedgerOperation("burn", err) }()

	if err = s.access.RequireRole(ctx, token.RoleBurner, actor); err != nil {
		return err
	}
	if err = s.compliance.EnsureActive(ctx); err != nil {
		return err
	}
	if err = s.compliance.EnsureUnblocked(ctx, actor); err != nil {
		return err
	}
	if err = s.store.Burn(ctx, actor, amount); err != nil {
		return err
	}

	s.log.WithField("from", actor.Hex()).WithField("amount", amount.Dec()).Info("tokens burned")
	s.publishSupply(ctx)
	s.bus.Publish(token.TopicBurn, "ledger", token.BurnEvent{
		From:    actor,
		Amount:  amount.Clone(),
		Comment: BurnComment,
	})
	return nil
}

// Transfer moves amount from the caller to the recipient, splitting off the
// proportional fee to the fee collector.
func (s *Service) Transfer(ctx context.Context, from, to common.Address, amount *uint256.Int, comment string) (err error) {
	defer func() { metrics.RecordLedgerOperation("transfer", err) }()

	if err = s.checkTransfer(ctx, from, to); err != nil {
		return err
	}
	net, fee, collector, err := s.fees.Quote(ctx, amount)
	if err != nil {
		return err
	}
	if err = s.store.Transfer(ctx, from, to, net, collector, fee); err != nil {
		return err
	}

	s.publishTransfer(from, to, net, fee, comment)
	return nil
}

// TransferFrom moves amount from owner to the recipient on the spender's
// authority, consuming owner->spender allowance for the full amount.
func (s *Service) TransferFrom(ctx context.Context, spender, owner, to common.Address, amount *uint256.Int, comment string) (err error) {
	defer func() { metrics.RecordLedgerOperation("transfer_from", err) }()

	if err = s.checkTransfer(ctx, owner, to); err != nil {
		return err
	}
	if err = s.compliance.EnsureUnblocked(ctx, spender); err != nil {
		return err
	}
	net, fee, collector, err := s.fees.Quote(ctx, amount)
	if err != nil {
		return err
	}
	if err = s.store.TransferFrom(ctx, owner, spender, to, net, collector, fee); err != nil {
		return err
	}

	s.publishTransfer(owner, to, net, fee, comment)
	return nil
}

// Approve sets the owner->spender allowance to value, replacing any previous
// value. Approvals are not balance movements, so they work while paused.
func (s *Service) Approve(ctx context.Context, owner, spender common.Address, value *uint256.Int) (err error) {
	defer func() { metrics.RecordLedgerOperation("approve", err) }()

	if spender == (common.Address{}) {
		return token.ZeroAddress("spender")
	}
	return s.store.SetAllowance(ctx, owner, spender, value)
}

func (s *Service) checkTransfer(ctx context.Context, from, to common.Address) error {
	if to == (common.Address{}) {
		return token.ZeroAddress("transfer recipient")
	}
	if err := s.compliance.EnsureActive(ctx); err != nil {
		return err
	}
	return s.compliance.EnsureUnblocked(ctx, from, to)
}

func (s *Service) publishTransfer(from, to common.Address, net, fee *uint256.Int, comment string) {
	s.log.WithFields(map[string]any{
		"from":   from.Hex(),
		"to":     to.Hex(),
		"amount": net.Dec(),
		"fee":    fee.Dec(),
	}).Debug("transfer executed")
	s.bus.Publish(token.TopicTransfer, "ledger", token.TransferEvent{
		From:    from,
		To:      to,
		Amount:  net.Clone(),
		Fee:     fee.Clone(),
		Comment: comment,
	})
}

func (s *Service) publishSupply(ctx context.Context) {
	supply, err := s.store.TotalSupply(ctx)
	if err != nil {
		return
	}
	if f, err := strconv.ParseFloat(supply.Dec(), 64); err == nil {
		metrics.SetTotalSupply(f)
	}
}
