// Package fees implements the proportional transfer fee and the fixed gas
// fee accounting used by relayers.
package fees

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/SLC-Network/token_layer/internal/app/domain/token"
	"github.com/SLC-Network/token_layer/internal/app/events"
	"github.com/SLC-Network/token_layer/internal/app/services/accessctl"
	"github.com/SLC-Network/token_layer/internal/app/services/compliance"
	"github.com/SLC-Network/token_layer/internal/app/storage"
	"github.com/SLC-Network/token_layer/pkg/logger"
)

// Service computes transfer fees and settles fixed gas fees.
type Service struct {
	ledger     storage.LedgerStore
	cfg        storage.ConfigStore
	access     *accessctl.Service
	compliance *compliance.Service
	bus        *events.Bus
	log        *logger.Logger
}

// New creates a fee service.
func New(ledger storage.LedgerStore, cfg storage.ConfigStore, access *accessctl.Service, comp *compliance.Service, bus *events.Bus, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("fees")
	}
	return &Service{
		ledger:     ledger,
		cfg:        cfg,
		access:     access,
		compliance: comp,
		bus:        bus,
		log:        log,
	}
}

// Config returns the current fee configuration.
func (s *Service) Config(ctx context.Context) (token.FeeConfig, error) {
	return s.cfg.FeeConfig(ctx)
}

// Quote splits amount into the net portion and the proportional fee,
// fee = floor(amount * bps / 10000), along with the collector the fee goes
// to. The split always sums back to amount. One config read backs all three
// so a concurrent fee update cannot pair a stale rate with a new collector.
func (s *Service) Quote(ctx context.Context, amount *uint256.Int) (net, fee *uint256.Int, collector common.Address, err error) {
	cfg, err := s.cfg.FeeConfig(ctx)
	if err != nil {
		return nil, nil, common.Address{}, err
	}
	fee = proportionalFee(amount, cfg.TransferFeeBasisPoints)
	net = new(uint256.Int).Sub(amount, fee)
	return net, fee, cfg.FeeCollector, nil
}

// UpdateFee sets the proportional transfer fee. Admin only; capped at 100%.
func (s *Service) UpdateFee(ctx context.Context, actor common.Address, basisPoints uint32) error {
	if err := s.access.RequireRole(ctx, token.RoleDefaultAdmin, actor); err != nil {
		return err
	}
	if basisPoints > token.BasisPointDivisor {
		return token.InvalidFeeValue("transfer fee %d exceeds %d basis points", basisPoints, token.BasisPointDivisor)
	}
	cfg, err := s.cfg.FeeConfig(ctx)
	if err != nil {
		return err
	}
	cfg.TransferFeeBasisPoints = basisPoints
	if err := s.cfg.SetFeeConfig(ctx, cfg); err != nil {
		return err
	}
	s.log.WithField("basis_points", basisPoints).Info("transfer fee updated")
	s.publishFeeUpdate(cfg)
	return nil
}

// UpdateFeeCollector sets the recipient of proportional fees. Admin only.
func (s *Service) UpdateFeeCollector(ctx context.Context, actor, collector common.Address) error {
	if err := s.access.RequireRole(ctx, token.RoleDefaultAdmin, actor); err != nil {
		return err
	}
	if collector == (common.Address{}) {
		return token.ZeroAddress("fee collector")
	}
	cfg, err := s.cfg.FeeConfig(ctx)
	if err != nil {
		return err
	}
	cfg.FeeCollector = collector
	if err := s.cfg.SetFeeConfig(ctx, cfg); err != nil {
		return err
	}
	s.log.WithField("collector", collector.Hex()).Info("fee collector updated")
	s.publishFeeUpdate(cfg)
	return nil
}

// UpdateFixedGasFee sets the fixed per-transaction gas fee. Admin only.
func (s *Service) UpdateFixedGasFee(ctx context.Context, actor common.Address, fee *uint256.Int) error {
	if err := s.access.RequireRole(ctx, token.RoleDefaultAdmin, actor); err != nil {
		return err
	}
	cfg, err := s.cfg.FeeConfig(ctx)
	if err != nil {
		return err
	}
	cfg.FixedGasFee = fee.Clone()
	if err := s.cfg.SetFeeConfig(ctx, cfg); err != nil {
		return err
	}
	s.log.WithField("fixed_gas_fee", fee.Dec()).Info("fixed gas fee updated")
	s.publishFeeUpdate(cfg)
	return nil
}

// UpdateGasFeeCollector sets the escrow account for gas fees. Admin only.
func (s *Service) UpdateGasFeeCollector(ctx context.Context, actor, collector common.Address) error {
	if err := s.access.RequireRole(ctx, token.RoleDefaultAdmin, actor); err != nil {
		return err
	}
	if collector == (common.Address{}) {
		return token.ZeroAddress("gas fee collector")
	}
	cfg, err := s.cfg.FeeConfig(ctx)
	if err != nil {
		return err
	}
	cfg.GasFeeCollector = collector
	if err := s.cfg.SetFeeConfig(ctx, cfg); err != nil {
		return err
	}
	s.log.WithField("gas_fee_collector", collector.Hex()).Info("gas fee collector updated")
	s.publishFeeUpdate(cfg)
	return nil
}

// DebitGasFees moves the fixed gas fee from payer into the gas fee escrow.
// Caller must hold the fee wrapper role and amount must match the configured
// fixed fee exactly.
func (s *Service) DebitGasFees(ctx context.Context, caller, payer common.Address, amount *uint256.Int) error {
	if err := s.access.RequireRole(ctx, token.RoleFeeWrapper, caller); err != nil {
		return err
	}
	if err := s.compliance.EnsureActive(ctx); err != nil {
		return err
	}
	if err := s.compliance.EnsureUnblocked(ctx, payer); err != nil {
		return err
	}
	cfg, err := s.cfg.FeeConfig(ctx)
	if err != nil {
		return err
	}
	if cfg.FixedGasFee == nil || !amount.Eq(cfg.FixedGasFee) {
		return token.InvalidFeeValue("debit amount %s does not match fixed gas fee", amount.Dec())
	}
	if cfg.GasFeeCollector == (common.Address{}) {
		return token.ZeroAddress("gas fee collector")
	}
	if err := s.ledger.Move(ctx, payer, cfg.GasFeeCollector, amount); err != nil {
		return err
	}
	s.log.WithField("payer", payer.Hex()).WithField("amount", amount.Dec()).Debug("gas fee debited")
	return nil
}

// CreditGasFees settles a previously escrowed gas fee across three targets:
// the original payer receives the refund, the refund target receives the tip
// and the tip target receives the base fee. The three amounts must sum to
// the configured fixed gas fee.
func (s *Service) CreditGasFees(
	ctx context.Context,
	caller, account, refundTarget, tipTarget common.Address,
	refundAmount, tipAmount, baseFeeAmount *uint256.Int,
) error {
	if err := s.access.RequireRole(ctx, token.RoleFeeWrapper, caller); err != nil {
		return err
	}
	if err := s.compliance.EnsureActive(ctx); err != nil {
		return err
	}
	if err := s.compliance.EnsureUnblocked(ctx, account, refundTarget, tipTarget); err != nil {
		return err
	}
	cfg, err := s.cfg.FeeConfig(ctx)
	if err != nil {
		return err
	}
	if cfg.GasFeeCollector == (common.Address{}) {
		return token.ZeroAddress("gas fee collector")
	}

	total := new(uint256.Int).Add(refundAmount, tipAmount)
	total = new(uint256.Int).Add(total, baseFeeAmount)
	if cfg.FixedGasFee == nil || !total.Eq(cfg.FixedGasFee) {
		return token.InvalidFeeValue("credit total %s does not match fixed gas fee", total.Dec())
	}

	credits := []storage.Credit{
		{To: account, Amount: refundAmount},
		{To: refundTarget, Amount: tipAmount},
		{To: tipTarget, Amount: baseFeeAmount},
	}
	if err := s.ledger.Distribute(ctx, cfg.GasFeeCollector, credits); err != nil {
		return err
	}
	s.log.WithField("account", account.Hex()).WithField("total", total.Dec()).Debug("gas fees credited")
	return nil
}

func (s *Service) publishFeeUpdate(cfg token.FeeConfig) {
	s.bus.Publish(token.TopicFeeUpdated, "fees", token.FeeUpdateEvent{
		TransferFeeBasisPoints: cfg.TransferFeeBasisPoints,
		FeeCollector:           cfg.FeeCollector,
	})
}

// proportionalFee computes floor(amount * bps / 10000) without overflow via
// a 512-bit intermediate product.
func proportionalFee(amount *uint256.Int, basisPoints uint32) *uint256.Int {
	if basisPoints == 0 || amount.IsZero() {
		return uint256.NewInt(0)
	}
	fee, _ := new(uint256.Int).MulDivOverflow(
		amount,
		uint256.NewInt(uint64(basisPoints)),
		uint256.NewInt(token.BasisPointDivisor),
	)
	return fee
}
