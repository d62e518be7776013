// Package stabilization implements the supply rebase engine. When the
// oracle price leaves the tolerance band around the peg, the engine mints
// to or burns from the designated supply holder to push the price back.
package stabilization

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/SLC-Network/token_layer/internal/app/domain/token"
	"github.com/SLC-Network/token_layer/internal/app/events"
	"github.com/SLC-Network/token_layer/internal/app/metrics"
	"github.com/SLC-Network/token_layer/internal/app/services/accessctl"
	"github.com/SLC-Network/token_layer/internal/app/services/compliance"
	"github.com/SLC-Network/token_layer/internal/app/services/pricefeed"
	"github.com/SLC-Network/token_layer/internal/app/storage"
	"github.com/SLC-Network/token_layer/pkg/logger"
)

// Upkeep is the rebase decision for the current price round.
type Upkeep struct {
	Needed       bool
	Direction    token.SupplyDirection
	Delta        *uint256.Int
	Price        int64
	PeggedPrice  int64
	DeviationBps uint64
}

// Adjustment reports the outcome of one upkeep run. Performed is false when
// the price was already inside the tolerance band.
type Adjustment struct {
	Performed    bool
	Direction    token.SupplyDirection
	Delta        *uint256.Int
	Price        int64
	DeviationBps uint64
}

// Service is the supply stabilization engine.
type Service struct {
	cfg        storage.ConfigStore
	ledger     storage.LedgerStore
	access     *accessctl.Service
	compliance *compliance.Service
	bus        *events.Bus
	log        *logger.Logger

	sourceMu sync.RWMutex
	source   pricefeed.Source

	busy atomic.Bool
	now  func() time.Time
}

// New creates a stabilization engine reading prices from source.
func New(cfg storage.ConfigStore, ledger storage.LedgerStore, access *accessctl.Service, comp *compliance.Service, source pricefeed.Source, bus *events.Bus, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("stabilization")
	}
	return &Service{
		cfg:        cfg,
		ledger:     ledger,
		access:     access,
		compliance: comp,
		source:     source,
		bus:        bus,
		log:        log,
		now:        time.Now,
	}
}

// Config returns the current stabilization configuration.
func (s *Service) Config(ctx context.Context) (token.StabilizationConfig, error) {
	return s.cfg.StabilizationConfig(ctx)
}

// Source returns the active price source.
func (s *Service) Source() pricefeed.Source {
	s.sourceMu.RLock()
	defer s.sourceMu.RUnlock()
	return s.source
}

// UpdatePriceFeed swaps the active price source. Admin only.
func (s *Service) UpdatePriceFeed(ctx context.Context, actor common.Address, source pricefeed.Source) error {
	if err := s.access.RequireRole(ctx, token.RoleDefaultAdmin, actor); err != nil {
		return err
	}
	if source == nil {
		return token.InvalidArgument("price source must not be nil")
	}
	s.sourceMu.Lock()
	s.source = source
	s.sourceMu.Unlock()
	s.log.WithField("source", source.Name()).Info("price feed updated")
	return nil
}

// UpdatePeggedPrice sets the peg target. Admin only; must be positive.
func (s *Service) UpdatePeggedPrice(ctx context.Context, actor common.Address, price int64) error {
	if err := s.access.RequireRole(ctx, token.RoleDefaultAdmin, actor); err != nil {
		return err
	}
	if price <= 0 {
		return token.InvalidArgument("pegged price must be positive, got %d", price)
	}
	cfg, err := s.cfg.StabilizationConfig(ctx)
	if err != nil {
		return err
	}
	cfg.PeggedPrice = price
	if err := s.cfg.SetStabilizationConfig(ctx, cfg); err != nil {
		return err
	}
	s.log.WithField("pegged_price", price).Info("pegged price updated")
	return nil
}

// UpdateTolerance sets the tolerance band width. Admin only; capped at 100%.
func (s *Service) UpdateTolerance(ctx context.Context, actor common.Address, basisPoints uint32) error {
	if err := s.access.RequireRole(ctx, token.RoleDefaultAdmin, actor); err != nil {
		return err
	}
	if basisPoints > token.BasisPointDivisor {
		return token.InvalidArgument("tolerance %d exceeds %d basis points", basisPoints, token.BasisPointDivisor)
	}
	cfg, err := s.cfg.StabilizationConfig(ctx)
	if err != nil {
		return err
	}
	cfg.ToleranceBasisPoints = basisPoints
	if err := s.cfg.SetStabilizationConfig(ctx, cfg); err != nil {
		return err
	}
	s.log.WithField("tolerance_bps", basisPoints).Info("tolerance updated")
	return nil
}

// UpdateSupplyHolder sets the account rebases mint to and burn from.
// Admin only; must not be the zero address.
func (s *Service) UpdateSupplyHolder(ctx context.Context, actor, holder common.Address) error {
	if err := s.access.RequireRole(ctx, token.RoleDefaultAdmin, actor); err != nil {
		return err
	}
	if holder == (common.Address{}) {
		return token.ZeroAddress("supply holder")
	}
	cfg, err := s.cfg.StabilizationConfig(ctx)
	if err != nil {
		return err
	}
	cfg.SupplyHolder = holder
	if err := s.cfg.SetStabilizationConfig(ctx, cfg); err != nil {
		return err
	}
	s.log.WithField("supply_holder", holder.Hex()).Info("supply holder updated")
	return nil
}

// LatestPrice returns the newest oracle round, rejecting non-positive and
// stale observations.
func (s *Service) LatestPrice(ctx context.Context) (pricefeed.Round, error) {
	cfg, err := s.cfg.StabilizationConfig(ctx)
	if err != nil {
		return pricefeed.Round{}, err
	}
	round, err := s.Source().LatestRound(ctx)
	if err != nil {
		return pricefeed.Round{}, err
	}
	if round.Price <= 0 {
		return pricefeed.Round{}, token.PriceInvalid("oracle returned non-positive price %d", round.Price)
	}
	if cfg.MaxPriceAge > 0 && s.now().Sub(round.UpdatedAt) > cfg.MaxPriceAge {
		return pricefeed.Round{}, token.PriceInvalid("oracle round from %s is stale", round.UpdatedAt.Format(time.RFC3339))
	}
	return round, nil
}

// CheckUpkeep decides whether a rebase is due without mutating anything.
func (s *Service) CheckUpkeep(ctx context.Context) (Upkeep, error) {
	cfg, err := s.cfg.StabilizationConfig(ctx)
	if err != nil {
		return Upkeep{}, err
	}
	round, err := s.LatestPrice(ctx)
	if err != nil {
		return Upkeep{}, err
	}
	supply, err := s.ledger.TotalSupply(ctx)
	if err != nil {
		return Upkeep{}, err
	}
	return decide(cfg, round.Price, supply), nil
}

// PerformUpkeep runs one rebase if the price is outside the tolerance band.
// Requires the oracle role. Reentrant invocations, including ones triggered
// from inside a price source callback, fail with ReentrantCall.
func (s *Service) PerformUpkeep(ctx context.Context, actor common.Address) (Adjustment, error) {
	start := s.now()
	adjustment, err := s.performUpkeep(ctx, actor)

	outcome := "noop"
	switch {
	case err != nil:
		outcome = "error"
	case adjustment.Performed:
		outcome = string(adjustment.Direction)
	}
	metrics.RecordUpkeep(outcome, s.now().Sub(start))
	return adjustment, err
}

func (s *Service) performUpkeep(ctx context.Context, actor common.Address) (Adjustment, error) {
	if err := s.access.RequireRole(ctx, token.RoleOracle, actor); err != nil {
		return Adjustment{}, err
	}
	if !s.busy.CompareAndSwap(false, true) {
		return Adjustment{}, token.NewError(token.CodeReentrantCall, "supply adjustment already in progress")
	}
	defer s.busy.Store(false)

	if err := s.compliance.EnsureActive(ctx); err != nil {
		return Adjustment{}, err
	}
	upkeep, err := s.CheckUpkeep(ctx)
	if err != nil {
		return Adjustment{}, err
	}
	metrics.SetPriceDeviation(float64(upkeep.DeviationBps))
	if !upkeep.Needed {
		return Adjustment{Price: upkeep.Price, DeviationBps: upkeep.DeviationBps}, nil
	}

	cfg, err := s.cfg.StabilizationConfig(ctx)
	if err != nil {
		return Adjustment{}, err
	}
	delta := upkeep.Delta
	if delta.IsZero() {
		// Out of band but nothing to scale against (zero supply).
		return Adjustment{Price: upkeep.Price, DeviationBps: upkeep.DeviationBps}, nil
	}
	switch upkeep.Direction {
	case token.SupplyExpanded:
		if err := s.ledger.Mint(ctx, cfg.SupplyHolder, delta); err != nil {
			return Adjustment{}, err
		}
	case token.SupplyContracted:
		// Burn at most what the holder has: a rebase never fails on an
		// underfunded holder, it contracts as far as it can.
		held, err := s.ledger.BalanceOf(ctx, cfg.SupplyHolder)
		if err != nil {
			return Adjustment{}, err
		}
		if held.Lt(delta) {
			delta = held.Clone()
		}
		if delta.IsZero() {
			return Adjustment{Price: upkeep.Price, DeviationBps: upkeep.DeviationBps}, nil
		}
		if err := s.ledger.Burn(ctx, cfg.SupplyHolder, delta); err != nil {
			return Adjustment{}, err
		}
	}

	s.publishSupply(ctx)
	s.log.WithFields(map[string]any{
		"direction":     string(upkeep.Direction),
		"delta":         delta.Dec(),
		"price":         upkeep.Price,
		"deviation_bps": upkeep.DeviationBps,
	}).Info("supply adjusted")
	s.bus.Publish(token.TopicSupplyAdjusted, "stabilization", token.SupplyAdjustmentEvent{
		Direction:    upkeep.Direction,
		Delta:        delta.Clone(),
		Price:        upkeep.Price,
		PeggedPrice:  upkeep.PeggedPrice,
		DeviationBps: upkeep.DeviationBps,
	})
	return Adjustment{
		Performed:    true,
		Direction:    upkeep.Direction,
		Delta:        delta,
		Price:        upkeep.Price,
		DeviationBps: upkeep.DeviationBps,
	}, nil
}

// decide computes the rebase decision: delta = floor(supply * |price-peg| / peg),
// needed when the deviation exceeds the tolerance band and the delta is
// non-zero.
func decide(cfg token.StabilizationConfig, price int64, supply *uint256.Int) Upkeep {
	upkeep := Upkeep{Price: price, PeggedPrice: cfg.PeggedPrice}
	if cfg.PeggedPrice <= 0 {
		return upkeep
	}

	var diff uint64
	if price >= cfg.PeggedPrice {
		diff = uint64(price - cfg.PeggedPrice)
		upkeep.Direction = token.SupplyExpanded
	} else {
		diff = uint64(cfg.PeggedPrice - price)
		upkeep.Direction = token.SupplyContracted
	}

	peg := uint256.NewInt(uint64(cfg.PeggedPrice))
	deviation, _ := new(uint256.Int).MulDivOverflow(
		uint256.NewInt(diff),
		uint256.NewInt(token.BasisPointDivisor),
		peg,
	)
	upkeep.DeviationBps = deviation.Uint64()
	if upkeep.DeviationBps <= uint64(cfg.ToleranceBasisPoints) {
		return upkeep
	}

	// Needed reflects the deviation alone; a zero delta (e.g. zero supply)
	// makes the adjustment itself a no-op, not the check.
	upkeep.Needed = true
	delta, _ := new(uint256.Int).MulDivOverflow(supply, uint256.NewInt(diff), peg)
	upkeep.Delta = delta
	return upkeep
}

func (s *Service) publishSupply(ctx context.Context) {
	supply, err := s.ledger.TotalSupply(ctx)
	if err != nil {
		return
	}
	if f, err := strconv.ParseFloat(supply.Dec(), 64); err == nil {
		metrics.SetTotalSupply(f)
	}
}
