package stabilization

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/robfig/cron/v3"

	"github.com/SLC-Network/token_layer/internal/app/domain/token"
	"github.com/SLC-Network/token_layer/pkg/logger"
)

const keeperRunTimeout = 30 * time.Second

// Keeper periodically invokes the stabilization engine on a cron schedule,
// acting as the configured oracle account.
type Keeper struct {
	engine   *Service
	actor    common.Address
	schedule string
	cron     *cron.Cron
	log      *logger.Logger
}

// NewKeeper creates a keeper that runs upkeep on the given cron schedule,
// for example "@every 1m".
func NewKeeper(engine *Service, actor common.Address, schedule string, log *logger.Logger) *Keeper {
	if log == nil {
		log = logger.NewDefault("keeper")
	}
	return &Keeper{
		engine:   engine,
		actor:    actor,
		schedule: schedule,
		log:      log,
	}
}

// Name implements the managed service interface.
func (k *Keeper) Name() string { return "stabilization-keeper" }

// Start schedules periodic upkeep runs.
func (k *Keeper) Start(context.Context) error {
	k.cron = cron.New()
	if _, err := k.cron.AddFunc(k.schedule, k.run); err != nil {
		return token.InvalidArgument("bad keeper schedule %q: %v", k.schedule, err)
	}
	k.cron.Start()
	k.log.WithField("schedule", k.schedule).Info("keeper started")
	return nil
}

// Stop halts scheduling and waits for any in-flight run to finish.
func (k *Keeper) Stop(ctx context.Context) error {
	if k.cron == nil {
		return nil
	}
	done := k.cron.Stop().Done()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	k.log.Info("keeper stopped")
	return nil
}

func (k *Keeper) run() {
	ctx, cancel := context.WithTimeout(context.Background(), keeperRunTimeout)
	defer cancel()

	adjustment, err := k.engine.PerformUpkeep(ctx, k.actor)
	switch {
	case token.IsCode(err, token.CodePriceInvalid):
		k.log.WithError(err).Warn("upkeep skipped: unusable price")
	case token.IsCode(err, token.CodePaused):
		k.log.Debug("upkeep skipped: ledger paused")
	case err != nil:
		k.log.WithError(err).Error("upkeep failed")
	case adjustment.Performed:
		k.log.WithFields(map[string]any{
			"direction": string(adjustment.Direction),
			"delta":     adjustment.Delta.Dec(),
		}).Info("upkeep performed")
	}
}
