package app

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/SLC-Network/token_layer/internal/app/domain/token"
	"github.com/SLC-Network/token_layer/internal/app/events"
	"github.com/SLC-Network/token_layer/internal/app/services/accessctl"
	compliancesvc "github.com/SLC-Network/token_layer/internal/app/services/compliance"
	feesvc "github.com/SLC-Network/token_layer/internal/app/services/fees"
	ledgersvc "github.com/SLC-Network/token_layer/internal/app/services/ledger"
	permitsvc "github.com/SLC-Network/token_layer/internal/app/services/permit"
	"github.com/SLC-Network/token_layer/internal/app/services/pricefeed"
	stabilizationsvc "github.com/SLC-Network/token_layer/internal/app/services/stabilization"
	"github.com/SLC-Network/token_layer/internal/app/storage"
	"github.com/SLC-Network/token_layer/internal/app/storage/memory"
	"github.com/SLC-Network/token_layer/internal/app/system"
	"github.com/SLC-Network/token_layer/pkg/logger"
)

// Stores encapsulates persistence dependencies. Nil stores default to the
// in-memory implementation.
type Stores struct {
	Roles      storage.RoleStore
	Compliance storage.ComplianceStore
	Ledger     storage.LedgerStore
	Config     storage.ConfigStore
}

// Config is everything needed to bring up the token.
type Config struct {
	Metadata token.Metadata

	// Admin receives the default admin role plus every operational role at
	// initialization.
	Admin common.Address
	// InitialSupply is minted to InitialHolder at initialization. May be nil
	// or zero for an empty ledger.
	InitialSupply *uint256.Int
	// InitialHolder defaults to Admin.
	InitialHolder common.Address

	Fees          token.FeeConfig
	Stabilization token.StabilizationConfig

	// PriceSource feeds the stabilization engine. Required.
	PriceSource pricefeed.Source

	// KeeperAccount performs scheduled upkeep; it is granted the oracle role
	// at initialization. The keeper is only registered when KeeperSchedule
	// is non-empty.
	KeeperAccount  common.Address
	KeeperSchedule string
}

// Application ties the token services together and manages their lifecycle.
type Application struct {
	manager *system.Manager
	log     *logger.Logger
	cfg     Config

	initMu      sync.Mutex
	initialized bool

	Bus           *events.Bus
	Access        *accessctl.Service
	Compliance    *compliancesvc.Service
	Fees          *feesvc.Service
	Ledger        *ledgersvc.Service
	Permits       *permitsvc.Service
	Stabilization *stabilizationsvc.Service

	roles storage.RoleStore
	store storage.ConfigStore
}

// New wires the application with the provided stores. Call Initialize before
// Start to seed roles, configuration and the initial supply.
func New(cfg Config, stores Stores, log *logger.Logger) (*Application, error) {
	if log == nil {
		log = logger.NewDefault("app")
	}
	applyMetadataDefaults(&cfg.Metadata)
	if cfg.Admin == (common.Address{}) {
		return nil, token.ZeroAddress("admin account")
	}
	if cfg.InitialHolder == (common.Address{}) {
		cfg.InitialHolder = cfg.Admin
	}
	if cfg.Stabilization.PeggedPrice <= 0 {
		return nil, token.InvalidArgument("pegged price must be positive, got %d", cfg.Stabilization.PeggedPrice)
	}
	if cfg.Stabilization.SupplyHolder == (common.Address{}) {
		cfg.Stabilization.SupplyHolder = cfg.Admin
	}
	if cfg.Fees.FeeCollector == (common.Address{}) {
		return nil, token.ZeroAddress("fee collector")
	}
	if cfg.Fees.GasFeeCollector == (common.Address{}) {
		cfg.Fees.GasFeeCollector = cfg.Fees.FeeCollector
	}
	if cfg.Fees.FixedGasFee == nil {
		cfg.Fees.FixedGasFee = uint256.NewInt(0)
	}
	if cfg.PriceSource == nil {
		return nil, token.InvalidArgument("price source must not be nil")
	}

	mem := memory.New()
	if stores.Roles == nil {
		stores.Roles = mem
	}
	if stores.Compliance == nil {
		stores.Compliance = mem
	}
	if stores.Ledger == nil {
		stores.Ledger = mem
	}
	if stores.Config == nil {
		stores.Config = mem
	}

	bus := events.NewBus()
	access := accessctl.New(stores.Roles, bus, log)
	compliance := compliancesvc.New(stores.Compliance, access, bus, log)
	fees := feesvc.New(stores.Ledger, stores.Config, access, compliance, bus, log)
	ledger := ledgersvc.New(cfg.Metadata, stores.Ledger, access, compliance, fees, bus, log)
	permits := permitsvc.New(cfg.Metadata, stores.Ledger, log)
	stabilization := stabilizationsvc.New(stores.Config, stores.Ledger, access, compliance, cfg.PriceSource, bus, log)

	manager := system.NewManager(log)
	if cfg.KeeperSchedule != "" {
		if cfg.KeeperAccount == (common.Address{}) {
			return nil, token.ZeroAddress("keeper account")
		}
		manager.Register(stabilizationsvc.NewKeeper(stabilization, cfg.KeeperAccount, cfg.KeeperSchedule, log))
	}

	return &Application{
		manager:       manager,
		log:           log,
		cfg:           cfg,
		Bus:           bus,
		Access:        access,
		Compliance:    compliance,
		Fees:          fees,
		Ledger:        ledger,
		Permits:       permits,
		Stabilization: stabilization,
		roles:         stores.Roles,
		store:         stores.Config,
	}, nil
}

// Initialize seeds roles, fee and stabilization configuration, and mints the
// initial supply. It may run exactly once per store; a second call, or a call
// against a store that already has a default admin, fails with
// AlreadyInitialized.
func (a *Application) Initialize(ctx context.Context) error {
	a.initMu.Lock()
	defer a.initMu.Unlock()

	if a.initialized {
		return token.NewError(token.CodeAlreadyInitialized, "application already initialized")
	}
	existing, err := a.roles.ListRoleHolders(ctx, token.RoleDefaultAdmin)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return token.NewError(token.CodeAlreadyInitialized, "store already has a default admin")
	}

	for _, role := range token.Roles() {
		if _, err := a.roles.GrantRole(ctx, role, a.cfg.Admin); err != nil {
			return err
		}
	}
	if a.cfg.KeeperAccount != (common.Address{}) {
		if _, err := a.roles.GrantRole(ctx, token.RoleOracle, a.cfg.KeeperAccount); err != nil {
			return err
		}
	}

	if err := a.store.SetFeeConfig(ctx, a.cfg.Fees); err != nil {
		return err
	}
	if err := a.store.SetStabilizationConfig(ctx, a.cfg.Stabilization); err != nil {
		return err
	}

	if a.cfg.InitialSupply != nil && !a.cfg.InitialSupply.IsZero() {
		if err := a.Ledger.Mint(ctx, a.cfg.Admin, a.cfg.InitialHolder, a.cfg.InitialSupply); err != nil {
			return err
		}
	}

	a.initialized = true
	a.log.WithFields(map[string]any{
		"token":  a.cfg.Metadata.Symbol,
		"admin":  a.cfg.Admin.Hex(),
		"holder": a.cfg.InitialHolder.Hex(),
	}).Info("application initialized")
	return nil
}

// Attach registers an additional lifecycle-managed service. Call before Start.
func (a *Application) Attach(service system.Service) {
	a.manager.Register(service)
}

// Start begins all registered services.
func (a *Application) Start(ctx context.Context) error {
	return a.manager.StartAll(ctx)
}

// Stop stops all services.
func (a *Application) Stop(ctx context.Context) error {
	return a.manager.StopAll(ctx)
}

func applyMetadataDefaults(meta *token.Metadata) {
	if meta.Name == "" {
		meta.Name = "Stable Lori Coin"
	}
	if meta.Symbol == "" {
		meta.Symbol = "SLC"
	}
	if meta.Decimals == 0 {
		meta.Decimals = 8
	}
	if meta.Version == "" {
		meta.Version = "1"
	}
	if meta.ChainID == 0 {
		meta.ChainID = 1
	}
}
