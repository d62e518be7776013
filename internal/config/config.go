// Package config loads the daemon configuration from the environment,
// optionally seeded from a .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/joho/godotenv"

	"github.com/SLC-Network/token_layer/internal/app/domain/token"
	"github.com/SLC-Network/token_layer/pkg/logger"
)

// Config is the full daemon configuration.
type Config struct {
	HTTPAddr string
	Logging  logger.LoggingConfig

	Metadata token.Metadata

	Admin         common.Address
	InitialSupply *uint256.Int
	InitialHolder common.Address

	Fees          token.FeeConfig
	Stabilization token.StabilizationConfig

	KeeperAccount  common.Address
	KeeperSchedule string

	// PriceFeedURL and PriceFeedJSONPath configure the HTTP oracle source.
	// When unset the daemon falls back to the operator-settable source.
	// PriceFeedTimePath optionally extracts the feed's own update time so
	// MAX_PRICE_AGE applies to the quote, not the fetch.
	PriceFeedURL      string
	PriceFeedJSONPath string
	PriceFeedTimePath string

	JWTSecret      string
	RateLimitRPS   float64
	RateLimitBurst int
}

// Load reads configuration from the environment. A .env file at envFile is
// merged in first when present; pass "" to skip.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}

	cfg := Config{
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
		Logging: logger.LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Metadata: token.Metadata{
			Name:    getEnv("TOKEN_NAME", "Stable Lori Coin"),
			Symbol:  getEnv("TOKEN_SYMBOL", "SLC"),
			Version: getEnv("TOKEN_VERSION", "1"),
		},
		KeeperSchedule:    getEnv("KEEPER_SCHEDULE", "@every 1m"),
		PriceFeedURL:      os.Getenv("PRICE_FEED_URL"),
		PriceFeedJSONPath: getEnv("PRICE_FEED_JSON_PATH", "price"),
		PriceFeedTimePath: os.Getenv("PRICE_FEED_TIME_PATH"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
	}

	var err error
	if cfg.Metadata.Decimals, err = getUint8("TOKEN_DECIMALS", 8); err != nil {
		return Config{}, err
	}
	if cfg.Metadata.ChainID, err = getUint64("CHAIN_ID", 1); err != nil {
		return Config{}, err
	}
	cfg.Metadata.Contract = common.HexToAddress(os.Getenv("TOKEN_CONTRACT"))

	if cfg.Admin, err = getAddress("ADMIN_ADDRESS", true); err != nil {
		return Config{}, err
	}
	if cfg.InitialHolder, err = getAddress("INITIAL_HOLDER", false); err != nil {
		return Config{}, err
	}
	if cfg.InitialSupply, err = getUint256("INITIAL_SUPPLY", "0"); err != nil {
		return Config{}, err
	}

	if cfg.Fees.FeeCollector, err = getAddress("FEE_COLLECTOR", true); err != nil {
		return Config{}, err
	}
	if cfg.Fees.GasFeeCollector, err = getAddress("GAS_FEE_COLLECTOR", false); err != nil {
		return Config{}, err
	}
	feeBps, err := getUint64("TRANSFER_FEE_BPS", 1)
	if err != nil {
		return Config{}, err
	}
	if feeBps > token.BasisPointDivisor {
		return Config{}, fmt.Errorf("TRANSFER_FEE_BPS %d exceeds %d", feeBps, token.BasisPointDivisor)
	}
	cfg.Fees.TransferFeeBasisPoints = uint32(feeBps)
	if cfg.Fees.FixedGasFee, err = getUint256("FIXED_GAS_FEE", "0"); err != nil {
		return Config{}, err
	}

	if cfg.Stabilization.PeggedPrice, err = getInt64("PEGGED_PRICE", 324000000); err != nil {
		return Config{}, err
	}
	tolBps, err := getUint64("TOLERANCE_BPS", 100)
	if err != nil {
		return Config{}, err
	}
	if tolBps > token.BasisPointDivisor {
		return Config{}, fmt.Errorf("TOLERANCE_BPS %d exceeds %d", tolBps, token.BasisPointDivisor)
	}
	cfg.Stabilization.ToleranceBasisPoints = uint32(tolBps)
	if cfg.Stabilization.SupplyHolder, err = getAddress("SUPPLY_HOLDER", false); err != nil {
		return Config{}, err
	}
	if cfg.Stabilization.MaxPriceAge, err = getDuration("MAX_PRICE_AGE", time.Hour); err != nil {
		return Config{}, err
	}

	if cfg.KeeperAccount, err = getAddress("KEEPER_ADDRESS", false); err != nil {
		return Config{}, err
	}

	if cfg.RateLimitRPS, err = getFloat("RATE_LIMIT_RPS", 20); err != nil {
		return Config{}, err
	}
	burst, err := getUint64("RATE_LIMIT_BURST", 40)
	if err != nil {
		return Config{}, err
	}
	cfg.RateLimitBurst = int(burst)

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getAddress(key string, required bool) (common.Address, error) {
	raw := os.Getenv(key)
	if raw == "" {
		if required {
			return common.Address{}, fmt.Errorf("%s is required", key)
		}
		return common.Address{}, nil
	}
	if !common.IsHexAddress(raw) {
		return common.Address{}, fmt.Errorf("%s: %q is not a hex address", key, raw)
	}
	return common.HexToAddress(raw), nil
}

func getUint256(key, fallback string) (*uint256.Int, error) {
	raw := getEnv(key, fallback)
	value, err := uint256.FromDecimal(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return value, nil
}

func getUint64(key string, fallback uint64) (uint64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return value, nil
}

func getUint8(key string, fallback uint8) (uint8, error) {
	value, err := getUint64(key, uint64(fallback))
	if err != nil {
		return 0, err
	}
	if value > 255 {
		return 0, fmt.Errorf("%s: %d out of range", key, value)
	}
	return uint8(value), nil
}

func getInt64(key string, fallback int64) (int64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return value, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return value, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return value, nil
}
