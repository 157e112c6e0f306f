// Package config provides configuration loading and validation for the
// keeper, following the same viper + godotenv loading pattern as the
// original arbitrage bot's configuration, bound to this system's own
// environment variable names.
package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Chain     ChainConfig     `mapstructure:"chain"`
	Keeper    KeeperConfig    `mapstructure:"keeper"`
	Ilks      []IlkConfig     `mapstructure:"-"` // built from per-ilk env vars, not viper-unmarshaled
	Peg       PegConfig       `mapstructure:"peg"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
	TUIMode     bool   `mapstructure:"-"` // set at runtime, not from config file
}

// ChainConfig holds node connection and signing configuration.
type ChainConfig struct {
	RPCURL            string `mapstructure:"rpc_url"`
	WSURL             string `mapstructure:"ws_url"`
	ChainID           uint64 `mapstructure:"chain_id"`
	PrivateKey        string `mapstructure:"private_key"`
	GasLimit          uint64 `mapstructure:"gas_limit"`
	GasPriceWei       uint64 `mapstructure:"gas_price_wei"`
	MaxGasPriceWei    uint64 `mapstructure:"max_gas_price_wei"`
	VatAddress        string `mapstructure:"vat_address"`
	VatBalanceSelector string `mapstructure:"vat_balance_selector"`
	DogAddress        string `mapstructure:"dog_address"`
	JugAddress        string `mapstructure:"jug_address"`
	SpotterAddress    string `mapstructure:"spotter_address"`
	FlapperAddress    string `mapstructure:"flapper_address"`
	FlopperAddress    string `mapstructure:"flopper_address"`
	SurplusGemAddress string `mapstructure:"surplus_gem_address"`
}

// KeeperMode selects which monitor/executor groups the orchestrator
// runs: kick (liquidations only), bid (collateral-auction bidding),
// peg (PSM/DEX arbitrage), or full (everything).
type KeeperMode string

const (
	ModeKick KeeperMode = "kick"
	ModeBid  KeeperMode = "bid"
	ModePeg  KeeperMode = "peg"
	ModeFull KeeperMode = "full"
)

// KeeperConfig holds keeper-wide policy knobs.
type KeeperConfig struct {
	Mode                    KeeperMode    `mapstructure:"mode"`
	CheckInterval           time.Duration `mapstructure:"check_interval"`
	MinProfitPercentageBps  int64         `mapstructure:"min_profit_percentage_bps"`
	MaxCollateralPerAuction string        `mapstructure:"max_collateral_per_auction"`
	EmergencyStop           bool          `mapstructure:"emergency_stop"`
}

// IlkConfig is one collateral type's contract addresses, assembled
// from the "<ILK>_ADDRESS" (the collateral's price oracle / pip) and
// "<ILK>_CLIPPER" (its Dog-linked collateral auction contract)
// environment variables listed in the system's external interface.
type IlkConfig struct {
	Name           string
	OracleAddress  string
	ClipperAddress string
}

// PegConfig holds the PSM/DEX arbitrage configuration.
type PegConfig struct {
	PSMAddress             string        `mapstructure:"psm_address"`
	DEXRouterAddress       string        `mapstructure:"dex_router_address"`
	DEXPairAddress         string        `mapstructure:"dex_pair_address"`
	UpperLimitBps          int64         `mapstructure:"upper_limit_bps"`
	LowerLimitBps          int64         `mapstructure:"lower_limit_bps"`
	MaxArbAmount           string        `mapstructure:"max_arb_amount"`
	MinArbProfitPercentBps int64         `mapstructure:"min_arb_profit_percent_bps"`
	SlippageToleranceBps   int64         `mapstructure:"slippage_tolerance_bps"`
	Cooldown               time.Duration `mapstructure:"arb_cooldown"`
	MaxTradePercentOfPool  int64         `mapstructure:"max_trade_percent_of_pool_bps"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
}

// Load loads configuration from an optional file and environment
// variables, binding the keeper's documented env var surface.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.AutomaticEnv()
	bindEnvVars(v)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	// ARB_COOLDOWN_MS carries a bare millisecond count; a value with a
	// unit suffix (such as the "60s" default) is left to the duration decoder.
	if ms, err := strconv.ParseInt(v.GetString("peg.arb_cooldown"), 10, 64); err == nil {
		v.Set("peg.arb_cooldown", time.Duration(ms)*time.Millisecond)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Ilks = loadIlks(v)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	v.BindEnv("app.name", "APP_NAME")
	v.BindEnv("app.environment", "ENVIRONMENT")
	v.BindEnv("app.log_level", "LOG_LEVEL")

	v.BindEnv("chain.rpc_url", "RPC_URL")
	v.BindEnv("chain.ws_url", "WS_URL")
	v.BindEnv("chain.chain_id", "CHAIN_ID")
	v.BindEnv("chain.private_key", "PRIVATE_KEY")
	v.BindEnv("chain.gas_limit", "GAS_LIMIT")
	v.BindEnv("chain.gas_price_wei", "GAS_PRICE")
	v.BindEnv("chain.max_gas_price_wei", "MAX_GAS_PRICE")
	v.BindEnv("chain.vat_address", "VAT_ADDRESS")
	v.BindEnv("chain.vat_balance_selector", "VAT_BALANCE_SELECTOR")
	v.BindEnv("chain.dog_address", "DOG_ADDRESS")
	v.BindEnv("chain.jug_address", "JUG_ADDRESS")
	v.BindEnv("chain.spotter_address", "SPOTTER_ADDRESS")
	v.BindEnv("chain.flapper_address", "FLAPPER_ADDRESS")
	v.BindEnv("chain.flopper_address", "FLOPPER_ADDRESS")
	v.BindEnv("chain.surplus_gem_address", "SURPLUS_GEM_ADDRESS")

	v.BindEnv("keeper.mode", "MODE")
	v.BindEnv("keeper.check_interval", "CHECK_INTERVAL")
	v.BindEnv("keeper.min_profit_percentage_bps", "MIN_PROFIT_PERCENTAGE")
	v.BindEnv("keeper.max_collateral_per_auction", "MAX_COLLATERAL_PER_AUCTION")
	v.BindEnv("keeper.emergency_stop", "EMERGENCY_STOP")

	v.BindEnv("peg.psm_address", "PSM_ADDRESS")
	v.BindEnv("peg.dex_router_address", "DEX_ROUTER_ADDRESS")
	v.BindEnv("peg.dex_pair_address", "DEX_PAIR_ADDRESS")
	v.BindEnv("peg.upper_limit_bps", "PEG_UPPER_LIMIT")
	v.BindEnv("peg.lower_limit_bps", "PEG_LOWER_LIMIT")
	v.BindEnv("peg.max_arb_amount", "MAX_ARB_AMOUNT")
	v.BindEnv("peg.min_arb_profit_percent_bps", "MIN_ARB_PROFIT_PERCENTAGE")
	v.BindEnv("peg.slippage_tolerance_bps", "ARB_SLIPPAGE_TOLERANCE")
	v.BindEnv("peg.arb_cooldown", "ARB_COOLDOWN_MS")
	v.BindEnv("peg.max_trade_percent_of_pool_bps", "MAX_TRADE_PERCENT_OF_POOL")

	v.BindEnv("telemetry.enabled", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "kusd-keeper")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("chain.gas_limit", 3_000_000)
	v.SetDefault("chain.vat_balance_selector", "dai")

	v.SetDefault("keeper.mode", string(ModeFull))
	v.SetDefault("keeper.check_interval", "30s")
	v.SetDefault("keeper.min_profit_percentage_bps", 50) // 0.5%
	v.SetDefault("keeper.emergency_stop", false)

	v.SetDefault("peg.upper_limit_bps", 10020) // 1.002
	v.SetDefault("peg.lower_limit_bps", 9980)  // 0.998
	v.SetDefault("peg.min_arb_profit_percent_bps", 20)
	v.SetDefault("peg.slippage_tolerance_bps", 50)
	v.SetDefault("peg.arb_cooldown", "60s")
	v.SetDefault("peg.max_trade_percent_of_pool_bps", 200) // 2%

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "kusd-keeper")
	v.SetDefault("telemetry.prometheus_port", 9090)
}

// knownIlks is the closed set of collateral names this deployment's
// environment may configure via "<ILK>_ADDRESS"/"<ILK>_CLIPPER" pairs.
// Extending collateral support means adding a name here.
var knownIlks = []string{"ETH-A", "WBTC-A", "LINK-A"}

func loadIlks(v *viper.Viper) []IlkConfig {
	var ilks []IlkConfig
	for _, name := range knownIlks {
		oracle := v.GetString(envPrefix(name) + "_ADDRESS")
		clipper := v.GetString(envPrefix(name) + "_CLIPPER")
		if oracle == "" && clipper == "" {
			continue
		}
		ilks = append(ilks, IlkConfig{Name: name, OracleAddress: oracle, ClipperAddress: clipper})
	}
	return ilks
}

func envPrefix(ilkName string) string {
	out := make([]rune, 0, len(ilkName))
	for _, r := range ilkName {
		if r == '-' {
			out = append(out, '_')
			continue
		}
		out = append(out, r)
	}
	return string(out)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Chain.RPCURL == "" {
		return fmt.Errorf("chain.rpc_url (RPC_URL) is required")
	}
	if c.Chain.ChainID == 0 {
		return fmt.Errorf("chain.chain_id (CHAIN_ID) is required")
	}
	switch c.Keeper.Mode {
	case ModeKick, ModeBid, ModePeg, ModeFull:
	default:
		return fmt.Errorf("keeper.mode (MODE) must be one of kick|bid|peg|full, got %q", c.Keeper.Mode)
	}
	for _, ilk := range c.Ilks {
		if ilk.OracleAddress != "" && !common.IsHexAddress(ilk.OracleAddress) {
			return fmt.Errorf("invalid oracle address for ilk %s: %s", ilk.Name, ilk.OracleAddress)
		}
		if ilk.ClipperAddress != "" && !common.IsHexAddress(ilk.ClipperAddress) {
			return fmt.Errorf("invalid clipper address for ilk %s: %s", ilk.Name, ilk.ClipperAddress)
		}
	}
	if c.Keeper.Mode == ModePeg || c.Keeper.Mode == ModeFull {
		if c.Peg.PSMAddress != "" && !common.IsHexAddress(c.Peg.PSMAddress) {
			return fmt.Errorf("invalid peg.psm_address: %s", c.Peg.PSMAddress)
		}
	}
	return nil
}
