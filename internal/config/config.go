package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"memorygame/internal/domain"
)

// EnvPrefix namespaces environment overrides, e.g. MEMORY_BOARD_TOTAL_SLOTS.
const EnvPrefix = "MEMORY"

type BoardConfig struct {
	Pairs        int      `mapstructure:"pairs" validate:"gte=1"`
	TotalSlots   int      `mapstructure:"total_slots" validate:"gte=6,even"`
	Symbols      []string `mapstructure:"symbols" validate:"min=1,dive,required"`
	FillerSymbol string   `mapstructure:"filler_symbol" validate:"required"`
}

type RulesConfig struct {
	// StepTimeout is the step count at which armed bombs go off. 0 disables it.
	StepTimeout     int `mapstructure:"step_timeout" validate:"gte=0"`
	MatchPoints     int `mapstructure:"match_points" validate:"gte=1"`
	MismatchPenalty int `mapstructure:"mismatch_penalty" validate:"gte=1"`
}

type MatchConfig struct {
	TickRate         int  `mapstructure:"tick_rate" validate:"gte=1,lte=60"`
	RevealDelayTicks int  `mapstructure:"reveal_delay_ticks" validate:"gte=0"`
	Autoplay         bool `mapstructure:"autoplay"`
	// BotDelayTicks is how long autoplay waits between selections.
	BotDelayTicks int `mapstructure:"bot_delay_ticks" validate:"gte=0"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json console"`
}

type ResultsConfig struct {
	// Secret enables signed game results when set.
	Secret     string `mapstructure:"secret" validate:"omitempty,min=16"`
	Issuer     string `mapstructure:"issuer"`
	TTLSeconds int    `mapstructure:"ttl_seconds" validate:"gte=60"`
}

// GameConfig is the full runtime configuration of the memory game module.
type GameConfig struct {
	Board   BoardConfig   `mapstructure:"board"`
	Rules   RulesConfig   `mapstructure:"rules"`
	Match   MatchConfig   `mapstructure:"match"`
	Logging LoggingConfig `mapstructure:"logging"`
	Results ResultsConfig `mapstructure:"results"`
}

var (
	cfg      *GameConfig
	loadOnce sync.Once
	loadErr  error
)

// LoadGameConfig loads the game configuration from path once per process.
// An empty path loads defaults and environment overrides only.
func LoadGameConfig(path string) error {
	loadOnce.Do(func() {
		cfg, loadErr = Load(path)
	})
	return loadErr
}

// GetGameConfig returns the global game configuration, or nil before a successful load.
func GetGameConfig() *GameConfig {
	return cfg
}

// Load reads defaults, the optional config file and MEMORY_* environment overrides, then validates.
func Load(path string) (*GameConfig, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read game config: %w", err)
		}
	}

	var c GameConfig
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game config: %w", err)
	}
	if err := Validate(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Default returns the built-in configuration without consulting files or environment.
func Default() *GameConfig {
	return &GameConfig{
		Board: BoardConfig{
			Pairs:        defaultPairs,
			TotalSlots:   defaultTotalSlots,
			Symbols:      defaultSymbols(),
			FillerSymbol: string(domain.SymbolFiller),
		},
		Rules: RulesConfig{
			StepTimeout:     domain.DefaultStepTimeout,
			MatchPoints:     domain.DefaultMatchPoints,
			MismatchPenalty: domain.DefaultMismatchPenalty,
		},
		Match: MatchConfig{
			TickRate:         defaultTickRate,
			RevealDelayTicks: defaultRevealDelayTicks,
			BotDelayTicks:    defaultBotDelayTicks,
		},
		Logging: LoggingConfig{Level: "info", Format: "json"},
		Results: ResultsConfig{Issuer: defaultIssuer, TTLSeconds: defaultResultTTLSeconds},
	}
}

// Validate checks struct tags and the cross-field rules tags cannot express.
func Validate(c *GameConfig) error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.RegisterValidation("even", func(fl validator.FieldLevel) bool {
		return fl.Field().Int()%2 == 0
	}); err != nil {
		return fmt.Errorf("failed to register validators: %w", err)
	}
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid game config: %w", err)
	}

	if domain.IsSpecial(domain.Symbol(c.Board.FillerSymbol)) {
		return errors.New("invalid game config: filler symbol cannot be a special symbol")
	}
	return nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	d := Default()
	v.SetDefault("board.pairs", d.Board.Pairs)
	v.SetDefault("board.total_slots", d.Board.TotalSlots)
	v.SetDefault("board.symbols", d.Board.Symbols)
	v.SetDefault("board.filler_symbol", d.Board.FillerSymbol)
	v.SetDefault("rules.step_timeout", d.Rules.StepTimeout)
	v.SetDefault("rules.match_points", d.Rules.MatchPoints)
	v.SetDefault("rules.mismatch_penalty", d.Rules.MismatchPenalty)
	v.SetDefault("match.tick_rate", d.Match.TickRate)
	v.SetDefault("match.reveal_delay_ticks", d.Match.RevealDelayTicks)
	v.SetDefault("match.autoplay", d.Match.Autoplay)
	v.SetDefault("match.bot_delay_ticks", d.Match.BotDelayTicks)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("results.secret", d.Results.Secret)
	v.SetDefault("results.issuer", d.Results.Issuer)
	v.SetDefault("results.ttl_seconds", d.Results.TTLSeconds)
	return v
}
