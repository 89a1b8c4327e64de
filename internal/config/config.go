// Package config provides Viper-based configuration loading for the petheaven server.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. PETHEAVEN_LOGGING_LEVEL.
const EnvPrefix = "PETHEAVEN"

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	// Enabled selects the PostgreSQL store; when false counters live in memory.
	Enabled         bool          `mapstructure:"enabled"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// SessionConfig tunes the frame loop.
type SessionConfig struct {
	// TickRate is the number of simulation frames per second.
	TickRate int `mapstructure:"tick_rate"`
	// ContactCooldown is the minimum time between two hits on the same food.
	ContactCooldown time.Duration `mapstructure:"contact_cooldown"`
	// ActivePets lists the pet template ids in the roster, in order.
	ActivePets  []string `mapstructure:"active_pets"`
	PlayerSpeed float64  `mapstructure:"player_speed"`
	PetSpacing  float64  `mapstructure:"pet_spacing"`
	PetRadius   float64  `mapstructure:"pet_radius"`
	AutoAdvance bool     `mapstructure:"auto_advance"`
	// SnapshotInterval is how often world state is pushed to the host.
	SnapshotInterval time.Duration `mapstructure:"snapshot_interval"`
}

// StageConfig sets the stage curve.
type StageConfig struct {
	BaseMaxHunger       int     `mapstructure:"base_max_hunger"`
	MaxHungerMultiplier float64 `mapstructure:"max_hunger_multiplier"`
	FoodHealthGrowth    float64 `mapstructure:"food_health_growth"`
}

// SpawnerConfig controls food waves.
type SpawnerConfig struct {
	Interval  time.Duration `mapstructure:"interval"`
	Batch     int           `mapstructure:"batch"`
	MaxAlive  int           `mapstructure:"max_alive"`
	MinRadius float64       `mapstructure:"min_radius"`
	MaxRadius float64       `mapstructure:"max_radius"`
	Templates []string      `mapstructure:"templates"`
}

// HostConfig holds the websocket bridge settings.
type HostConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	// Path is the HTTP path of the websocket endpoint.
	Path string `mapstructure:"path"`
	// AllowedOrigin restricts the websocket Origin header; "*" accepts any.
	AllowedOrigin string `mapstructure:"allowed_origin"`
}

// Addr returns the "host:port" listen address.
//
// Postcondition: Returns a non-empty string in "host:port" format.
func (h HostConfig) Addr() string {
	return fmt.Sprintf("%s:%d", h.Host, h.Port)
}

// HealthConfig holds the gRPC health service settings.
type HealthConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Addr returns the "host:port" gRPC address.
func (h HealthConfig) Addr() string {
	return fmt.Sprintf("%s:%d", h.Host, h.Port)
}

// ContentConfig locates content templates and scripts.
type ContentConfig struct {
	AbilitiesDir string `mapstructure:"abilities_dir"`
	PetsDir      string `mapstructure:"pets_dir"`
	FoodsDir     string `mapstructure:"foods_dir"`
	// ScriptsDir holds Lua hooks; empty disables scripting.
	ScriptsDir string `mapstructure:"scripts_dir"`
	// InstructionLimit caps Lua opcodes per hook call; 0 uses the default.
	InstructionLimit int `mapstructure:"instruction_limit"`
}

// TelemetryConfig controls kill logging.
type TelemetryConfig struct {
	// OutputDir receives kills.csv; empty disables telemetry.
	OutputDir string `mapstructure:"output_dir"`
}

// Config is the top-level application configuration.
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Session   SessionConfig   `mapstructure:"session"`
	Stage     StageConfig     `mapstructure:"stage"`
	Spawner   SpawnerConfig   `mapstructure:"spawner"`
	Host      HostConfig      `mapstructure:"host"`
	Health    HealthConfig    `mapstructure:"health"`
	Content   ContentConfig   `mapstructure:"content"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string
	for _, err := range []error{
		validateLogging(c.Logging),
		validateDatabase(c.Database),
		validateSession(c.Session),
		validateStage(c.Stage),
		validateSpawner(c.Spawner),
		validatePort("host.port", c.Host.Port),
		validatePort("health.port", c.Health.Port),
		validateContent(c.Content),
	} {
		if err != nil {
			errs = append(errs, err.Error())
		}
	}
	if c.Host.Path == "" || !strings.HasPrefix(c.Host.Path, "/") {
		errs = append(errs, fmt.Sprintf("host.path must start with '/', got %q", c.Host.Path))
	}
	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	if !d.Enabled {
		return nil
	}
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if err := validatePort("database.port", d.Port); err != nil {
		errs = append(errs, err.Error())
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func validateSession(s SessionConfig) error {
	var errs []string
	if s.TickRate < 1 || s.TickRate > 1000 {
		errs = append(errs, fmt.Sprintf("session.tick_rate must be 1-1000, got %d", s.TickRate))
	}
	if s.ContactCooldown < 0 {
		errs = append(errs, "session.contact_cooldown must not be negative")
	}
	if len(s.ActivePets) == 0 {
		errs = append(errs, "session.active_pets must not be empty")
	}
	if s.PlayerSpeed < 0 || s.PetSpacing < 0 || s.PetRadius < 0 {
		errs = append(errs, "session.player_speed, pet_spacing and pet_radius must not be negative")
	}
	if s.SnapshotInterval <= 0 {
		errs = append(errs, "session.snapshot_interval must be > 0")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func validateStage(s StageConfig) error {
	switch {
	case s.BaseMaxHunger < 1:
		return fmt.Errorf("stage.base_max_hunger must be >= 1, got %d", s.BaseMaxHunger)
	case s.MaxHungerMultiplier < 1:
		return fmt.Errorf("stage.max_hunger_multiplier must be >= 1, got %v", s.MaxHungerMultiplier)
	case s.FoodHealthGrowth < 1:
		return fmt.Errorf("stage.food_health_growth must be >= 1, got %v", s.FoodHealthGrowth)
	}
	return nil
}

func validateSpawner(s SpawnerConfig) error {
	var errs []string
	if s.Interval <= 0 {
		errs = append(errs, "spawner.interval must be > 0")
	}
	if s.MaxAlive < 1 {
		errs = append(errs, fmt.Sprintf("spawner.max_alive must be >= 1, got %d", s.MaxAlive))
	}
	if s.MinRadius < 0 || s.MaxRadius < s.MinRadius {
		errs = append(errs, "spawner radii must satisfy 0 <= min_radius <= max_radius")
	}
	if len(s.Templates) == 0 {
		errs = append(errs, "spawner.templates must not be empty")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func validateContent(c ContentConfig) error {
	var errs []string
	for name, dir := range map[string]string{
		"content.abilities_dir": c.AbilitiesDir,
		"content.pets_dir":      c.PetsDir,
		"content.foods_dir":     c.FoodsDir,
	} {
		if dir == "" {
			errs = append(errs, name+" must not be empty")
		}
	}
	if c.InstructionLimit < 0 {
		errs = append(errs, "content.instruction_limit must not be negative")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func validatePort(name string, port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("%s must be 1-65535, got %d", name, port)
	}
	return nil
}

// Load reads configuration from the given file path, applies a .env file in
// the working directory if present, applies environment variable overrides,
// and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	// A missing .env file is not an error.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(path)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "petheaven")
	v.SetDefault("database.password", "petheaven")
	v.SetDefault("database.name", "petheaven")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("session.tick_rate", 60)
	v.SetDefault("session.contact_cooldown", "100ms")
	v.SetDefault("session.player_speed", 4.0)
	v.SetDefault("session.pet_spacing", 1.5)
	v.SetDefault("session.pet_radius", 0.4)
	v.SetDefault("session.auto_advance", true)
	v.SetDefault("session.snapshot_interval", "50ms")

	v.SetDefault("stage.base_max_hunger", 20)
	v.SetDefault("stage.max_hunger_multiplier", 1.5)
	v.SetDefault("stage.food_health_growth", 1.25)

	v.SetDefault("spawner.interval", "2s")
	v.SetDefault("spawner.batch", 3)
	v.SetDefault("spawner.max_alive", 30)
	v.SetDefault("spawner.min_radius", 6.0)
	v.SetDefault("spawner.max_radius", 14.0)

	v.SetDefault("host.host", "0.0.0.0")
	v.SetDefault("host.port", 8080)
	v.SetDefault("host.path", "/ws")
	v.SetDefault("host.allowed_origin", "*")

	v.SetDefault("health.host", "127.0.0.1")
	v.SetDefault("health.port", 50051)

	v.SetDefault("content.abilities_dir", "content/abilities")
	v.SetDefault("content.pets_dir", "content/pets")
	v.SetDefault("content.foods_dir", "content/foods")
	v.SetDefault("content.scripts_dir", "")
	v.SetDefault("content.instruction_limit", 0)

	v.SetDefault("telemetry.output_dir", "")
}
