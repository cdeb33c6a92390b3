package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"golang.org/x/text/language"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App    ApplicationConfig `yaml:"app" toml:"app"`
	Vault  VaultConfig       `yaml:"vault" toml:"vault"`
	SQLite SQLiteConfig      `yaml:"sqlite" toml:"sqlite"`
	Auth   AuthConfig        `yaml:"auth" toml:"auth"`
	Panel  PanelConfig       `yaml:"panel" toml:"panel"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Vault.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	return c.Panel.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level" toml:"log_level"`
	HTTP     HTTPConfig `yaml:"http" toml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port" toml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// VaultConfig holds the path to the Markdown vault directory.
type VaultConfig struct {
	Path string `yaml:"path" toml:"path"`
	// Settle is how long the watcher waits for the vault to go quiet before
	// re-indexing changed notes.
	Settle time.Duration `yaml:"settle" toml:"settle"`
}

// Validate validates the vault configuration.
func (c *VaultConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.Settle, validation.Min(time.Duration(0))),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path" toml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode" toml:"mode"`
	Token string `yaml:"token" toml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// PanelConfig controls how backlinks panels are recomputed.
type PanelConfig struct {
	// Debounce is the settle delay between a trigger and the re-render.
	Debounce time.Duration `yaml:"debounce" toml:"debounce"`
	// Concurrency bounds how many linking notes are read at once.
	Concurrency int `yaml:"concurrency" toml:"concurrency"`
	// Locale is the BCP 47 tag used to order linking notes by name.
	// Empty means the root collation.
	Locale string `yaml:"locale" toml:"locale"`
}

// Validate validates the panel configuration.
func (c *PanelConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Debounce, validation.Required, validation.Min(time.Millisecond)),
		validation.Field(&c.Concurrency, validation.Required, validation.Min(1), validation.Max(256)),
		validation.Field(&c.Locale, validation.By(validLocale)),
	)
}

// LocaleTag returns the parsed Locale, or language.Und when it is empty.
func (c *PanelConfig) LocaleTag() language.Tag {
	if c.Locale == "" {
		return language.Und
	}
	tag, err := language.Parse(c.Locale)
	if err != nil {
		return language.Und
	}
	return tag
}

func validLocale(v any) error {
	s, _ := v.(string)
	if s == "" {
		return nil
	}
	if _, err := language.Parse(s); err != nil {
		return errors.New("must be a valid BCP 47 language tag")
	}
	return nil
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Vault: VaultConfig{
			Path:   "./vault",
			Settle: 200 * time.Millisecond,
		},
		SQLite: SQLiteConfig{
			Path: "./ansuz.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Panel: PanelConfig{
			Debounce:    300 * time.Millisecond,
			Concurrency: 4,
		},
	}
}
