package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/morphclean/internal/cleanup"
	"github.com/starford/morphclean/internal/diaglog"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App         ApplicationConfig `yaml:"app"`
	Collection  CollectionConfig  `yaml:"collection"`
	Cleanup     CleanupConfig     `yaml:"cleanup"`
	Recalc      RecalcConfig      `yaml:"recalc"`
	Diagnostics DiagnosticsConfig `yaml:"diagnostics"`
	HTTP        HTTPConfig        `yaml:"http"`
	Auth        AuthConfig        `yaml:"auth"`
	Trigger     TriggerConfig     `yaml:"trigger"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	sections := []struct {
		name string
		v    validation.Validatable
	}{
		{"collection", &c.Collection},
		{"cleanup", &c.Cleanup},
		{"recalc", &c.Recalc},
		{"diagnostics", &c.Diagnostics},
		{"http", &c.HTTP},
		{"auth", &c.Auth},
		{"trigger", &c.Trigger},
	}
	for _, s := range sections {
		if err := s.v.Validate(); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
}

// CollectionConfig locates the note collection.
type CollectionConfig struct {
	Path     string `yaml:"path"`
	MediaDir string `yaml:"media_dir"`
}

// Validate validates the collection configuration.
func (c *CollectionConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// CleanupConfig holds the tunables of the cleanup passes.
type CleanupConfig struct {
	Queries         []string            `yaml:"queries"`
	CandidateWindow int                 `yaml:"candidate_window"`
	TargetField     string              `yaml:"target_field"`
	FrontField      string              `yaml:"front_field"`
	KnownTag        string              `yaml:"known_tag"`
	MediaNoteTypeID int64               `yaml:"media_note_type_id"`
	MediaTag        string              `yaml:"media_tag"`
	MediaFields     []cleanup.FieldPair `yaml:"media_fields"`
}

// Validate validates the cleanup configuration.
func (c *CleanupConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Queries, validation.Each(validation.Required)),
		validation.Field(&c.CandidateWindow, validation.Min(0)),
		validation.Field(&c.TargetField, validation.Required),
		validation.Field(&c.KnownTag, validation.Required),
		validation.Field(&c.MediaFields, validation.Each(validation.By(validateFieldPair))),
	)
}

func validateFieldPair(v any) error {
	p, _ := v.(cleanup.FieldPair)
	return validation.ValidateStruct(&p,
		validation.Field(&p.Source, validation.Required),
		validation.Field(&p.Dest, validation.Required),
	)
}

// Options converts the section into cleanup options.
func (c *CleanupConfig) Options() cleanup.Options {
	return cleanup.Options{
		Queries:         c.Queries,
		CandidateWindow: c.CandidateWindow,
		TargetField:     c.TargetField,
		FrontField:      c.FrontField,
		KnownTag:        c.KnownTag,
		MediaNoteTypeID: c.MediaNoteTypeID,
		MediaTag:        c.MediaTag,
		MediaFields:     c.MediaFields,
	}
}

// RecalcConfig holds the external recalculation command. An empty command
// makes "run" behave like "cleanup".
type RecalcConfig struct {
	Command []string      `yaml:"command"`
	Timeout time.Duration `yaml:"timeout"`
}

// Validate validates the recalc configuration.
func (c *RecalcConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
	)
}

// DiagnosticsConfig configures the rotated diagnostic log.
type DiagnosticsConfig struct {
	Path       string `yaml:"path"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

// Validate validates the diagnostics configuration.
func (c *DiagnosticsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.MaxSizeMB, validation.Min(1)),
		validation.Field(&c.MaxBackups, validation.Min(0)),
	)
}

// Options converts the section into sink options.
func (c *DiagnosticsConfig) Options() diaglog.Options {
	return diaglog.Options{Path: c.Path, MaxSizeMB: c.MaxSizeMB, MaxBackups: c.MaxBackups}
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
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

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
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

// TriggerConfig configures the marker file watched in serve mode. An empty
// path disables the watcher.
type TriggerConfig struct {
	MarkerPath string        `yaml:"marker_path"`
	Debounce   time.Duration `yaml:"debounce"`
}

// Validate validates the trigger configuration.
func (c *TriggerConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Debounce, validation.Min(time.Duration(0))),
	)
}

// Default values of the movies2anki repair.
const (
	DefaultMediaNoteTypeID int64 = 1598115874278
	DefaultCandidateWindow       = 200
)

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
		},
		Collection: CollectionConfig{
			Path: "./collection.db",
		},
		Cleanup: CleanupConfig{
			Queries: []string{
				"tag:morphman is:new tag:mm_comprehension",
				"tag:morphman is:new tag:mm_fresh",
				"tag:morphman tag:mm_tooShort",
				"tag:morphman is:suspended",
			},
			CandidateWindow: DefaultCandidateWindow,
			TargetField:     "TargetMorph",
			FrontField:      "Front",
			KnownTag:        "mm_alreadyKnown",
			MediaNoteTypeID: DefaultMediaNoteTypeID,
			MediaFields: []cleanup.FieldPair{
				{Source: "Audio Sound", Dest: "Audio"},
				{Source: "Video Sound", Dest: "Video"},
			},
		},
		Diagnostics: DiagnosticsConfig{
			Path:       "./logs/morphclean.log",
			MaxSizeMB:  1,
			MaxBackups: 5,
		},
		HTTP: HTTPConfig{
			Port: 8080,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Trigger: TriggerConfig{
			Debounce: 200 * time.Millisecond,
		},
	}
}
