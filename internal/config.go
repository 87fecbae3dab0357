package internal

import (
	"log/slog"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/coriolinus/ghost2zola/internal/post"
)

var linkBaseRe = regexp.MustCompile(`^/`)

// Config represents the application configuration.
type Config struct {
	App  ApplicationConfig `yaml:"app"`
	Site SiteConfig        `yaml:"site"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	return c.Site.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
}

// SiteConfig holds settings about the generated site.
type SiteConfig struct {
	// LinkBase is the site-relative base internal image links are
	// rewritten to, normally the mount point of the extracted blog tree.
	LinkBase string `yaml:"link_base"`
}

// Validate validates the site configuration.
func (c *SiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.LinkBase, validation.Required,
			validation.Match(linkBaseRe).Error("must be site-relative (start with /)")),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
		},
		Site: SiteConfig{
			LinkBase: post.DefaultLinkBase,
		},
	}
}
