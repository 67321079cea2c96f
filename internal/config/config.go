// Package config loads the coordinator's deployment configuration from a
// YAML file. Flags override the file; the file carries the per-category
// catalog mapping that has no sensible flag form.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Categories maps each category to its upstream catalog source.
	Categories map[string]CategoryConfig `yaml:"categories"`

	// BucketURL selects the object store (gs://, s3://, file://, mem://).
	BucketURL string `yaml:"bucket_url"`

	// TopicURL selects the wake channel (gcppubsub://, mem://). Empty
	// disables wake publishing.
	TopicURL string `yaml:"topic_url"`

	OIDC OIDCConfig `yaml:"oidc"`

	// HMACSecret enables the shared-secret token verifier when no OIDC
	// issuer is configured.
	HMACSecret string `yaml:"hmac_secret"`
}

type CategoryConfig struct {
	PlaylistID string `yaml:"playlist_id"`
}

type OIDCConfig struct {
	IssuerURL string `yaml:"issuer_url"`
	ClientID  string `yaml:"client_id"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	for name, cat := range cfg.Categories {
		if cat.PlaylistID == "" {
			return nil, fmt.Errorf("category %s: missing playlist_id", name)
		}
	}
	return &cfg, nil
}

// Playlists returns the category to playlist-id mapping used by discovery.
func (c *Config) Playlists() map[string]string {
	out := make(map[string]string, len(c.Categories))
	for name, cat := range c.Categories {
		out[name] = cat.PlaylistID
	}
	return out
}
