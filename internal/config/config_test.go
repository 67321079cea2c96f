package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scribe.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
categories:
  sps:
    playlist_id: PL123
  tukwila:
    playlist_id: PL456
bucket_url: mem://
topic_url: mem://wake
oidc:
  issuer_url: https://issuer.example.com
  client_id: scribe
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	playlists := cfg.Playlists()
	if playlists["sps"] != "PL123" || playlists["tukwila"] != "PL456" {
		t.Errorf("playlists = %v", playlists)
	}
	if cfg.OIDC.IssuerURL != "https://issuer.example.com" {
		t.Errorf("oidc = %+v", cfg.OIDC)
	}
}

func TestLoadRejectsMissingPlaylist(t *testing.T) {
	path := writeConfig(t, `
categories:
  sps: {}
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for missing playlist_id")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
