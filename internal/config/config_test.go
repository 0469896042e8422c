package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_CONFIG", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ServerURL != "http://localhost:5000" || cfg.TableLimit != 50 || cfg.RefreshInterval != 2*time.Second {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if !cfg.AutoRefresh {
		t.Fatal("auto refresh should default to enabled")
	}
}

func TestLoadFileThenEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "servodash.yaml")
	body := "serverURL: http://rig.local:5000\ntableLimit: 100\nrefreshInterval: 5s\nautoRefresh: false\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("APP_CONFIG", path)
	t.Setenv("APP_TABLE_LIMIT", "200")
	t.Setenv("APP_REFRESH_INTERVAL", "not-a-duration")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ServerURL != "http://rig.local:5000" {
		t.Fatalf("server url = %q, want file value", cfg.ServerURL)
	}
	if cfg.TableLimit != 200 {
		t.Fatalf("table limit = %d, want env override 200", cfg.TableLimit)
	}
	if cfg.RefreshInterval != 5*time.Second {
		t.Fatalf("refresh interval = %v, want file value kept on bad env", cfg.RefreshInterval)
	}
	if cfg.AutoRefresh {
		t.Fatal("auto refresh should come from file")
	}
}

func TestGetenvBool(t *testing.T) {
	cases := []struct {
		v    string
		d    bool
		want bool
	}{
		{"on", false, true},
		{"0", true, false},
		{"maybe", true, true},
		{"", false, false},
	}
	for _, tc := range cases {
		t.Setenv("APP_TEST_BOOL", tc.v)
		if got := getenvBool("APP_TEST_BOOL", tc.d); got != tc.want {
			t.Fatalf("getenvBool(%q, %v) = %v, want %v", tc.v, tc.d, got, tc.want)
		}
	}
}
