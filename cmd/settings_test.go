package cmd

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"

	"evalgo.org/featureinfo/auth"
	"evalgo.org/featureinfo/internal/helpers"
)

func newTestViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	bindEnv(v)
	return v
}

func TestLoadSettingsDefaults(t *testing.T) {
	s, err := loadSettings(newTestViper())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if s.Port != defaultPort {
		t.Errorf("expected port %d, got %d", defaultPort, s.Port)
	}
	if s.AuthMode != auth.AuthModeNone {
		t.Errorf("expected auth mode none, got %s", s.AuthMode)
	}
	if s.RootNamespace != "kb" {
		t.Errorf("expected root namespace kb, got %q", s.RootNamespace)
	}
	if s.EndpointTimeout != defaultEndpointLimit || s.RequestTimeout != defaultRequestLimit {
		t.Errorf("unexpected timeouts %v / %v", s.EndpointTimeout, s.RequestTimeout)
	}
	if s.DiscoveryTimeout != helpers.DefaultDiscoveryTimeout {
		t.Errorf("unexpected discovery timeout %v", s.DiscoveryTimeout)
	}
	if s.Pool.MaxOpenConns != 10 || s.Pool.ConnMaxLifetime != 30*time.Minute {
		t.Errorf("unexpected pool options %+v", s.Pool)
	}
}

func TestLoadSettingsFromEnv(t *testing.T) {
	t.Setenv("FIA_CONFIG_FILE", "/app/config/fia-config.json")
	t.Setenv("FIA_PORT", "9090")
	t.Setenv("FIA_AUTH_MODE", "jwt")
	t.Setenv("FIA_AUTH_JWT_SECRET", "secret")
	t.Setenv("FIA_FEDERATION_ENDPOINT_TIMEOUT", "2s")
	t.Setenv("FIA_TIMESERIES_TABLE", "public.readings")

	s, err := loadSettings(newTestViper())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if s.ConfigFile != "/app/config/fia-config.json" {
		t.Errorf("unexpected config file %q", s.ConfigFile)
	}
	if s.Port != 9090 || s.AuthMode != auth.AuthModeJWT || s.JWTSecret != "secret" {
		t.Errorf("unexpected settings %+v", s)
	}
	if s.EndpointTimeout != 2*time.Second {
		t.Errorf("expected 2s endpoint timeout, got %v", s.EndpointTimeout)
	}
	if s.Pool.Table != "public.readings" {
		t.Errorf("unexpected table %q", s.Pool.Table)
	}
}

func TestLoadSettingsErrors(t *testing.T) {
	tests := []struct {
		name string
		set  map[string]any
	}{
		{"apikey mode without key", map[string]any{keyAuthMode: "apikey"}},
		{"jwt mode without secret", map[string]any{keyAuthMode: "jwt"}},
		{"unknown auth mode", map[string]any{keyAuthMode: "rbac"}},
		{"invalid port", map[string]any{keyPort: 70000}},
		{"zero timeout", map[string]any{keyRequestTimeout: "0s"}},
		{"zero discovery timeout", map[string]any{keyDiscoveryTimeout: "0s"}},
		{"unsafe table", map[string]any{keyTimeseriesTable: "samples;drop"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newTestViper()
			for k, val := range tt.set {
				v.Set(k, val)
			}
			if _, err := loadSettings(v); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	versionCmd.Run(versionCmd, nil)

	if !strings.Contains(out.String(), version) {
		t.Errorf("expected version %q in output %q", version, out.String())
	}
}

func TestVersionStringLong(t *testing.T) {
	out := versionString(versionOptions{short: false, output: "json"})
	if !strings.Contains(out, commit) || !strings.Contains(out, date) {
		t.Errorf("expected commit and date in %q", out)
	}
}
