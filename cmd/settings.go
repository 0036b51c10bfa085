package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"evalgo.org/featureinfo/auth"
	"evalgo.org/featureinfo/internal/helpers"
	"evalgo.org/featureinfo/internal/timeseries"
)

// Service configuration keys
const (
	keyPort              = "port"
	keyDebug             = "debug"
	keyConfigFile        = "config_file"
	keyAuthMode          = "auth.mode"
	keyAPIKey            = "auth.api_key"
	keyJWTSecret         = "auth.jwt_secret"
	keyStackDir          = "stack.config_dir"
	keyBlazegraphURL     = "stack.blazegraph_url"
	keyOntopURL          = "stack.ontop_url"
	keyPostgresURL       = "stack.postgres_url"
	keyRootNamespace     = "registry.root_namespace"
	keyMappingQueryFile  = "registry.mapping_query_file"
	keyDiscoveryTimeout  = "registry.discovery_timeout"
	keyEndpointTimeout   = "federation.endpoint_timeout"
	keyRequestTimeout    = "federation.request_timeout"
	keyTimeseriesTable   = "timeseries.table"
	keyMaxOpenConns      = "timeseries.max_open_conns"
	keyMaxIdleConns      = "timeseries.max_idle_conns"
	keyConnMaxLifetime   = "timeseries.conn_max_lifetime"
	keyShutdownTimeout   = "shutdown_timeout"
	defaultPort          = 8080
	defaultStackDir      = "/inter/endpoints"
	defaultEndpointLimit = 10 * time.Second
	defaultRequestLimit  = 30 * time.Second
)

// settings is the resolved service configuration
type settings struct {
	Port             int
	Debug            bool
	ConfigFile       string
	AuthMode         auth.AuthMode
	APIKey           string
	JWTSecret        string
	StackDir         string
	BlazegraphURL    string
	OntopURL         string
	PostgresURL      string
	RootNamespace    string
	MappingQueryFile string
	DiscoveryTimeout time.Duration
	EndpointTimeout  time.Duration
	RequestTimeout   time.Duration
	ShutdownTimeout  time.Duration
	Pool             timeseries.PoolOptions
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(keyPort, defaultPort)
	v.SetDefault(keyDebug, false)
	v.SetDefault(keyAuthMode, string(auth.AuthModeNone))
	v.SetDefault(keyStackDir, defaultStackDir)
	v.SetDefault(keyRootNamespace, helpers.DefaultRootNamespace)
	v.SetDefault(keyDiscoveryTimeout, helpers.DefaultDiscoveryTimeout)
	v.SetDefault(keyEndpointTimeout, defaultEndpointLimit)
	v.SetDefault(keyRequestTimeout, defaultRequestLimit)
	v.SetDefault(keyShutdownTimeout, 10*time.Second)
	v.SetDefault(keyTimeseriesTable, timeseries.DefaultTable)
	v.SetDefault(keyMaxOpenConns, 10)
	v.SetDefault(keyMaxIdleConns, 5)
	v.SetDefault(keyConnMaxLifetime, 30*time.Minute)

	// keys only set through the environment must be known for Unmarshal and AllKeys
	for _, key := range []string{keyConfigFile, keyAPIKey, keyJWTSecret, keyBlazegraphURL, keyOntopURL, keyPostgresURL, keyMappingQueryFile} {
		v.SetDefault(key, "")
	}
}

// loadSettings resolves and validates the service configuration
func loadSettings(v *viper.Viper) (settings, error) {
	mode, err := auth.ParseMode(v.GetString(keyAuthMode))
	if err != nil {
		return settings{}, err
	}

	s := settings{
		Port:             v.GetInt(keyPort),
		Debug:            v.GetBool(keyDebug),
		ConfigFile:       v.GetString(keyConfigFile),
		AuthMode:         mode,
		APIKey:           v.GetString(keyAPIKey),
		JWTSecret:        v.GetString(keyJWTSecret),
		StackDir:         v.GetString(keyStackDir),
		BlazegraphURL:    v.GetString(keyBlazegraphURL),
		OntopURL:         v.GetString(keyOntopURL),
		PostgresURL:      v.GetString(keyPostgresURL),
		RootNamespace:    v.GetString(keyRootNamespace),
		MappingQueryFile: v.GetString(keyMappingQueryFile),
		DiscoveryTimeout: v.GetDuration(keyDiscoveryTimeout),
		EndpointTimeout:  v.GetDuration(keyEndpointTimeout),
		RequestTimeout:   v.GetDuration(keyRequestTimeout),
		ShutdownTimeout:  v.GetDuration(keyShutdownTimeout),
		Pool: timeseries.PoolOptions{
			Table:           v.GetString(keyTimeseriesTable),
			MaxOpenConns:    v.GetInt(keyMaxOpenConns),
			MaxIdleConns:    v.GetInt(keyMaxIdleConns),
			ConnMaxLifetime: v.GetDuration(keyConnMaxLifetime),
		},
	}

	switch {
	case s.Port <= 0 || s.Port > 65535:
		return settings{}, fmt.Errorf("invalid port %d", s.Port)
	case s.AuthMode == auth.AuthModeAPIKey && s.APIKey == "":
		return settings{}, fmt.Errorf("auth mode %s requires %s", s.AuthMode, keyAPIKey)
	case s.AuthMode == auth.AuthModeJWT && s.JWTSecret == "":
		return settings{}, fmt.Errorf("auth mode %s requires %s", s.AuthMode, keyJWTSecret)
	case s.EndpointTimeout <= 0 || s.RequestTimeout <= 0:
		return settings{}, fmt.Errorf("federation timeouts must be positive")
	case s.DiscoveryTimeout <= 0:
		return settings{}, fmt.Errorf("%s must be positive", keyDiscoveryTimeout)
	}
	if err := helpers.ValidateSQLIdentifier(keyTimeseriesTable, s.Pool.Table); err != nil {
		return settings{}, err
	}

	return s, nil
}
