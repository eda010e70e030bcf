package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Capture     CaptureConfig     `mapstructure:"capture"`
	Storage     StorageConfig     `mapstructure:"storage"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Log         LogConfig         `mapstructure:"log"`
	Telemetry   TelemetryConfig   `mapstructure:"telemetry"`
	TileServers map[string]string `mapstructure:"tile_servers"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

type CaptureConfig struct {
	TileSize          int    `mapstructure:"tile_size"`
	MaxTiles          int    `mapstructure:"max_tiles"`
	Workers           int    `mapstructure:"workers"`
	Retries           int    `mapstructure:"retries"`
	RetryBackoffMS    int    `mapstructure:"retry_backoff_ms"`
	FetchTimeout      int    `mapstructure:"fetch_timeout"`
	TileTimeout       int    `mapstructure:"tile_timeout"`
	UserAgent         string `mapstructure:"user_agent"`
	DefaultTileServer string `mapstructure:"default_tile_server"`
	AutoZoomMax       int    `mapstructure:"auto_zoom_max"`
	AutoZoomMin       int    `mapstructure:"auto_zoom_min"`
}

type StorageConfig struct {
	CapturesDir  string `mapstructure:"captures_dir"`
	RegistryPath string `mapstructure:"registry_path"`
}

type CacheConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Addr       string `mapstructure:"addr"`
	TTLSeconds int    `mapstructure:"ttl_seconds"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	OTLPAddr    string `mapstructure:"otlp_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

// Load reads configuration from file and environment variables. cfgFile may
// name an explicit config file; when empty the default search paths apply.
func Load(service, cfgFile string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 120)
	v.SetDefault("capture.tile_size", 256)
	v.SetDefault("capture.max_tiles", 400)
	v.SetDefault("capture.workers", 8)
	v.SetDefault("capture.retries", 3)
	v.SetDefault("capture.retry_backoff_ms", 200)
	v.SetDefault("capture.fetch_timeout", 60)
	v.SetDefault("capture.tile_timeout", 12)
	v.SetDefault("capture.user_agent", "Mozilla/5.0 (compatible)")
	v.SetDefault("capture.default_tile_server", "esri_world_imagery")
	v.SetDefault("capture.auto_zoom_max", 19)
	v.SetDefault("capture.auto_zoom_min", 12)
	v.SetDefault("storage.captures_dir", "captures")
	v.SetDefault("storage.registry_path", "annotations.json")
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.addr", "localhost:6379")
	v.SetDefault("cache.ttl_seconds", 86400)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.otlp_addr", "localhost:4317")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("tile_servers", defaultTileServers())

	// Config file (optional unless explicitly named)
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		_ = v.ReadInConfig() // OK if missing
	}

	// Environment variables: ANNOTILE_CAPTURE_WORKERS → capture.workers
	v.SetEnvPrefix("ANNOTILE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// defaultTileServers maps friendly names to XYZ URL templates. Templates use
// {z}, {x} and {y} placeholders; the fetcher substitutes per tile.
func defaultTileServers() map[string]string {
	return map[string]string{
		"esri_world_imagery": "https://server.arcgisonline.com/ArcGIS/rest/services/World_Imagery/MapServer/tile/{z}/{y}/{x}",
		"google_satellite":   "https://mt1.google.com/vt/lyrs=s&x={x}&y={y}&z={z}",
		"google_hybrid":      "https://mt1.google.com/vt/lyrs=y&x={x}&y={y}&z={z}",
		"google_roads":       "https://mt1.google.com/vt/lyrs=m&x={x}&y={y}&z={z}",
		"google_terrain":     "https://mt1.google.com/vt/lyrs=p&x={x}&y={y}&z={z}",
		"osm_standard":       "https://tile.openstreetmap.org/{z}/{x}/{y}.png",
		"opentopomap":        "https://a.tile.opentopomap.org/{z}/{x}/{y}.png",
		"cartodb_dark":       "https://a.basemaps.cartocdn.com/dark_all/{z}/{x}/{y}.png",
		"cartodb_light":      "https://a.basemaps.cartocdn.com/light_all/{z}/{x}/{y}.png",
	}
}

// ResolveTileServer maps a friendly tile server name to its URL template.
// An argument already carrying the XYZ placeholders is accepted as a raw
// template under the name "custom". Empty input selects the configured
// default server.
func (c *Config) ResolveTileServer(nameOrTemplate string) (name, template string, err error) {
	if nameOrTemplate == "" {
		nameOrTemplate = c.Capture.DefaultTileServer
	}
	if tpl, ok := c.TileServers[nameOrTemplate]; ok {
		return nameOrTemplate, tpl, nil
	}
	if strings.Contains(nameOrTemplate, "{z}") &&
		strings.Contains(nameOrTemplate, "{x}") &&
		strings.Contains(nameOrTemplate, "{y}") {
		return "custom", nameOrTemplate, nil
	}
	return "", "", fmt.Errorf("unknown tile server %q", nameOrTemplate)
}

// TileServerNames returns the catalog names in sorted order.
func (c *Config) TileServerNames() []string {
	names := make([]string, 0, len(c.TileServers))
	for name := range c.TileServers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Capture.TileSize <= 0 {
		errs = append(errs, "capture.tile_size must be positive")
	}
	if c.Capture.MaxTiles < 0 {
		errs = append(errs, "capture.max_tiles must not be negative")
	}
	if c.Capture.Workers <= 0 {
		errs = append(errs, "capture.workers must be positive")
	}
	if c.Capture.Retries < 0 {
		errs = append(errs, "capture.retries must not be negative")
	}
	if c.Capture.FetchTimeout <= 0 {
		errs = append(errs, "capture.fetch_timeout must be positive")
	}
	if c.Capture.TileTimeout <= 0 {
		errs = append(errs, "capture.tile_timeout must be positive")
	}
	if c.Capture.AutoZoomMax < c.Capture.AutoZoomMin {
		errs = append(errs, fmt.Sprintf("capture.auto_zoom_max %d is below capture.auto_zoom_min %d",
			c.Capture.AutoZoomMax, c.Capture.AutoZoomMin))
	}
	if c.Storage.CapturesDir == "" {
		errs = append(errs, "storage.captures_dir is required")
	}
	if c.Storage.RegistryPath == "" {
		errs = append(errs, "storage.registry_path is required")
	}
	if c.Cache.Enabled && c.Cache.Addr == "" {
		errs = append(errs, "cache.addr is required when cache.enabled is set")
	}
	if _, ok := c.TileServers[c.Capture.DefaultTileServer]; !ok {
		errs = append(errs, fmt.Sprintf("capture.default_tile_server %q is not in tile_servers", c.Capture.DefaultTileServer))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
