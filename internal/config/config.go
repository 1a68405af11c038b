// Package config describes the inventory service configuration loaded by configloader.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/abgdnv/procurehub/pkg/config"
	"github.com/abgdnv/procurehub/pkg/config/configloader"
)

// ServiceName prefixes environment overrides (INVENTORY_...) and names telemetry resources.
const ServiceName = "inventory"

var _ configloader.Validator = (*Config)(nil)

type Config struct {
	HTTPServer config.HTTPConfig       `koanf:"server"`
	GRPC       config.GrpcServerConfig `koanf:"grpc"`
	Log        config.LogConfig        `koanf:"log"`
	PProf      config.PProfConfig      `koanf:"pprof"`
	Shutdown   config.ShutdownConfig   `koanf:"shutdown"`
	Catalog    CatalogConfig           `koanf:"catalog"`
	Resilience config.ResilienceConfig `koanf:"resilience"`
	NATS       config.NATSConfig       `koanf:"nats"`
	Telemetry  config.TelemetryConfig  `koanf:"telemetry"`
}

// Backend selects the RemoteCatalog implementation.
type Backend string

const (
	BackendPostgres Backend = "postgres"
	BackendHTTP     Backend = "http"
	BackendNone     Backend = "none"
)

type CatalogConfig struct {
	Backend  Backend               `koanf:"backend"`
	Database config.DatabaseConfig `koanf:"database"`
	HTTP     HTTPCatalogConfig     `koanf:"http"`
}

// HTTPCatalogConfig points at a PostgREST compatible endpoint, e.g. a Supabase project.
type HTTPCatalogConfig struct {
	BaseURL string        `koanf:"baseurl"`
	APIKey  string        `koanf:"apikey"`
	Table   string        `koanf:"table"`
	Timeout time.Duration `koanf:"timeout"`
}

func (c *Config) String() string {
	var b strings.Builder
	b.WriteString(c.HTTPServer.String())
	b.WriteString(c.GRPC.String())
	b.WriteString(c.Log.String())
	b.WriteString(c.PProf.String())
	b.WriteString(c.Shutdown.String())
	b.WriteString(c.Catalog.String())
	b.WriteString(c.Resilience.String())
	b.WriteString(c.NATS.String())
	b.WriteString(c.Telemetry.String())
	return b.String()
}

func (c *CatalogConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Catalog ---\n")
	b.WriteString(fmt.Sprintf("  backend: %s\n", c.Backend))
	switch c.Backend {
	case BackendPostgres:
		b.WriteString(c.Database.String())
	case BackendHTTP:
		b.WriteString(fmt.Sprintf("  http.baseurl: %s\n", c.HTTP.BaseURL))
		b.WriteString(fmt.Sprintf("  http.apikey: %s\n", maskSecret(c.HTTP.APIKey)))
		b.WriteString(fmt.Sprintf("  http.table: %s\n", c.HTTP.Table))
		b.WriteString(fmt.Sprintf("  http.timeout: %s\n", c.HTTP.Timeout))
	}
	return b.String()
}

func maskSecret(s string) string {
	if s == "" {
		return "<not configured>"
	}
	return "****"
}

// Validate checks if the configuration values are valid
func (c *Config) Validate() error {
	validators := []configloader.Validator{
		&c.HTTPServer, &c.GRPC, &c.Log, &c.PProf, &c.Shutdown,
		&c.Catalog, &c.Resilience, &c.NATS, &c.Telemetry,
	}
	for _, v := range validators {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c *CatalogConfig) Validate() error {
	switch c.Backend {
	case BackendPostgres:
		return c.Database.Validate()
	case BackendHTTP:
		return c.HTTP.Validate()
	case BackendNone:
		return nil
	case "":
		return fmt.Errorf("catalog backend is not configured")
	default:
		return fmt.Errorf("unknown catalog backend: %s", c.Backend)
	}
}

func (c *HTTPCatalogConfig) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("catalog http baseurl must be an absolute http(s) URL: %q", c.BaseURL)
	}
	if c.APIKey == "" {
		return fmt.Errorf("catalog http apikey is not configured")
	}
	if c.Table == "" {
		c.Table = "products"
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("catalog http timeout must be greater than 0")
	}
	return nil
}
