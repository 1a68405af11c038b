// Package configloader merges a YAML file, a .env file and the process environment
// into a typed configuration value.
package configloader

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Validator interface {
	Validate() error
}

// Sources names the files consulted before the process environment.
type Sources struct {
	ConfigFile string
	EnvFile    string
}

// DefaultSources are resolved relative to the working directory.
var DefaultSources = Sources{ConfigFile: "config.yaml", EnvFile: ".env"}

// Load reads configuration for serviceName from the default sources.
// Environment variables are matched with the prefix <SERVICENAME>_, so
// INVENTORY_CATALOG_BACKEND overrides catalog.backend.
func Load[T Validator](serviceName string) (T, error) {
	return LoadFrom[T](serviceName, DefaultSources)
}

// LoadFrom is Load with explicit file locations. Later sources win:
// yaml, then .env, then the process environment.
func LoadFrom[T Validator](serviceName string, src Sources) (T, error) {
	var cfg T
	k := koanf.New(".")
	envPrefix := strings.ToUpper(serviceName) + "_"

	if err := k.Load(file.Provider(src.ConfigFile), yaml.Parser()); err != nil && !os.IsNotExist(err) {
		log.Printf("WARN: error loading YAML config file '%s': %v", src.ConfigFile, err)
	}

	keyOf := envKeyTransformer(envPrefix)
	if dotenv, err := godotenv.Read(src.EnvFile); err == nil {
		values := make(map[string]any, len(dotenv))
		for key, value := range dotenv {
			if !strings.HasPrefix(strings.ToUpper(key), envPrefix) {
				continue
			}
			values[keyOf(key)] = value
		}
		if err := k.Load(confmap.Provider(values, "."), nil); err != nil {
			log.Printf("WARN: error loading .env config: %v", err)
		}
	} else if !os.IsNotExist(err) {
		log.Printf("WARN: error reading .env file: %v", err)
	}

	if err := k.Load(env.Provider(envPrefix, ".", keyOf), nil); err != nil {
		log.Printf("WARN: error loading system env vars: %v", err)
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, fmt.Errorf("error unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// envKeyTransformer maps INVENTORY_CATALOG_HTTP_BASEURL to catalog.http.baseurl.
func envKeyTransformer(prefix string) func(string) string {
	lowerPrefix := strings.ToLower(prefix)
	return func(key string) string {
		key = strings.TrimPrefix(strings.ToLower(key), lowerPrefix)
		return strings.ReplaceAll(key, "_", ".")
	}
}
