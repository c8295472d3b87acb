// Package config loads the contentgraph YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/aretw0/contentgraph/pkg/adapters/tableau"
	"github.com/aretw0/contentgraph/pkg/persistence/middleware"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Deployment kinds.
const (
	DeploymentCloud  = "cloud"
	DeploymentServer = "server"
)

// Catalog kinds.
const (
	CatalogMemory = "memory"
	CatalogRedis  = "redis"
	CatalogLoam   = "loam"
)

// Config is the root of the configuration file.
type Config struct {
	Deployment   DeploymentConfig  `yaml:"deployment" mapstructure:"deployment"`
	SiteName     string            `yaml:"site_name" mapstructure:"site_name"`
	Username     string            `yaml:"username" mapstructure:"username"`
	ConnectedApp ConnectedApp      `yaml:"connected_app" mapstructure:"connected_app"`
	HTTP         HTTPConfig        `yaml:"http" mapstructure:"http"`
	KeyPrefix    string            `yaml:"key_prefix" mapstructure:"key_prefix"`
	Tags         map[string]string `yaml:"tags" mapstructure:"tags"`
	Redact       []string          `yaml:"redact" mapstructure:"redact"`
	Catalog      CatalogConfig     `yaml:"catalog" mapstructure:"catalog"`
	LogLevel     string            `yaml:"log_level" mapstructure:"log_level"`
}

// DeploymentConfig selects Tableau Cloud (by pod) or Tableau Server (by host).
type DeploymentConfig struct {
	Kind       string `yaml:"kind" mapstructure:"kind"`
	PodName    string `yaml:"pod_name" mapstructure:"pod_name"`
	ServerName string `yaml:"server_name" mapstructure:"server_name"`
}

// ConnectedApp holds the connected-app secret used to sign in.
type ConnectedApp struct {
	ClientID    string `yaml:"client_id" mapstructure:"client_id"`
	SecretID    string `yaml:"secret_id" mapstructure:"secret_id"`
	SecretValue string `yaml:"secret_value" mapstructure:"secret_value"`
}

// HTTPConfig tunes the outbound API client.
type HTTPConfig struct {
	Timeout  time.Duration `yaml:"timeout" mapstructure:"timeout"`
	PageSize int           `yaml:"page_size" mapstructure:"page_size"`
}

// CatalogConfig selects where descriptors are registered.
type CatalogConfig struct {
	Kind string `yaml:"kind" mapstructure:"kind"`
	// Prune removes descriptors that the latest load no longer produced.
	Prune bool        `yaml:"prune" mapstructure:"prune"`
	Redis RedisConfig `yaml:"redis" mapstructure:"redis"`
	Loam  LoamConfig  `yaml:"loam" mapstructure:"loam"`
}

// RedisConfig addresses the Redis catalog.
type RedisConfig struct {
	Addr     string        `yaml:"addr" mapstructure:"addr"`
	Password string        `yaml:"password" mapstructure:"password"`
	DB       int           `yaml:"db" mapstructure:"db"`
	Prefix   string        `yaml:"prefix" mapstructure:"prefix"`
	TTL      time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// LoamConfig locates the file catalog.
type LoamConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// Default returns the configuration used for unset fields.
func Default() Config {
	return Config{
		Deployment: DeploymentConfig{Kind: DeploymentCloud},
		HTTP: HTTPConfig{
			Timeout:  30 * time.Second,
			PageSize: tableau.DefaultPageSize,
		},
		Catalog: CatalogConfig{
			Kind:  CatalogMemory,
			Prune: true,
			Redis: RedisConfig{Addr: "localhost:6379"},
			Loam:  LoamConfig{Dir: "./catalog"},
		},
		LogLevel: "info",
	}
}

// Load reads a YAML file. ${VAR} references are expanded from the environment before
// parsing; any other $ is kept as written.
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(raw)
}

// Parse decodes YAML bytes on top of Default.
func Parse(raw []byte) (Config, error) {
	expanded := expandEnv(string(raw))

	var tree map[string]any
	if err := yaml.Unmarshal([]byte(expanded), &tree); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	cfg := Default()
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &cfg,
	})
	if err != nil {
		return Config{}, err
	}
	if err := dec.Decode(tree); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnv replaces ${NAME} with the environment value, empty when unset.
func expandEnv(s string) string {
	return envRef.ReplaceAllStringFunc(s, func(ref string) string {
		return os.Getenv(envRef.FindStringSubmatch(ref)[1])
	})
}

// Validate reports every problem at once.
func (c Config) Validate() error {
	var errs []error
	switch c.Deployment.Kind {
	case DeploymentCloud:
		if c.Deployment.PodName == "" {
			errs = append(errs, errors.New("deployment.pod_name is required for cloud"))
		}
	case DeploymentServer:
		if c.Deployment.ServerName == "" {
			errs = append(errs, errors.New("deployment.server_name is required for server"))
		}
	default:
		errs = append(errs, fmt.Errorf("deployment.kind must be %q or %q, got %q", DeploymentCloud, DeploymentServer, c.Deployment.Kind))
	}

	if err := c.Credentials().Validate(); err != nil {
		errs = append(errs, err)
	}

	switch c.Catalog.Kind {
	case CatalogMemory:
	case CatalogRedis:
		if c.Catalog.Redis.Addr == "" {
			errs = append(errs, errors.New("catalog.redis.addr is required"))
		}
	case CatalogLoam:
		if c.Catalog.Loam.Dir == "" {
			errs = append(errs, errors.New("catalog.loam.dir is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("catalog.kind %q is not supported", c.Catalog.Kind))
	}

	if _, err := middleware.CompilePatterns(c.Redact); err != nil {
		errs = append(errs, err)
	}

	if c.HTTP.Timeout < 0 {
		errs = append(errs, errors.New("http.timeout must not be negative"))
	}
	return errors.Join(errs...)
}

// Credentials builds the connected-app credentials.
func (c Config) Credentials() tableau.Credentials {
	return tableau.Credentials{
		ClientID:    c.ConnectedApp.ClientID,
		SecretID:    c.ConnectedApp.SecretID,
		SecretValue: c.ConnectedApp.SecretValue,
		Username:    c.Username,
		SiteName:    c.SiteName,
	}
}

// TableauDeployment builds the deployment addressed by the configuration.
func (c Config) TableauDeployment() (tableau.Deployment, error) {
	switch c.Deployment.Kind {
	case DeploymentCloud:
		return tableau.CloudDeployment{Pod: c.Deployment.PodName}, nil
	case DeploymentServer:
		return tableau.ServerDeployment{Host: c.Deployment.ServerName}, nil
	}
	return nil, fmt.Errorf("unknown deployment kind %q", c.Deployment.Kind)
}
