package config

import (
	"fmt"
	"strings"

	"github.com/mcuadros/go-defaults"
	"github.com/spf13/viper"

	"github.com/incepto/searchbridge/core/schema"
	"github.com/incepto/searchbridge/internal/store/cloudsearch"
)

type Config struct {
	LogLevel string `mapstructure:"LOG_LEVEL" default:"info"`

	ConfigEndpoint   string `mapstructure:"CONFIG_ENDPOINT" default:"http://localhost:9980"`
	DocumentEndpoint string `mapstructure:"DOCUMENT_ENDPOINT" default:"http://localhost:9981"`
	SearchEndpoint   string `mapstructure:"SEARCH_ENDPOINT" default:"http://localhost:9982"`
	Domain           string `mapstructure:"DOMAIN" default:"searchbridge"`

	IndexName  string `mapstructure:"INDEX_NAME" default:""`
	SitePrefix string `mapstructure:"SITE_PREFIX" default:""`

	SortFieldsStr    string `mapstructure:"SORT_FIELDS" default:""`
	RangeFieldsStr   string `mapstructure:"RANGE_FIELDS" default:""`
	FacetFieldsStr   string `mapstructure:"FACET_FIELDS" default:""`
	ExcludedKindsStr string `mapstructure:"EXCLUDED_KINDS" default:""`

	MappingPath string `mapstructure:"MAPPING_PATH" default:"mappings.yaml"`
}

var config Config

// LoadConfig returns application configuration from config.yaml, env
// vars and struct defaults, in ascending precedence.
func LoadConfig() (Config, error) {
	viper.SetConfigName("config")
	viper.AddConfigPath("./")
	viper.AddConfigPath("../")
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	err := viper.ReadInConfig()
	if err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			fmt.Println("config file was not found. Env vars and defaults will be used")
		} else {
			return config, err
		}
	}

	defaults.SetDefaults(&config)

	err = viper.Unmarshal(&config)
	if err != nil {
		return config, fmt.Errorf("unable to unmarshal config to struct: %w", err)
	}

	return config, nil
}

// Client returns the remote-domain client configuration.
func (c Config) Client() cloudsearch.Config {
	return cloudsearch.Config{
		ConfigEndpoint:   c.ConfigEndpoint,
		DocumentEndpoint: c.DocumentEndpoint,
		SearchEndpoint:   c.SearchEndpoint,
		Domain:           c.Domain,
	}
}

// Index returns the per-index configuration.
func (c Config) Index() schema.IndexConfig {
	return schema.IndexConfig{
		Name:          c.IndexName,
		Site:          c.SitePrefix,
		SortFields:    splitList(c.SortFieldsStr),
		RangeFields:   splitList(c.RangeFieldsStr),
		ExcludedKinds: splitList(c.ExcludedKindsStr),
	}
}

// Facets returns the configured facet-membership predicate.
func (c Config) Facets() schema.FacetStore {
	return schema.FacetList(splitList(c.FacetFieldsStr))
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
