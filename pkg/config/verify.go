package config

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

//go:embed schema.json
var embeddedSchema string

// VerifyAgainstEmbeddedSchema validates the config against the embedded JSON
// schema. Supplementary to validate(): a schema mismatch is reported but does
// not block startup.
func VerifyAgainstEmbeddedSchema(cfg *Config) error {
	var schema map[string]interface{}
	if err := json.Unmarshal([]byte(embeddedSchema), &schema); err != nil {
		return fmt.Errorf("parse embedded schema: %w", err)
	}

	configData, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	var configMap map[string]interface{}
	if err := json.Unmarshal(configData, &configMap); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}

	if err := verifyRequiredFields(cfg); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	return nil
}

// verifyRequiredFields performs basic validation of required fields
func verifyRequiredFields(cfg *Config) error {
	if cfg.Server.Listen == "" {
		return fmt.Errorf("server.listen is required")
	}
	if cfg.Feeds.SearchTemplate == "" {
		return fmt.Errorf("feeds.search_template is required")
	}
	if cfg.Cache.TTL == 0 {
		return fmt.Errorf("cache.ttl is required")
	}
	if cfg.Archive.Enabled && cfg.Archive.DSN == "" {
		return fmt.Errorf("archive.dsn is required when archive is enabled")
	}
	if cfg.Warm.Interval > 0 && len(cfg.Warm.Topics) == 0 {
		return fmt.Errorf("warm.topics is required when warming is enabled")
	}
	return nil
}

// GenerateSchema generates a JSON schema for the Config struct
func GenerateSchema() (*jsonschema.Schema, error) {
	return jsonschema.Reflect(&Config{}), nil
}
