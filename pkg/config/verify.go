package config

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

//go:embed schema.json
var embeddedSchema string

// VerifyAgainstEmbeddedSchema validates the config against the embedded JSON schema
func VerifyAgainstEmbeddedSchema(cfg *Config) error {
	// parse schema
	var schema map[string]interface{}
	if err := json.Unmarshal([]byte(embeddedSchema), &schema); err != nil {
		return fmt.Errorf("parse embedded schema: %w", err)
	}

	// convert config to JSON for validation
	configData, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	var configMap map[string]interface{}
	if err := json.Unmarshal(configData, &configMap); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}

	// basic validation - check required fields match
	if err := validateRequiredFields(cfg); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	return nil
}

// validateRequiredFields performs basic validation of required fields
func validateRequiredFields(cfg *Config) error {
	// check source config
	if cfg.Sources.RadarURL == "" {
		return fmt.Errorf("sources.radar_url is required")
	}
	if cfg.Sources.Timeout == 0 {
		return fmt.Errorf("sources.timeout is required")
	}

	// check server config if enabled
	if cfg.Server.Enabled {
		if cfg.Server.Listen == "" {
			return fmt.Errorf("server.listen is required when server is enabled")
		}
		if cfg.Server.Timeout == 0 {
			return fmt.Errorf("server.timeout is required when server is enabled")
		}
	}

	// check renderer config
	if cfg.Convert.Command == "" {
		return fmt.Errorf("convert.command is required")
	}
	if cfg.Convert.Timeout == 0 {
		return fmt.Errorf("convert.timeout is required")
	}

	return nil
}

// GenerateSchema generates a JSON schema for the Config struct
func GenerateSchema() (*jsonschema.Schema, error) {
	return jsonschema.Reflect(&Config{}), nil
}
