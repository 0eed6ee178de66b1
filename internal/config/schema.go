package config

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// configSchemaJSON describes the shape of a JSON configuration file. It
// catches malformed sections (wrong types, unexpected strategy values)
// before decodeJSON hands the document to encoding/json, which would
// otherwise silently zero-value anything it can't unmarshal.
const configSchemaJSON = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"properties": {
		"version": {"type": "integer"},
		"calendar": {
			"type": "object",
			"properties": {
				"urls": {"type": "array", "items": {"type": "string"}},
				"strategy": {"type": "string", "enum": ["all", "quorum", "first_success"]},
				"quorum_size": {"type": "integer", "minimum": 0},
				"min_successful": {"type": "integer", "minimum": 0},
				"request_timeout_sec": {"type": "integer", "minimum": 0},
				"batch_deadline_sec": {"type": "integer", "minimum": 0},
				"upgrade_cooldown_sec": {"type": "integer", "minimum": 0}
			}
		},
		"bitcoin": {"$ref": "#/definitions/chain"},
		"litecoin": {"$ref": "#/definitions/chain"},
		"ethereum": {"$ref": "#/definitions/chain"},
		"consensus": {
			"type": "object",
			"properties": {
				"weight_bitcoin": {"type": "number"},
				"weight_litecoin": {"type": "number"},
				"weight_ethereum": {"type": "number"},
				"weight_pending": {"type": "number"},
				"min_score": {"type": "number"},
				"strong_score": {"type": "number"},
				"moderate_score": {"type": "number"},
				"weak_score": {"type": "number"},
				"consistent_drift_sec": {"type": "integer", "minimum": 0},
				"moderately_consistent_drift_sec": {"type": "integer", "minimum": 0}
			}
		},
		"cache": {
			"type": "object",
			"properties": {
				"enabled": {"type": "boolean"},
				"backend": {"type": "string", "enum": ["memory", "sqlite"]},
				"path": {"type": "string"},
				"ttl_sec": {"type": "integer", "minimum": 0}
			}
		},
		"logging": {
			"type": "object",
			"properties": {
				"level": {"type": "string", "enum": ["debug", "info", "warn", "error"]},
				"format": {"type": "string", "enum": ["text", "json"]},
				"output": {"type": "string"},
				"add_source": {"type": "boolean"}
			}
		}
	},
	"definitions": {
		"chain": {
			"type": "object",
			"properties": {
				"rpc_endpoint": {"type": "string"},
				"rpc_user": {"type": "string"},
				"rpc_password": {"type": "string"},
				"explorers": {"type": "array", "items": {"type": "string"}},
				"timeout_sec": {"type": "integer", "minimum": 0}
			}
		}
	}
}`

var configSchema *jsonschema.Schema

func init() {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("otsproof-config.json", bytes.NewReader([]byte(configSchemaJSON))); err != nil {
		panic(fmt.Sprintf("config: compiling embedded schema: %v", err))
	}
	schema, err := compiler.Compile("otsproof-config.json")
	if err != nil {
		panic(fmt.Sprintf("config: compiling embedded schema: %v", err))
	}
	configSchema = schema
}

// validateJSONSchema checks a JSON configuration document against
// configSchema before it is unmarshaled into a Config, so a typo like
// `"strategy": "quorm"` is reported with a JSON pointer instead of
// silently falling back to the zero value.
func validateJSONSchema(data []byte) error {
	var instance interface{}
	if err := json.Unmarshal(data, &instance); err != nil {
		return fmt.Errorf("config: parse JSON: %w", err)
	}
	if err := configSchema.Validate(instance); err != nil {
		return fmt.Errorf("config: schema validation: %w", err)
	}
	return nil
}
