package config

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/mms-viewer/backend/internal/models"
)

// configSchema constrains the keys and value ranges of the YAML file.
const configSchema = `{
  "type": "object",
  "properties": {
    "server": {
      "type": "object",
      "properties": {
        "port": {"type": "integer", "minimum": 1, "maximum": 65535},
        "read_timeout_seconds": {"type": "integer", "minimum": 0},
        "write_timeout_seconds": {"type": "integer", "minimum": 0},
        "idle_timeout_seconds": {"type": "integer", "minimum": 0}
      }
    },
    "archive": {
      "type": "object",
      "properties": {
        "file_info_url": {"type": "string", "pattern": "^https?://"},
        "download_url": {"type": "string", "pattern": "^https?://"},
        "data_level": {"type": "string", "minLength": 1},
        "requests_per_minute": {"type": "integer", "minimum": 0},
        "timeout_seconds": {"type": "integer", "minimum": 0}
      }
    },
    "storage": {
      "type": "object",
      "properties": {
        "data_directory": {"type": "string", "minLength": 1},
        "cache_name": {"type": "string", "minLength": 1}
      }
    },
    "plot": {
      "type": "object",
      "properties": {
        "title": {"type": "string"},
        "approx_num_points": {"type": "integer", "minimum": 1}
      }
    },
    "logging": {
      "type": "object",
      "properties": {
        "level": {"enum": ["debug", "info", "warn", "error"]},
        "file": {"type": "string"},
        "max_size_mb": {"type": "integer", "minimum": 0},
        "max_backups": {"type": "integer", "minimum": 0},
        "max_age_days": {"type": "integer", "minimum": 0}
      }
    },
    "events": {
      "type": "object",
      "properties": {
        "max_events": {"type": "integer", "minimum": 0},
        "startup": {
          "type": ["array", "null"],
          "items": {
            "type": "object",
            "required": ["instrument"],
            "properties": {
              "day": {"type": "string", "pattern": "^[0-9]{4}-[0-9]{2}-[0-9]{2}$"},
              "probe": {"type": "integer", "minimum": 1, "maximum": 4},
              "instrument": {"type": "string"},
              "data_rate": {"type": "string"},
              "approx_num_points": {"type": "integer", "minimum": 1}
            }
          }
        }
      }
    }
  }
}`

var configSchemaLoader = gojsonschema.NewStringLoader(configSchema)

// validateDocument checks raw YAML against configSchema.
func validateDocument(data []byte) error {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	if doc == nil {
		return nil
	}
	jb, err := json.Marshal(toJSONCompatible(doc))
	if err != nil {
		return fmt.Errorf("failed to convert config for validation: %w", err)
	}

	result, err := gojsonschema.Validate(configSchemaLoader, gojsonschema.NewBytesLoader(jb))
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if !result.Valid() {
		var sb strings.Builder
		for _, e := range result.Errors() {
			sb.WriteString("\n- ")
			sb.WriteString(e.String())
		}
		return fmt.Errorf("config validation failed:%s", sb.String())
	}
	return nil
}

// toJSONCompatible converts maps with interface keys into string-keyed maps recursively.
// Unquoted dates decode as time.Time and are written back in the layout they were typed in.
func toJSONCompatible(v interface{}) interface{} {
	switch val := v.(type) {
	case time.Time:
		if val.Equal(val.Truncate(24 * time.Hour)) {
			return val.Format(models.DayLayout)
		}
		return val.Format(time.RFC3339)
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(val))
		for k, vv := range val {
			m[fmt.Sprintf("%v", k)] = toJSONCompatible(vv)
		}
		return m
	case map[string]interface{}:
		for k, vv := range val {
			val[k] = toJSONCompatible(vv)
		}
		return val
	case []interface{}:
		for i, vv := range val {
			val[i] = toJSONCompatible(vv)
		}
		return val
	default:
		return val
	}
}
