package config

import (
	"encoding/json"

	"github.com/felixgeelhaar/agent-presence/domain/presence"
)

// JSONSchema represents a JSON Schema document.
type JSONSchema struct {
	Schema               string                       `json:"$schema,omitempty"`
	ID                   string                       `json:"$id,omitempty"`
	Title                string                       `json:"title,omitempty"`
	Description          string                       `json:"description,omitempty"`
	Type                 string                       `json:"type,omitempty"`
	Properties           map[string]*JSONSchema       `json:"properties,omitempty"`
	Required             []string                     `json:"required,omitempty"`
	Items                *JSONSchema                  `json:"items,omitempty"`
	AdditionalProperties *JSONSchema                  `json:"additionalProperties,omitempty"`
	Enum                 []string                     `json:"enum,omitempty"`
	Default              any                          `json:"default,omitempty"`
	Minimum              *float64                     `json:"minimum,omitempty"`
	Maximum              *float64                     `json:"maximum,omitempty"`
	MinLength            *int                         `json:"minLength,omitempty"`
	MaxLength            *int                         `json:"maxLength,omitempty"`
	Pattern              string                       `json:"pattern,omitempty"`
	Format               string                       `json:"format,omitempty"`
	Ref                  string                       `json:"$ref,omitempty"`
	Definitions          map[string]*JSONSchema       `json:"$defs,omitempty"`
	OneOf                []*JSONSchema                `json:"oneOf,omitempty"`
	AnyOf                []*JSONSchema                `json:"anyOf,omitempty"`
	AllOf                []*JSONSchema                `json:"allOf,omitempty"`
}

// GenerateSchema generates a JSON Schema for the PresenceConfig.
func GenerateSchema() *JSONSchema {
	return &JSONSchema{
		Schema:      "https://json-schema.org/draft/2020-12/schema",
		ID:          "https://github.com/felixgeelhaar/agent-presence/presence-config.schema.json",
		Title:       "Presence Configuration",
		Description: "Configuration schema for the voice assistant presence indicator",
		Type:        "object",
		Required:    []string{"name", "version"},
		Properties: map[string]*JSONSchema{
			"name": {
				Type:        "string",
				Description: "A human-readable name for this configuration",
				Default:     "presence",
			},
			"version": {
				Type:        "string",
				Description: "The configuration schema version",
				Default:     "1.0",
			},
			"description": {
				Type:        "string",
				Description: "Describes the deployment",
			},
			"initial_state": {
				Type:        "string",
				Description: "State shown before the first delivery",
				Enum:        stateNames(presence.InitialStates()),
				Default:     string(presence.StateDisconnected),
			},
			"states":        generateStatesSchema(),
			"logging":       generateLoggingSchema(),
			"feed":          generateFeedSchema(),
			"timeline":      generateTimelineSchema(),
			"render":        generateRenderSchema(),
			"observability": generateObservabilitySchema(),
		},
	}
}

func generateStatesSchema() *JSONSchema {
	tuning := generateStateTuningSchema()
	props := make(map[string]*JSONSchema, len(presence.AllStates()))
	for _, s := range presence.AllStates() {
		props[string(s)] = tuning
	}
	return &JSONSchema{
		Type:        "object",
		Description: "Overrides of the presentation table, keyed by state",
		Properties:  props,
	}
}

func generateStateTuningSchema() *JSONSchema {
	return &JSONSchema{
		Type:        "object",
		Description: "Overrides of one presentation row; unset fields keep the canonical value",
		Properties: map[string]*JSONSchema{
			"accent": {
				Type:        "string",
				Description: "Named accent color",
			},
			"accent_hex": {
				Type:        "string",
				Description: "Accent color as #rrggbb",
				Pattern:     "^#[0-9a-fA-F]{6}$",
			},
			"status_text": {
				Type:        "string",
				Description: "Short status label",
				MinLength:   intPtr(1),
			},
			"description_text": {
				Type:        "string",
				Description: "Longer description shown under the status",
				MinLength:   intPtr(1),
			},
			"accessibility_text": {
				Type:        "string",
				Description: "Text announced by screen readers",
				MinLength:   intPtr(1),
			},
			"base_amplitude": {
				Type:        "number",
				Description: "Animation amplitude at full activity",
				Minimum:     floatPtr(0),
				Maximum:     floatPtr(1),
			},
			"pulse_period_seconds": {
				Type:        "number",
				Description: "Seconds per animation pulse; 0 for none",
				Minimum:     floatPtr(0),
			},
			"min_height": {
				Type:        "integer",
				Description: "Visualizer height at zero activity",
				Minimum:     floatPtr(1),
			},
			"max_height": {
				Type:        "integer",
				Description: "Visualizer height at full activity",
				Minimum:     floatPtr(1),
			},
			"opacity": {
				Type:        "number",
				Description: "Overall opacity of the indicator",
				Minimum:     floatPtr(0),
				Maximum:     floatPtr(1),
			},
		},
	}
}

func generateLoggingSchema() *JSONSchema {
	return &JSONSchema{
		Type:        "object",
		Description: "Structured logging settings",
		Properties: map[string]*JSONSchema{
			"level": {
				Type:        "string",
				Description: "Minimum log level",
				Enum:        []string{"trace", "debug", "info", "warn", "error"},
				Default:     "info",
			},
			"format": {
				Type:        "string",
				Description: "Log output format",
				Enum:        []string{"console", "json"},
				Default:     "console",
			},
		},
	}
}

func generateFeedSchema() *JSONSchema {
	return &JSONSchema{
		Type:        "object",
		Description: "Source of state deliveries",
		Properties: map[string]*JSONSchema{
			"source": {
				Type:        "string",
				Description: "stdin, file:PATH, a ws:// or wss:// URL, or redis://host:port/channel",
				Default:     "stdin",
			},
			"session": {
				Type:        "string",
				Description: "Session name used when deliveries do not carry one",
			},
			"reconnect": {
				Type:        "object",
				Description: "Retry and circuit breaking for network feeds",
				Properties: map[string]*JSONSchema{
					"max_attempts": {
						Type:        "integer",
						Description: "Attempts per connection cycle",
						Default:     5,
						Minimum:     floatPtr(0),
					},
					"initial_delay": {
						Type:        "string",
						Description: "Delay before the first retry (Go duration)",
						Default:     "200ms",
					},
					"breaker_threshold": {
						Type:        "integer",
						Description: "Failed cycles before the breaker opens",
						Default:     3,
						Minimum:     floatPtr(0),
					},
					"breaker_timeout": {
						Type:        "string",
						Description: "How long the breaker stays open (Go duration)",
						Default:     "30s",
					},
				},
			},
		},
	}
}

func generateTimelineSchema() *JSONSchema {
	return &JSONSchema{
		Type:        "object",
		Description: "Recording of state changes",
		Properties: map[string]*JSONSchema{
			"enabled": {
				Type:        "boolean",
				Description: "Record state changes",
				Default:     false,
			},
			"dir": {
				Type:        "string",
				Description: "Badger directory; empty keeps the timeline in memory",
			},
			"sync_writes": {
				Type:        "boolean",
				Description: "Sync every recorded change to disk",
				Default:     false,
			},
			"gc_interval": {
				Type:        "string",
				Description: "Value log compaction interval (e.g. \"10m\"); \"0\" disables it",
			},
			"prefix": {
				Type:        "string",
				Description: "Key namespace for this deployment",
			},
		},
	}
}

func generateRenderSchema() *JSONSchema {
	return &JSONSchema{
		Type:        "object",
		Description: "Output of derived profiles",
		Properties: map[string]*JSONSchema{
			"mode": {
				Type:        "string",
				Description: "Renderer",
				Enum:        []string{"terminal", "json"},
				Default:     "terminal",
			},
			"bar_count": {
				Type:        "integer",
				Description: "Number of bars drawn by the terminal renderer",
				Default:     32,
				Minimum:     floatPtr(0),
			},
			"no_color": {
				Type:        "boolean",
				Description: "Disable colors",
				Default:     false,
			},
		},
	}
}

func generateObservabilitySchema() *JSONSchema {
	return &JSONSchema{
		Type:        "object",
		Description: "Metrics and tracing",
		Properties: map[string]*JSONSchema{
			"metrics": {
				Type:        "boolean",
				Description: "Enable OpenTelemetry metrics",
				Default:     false,
			},
			"tracing": {
				Type:        "string",
				Description: "Trace exporter",
				Enum:        []string{"", "stdout", "otlp"},
			},
			"endpoint": {
				Type:        "string",
				Description: "OTLP collector endpoint",
			},
		},
	}
}

func stateNames(states []presence.State) []string {
	names := make([]string, len(states))
	for i, s := range states {
		names[i] = string(s)
	}
	return names
}

func floatPtr(f float64) *float64 {
	return &f
}

func intPtr(i int) *int {
	return &i
}

// SchemaJSON returns the JSON Schema as a JSON string.
func SchemaJSON() (string, error) {
	schema := GenerateSchema()
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
