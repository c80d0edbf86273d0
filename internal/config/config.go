// Package config loads and validates the sceneryd configuration file.
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Log             LogConfig          `yaml:"log"`
	Database        DatabaseConfig     `yaml:"database"`
	MQTT            MQTTConfig         `yaml:"mqtt"`
	API             APIConfig          `yaml:"api"`
	Profiles        []ProfileConfig    `yaml:"profiles"`
	Lights          []LightConfig      `yaml:"lights"`
	SceneGroups     []SceneGroupConfig `yaml:"scene_groups"`
	ShutdownTimeout Duration           `yaml:"shutdown_timeout"` // General shutdown timeout for graceful stops
}

// LogConfig contains logging settings
type LogConfig struct {
	Level   string `yaml:"level"`
	UseJSON bool   `yaml:"json"`
	Colors  bool   `yaml:"colors"`
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// MQTTConfig contains broker connection and topic settings
type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	ClientID string `yaml:"client_id"`
	QoS      byte   `yaml:"qos"`

	// StatePrefix is the statestream topic root the host publishes
	// entity states under (<prefix>/<domain>/<object_id>/state).
	StatePrefix string `yaml:"state_prefix"`
	// CommandTopic is the topic service commands are published to.
	CommandTopic string `yaml:"command_topic"`
	// SelectPrefix is the topic root selector options are published
	// under (retained, for UIs).
	SelectPrefix string `yaml:"select_prefix"`

	ConnectTimeout Duration `yaml:"connect_timeout"`
}

// APIConfig contains HTTP API server settings
type APIConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
}

// ProfileConfig defines one named light profile. The color encoding keys
// (rgb_color, color_temp_kelvin, ...) sit inline next to the named fields.
type ProfileConfig struct {
	Name       string         `yaml:"name"`
	Brightness *int           `yaml:"brightness"`
	Transition *Duration      `yaml:"transition"`
	Color      map[string]any `yaml:",inline"`
}

// SelectConfig configures an exposed selector entity.
type SelectConfig struct {
	OffOption string `yaml:"off_option"`
	UniqueID  string `yaml:"unique_id"`
}

// LightConfig assigns profiles and favorite colors to one or more lights
type LightConfig struct {
	EntityIDs      StringList       `yaml:"entity_id"`
	Profiles       []string         `yaml:"profiles"`
	FavoriteColors []map[string]any `yaml:"favorite_colors"`
	ProfileSelect  *SelectConfig    `yaml:"profile_select"`
}

// SceneGroupConfig defines a named group of scenes
type SceneGroupConfig struct {
	Name        string        `yaml:"name"`
	Scenes      []SceneConfig `yaml:"scenes"`
	SceneSelect *SelectConfig `yaml:"scene_select"`
}

// SceneConfig defines one scene: target states for its member entities
type SceneConfig struct {
	Name       string        `yaml:"name"`
	UniqueID   string        `yaml:"unique_id"`
	Transition *Duration     `yaml:"transition"`
	Entities   SceneEntities `yaml:"entities"`
}

// SceneEntity is one member target state of a scene
type SceneEntity struct {
	EntityID   string
	State      string
	Attributes map[string]any
}

// SceneEntities preserves the configuration order of a scene's entity
// mapping. Each value is either a bare state token or a mapping with a
// "state" key (default "on") plus arbitrary attributes.
type SceneEntities []SceneEntity

// UnmarshalYAML implements yaml.Unmarshaler for SceneEntities
func (e *SceneEntities) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("entities must be a mapping of entity ID to target state")
	}
	result := make(SceneEntities, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valueNode := node.Content[i], node.Content[i+1]

		member := SceneEntity{EntityID: keyNode.Value, State: "on"}
		switch valueNode.Kind {
		case yaml.ScalarNode:
			if err := valueNode.Decode(&member.State); err != nil {
				return err
			}
		case yaml.MappingNode:
			var attrs map[string]any
			if err := valueNode.Decode(&attrs); err != nil {
				return err
			}
			if state, ok := attrs["state"].(string); ok {
				member.State = state
				delete(attrs, "state")
			}
			member.Attributes = attrs
		default:
			return fmt.Errorf("entity %q: target state must be a string or a mapping", member.EntityID)
		}
		result = append(result, member)
	}
	*e = result
	return nil
}

// StringList accepts either a single string or a sequence of strings
type StringList []string

// UnmarshalYAML implements yaml.Unmarshaler for StringList
func (l *StringList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var single string
		if err := node.Decode(&single); err != nil {
			return err
		}
		*l = StringList{single}
		return nil
	}
	var list []string
	if err := node.Decode(&list); err != nil {
		return err
	}
	*l = list
	return nil
}

// Duration is a wrapper around time.Duration for YAML unmarshalling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// GetLevel returns the log level with default
func (c *LogConfig) GetLevel() string {
	if c.Level == "" {
		return "info"
	}
	return c.Level
}

// Load reads, parses and validates the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables
	expanded := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}

	// Defaults
	if cfg.Database.Path == "" {
		cfg.Database.Path = "./sceneryd.sqlite"
	}
	if cfg.MQTT.Broker == "" {
		cfg.MQTT.Broker = "tcp://127.0.0.1:1883"
	}
	if cfg.MQTT.StatePrefix == "" {
		cfg.MQTT.StatePrefix = "homeassistant/statestream"
	}
	if cfg.MQTT.CommandTopic == "" {
		cfg.MQTT.CommandTopic = "sceneryd/command"
	}
	if cfg.MQTT.SelectPrefix == "" {
		cfg.MQTT.SelectPrefix = "sceneryd/select"
	}
	if cfg.MQTT.ConnectTimeout == 0 {
		cfg.MQTT.ConnectTimeout = Duration(10 * time.Second)
	}
	if cfg.API.Port == 0 {
		cfg.API.Port = 8099
	}
	if cfg.API.Host == "" {
		cfg.API.Host = "0.0.0.0"
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = Duration(5 * time.Second)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// expandEnvVars expands environment variables in the format ${VAR} or ${VAR:default}
func expandEnvVars(input string) string {
	// Match ${VAR} or ${VAR:default}
	re := regexp.MustCompile(`\$\{([^}:]+)(?::([^}]*))?\}`)

	return re.ReplaceAllStringFunc(input, func(match string) string {
		parts := re.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		varName := parts[1]
		defaultVal := ""
		if len(parts) >= 3 {
			defaultVal = parts[2]
		}

		if val := os.Getenv(varName); val != "" {
			return val
		}
		return defaultVal
	})
}
