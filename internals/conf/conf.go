package conf

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	z "github.com/Oudwins/zog"

	"sysdiag/internals/timeouts"
)

type Config struct {
	Version string       `json:"-"`
	Server  ServerConfig `json:"server"`
	AI      AIConfig     `json:"ai" zog:"ai"`
	Queue   QueueConfig  `json:"queue"`
}

type ServerConfig struct {
	DataDir string `json:"data_dir"`
}

type AIConfig struct {
	Model string `json:"model"`
	// TimeoutSeconds bounds one collaborator round trip. Zero disables the
	// deadline.
	TimeoutSeconds int `json:"timeout_seconds"`
}

type QueueConfig struct {
	Workers  int `json:"workers"`
	Capacity int `json:"capacity"`
}

var serverSchema = z.Struct(z.Shape{
	"DataDir": z.String().Default("~/.sysdiag").Transform(expandPathTransform),
})

var aiSchema = z.Struct(z.Shape{
	"Model":          z.String().Default("gemini-1.5-flash-latest"),
	"TimeoutSeconds": z.Int().Default(int(timeouts.AIDefault / time.Second)),
})

var queueSchema = z.Struct(z.Shape{
	"Workers":  z.Int().Default(2),
	"Capacity": z.Int().Default(64),
})

var ConfigSchema = z.Struct(z.Shape{
	"server": serverSchema,
	"AI":     aiSchema,
	"queue":  queueSchema,
})

var config *Config

func GetConfig() *Config {

	if config == nil {
		defaults := &Config{}
		if err := ConfigSchema.Parse(map[string]any{}, defaults); err != nil {
			log.Fatal("[Sysdiag] Failed to parse config", err)
		}
		defaults.Version = "0.0.1"

		dataDir, err := expandPath(defaults.Server.DataDir)
		if err != nil {
			log.Fatal("[Sysdiag] Failed to expand config data dir", err)
		}

		configPath := filepath.Join(filepath.Clean(dataDir), "sysdiag.json")
		data, err := os.ReadFile(configPath)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				config = defaults
				return config
			}
			log.Fatal("[Sysdiag] Failed to read config file", err)
		}
		if strings.TrimSpace(string(data)) == "" {
			config = defaults
			return config
		}

		var payload map[string]any
		if err := json.Unmarshal(data, &payload); err != nil {
			log.Fatal("[Sysdiag] Failed to parse config file", err)
		}
		parsed := &Config{}
		if err := ConfigSchema.Parse(payload, parsed); err != nil {
			log.Fatal("[Sysdiag] Failed to parse config", err)
		}
		parsed.Version = defaults.Version
		config = parsed
	}

	return config
}

func expandPathTransform(ptr *string, c z.Ctx) error {
	expanded, err := expandPath(*ptr)
	*ptr = expanded
	return err
}

func expandPath(path string) (string, error) {
	if path == "" {
		return path, nil
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		if path == "~" {
			return home, nil
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~/")), nil
	}
	return path, nil
}
