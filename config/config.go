// file: jsbridge/config/config.go
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/rskv-p/jsbridge/constant"
	"github.com/rskv-p/jsbridge/pkg/x_log"
	"github.com/rskv-p/jsbridge/snapshot"
)

// Config holds host runtime settings.
type Config struct {
	Name           string               `json:"name" mapstructure:"name"`
	MaxMessageSize int                  `json:"max_message_size" mapstructure:"max_message_size"`
	Log            x_log.Config         `json:"log" mapstructure:"log"`
	Snapshot       snapshot.StoreConfig `json:"snapshot" mapstructure:"snapshot"`
	NATS           NATSConfig           `json:"nats" mapstructure:"nats"`
	HTTP           HTTPConfig           `json:"http" mapstructure:"http"`
}

// NATSConfig configures the message bus bridge.
type NATSConfig struct {
	URL        string        `json:"url" mapstructure:"url"`
	Embedded   bool          `json:"embedded" mapstructure:"embedded"` // start an in-process server
	Host       string        `json:"host" mapstructure:"host"`         // embedded listen host
	Port       int           `json:"port" mapstructure:"port"`         // embedded listen port, -1 for random
	InSubject  string        `json:"in_subject" mapstructure:"in_subject"`
	OutSubject string        `json:"out_subject" mapstructure:"out_subject"`
	Queue      string        `json:"queue" mapstructure:"queue"`
	Timeout    time.Duration `json:"timeout" mapstructure:"timeout"`
}

// HTTPConfig configures the inspection API.
type HTTPConfig struct {
	Addr string `json:"addr" mapstructure:"addr"`
}

// Default returns a default config.
func Default() *Config {
	return &Config{
		Name:           constant.AppName,
		MaxMessageSize: constant.DefaultMaxMessage,
		Log:            x_log.DefaultConfig(),
		Snapshot: snapshot.StoreConfig{
			Type: "file",
			Dir:  constant.DefaultSnapshotDir,
		},
		NATS: NATSConfig{
			URL:        constant.DefaultNATSURL,
			Host:       "127.0.0.1",
			Port:       4222,
			InSubject:  constant.SubjectInbound,
			OutSubject: constant.SubjectOutbound,
			Timeout:    5 * time.Second,
		},
		HTTP: HTTPConfig{Addr: constant.DefaultHTTPAddr},
	}
}

// Load reads a JSON file, expands ${ENV} references and decodes it onto the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	data = ReplaceEnvVars(data)

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse config json: %w", err)
	}

	cfg := Default()
	if err := decode(raw, cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

func decode(raw map[string]any, cfg *Config) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}

// LoadFromEnv returns the defaults overridden by prefixed environment variables.
func LoadFromEnv(prefix string) *Config {
	cfg := Default()
	ApplyEnv(cfg, prefix)
	return cfg
}

// ApplyEnv overrides cfg with prefixed environment variables.
func ApplyEnv(cfg *Config, prefix string) {
	cfg.Name = GetEnvStr(prefix+"NAME", cfg.Name)
	cfg.MaxMessageSize = GetEnvInt(prefix+"MAX_MESSAGE_SIZE", cfg.MaxMessageSize)

	cfg.Log.Level = GetEnvStr(prefix+"LOG_LEVEL", cfg.Log.Level)
	cfg.Log.LogFile = GetEnvStr(prefix+"LOG_FILE", cfg.Log.LogFile)
	cfg.Log.ToFile = GetEnvBool(prefix+"LOG_TO_FILE", cfg.Log.ToFile)
	cfg.Log.JSON = GetEnvBool(prefix+"LOG_JSON", cfg.Log.JSON)
	cfg.Log.Style = GetEnvStr(prefix+"LOG_STYLE", cfg.Log.Style)

	cfg.Snapshot.Type = GetEnvStr(prefix+"SNAPSHOT_STORE", cfg.Snapshot.Type)
	cfg.Snapshot.Dir = GetEnvStr(prefix+"SNAPSHOT_DIR", cfg.Snapshot.Dir)
	cfg.Snapshot.DSN = GetEnvStr(prefix+"SNAPSHOT_DSN", cfg.Snapshot.DSN)

	cfg.NATS.URL = GetEnvStr(prefix+"NATS_URL", cfg.NATS.URL)
	cfg.NATS.Embedded = GetEnvBool(prefix+"NATS_EMBEDDED", cfg.NATS.Embedded)
	cfg.NATS.Port = GetEnvInt(prefix+"NATS_PORT", cfg.NATS.Port)
	cfg.NATS.InSubject = GetEnvStr(prefix+"NATS_IN", cfg.NATS.InSubject)
	cfg.NATS.OutSubject = GetEnvStr(prefix+"NATS_OUT", cfg.NATS.OutSubject)
	cfg.NATS.Timeout = GetEnvDuration(prefix+"NATS_TIMEOUT", cfg.NATS.Timeout)

	cfg.HTTP.Addr = GetEnvStr(prefix+"HTTP_ADDR", cfg.HTTP.Addr)
}

// LoadWithFallback loads from JSB_CONFIG (or path) and then applies JSB_ overrides.
// A missing file is not an error.
func LoadWithFallback(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(constant.EnvConfigPath)
	}
	cfg := Default()
	if path != "" {
		loaded, err := Load(path)
		switch {
		case err == nil:
			cfg = loaded
		case !errors.Is(err, os.ErrNotExist):
			return nil, err
		}
	}
	ApplyEnv(cfg, constant.EnvPrefix)
	return cfg, cfg.Validate()
}

// Validate checks config for required values.
func (cfg *Config) Validate() error {
	var missing []string
	if cfg.Name == "" {
		missing = append(missing, "name")
	}
	if cfg.MaxMessageSize < 0 {
		missing = append(missing, fmt.Sprintf("max_message_size(%d)", cfg.MaxMessageSize))
	}
	switch strings.ToLower(cfg.Snapshot.Type) {
	case "", "file":
		if cfg.Snapshot.Dir == "" {
			missing = append(missing, "snapshot.dir")
		}
	case "sqlite", "postgres":
		if cfg.Snapshot.DSN == "" {
			missing = append(missing, "snapshot.dsn")
		}
	default:
		missing = append(missing, fmt.Sprintf("snapshot.type(%s)", cfg.Snapshot.Type))
	}
	if cfg.NATS.InSubject == "" || cfg.NATS.OutSubject == "" {
		missing = append(missing, "nats.in_subject/nats.out_subject")
	}
	if cfg.NATS.Embedded && (cfg.NATS.Port < -1 || cfg.NATS.Port > 65535) {
		missing = append(missing, fmt.Sprintf("nats.port(%d)", cfg.NATS.Port))
	}
	if cfg.NATS.Timeout <= 0 {
		missing = append(missing, "nats.timeout")
	}
	if len(missing) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(missing, ", "))
	}
	return nil
}

func (cfg *Config) String() string {
	data, _ := json.MarshalIndent(cfg, "", "  ")
	return string(data)
}

// Dump writes the indented JSON form followed by a newline.
func (cfg *Config) Dump(w io.Writer) {
	_, _ = io.WriteString(w, cfg.String()+"\n")
}
