// file: jsbridge/pkg/x_log/config.go
package x_log

//
// ---------- Config ----------

// Config controls where log lines go and how they look.
type Config struct {
	Level      string `json:"Level" mapstructure:"level"`
	LogFile    string `json:"LogFile" mapstructure:"log_file"`
	ToConsole  bool   `json:"ToConsole" mapstructure:"to_console"`
	ToFile     bool   `json:"ToFile" mapstructure:"to_file"`
	JSON       bool   `json:"JSON" mapstructure:"json"`   // raw JSON lines on the console
	Style      string `json:"Style" mapstructure:"style"` // "dark" or "light"
	MaxSize    int    `json:"MaxSize" mapstructure:"max_size"`
	MaxBackups int    `json:"MaxBackups" mapstructure:"max_backups"`
	MaxAge     int    `json:"MaxAge" mapstructure:"max_age"`
	Compress   bool   `json:"Compress" mapstructure:"compress"`
}

//
// ---------- Defaults ----------

var defaultConfig = Config{
	Level:      "info",
	LogFile:    "logs/app.log",
	ToConsole:  true,
	ToFile:     false,
	Style:      "dark",
	MaxSize:    10, // MB
	MaxBackups: 5,  // rotated files
	MaxAge:     7,  // days
	Compress:   true,
}

// DefaultConfig returns a copy of the built-in logging defaults.
func DefaultConfig() Config {
	return defaultConfig
}

//
// ---------- Defaults Fill ----------

// ApplyDefaults fills missing config values from the defaults.
func ApplyDefaults(cfg *Config) {
	if cfg.Level == "" {
		cfg.Level = defaultConfig.Level
	}
	if cfg.LogFile == "" {
		cfg.LogFile = defaultConfig.LogFile
	}
	if cfg.Style == "" {
		cfg.Style = defaultConfig.Style
	}
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = defaultConfig.MaxSize
	}
	if cfg.MaxBackups <= 0 {
		cfg.MaxBackups = defaultConfig.MaxBackups
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = defaultConfig.MaxAge
	}
}
