package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Conf holds the application configuration, making it accessible globally.
var Conf *Config

// Config struct is the top-level configuration structure.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Study    StudyConfig    `mapstructure:"study"`
	Chat     ChatConfig     `mapstructure:"chat"`
	Admin    AdminConfig    `mapstructure:"admin"`
}

// ServerConfig holds server-related settings.
type ServerConfig struct {
	Port          string `mapstructure:"port"`
	SessionSecret string `mapstructure:"session_secret"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

// LoggingConfig holds settings for the logger.
type LoggingConfig struct {
	Directory  string `mapstructure:"directory"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// StudyConfig holds the experiment-level settings that are operational
// rather than protocol (the protocol lives in config/study.yaml).
type StudyConfig struct {
	DefinitionFile    string               `mapstructure:"definition_file"`
	RecruitmentTarget int                  `mapstructure:"recruitment_target"`
	MinChatTurns      int                  `mapstructure:"min_chat_turns"`
	AllowAICohort     bool                 `mapstructure:"allow_ai_cohort"`
	DuplicateCheck    DuplicateCheckConfig `mapstructure:"duplicate_check"`
}

// DuplicateCheckConfig controls the fingerprint-based duplicate guard.
// When disabled, fingerprints are still recorded for offline analysis.
type DuplicateCheckConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	WindowDays    int  `mapstructure:"window_days"`
	CompletedOnly bool `mapstructure:"completed_only"`
}

// ChatConfig holds the hosted language model settings for the chat relay.
type ChatConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// AdminConfig guards the operational escape hatches (bulk deletes).
type AdminConfig struct {
	PasswordHash string `mapstructure:"password_hash"` // bcrypt
	JWTSecret    string `mapstructure:"jwt_secret"`
}

// setDefaults sets the default values for the configuration.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "5050")
	v.SetDefault("server.session_secret", "change-me-in-production")

	// Database defaults
	v.SetDefault("database.host", "db")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "admin")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.dbname", "chatbot_study")

	// Logging defaults
	v.SetDefault("logging.directory", "logs")
	v.SetDefault("logging.max_size", 10)   // 10 MB
	v.SetDefault("logging.max_backups", 3) // Keep 3 backups
	v.SetDefault("logging.max_age", 7)     // 7 days
	v.SetDefault("logging.compress", true) // Compress old logs

	// Study defaults
	v.SetDefault("study.definition_file", "config/study.yaml")
	v.SetDefault("study.recruitment_target", 200)
	v.SetDefault("study.min_chat_turns", 3)
	v.SetDefault("study.allow_ai_cohort", false)
	v.SetDefault("study.duplicate_check.enabled", true)
	v.SetDefault("study.duplicate_check.window_days", 7)
	v.SetDefault("study.duplicate_check.completed_only", true)

	// Chat relay defaults
	v.SetDefault("chat.model", "gemini-2.0-flash")

	// Admin defaults: empty hash disables the admin surface entirely.
	v.SetDefault("admin.password_hash", "")
	v.SetDefault("admin.jwt_secret", "")
}

// Init initializes the configuration with Viper. It runs before the logger
// exists, so reload events go through the zap global (replaced in main once
// the real logger is up).
func Init(projectRoot string) error {
	v := viper.New()

	// Set default values
	setDefaults(v)

	// --- File Configuration ---
	v.AddConfigPath(filepath.Join(projectRoot, "config"))
	v.SetConfigName("config") // Name of config file (without extension)
	v.SetConfigType("yaml")

	// --- Environment Variable Binding ---
	v.SetEnvPrefix("STUDY") // e.g., STUDY_SERVER_PORT
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read the initial configuration from the file.
	// It's okay if the file doesn't exist; defaults and env vars will be used.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Unmarshal the config into our global Conf variable
	if err := v.Unmarshal(&Conf); err != nil {
		return fmt.Errorf("unable to decode config into struct: %w", err)
	}

	// Set up a watch for configuration changes for hot-reloading
	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		zap.L().Info("Configuration file changed, reloading.", zap.String("file", e.Name))
		if err := v.Unmarshal(&Conf); err != nil {
			zap.L().Error("Error reloading configuration", zap.Error(err))
		}
	})

	return nil
}
