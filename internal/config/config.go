package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/aldb-associates/inspection-ingest/internal/store"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Ingest     IngestConfig     `yaml:"ingest" mapstructure:"ingest"`
	Upload     UploadConfig     `yaml:"upload" mapstructure:"upload"`
	OCR        OCRConfig        `yaml:"ocr" mapstructure:"ocr"`
	Summarizer SummarizerConfig `yaml:"summarizer" mapstructure:"summarizer"`
	Storage    StorageConfig    `yaml:"storage" mapstructure:"storage"`
	Resend     ResendConfig     `yaml:"resend" mapstructure:"resend"`
	Report     ReportConfig     `yaml:"report" mapstructure:"report"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string            `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string            `yaml:"database_url" mapstructure:"database_url"`
	Pool        *store.PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// ServerConfig configures the HTTP ingestion server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// IngestConfig configures submission processing.
type IngestConfig struct {
	ReportNumPath  string `yaml:"report_num_path" mapstructure:"report_num_path"`
	Archive        bool   `yaml:"archive" mapstructure:"archive"`
	ProjectionFile string `yaml:"projection_file" mapstructure:"projection_file"`
}

// UploadConfig configures document upload handling.
type UploadConfig struct {
	Dir       string `yaml:"dir" mapstructure:"dir"`
	MaxSizeMB int64  `yaml:"max_size_mb" mapstructure:"max_size_mb"`
}

// OCRConfig configures PDF text extraction.
type OCRConfig struct {
	Provider      string `yaml:"provider" mapstructure:"provider"`
	PdfToTextPath string `yaml:"pdftotext_path" mapstructure:"pdftotext_path"`
}

// SummarizerConfig configures the document summary provider.
type SummarizerConfig struct {
	Provider          string `yaml:"provider" mapstructure:"provider"`
	Key               string `yaml:"key" mapstructure:"key"`
	BaseURL           string `yaml:"base_url" mapstructure:"base_url"`
	Model             string `yaml:"model" mapstructure:"model"`
	MaxTokens         int    `yaml:"max_tokens" mapstructure:"max_tokens"`
	RequestsPerMinute int    `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
}

// StorageConfig configures document object storage.
type StorageConfig struct {
	Bucket string `yaml:"bucket" mapstructure:"bucket"`
}

// ResendConfig holds Resend email API settings.
type ResendConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	From    string `yaml:"from" mapstructure:"from"`
}

// ReportConfig configures the daily summary report.
type ReportConfig struct {
	Recipients []string `yaml:"recipients" mapstructure:"recipients"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("INSPECT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("server.port", 8080)
	v.SetDefault("ingest.report_num_path", "Entry.AnswersJson.p1.reportNum")
	v.SetDefault("ingest.archive", true)
	v.SetDefault("upload.dir", "uploads")
	v.SetDefault("upload.max_size_mb", 10)
	v.SetDefault("ocr.provider", "local")
	v.SetDefault("ocr.pdftotext_path", "pdftotext")
	v.SetDefault("summarizer.provider", "openai")
	v.SetDefault("summarizer.model", "gpt-4o")
	v.SetDefault("summarizer.max_tokens", 500)
	v.SetDefault("summarizer.requests_per_minute", 20)
	v.SetDefault("storage.bucket", "client-bucket")
	v.SetDefault("resend.base_url", "https://api.resend.com")
	v.SetDefault("resend.from", "reports@aldb-associates.com")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks that the configuration satisfies the requirements of the
// given run mode. Modes map to CLI commands: "serve", "ingest", "docflow",
// "dailyreport".
func (c *Config) Validate(mode string) error {
	var missing []string

	requireStore := func() {
		if c.Store.Driver != "postgres" && c.Store.Driver != "sqlite" {
			missing = append(missing, fmt.Sprintf("store.driver must be postgres or sqlite, got %q", c.Store.Driver))
		}
		if c.Store.DatabaseURL == "" {
			missing = append(missing, "store.database_url is required")
		}
	}
	requireMail := func() {
		if c.Resend.Key == "" {
			missing = append(missing, "resend.key is required")
		}
		if c.Resend.From == "" {
			missing = append(missing, "resend.from is required")
		}
	}

	switch mode {
	case "serve":
		requireStore()
		if c.Server.Port <= 0 {
			missing = append(missing, "server.port must be > 0")
		}
		if c.Upload.MaxSizeMB <= 0 {
			missing = append(missing, "upload.max_size_mb must be > 0")
		}
		if c.Summarizer.Provider != "openai" && c.Summarizer.Provider != "anthropic" {
			missing = append(missing, fmt.Sprintf("summarizer.provider must be openai or anthropic, got %q", c.Summarizer.Provider))
		}
	case "ingest":
		requireStore()
	case "docflow":
		requireStore()
		requireMail()
		if c.Storage.Bucket == "" {
			missing = append(missing, "storage.bucket is required")
		}
	case "dailyreport":
		requireStore()
		requireMail()
		if len(c.Report.Recipients) == 0 {
			missing = append(missing, "report.recipients is required")
		}
	case "migrate":
		requireStore()
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(missing) > 0 {
		return eris.Errorf("config: %s", strings.Join(missing, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
