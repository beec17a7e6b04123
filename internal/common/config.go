package common

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. OFFERS_LEDGER_PATH.
const EnvPrefix = "OFFERS"

// Config holds all application configuration
type Config struct {
	Watch   WatchConfig   `mapstructure:"watch"`
	Ledger  LedgerConfig  `mapstructure:"ledger"`
	Folders FoldersConfig `mapstructure:"folders"`
	OCR     OCRConfig     `mapstructure:"ocr"`
	Queue   QueueConfig   `mapstructure:"queue"`
	Journal JournalConfig `mapstructure:"journal"`
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
}

// WatchConfig describes the drop folder.
type WatchConfig struct {
	Dir         string        `mapstructure:"dir"`
	Debounce    time.Duration `mapstructure:"debounce"`
	InitialScan bool          `mapstructure:"initial_scan"`
}

// LedgerConfig points at the evidence table. The extension (.xlsx or .csv) picks the format.
type LedgerConfig struct {
	Path  string `mapstructure:"path"`
	Sheet string `mapstructure:"sheet"`
}

// FoldersConfig holds the routing targets for finished documents.
type FoldersConfig struct {
	Done              string `mapstructure:"done"`
	Error             string `mapstructure:"error"`
	UnsupportedPolicy string `mapstructure:"unsupported_policy"`
}

// OCRConfig holds text extraction settings.
type OCRConfig struct {
	Engine      string        `mapstructure:"engine"`
	Pdftotext   string        `mapstructure:"pdftotext"`
	Pdftoppm    string        `mapstructure:"pdftoppm"`
	Tesseract   string        `mapstructure:"tesseract"`
	Lang        string        `mapstructure:"lang"`
	DPI         int           `mapstructure:"dpi"`
	MaxPages    int           `mapstructure:"max_pages"`
	TessdataDir string        `mapstructure:"tessdata_dir"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// QueueConfig sizes the serial processing queue.
type QueueConfig struct {
	Size           int           `mapstructure:"size"`
	ProcessTimeout time.Duration `mapstructure:"process_timeout"`
}

// JournalConfig selects the processing journal database.
type JournalConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Driver  string `mapstructure:"driver"`
	DSN     string `mapstructure:"dsn"`
}

// ServerConfig holds the admin listeners. An empty address disables the listener.
type ServerConfig struct {
	AdminAddr       string        `mapstructure:"admin_addr"`
	GRPCAddr        string        `mapstructure:"grpc_addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("watch.dir", "./inbox")
	v.SetDefault("watch.debounce", "1s")
	v.SetDefault("watch.initial_scan", true)

	v.SetDefault("ledger.path", "./evidence.xlsx")
	v.SetDefault("ledger.sheet", "Evidence")

	v.SetDefault("folders.done", "./ZPRACOVANE")
	v.SetDefault("folders.error", "./CHYBY")
	v.SetDefault("folders.unsupported_policy", "leave")

	v.SetDefault("ocr.engine", "native")
	v.SetDefault("ocr.pdftotext", "pdftotext")
	v.SetDefault("ocr.pdftoppm", "pdftoppm")
	v.SetDefault("ocr.tesseract", "tesseract")
	v.SetDefault("ocr.lang", "ces")
	v.SetDefault("ocr.dpi", 300)
	v.SetDefault("ocr.max_pages", 0)
	v.SetDefault("ocr.tessdata_dir", "")
	v.SetDefault("ocr.timeout", "2m")

	v.SetDefault("queue.size", 64)
	v.SetDefault("queue.process_timeout", "3m")

	v.SetDefault("journal.enabled", true)
	v.SetDefault("journal.driver", "sqlite")
	v.SetDefault("journal.dsn", "./offers-journal.db")

	v.SetDefault("server.admin_addr", ":8081")
	v.SetDefault("server.grpc_addr", ":8082")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads configuration from defaults, the optional config file and
// OFFERS_* environment variables, in increasing precedence.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, NewAppError(CodeConfig, fmt.Sprintf("read config file %s", configFile), err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, NewAppError(CodeConfig, "decode config", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings every binary relies on.
func (c *Config) Validate() error {
	v := NewValidator().
		Field("watch.dir", c.Watch.Dir, Required).
		Field("ledger.path", c.Ledger.Path, Required, ledgerExt).
		Field("folders.done", c.Folders.Done, Required).
		Field("folders.error", c.Folders.Error, Required).
		Field("folders.unsupported_policy", c.Folders.UnsupportedPolicy, OneOf("leave", "error")).
		Field("ocr.engine", c.OCR.Engine, OneOf("native", "pdftotext")).
		Field("ocr.dpi", c.OCR.DPI, Positive).
		Field("log.format", c.Log.Format, OneOf("text", "json")).
		Field("log.level", c.Log.Level, OneOf("debug", "info", "warn", "error"))
	if c.Journal.Enabled {
		v.Field("journal.driver", c.Journal.Driver, OneOf("sqlite", "pgx")).
			Field("journal.dsn", c.Journal.DSN, Required)
	}
	return ValidateAndReturnError(v, CodeConfig)
}

func ledgerExt(fieldName string, value interface{}) *ValidationError {
	s, _ := value.(string)
	lower := strings.ToLower(s)
	if s == "" || strings.HasSuffix(lower, ".xlsx") || strings.HasSuffix(lower, ".csv") {
		return nil
	}
	return &ValidationError{Field: fieldName, Value: value, Message: "must end in .xlsx or .csv"}
}
