package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env             string        `mapstructure:"ENV"`
	Port            string        `mapstructure:"PORT"`
	DatabaseURL     string        `mapstructure:"DATABASE_URL"`
	AdminKey        string        `mapstructure:"ADMIN_KEY"`
	CORSAllowed     string        `mapstructure:"CORS_ALLOWED_ORIGINS"`
	RequestTimeout  time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	LogLevel        string        `mapstructure:"LOG_LEVEL"`
	MaxUploadSizeMB int64         `mapstructure:"MAX_UPLOAD_MB"`
	RunConfigPath   string        `mapstructure:"RUN_CONFIG_PATH"`
	RenderWorkers   int           `mapstructure:"RENDER_WORKERS"`

	SMTPServer    string `mapstructure:"SMTP_SERVER"`
	SMTPPort      int    `mapstructure:"SMTP_PORT"`
	SMTPUsername  string `mapstructure:"SMTP_USERNAME"`
	SMTPPassword  string `mapstructure:"SMTP_PASSWORD"`
	ManagerEmails string `mapstructure:"MANAGERS_EMAILS"`

	AzureConnectionString string `mapstructure:"AZURE_STORAGE_CONNECTION_STRING"`
	ArchiveContainer      string `mapstructure:"ARCHIVE_CONTAINER"`
}

func Load() (Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	_ = v.ReadInConfig()

	v.SetDefault("ENV", "dev")
	v.SetDefault("PORT", "8080")
	v.SetDefault("REQUEST_TIMEOUT", "60s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("MAX_UPLOAD_MB", 20)
	v.SetDefault("RENDER_WORKERS", 4)
	v.SetDefault("SMTP_SERVER", "smtp.gmail.com")
	v.SetDefault("SMTP_PORT", 465)
	v.SetDefault("ARCHIVE_CONTAINER", "distribuicao")

	// AutomaticEnv only resolves keys viper already knows about.
	for _, key := range []string{"DATABASE_URL", "ADMIN_KEY", "RUN_CONFIG_PATH", "SMTP_USERNAME", "SMTP_PASSWORD", "MANAGERS_EMAILS", "AZURE_STORAGE_CONNECTION_STRING"} {
		_ = v.BindEnv(key)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Managers splits MANAGERS_EMAILS on commas and semicolons.
func (c Config) Managers() []string {
	fields := strings.FieldsFunc(c.ManagerEmails, func(r rune) bool {
		return r == ',' || r == ';'
	})
	var out []string
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// SMTPConfigured reports whether both credentials are present.
func (c Config) SMTPConfigured() bool {
	return c.SMTPUsername != "" && c.SMTPPassword != ""
}
