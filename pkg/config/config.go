package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultMaxJSONBytes fits a full recorded pose sequence: 2000 frames of 33
// landmarks at full float precision come to about 7 MB.
const DefaultMaxJSONBytes = 16 * 1024 * 1024

type Config struct {
	Server    ServerConfig
	SQLite    SQLiteConfig
	Redis     RedisConfig
	Session   SessionConfig
	Uploads   UploadsConfig
	Diagnosis DiagnosisConfig
	Routing   RoutingConfig
	OCR       OCRConfig
	Dashboard DashboardConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Host           string
	Port           int
	ReadTimeout    int
	WriteTimeout   int
	BodyLimit      int
	MaxJSONBytes   int
	AllowedOrigins []string
	Development    bool
	AuthRateLimit  int
}

type SQLiteConfig struct {
	Path string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type SessionConfig struct {
	TTLMinutes   int
	CookieName   string
	CookieSecure bool
}

type UploadsConfig struct {
	Dir          string
	MaxFileBytes int
	AllowedExts  []string
}

// DiagnosisConfig points at the classifier artifact and the directory holding
// the description/precaution/medication/diet/workout CSV tables.
type DiagnosisConfig struct {
	ModelPath string
	TablesDir string
}

type RoutingConfig struct {
	OSRMBaseURL string
	TimeoutSec  int
	CacheTTLMin int
}

type OCRConfig struct {
	Enabled       bool
	APIKey        string
	BaseURL       string
	Model         string
	TimeoutSec    int
	BlurThreshold float64
	MaxPixels     int
	MaxTokens     int
}

type DashboardConfig struct {
	AnimationURL string
	TimeoutSec   int
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

func Load() (*Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/health-dashboard")

	viper.SetEnvPrefix("HEALTH_DASHBOARD")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.SQLite.Path == "" {
		return fmt.Errorf("sqlite.path is required")
	}
	if c.Uploads.Dir == "" {
		return fmt.Errorf("uploads.dir is required")
	}
	if c.Session.TTLMinutes <= 0 {
		return fmt.Errorf("session.ttlMinutes must be positive")
	}
	if c.OCR.Enabled && c.OCR.APIKey == "" {
		return fmt.Errorf("ocr.apiKey is required when ocr is enabled")
	}
	return nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.readTimeout", 30)
	viper.SetDefault("server.writeTimeout", 30)
	viper.SetDefault("server.bodyLimit", 20971520)
	viper.SetDefault("server.allowedOrigins", []string{"*"})
	viper.SetDefault("server.development", true)
	viper.SetDefault("server.authRateLimit", 30)
	viper.SetDefault("server.maxJSONBytes", DefaultMaxJSONBytes)

	viper.SetDefault("sqlite.path", "./data/user_data.db")

	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("session.ttlMinutes", 720)
	viper.SetDefault("session.cookieName", "session_id")
	viper.SetDefault("session.cookieSecure", false)

	viper.SetDefault("uploads.dir", "./data/uploaded_files")
	viper.SetDefault("uploads.maxFileBytes", 10485760)
	viper.SetDefault("uploads.allowedExts", []string{".pdf", ".jpg", ".jpeg", ".png"})

	viper.SetDefault("diagnosis.modelPath", "./data/model/svc.json")
	viper.SetDefault("diagnosis.tablesDir", "./data/tables")

	viper.SetDefault("routing.osrmBaseURL", "http://router.project-osrm.org")
	viper.SetDefault("routing.timeoutSec", 10)
	viper.SetDefault("routing.cacheTTLMin", 60)

	viper.SetDefault("ocr.enabled", false)
	viper.SetDefault("ocr.model", "gpt-4-vision-preview")
	viper.SetDefault("ocr.timeoutSec", 60)
	viper.SetDefault("ocr.blurThreshold", 100.0)
	viper.SetDefault("ocr.maxPixels", 40000000)
	viper.SetDefault("ocr.maxTokens", 2048)

	viper.SetDefault("dashboard.animationURL", "https://assets10.lottiefiles.com/packages/lf20_0fy1spgt.json")
	viper.SetDefault("dashboard.timeoutSec", 5)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.outputPath", "stdout")
}
