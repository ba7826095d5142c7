package config

import (
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	viper "github.com/spf13/viper"
)

/*
把init config跟read config分開
init : 需要設置viper watch 與 onConfigChange
read config : 一般讀寫  需要使用讀寫鎖
*/
var config_siongleton *ConfigSingleTon
var muonce sync.Once

// 預設讀取工作目錄下的 .env, 可由 SetConfigFile 或環境變數 CONFIG_FILE 覆寫
var configFile = ".env"

type ConfigSingleTon struct {
	Config *Config
	mu     sync.RWMutex
}

type Config struct {
	ServerPort    string `mapstructure:"SERVER_PORT"`
	PublicBaseURL string `mapstructure:"PUBLIC_BASE_URL"`

	DbName string `mapstructure:"POSTGRES_DB"`
	DbHost string `mapstructure:"POSTGRES_HOST"`
	DbPort string `mapstructure:"POSTGRES_PORT"`
	DbUser string `mapstructure:"POSTGRES_USER"`
	DbPas  string `mapstructure:"POSTGRES_PASSWORD"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	AuthTokenKey       string `mapstructure:"AUTH_TOKEN_KEY"`
	ActivationTokenKey string `mapstructure:"ACTIVATION_TOKEN_KEY"`

	KafkaBrokers      string `mapstructure:"KAFKA_BROKERS"`
	KafkaListingTopic string `mapstructure:"KAFKA_LISTING_TOPIC"`
	KafkaGroupID      string `mapstructure:"KAFKA_GROUP_ID"`

	GcsBucket      string `mapstructure:"GCS_BUCKET"`
	SendGridAPIKey string `mapstructure:"SENDGRID_API_KEY"`
	EmailAccount   string `mapstructure:"EMAIL_ACCOUNT"`

	ListingCacheTTL   time.Duration `mapstructure:"LISTING_CACHE_TTL"`
	BannerCacheTTL    time.Duration `mapstructure:"BANNER_CACHE_TTL"`
	SessionTTL        time.Duration `mapstructure:"SESSION_TTL"`
	RateLimitCapacity int           `mapstructure:"RATE_LIMIT_CAPACITY"`
	RateLimitRatePS   int           `mapstructure:"RATE_LIMIT_RATE_PS"`
}

// KafkaBrokerList KAFKA_BROKERS 以逗號分隔
func (c *Config) KafkaBrokerList() []string {
	var brokers []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// SetConfigFile 必須在第一次 GetConfig 之前呼叫
func SetConfigFile(path string) {
	if path != "" {
		configFile = path
	}
}

func GetConfig() *Config {
	initConfig()
	config_siongleton.mu.RLock()
	defer config_siongleton.mu.RUnlock()
	return config_siongleton.Config
}

func initConfig() {
	if config_siongleton == nil {
		muonce.Do(func() {
			config_siongleton = &ConfigSingleTon{}
			cf, fromFile, err := loadConfig()
			if err != nil {
				log.Fatalf("error read config: %v", err)
			}
			config_siongleton.Config = cf
			if !fromFile {
				return
			}
			viper.WatchConfig()
			viper.OnConfigChange(func(e fsnotify.Event) {
				if cf, _, err := loadConfig(); err == nil {
					config_siongleton.Config = cf
				} else {
					log.Printf("failed to reload config file: %v", err)
				}
			})
		})
	}
}

func setDefaults() {
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("PUBLIC_BASE_URL", "http://localhost:8080")
	viper.SetDefault("POSTGRES_HOST", "localhost")
	viper.SetDefault("POSTGRES_PORT", "5432")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("KAFKA_LISTING_TOPIC", "listing-events")
	viper.SetDefault("KAFKA_GROUP_ID", "bikemarket-cache")
	viper.SetDefault("LISTING_CACHE_TTL", "300s")
	viper.SetDefault("BANNER_CACHE_TTL", "600s")
	viper.SetDefault("SESSION_TTL", "336h")
	viper.SetDefault("RATE_LIMIT_CAPACITY", 100)
	viper.SetDefault("RATE_LIMIT_RATE_PS", 10)
}

// bindEnv 沒有設定檔時 AutomaticEnv 不會作用在 Unmarshal 上, 需逐一綁定
func bindEnv() {
	for _, key := range []string{
		"SERVER_PORT", "PUBLIC_BASE_URL",
		"POSTGRES_DB", "POSTGRES_HOST", "POSTGRES_PORT", "POSTGRES_USER", "POSTGRES_PASSWORD",
		"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
		"AUTH_TOKEN_KEY", "ACTIVATION_TOKEN_KEY",
		"KAFKA_BROKERS", "KAFKA_LISTING_TOPIC", "KAFKA_GROUP_ID",
		"GCS_BUCKET", "SENDGRID_API_KEY", "EMAIL_ACCOUNT",
		"LISTING_CACHE_TTL", "BANNER_CACHE_TTL", "SESSION_TTL",
		"RATE_LIMIT_CAPACITY", "RATE_LIMIT_RATE_PS",
	} {
		viper.BindEnv(key)
	}
}

/*
單純回傳錯誤  由外部決定要不要Fatal, 畢竟有可能有替代方案
設定檔不存在時只讀環境變數
*/
func loadConfig() (cf *Config, fromFile bool, err error) {
	config_siongleton.mu.Lock()
	defer config_siongleton.mu.Unlock()

	if v := os.Getenv("CONFIG_FILE"); v != "" {
		configFile = v
	}

	setDefaults()
	bindEnv()
	viper.AutomaticEnv()

	if _, statErr := os.Stat(configFile); statErr == nil {
		viper.SetConfigFile(configFile)
		viper.SetConfigType("env")
		if err = viper.ReadInConfig(); err != nil {
			return nil, false, err
		}
		fromFile = true
	}

	cf = &Config{}
	if err = viper.Unmarshal(cf); err != nil {
		return nil, false, err
	}
	return cf, fromFile, nil
}
