package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env        string     `yaml:"env" env:"ENV" env-default:"local"`
	LogLevel   string     `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	HTTP       HTTP       `yaml:"http"`
	GRPC       GRPC       `yaml:"grpc"`
	Metrics    Metrics    `yaml:"metrics"`
	Postgres   PG         `yaml:"postgres"`
	Redis      Redis      `yaml:"redis"`
	Kafka      Kafka      `yaml:"kafka"`
	Backend    Backend    `yaml:"backend"`
	Auth       Auth       `yaml:"auth"`
	LocalStore LocalStore `yaml:"local_store"`
	Cache      Cache      `yaml:"cache"`
	Pricing    Pricing    `yaml:"pricing"`
	Cart       Cart       `yaml:"cart"`
	Session    Session    `yaml:"session"`
	Limiter    Limiter    `yaml:"limiter"`
	Tracing    Tracing    `yaml:"tracing"`
	Outbox     Outbox     `yaml:"outbox"`
}

type HTTP struct {
	Port    string        `yaml:"port" env:"HTTP_PORT" env-default:":3000"`
	Timeout time.Duration `yaml:"timeout" env-default:"4s"`
}

type GRPC struct {
	Port string `yaml:"port" env:"GRPC_PORT" env-default:":50051"`
}

type Metrics struct {
	Port string `yaml:"port" env:"METRICS_PORT" env-default:":9091"`
}

type PG struct {
	URL string `yaml:"url" env:"DB_URL"`
}

type Redis struct {
	Addr string `yaml:"addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
}

type Kafka struct {
	Brokers   []string `yaml:"brokers" env:"KAFKA_BROKERS" env-separator:"," env-default:"localhost:9092"`
	GroupID   string   `yaml:"group_id" env:"KAFKA_GROUP_ID" env-default:"storefront-group"`
	UserTopic string   `yaml:"user_topic" env-default:"user_events"`
	CartTopic string   `yaml:"cart_topic" env-default:"cart_events"`
	Enabled   bool     `yaml:"enabled" env:"KAFKA_ENABLED"`
}

type Backend struct {
	BaseURL string        `yaml:"base_url" env:"BACKEND_URL" env-default:"http://localhost:8080/api"`
	Timeout time.Duration `yaml:"timeout" env-default:"3s"`
}

type Auth struct {
	AccessSecret string `yaml:"access_secret" env:"ACCESS_SECRET"`
}

type LocalStore struct {
	Driver    string        `yaml:"driver" env:"LOCAL_STORE_DRIVER" env-default:"redis"`
	KeyPrefix string        `yaml:"key_prefix" env-default:"cart:local:"`
	TTL       time.Duration `yaml:"ttl" env-default:"720h"`
}

type Cache struct {
	ProductTTL time.Duration `yaml:"product_ttl" env-default:"10m"`
}

type Pricing struct {
	TaxRate               float64 `yaml:"tax_rate" env-default:"0.08"`
	FlatShipping          float64 `yaml:"flat_shipping" env-default:"5.99"`
	FreeShippingThreshold float64 `yaml:"free_shipping_threshold" env-default:"50"`
}

type Cart struct {
	FallbackPolicy  string        `yaml:"fallback_policy" env:"CART_FALLBACK_POLICY" env-default:"degrade"`
	RemoteOpTimeout time.Duration `yaml:"remote_op_timeout" env-default:"5s"`
}

type Session struct {
	IdleTTL       time.Duration `yaml:"idle_ttl" env-default:"30m"`
	SweepInterval time.Duration `yaml:"sweep_interval" env-default:"1m"`
}

type Limiter struct {
	Max        int           `yaml:"max" env-default:"20"`
	Expiration time.Duration `yaml:"expiration" env-default:"5s"`
}

type Tracing struct {
	Endpoint string `yaml:"endpoint" env:"JAEGER_ENDPOINT" env-default:"localhost:4318"`
}

type Outbox struct {
	BatchSize int           `yaml:"batch_size" env-default:"50"`
	Interval  time.Duration `yaml:"interval" env-default:"500ms"`
}

func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/local.yaml"
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("config file does not exists: %v\n", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("error reading config: %v", err)
	}

	return cfg
}

func Load(configPath string) (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
