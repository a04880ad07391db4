package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server      ServerConfig
	Logger      LoggerConfig
	Postgres    PostgresConfig
	Redis       RedisConfig
	Kafka       KafkaConfig
	Elastic     ElasticsearchConfig
	Tracing     TracingConfig
	Payment     PaymentConfig
	Business    BusinessConfig
	Maintenance MaintenanceConfig
}

type ServerConfig struct {
	AppEnv   string
	GRPCPort string
	// StoreDriver selects the unit of work: "postgres" or "memory".
	StoreDriver   string
	RunMigrations bool
}

type LoggerConfig struct {
	Level             string
	Encoding          string
	DisableCaller     bool
	DisableStacktrace bool
}

type PostgresConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
	ConnMaxIdleTime int
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Enabled            bool
	Brokers            []string
	StockTopic         string
	GroupID            string
	NotificationsTopic string
	EventsTopic        string
}

type ElasticsearchConfig struct {
	Enabled   bool
	Addresses []string
	Username  string
	Password  string
}

type TracingConfig struct {
	Enabled     bool
	Endpoint    string
	URLPath     string
	Insecure    bool
	ServiceName string
	SampleRatio float64
}

type PaymentConfig struct {
	DefaultProvider      string
	PaystackSecretKey    string
	PaystackPublicKey    string
	FlutterwaveSecretKey string
	FlutterwavePublicKey string
	ManualBankName       string
	ManualAccountNumber  string
	ManualAccountName    string
	BankDetailsExpiry    time.Duration
}

type BusinessConfig struct {
	Currency       string
	InvoiceDueDays int
}

type MaintenanceConfig struct {
	Enabled       bool
	SweepInterval time.Duration
	LockTTL       time.Duration
}

func LoadEnv() *Config {
	return &Config{
		Server: ServerConfig{
			AppEnv:        getEnv("APP_ENV", "dev"),
			GRPCPort:      getEnv("GRPC_PORT", ":8083"),
			StoreDriver:   getEnv("STORE_DRIVER", "postgres"),
			RunMigrations: getEnvBool("RUN_MIGRATIONS", true),
		},
		Logger: LoggerConfig{
			Level:             getEnv("LOGGER_LEVEL", "debug"),
			Encoding:          getEnv("LOGGER_ENCODING", "console"),
			DisableCaller:     getEnvBool("LOGGER_DISABLE_CALLER", false),
			DisableStacktrace: getEnvBool("LOGGER_DISABLE_STACKTRACE", true),
		},
		Postgres: PostgresConfig{
			Host:            getEnv("POSTGRES_HOST", "localhost"),
			Port:            getEnv("POSTGRES_PORT", "5433"),
			User:            getEnv("POSTGRES_USER", "omnipos"),
			Password:        getEnv("POSTGRES_PASSWORD", "omnipos"),
			DBName:          getEnv("POSTGRES_DB", "omnipos_order"),
			SSLMode:         getEnv("POSTGRES_SSLMODE", "disable"),
			MaxOpenConns:    getEnvInt("POSTGRES_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvInt("POSTGRES_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvInt("POSTGRES_CONN_MAX_LIFETIME", 300),
			ConnMaxIdleTime: getEnvInt("POSTGRES_CONN_MAX_IDLE_TIME", 60),
		},
		Redis: RedisConfig{
			Enabled:  getEnvBool("REDIS_ENABLED", true),
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Enabled:            getEnvBool("KAFKA_ENABLED", true),
			Brokers:            getEnvSlice("KAFKA_BROKERS", []string{"localhost:9092"}),
			StockTopic:         getEnv("KAFKA_TOPIC_GOODS_RECEIVED", "inventory.goods-received"),
			GroupID:            getEnv("KAFKA_GROUP_INVENTORY", "order-service-inventory"),
			NotificationsTopic: getEnv("KAFKA_TOPIC_NOTIFICATIONS", "notifications.outbound"),
			EventsTopic:        getEnv("KAFKA_TOPIC_ORDER_EVENTS", "orders.events"),
		},
		Elastic: ElasticsearchConfig{
			Enabled:   getEnvBool("ELASTICSEARCH_ENABLED", true),
			Addresses: getEnvSlice("ELASTICSEARCH_ADDRESSES", []string{"http://localhost:9200"}),
			Username:  getEnv("ELASTICSEARCH_USERNAME", ""),
			Password:  getEnv("ELASTICSEARCH_PASSWORD", ""),
		},
		Tracing: TracingConfig{
			Enabled:     getEnvBool("OTEL_ENABLED", false),
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			URLPath:     getEnv("OTEL_EXPORTER_OTLP_TRACES_PATH", "/v1/traces"),
			Insecure:    getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "omnipos-order-service"),
			SampleRatio: getEnvFloat("OTEL_SAMPLE_RATIO", 1.0),
		},
		Payment: PaymentConfig{
			DefaultProvider:      getEnv("DEFAULT_PAYMENT_PROVIDER", "paystack"),
			PaystackSecretKey:    getEnv("PAYSTACK_SECRET_KEY", ""),
			PaystackPublicKey:    getEnv("PAYSTACK_PUBLIC_KEY", ""),
			FlutterwaveSecretKey: getEnv("FLUTTERWAVE_SECRET_KEY", ""),
			FlutterwavePublicKey: getEnv("FLUTTERWAVE_PUBLIC_KEY", ""),
			ManualBankName:       getEnv("MANUAL_BANK_NAME", ""),
			ManualAccountNumber:  getEnv("MANUAL_ACCOUNT_NUMBER", ""),
			ManualAccountName:    getEnv("MANUAL_ACCOUNT_NAME", ""),
			BankDetailsExpiry:    getEnvDuration("BANK_DETAILS_EXPIRY", 24*time.Hour),
		},
		Business: BusinessConfig{
			Currency:       getEnv("DEFAULT_CURRENCY", "NGN"),
			InvoiceDueDays: getEnvInt("INVOICE_DUE_DAYS", 30),
		},
		Maintenance: MaintenanceConfig{
			Enabled:       getEnvBool("MAINTENANCE_ENABLED", true),
			SweepInterval: getEnvDuration("MAINTENANCE_SWEEP_INTERVAL", 5*time.Minute),
			LockTTL:       getEnvDuration("MAINTENANCE_LOCK_TTL", 4*time.Minute),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvSlice(key string, fallback []string) []string {
	if value, ok := os.LookupEnv(key); ok {
		return strings.Split(value, ",")
	}
	return fallback
}
