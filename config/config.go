// config/config.go
package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

// --- Sub-structs, mirroring the YAML layout ---

type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Mode           string   `mapstructure:"mode"`
	AllowedOrigins []string `mapstructure:"allowedOrigins"`
	// TrustedProxies lists the proxy CIDRs whose X-Forwarded-For is believed.
	// Empty means the peer address is the client address.
	TrustedProxies []string `mapstructure:"trustedProxies"`
}

type MongoConfig struct {
	URI     string        `mapstructure:"uri"`
	DBName  string        `mapstructure:"dbName"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// StorageConfig selects the persistence backend once, at start-up.
// "mongo" is the authoritative store; "memory" is meant for local demos and tests.
type StorageConfig struct {
	Driver string `mapstructure:"driver"`
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Expiration time.Duration `mapstructure:"expiration"`
}

type MatchingConfig struct {
	RadiusKm        float64 `mapstructure:"radiusKm"`
	PartnerRadiusKm float64 `mapstructure:"partnerRadiusKm"`
}

type S3Config struct {
	Bucket           string `mapstructure:"bucket"`
	Region           string `mapstructure:"region"`
	AccessKeyID      string `mapstructure:"accessKeyID"`
	SecretAccessKey  string `mapstructure:"secretAccessKey"`
	CloudFrontDomain string `mapstructure:"cloudFrontDomain"`
}

type RabbitMQConfig struct {
	URL      string `mapstructure:"url"`
	Exchange string `mapstructure:"exchange"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type RateLimitConfig struct {
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// --- Root Config, grouping every section ---

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Mongo     MongoConfig     `mapstructure:"mongo"`
	Storage   StorageConfig   `mapstructure:"storage"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Matching  MatchingConfig  `mapstructure:"matching"`
	S3        S3Config        `mapstructure:"s3"`
	RabbitMQ  RabbitMQConfig  `mapstructure:"rabbitmq"`
	Redis     RedisConfig     `mapstructure:"redis"`
	RateLimit RateLimitConfig `mapstructure:"rateLimit"`
	Log       LogConfig       `mapstructure:"log"`
}

const (
	StorageMongo  = "mongo"
	StorageMemory = "memory"
)

// LoadConfig reads config.yaml from path and overrides it with environment variables.
// A missing file is not an error: defaults plus the environment are enough to boot.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	setDefaults(v)

	v.BindEnv("server.port", "SERVER_PORT")
	v.BindEnv("server.mode", "GIN_MODE")
	v.BindEnv("server.allowedOrigins", "ALLOWED_ORIGINS")
	v.BindEnv("server.trustedProxies", "TRUSTED_PROXIES")
	v.BindEnv("mongo.uri", "MONGO_URI")
	v.BindEnv("mongo.dbName", "MONGO_DBNAME")
	v.BindEnv("storage.driver", "STORAGE_DRIVER")
	v.BindEnv("jwt.secret", "JWT_SECRET")
	v.BindEnv("jwt.expiration", "JWT_EXPIRATION")
	v.BindEnv("matching.radiusKm", "MATCHING_RADIUS_KM")
	v.BindEnv("matching.partnerRadiusKm", "MATCHING_PARTNER_RADIUS_KM")
	v.BindEnv("s3.bucket", "S3_BUCKET")
	v.BindEnv("s3.region", "S3_REGION")
	v.BindEnv("s3.accessKeyID", "S3_ACCESS_KEY_ID")
	v.BindEnv("s3.secretAccessKey", "S3_SECRET_ACCESS_KEY")
	v.BindEnv("s3.cloudFrontDomain", "S3_CLOUDFRONT_DOMAIN")
	v.BindEnv("rabbitmq.url", "RABBITMQ_URL")
	v.BindEnv("rabbitmq.exchange", "RABBITMQ_EXCHANGE")
	v.BindEnv("redis.addr", "REDIS_ADDR")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("redis.db", "REDIS_DB")
	v.BindEnv("rateLimit.requests", "RATE_LIMIT_REQUESTS")
	v.BindEnv("rateLimit.window", "RATE_LIMIT_WINDOW")
	v.BindEnv("log.level", "LOG_LEVEL")
	v.BindEnv("log.format", "LOG_FORMAT")
	v.BindEnv("log.file", "LOG_FILE")

	err = v.ReadInConfig()
	if err != nil {
		// Only fail when the file exists but cannot be read.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return
		}
	}

	err = v.Unmarshal(&config)
	return
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.allowedOrigins", []string{"http://localhost:8080", "http://127.0.0.1:8080"})
	v.SetDefault("mongo.uri", "mongodb://localhost:27017/?replicaSet=rs0")
	v.SetDefault("mongo.dbName", "logiledger")
	v.SetDefault("mongo.timeout", "10s")
	v.SetDefault("storage.driver", StorageMongo)
	v.SetDefault("jwt.secret", "logiledger-dev-secret")
	v.SetDefault("jwt.expiration", "168h")
	v.SetDefault("matching.radiusKm", 50)
	v.SetDefault("matching.partnerRadiusKm", 100)
	v.SetDefault("rabbitmq.exchange", "logiledger.events")
	v.SetDefault("rateLimit.requests", 100)
	v.SetDefault("rateLimit.window", "15m")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}
