package cfg

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/DRSN-tech/storefront/pkg/e"
	"github.com/DRSN-tech/storefront/pkg/logger"
	"github.com/jimlawless/whereami"
	"github.com/joho/godotenv"
)

type Config struct {
	Http         *HTTPConfig
	Db           *PGDBCfg
	Redis        *RedisCfg
	Kafka        *KafkaCfg
	Minio        *MinIOCfg
	Payment      *PaymentCfg
	Admin        *AdminCfg
	Checkout     *CheckoutCfg
	Notification *NotificationCfg
}

type HTTPConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	SwaggerURL   string
}

type PGDBCfg struct {
	Host           string
	Port           string
	User           string
	Password       string
	DBName         string
	SSLMode        string
	MaxConns       int32
	MigrationsPath string
}

type RedisCfg struct {
	Addr        string
	Password    string
	User        string
	DB          int
	MaxRetries  int
	DialTimeout time.Duration
	Timeout     time.Duration
	CatalogTTL  time.Duration // время жизни закэшированного каталога
}

type KafkaCfg struct {
	Topic             string
	Brokers           []string
	NetworkMode       string
	Partitions        int
	ReplicationFactor int
}

type MinIOCfg struct {
	Endpoint      string // Адрес конечной точки MinIO
	Region        string
	PublicURL     string // Базовый URL, по которому изображения доступны покупателям
	BucketName    string
	RootUser      string
	RootPassword  string
	UseSSL        bool
	PresignExpiry time.Duration // время жизни подписанной ссылки на загрузку
}

// PaymentCfg — настройки платёжного шлюза (Razorpay).
type PaymentCfg struct {
	KeyID         string
	KeySecret     string
	WebhookSecret string
	Currency      string
	BaseURL       string
	Timeout       time.Duration
}

type AdminCfg struct {
	PasswordHash string // sha256(пароль) в hex
	JWTSecret    string
	TokenTTL     time.Duration
}

type CheckoutCfg struct {
	ThrottleInterval time.Duration
	ThrottleBackend  string // redis | memory
}

type NotificationCfg struct {
	AdminEmail  string
	FromAddress string
	Timeout     time.Duration
}

const (
	ThrottleBackendRedis  = "redis"
	ThrottleBackendMemory = "memory"
)

// Load безопасно загружает конфигурацию и возвращает ошибку в случае неудачи.
// Если рядом лежит .env, переменные из него подхватываются без перезаписи уже заданных.
func Load(log logger.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warnf("failed to read .env: %v", err)
	}

	db, err := loadPGDBCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	http, err := loadHTTPConfig(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	redis, err := loadRedisCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	kafka, err := loadKafkaCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	minio, err := loadMinIOCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	payment, err := loadPaymentCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	admin, err := loadAdminCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	checkout, err := loadCheckoutCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	notification, err := loadNotificationCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &Config{
		Http:         http,
		Db:           db,
		Redis:        redis,
		Kafka:        kafka,
		Minio:        minio,
		Payment:      payment,
		Admin:        admin,
		Checkout:     checkout,
		Notification: notification,
	}, nil
}

func loadHTTPConfig(log logger.Logger) (*HTTPConfig, error) {
	const (
		defaultPort         = "8080"
		defaultReadTimeout  = 5 * time.Second
		defaultWriteTimeout = 10 * time.Second
		defaultIdleTimeout  = 60 * time.Second
	)

	port := getEnvOrDefault("HTTP_PORT", defaultPort)

	readTimeout, err := parseDurationEnv("HTTP_READ_TIMEOUT", defaultReadTimeout)
	if err != nil {
		log.Errorf(err, "invalid HTTP_READ_TIMEOUT")
		return nil, err
	}

	writeTimeout, err := parseDurationEnv("HTTP_WRITE_TIMEOUT", defaultWriteTimeout)
	if err != nil {
		log.Errorf(err, "invalid HTTP_WRITE_TIMEOUT")
		return nil, err
	}

	idleTimeout, err := parseDurationEnv("KEEP_ALIVE", defaultIdleTimeout)
	if err != nil {
		log.Errorf(err, "invalid KEEP_ALIVE")
		return nil, err
	}

	return &HTTPConfig{
		Port:         port,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
		SwaggerURL:   getEnvOrDefault("SWAGGER_URL", "http://localhost:"+port+"/swagger/doc.json"),
	}, nil
}

func loadPGDBCfg(log logger.Logger) (*PGDBCfg, error) {
	const (
		defaultHost           = "localhost"
		defaultPort           = "5432"
		defaultSSLMode        = "disable"
		defaultMaxConns       = 10
		defaultMigrationsPath = "db/migrations"
	)

	user, err := requireEnv(log, "POSTGRES_USER")
	if err != nil {
		return nil, err
	}

	password, err := requireEnv(log, "POSTGRES_PASSWORD")
	if err != nil {
		return nil, err
	}

	dbName, err := requireEnv(log, "POSTGRES_DB")
	if err != nil {
		return nil, err
	}

	maxConns, err := parseIntEnv("POSTGRES_MAX_CONNS", defaultMaxConns)
	if err != nil {
		log.Errorf(err, "invalid POSTGRES_MAX_CONNS")
		return nil, err
	}

	return &PGDBCfg{
		Host:           getEnvOrDefault("POSTGRES_HOST", defaultHost),
		Port:           getEnvOrDefault("POSTGRES_PORT", defaultPort),
		User:           user,
		Password:       password,
		DBName:         dbName,
		SSLMode:        getEnvOrDefault("SSL_MODE", defaultSSLMode),
		MaxConns:       int32(maxConns),
		MigrationsPath: getEnvOrDefault("MIGRATIONS_PATH", defaultMigrationsPath),
	}, nil
}

func loadRedisCfg(log logger.Logger) (*RedisCfg, error) {
	const (
		defaultAddr        = "localhost:6379"
		defaultDB          = 0
		defaultMaxRetries  = 3
		defaultDialTimeout = 5 * time.Second
		defaultTimeout     = 3 * time.Second
		defaultCatalogTTL  = time.Minute
	)

	db, err := parseIntEnv("REDIS_DB_ID", defaultDB)
	if err != nil {
		log.Errorf(err, "invalid REDIS_DB_ID")
		return nil, err
	}

	maxRetries, err := parseIntEnv("REDIS_MAX_RETRIES", defaultMaxRetries)
	if err != nil {
		log.Errorf(err, "invalid REDIS_MAX_RETRIES")
		return nil, err
	}

	dialTimeout, err := parseDurationEnv("REDIS_DIAL_TIMEOUT", defaultDialTimeout)
	if err != nil {
		log.Errorf(err, "invalid REDIS_DIAL_TIMEOUT")
		return nil, err
	}

	timeout, err := parseDurationEnv("REDIS_TIMEOUT", defaultTimeout)
	if err != nil {
		log.Errorf(err, "invalid REDIS_TIMEOUT")
		return nil, err
	}

	catalogTTL, err := parseDurationEnv("CATALOG_TTL", defaultCatalogTTL)
	if err != nil {
		log.Errorf(err, "invalid CATALOG_TTL")
		return nil, err
	}

	return &RedisCfg{
		Addr:        getEnvOrDefault("REDIS_ADDR", defaultAddr),
		Password:    getEnv("REDIS_PASSWORD"),
		User:        getEnv("REDIS_USER"),
		DB:          db,
		MaxRetries:  maxRetries,
		DialTimeout: dialTimeout,
		Timeout:     timeout,
		CatalogTTL:  catalogTTL,
	}, nil
}

func loadKafkaCfg() (*KafkaCfg, error) {
	const (
		defaultBrokers           = "localhost:9092"
		defaultTopic             = "order-notifications"
		defaultPartitions        = 3
		defaultReplicationFactor = 1
		defaultNetworkMode       = "tcp"
	)

	brokers := strings.Split(getEnvOrDefault("KAFKA_BROKERS", defaultBrokers), ",")

	partitions, err := parseIntEnv("KAFKA_PARTITIONS", defaultPartitions)
	if err != nil {
		return nil, e.Wrap("KAFKA_PARTITIONS", err)
	}

	replicationFactor, err := parseIntEnv("KAFKA_REPLICATION_FACTOR", defaultReplicationFactor)
	if err != nil {
		return nil, e.Wrap("KAFKA_REPLICATION_FACTOR", err)
	}

	return &KafkaCfg{
		Brokers:           brokers,
		Topic:             getEnvOrDefault("KAFKA_TOPIC", defaultTopic),
		Partitions:        partitions,
		ReplicationFactor: replicationFactor,
		NetworkMode:       getEnvOrDefault("KAFKA_NETWORK_MODE", defaultNetworkMode),
	}, nil
}

func loadMinIOCfg(log logger.Logger) (*MinIOCfg, error) {
	const (
		defaultUseSSL        = false
		defaultEndpoint      = "minio:9000"
		defaultBucket        = "products"
		defaultRegion        = "us-east-1"
		defaultPresignExpiry = 15 * time.Minute
	)

	useSSL, err := strconv.ParseBool(getEnvOrDefault("MINIO_USE_SSL", strconv.FormatBool(defaultUseSSL)))
	if err != nil {
		log.Errorf(err, "invalid MINIO_USE_SSL")
		return nil, err
	}

	expiry, err := parseDurationEnv("MINIO_PRESIGN_EXPIRY", defaultPresignExpiry)
	if err != nil {
		log.Errorf(err, "invalid MINIO_PRESIGN_EXPIRY")
		return nil, err
	}

	endpoint := getEnvOrDefault("MINIO_ENDPOINT", defaultEndpoint)
	bucket := getEnvOrDefault("BUCKET_NAME", defaultBucket)
	scheme := "http"
	if useSSL {
		scheme = "https"
	}

	return &MinIOCfg{
		Endpoint:      endpoint,
		Region:        getEnvOrDefault("MINIO_REGION", defaultRegion),
		PublicURL:     getEnvOrDefault("MINIO_PUBLIC_URL", scheme+"://"+endpoint+"/"+bucket),
		BucketName:    bucket,
		RootUser:      getEnv("MINIO_ROOT_USER"),
		RootPassword:  getEnv("MINIO_ROOT_PASSWORD"),
		UseSSL:        useSSL,
		PresignExpiry: expiry,
	}, nil
}

func loadPaymentCfg(log logger.Logger) (*PaymentCfg, error) {
	const (
		defaultCurrency = "INR"
		defaultBaseURL  = "https://api.razorpay.com"
		defaultTimeout  = 10 * time.Second
	)

	keyID, err := requireEnv(log, "RAZORPAY_KEY_ID")
	if err != nil {
		return nil, err
	}

	keySecret, err := requireEnv(log, "RAZORPAY_KEY_SECRET")
	if err != nil {
		return nil, err
	}

	webhookSecret, err := requireEnv(log, "RAZORPAY_WEBHOOK_SECRET")
	if err != nil {
		return nil, err
	}

	timeout, err := parseDurationEnv("RAZORPAY_TIMEOUT", defaultTimeout)
	if err != nil {
		log.Errorf(err, "invalid RAZORPAY_TIMEOUT")
		return nil, err
	}

	return &PaymentCfg{
		KeyID:         keyID,
		KeySecret:     keySecret,
		WebhookSecret: webhookSecret,
		Currency:      getEnvOrDefault("PAYMENT_CURRENCY", defaultCurrency),
		BaseURL:       getEnvOrDefault("RAZORPAY_BASE_URL", defaultBaseURL),
		Timeout:       timeout,
	}, nil
}

func loadAdminCfg(log logger.Logger) (*AdminCfg, error) {
	const defaultTokenTTL = 24 * time.Hour

	hash, err := requireEnv(log, "ADMIN_PASSWORD_HASH")
	if err != nil {
		return nil, err
	}

	secret, err := requireEnv(log, "ADMIN_JWT_SECRET")
	if err != nil {
		return nil, err
	}

	ttl, err := parseDurationEnv("ADMIN_TOKEN_TTL", defaultTokenTTL)
	if err != nil {
		log.Errorf(err, "invalid ADMIN_TOKEN_TTL")
		return nil, err
	}

	return &AdminCfg{
		PasswordHash: strings.ToLower(hash),
		JWTSecret:    secret,
		TokenTTL:     ttl,
	}, nil
}

func loadCheckoutCfg(log logger.Logger) (*CheckoutCfg, error) {
	const defaultThrottleInterval = 2 * time.Second

	interval, err := parseDurationEnv("CHECKOUT_THROTTLE_INTERVAL", defaultThrottleInterval)
	if err != nil {
		log.Errorf(err, "invalid CHECKOUT_THROTTLE_INTERVAL")
		return nil, err
	}

	backend := getEnvOrDefault("CHECKOUT_THROTTLE_BACKEND", ThrottleBackendRedis)
	if backend != ThrottleBackendRedis && backend != ThrottleBackendMemory {
		err := e.Wrap("CHECKOUT_THROTTLE_BACKEND="+backend, e.ErrIncorrectEnvVariable)
		log.Errorf(err, "invalid CHECKOUT_THROTTLE_BACKEND")
		return nil, err
	}

	return &CheckoutCfg{
		ThrottleInterval: interval,
		ThrottleBackend:  backend,
	}, nil
}

func loadNotificationCfg(log logger.Logger) (*NotificationCfg, error) {
	const (
		defaultTimeout    = 5 * time.Second
		defaultAdminEmail = "admin@gheestore.com"
		defaultFrom       = "orders@gheestore.com"
	)

	timeout, err := parseDurationEnv("NOTIFICATION_TIMEOUT", defaultTimeout)
	if err != nil {
		log.Errorf(err, "invalid NOTIFICATION_TIMEOUT")
		return nil, err
	}

	return &NotificationCfg{
		AdminEmail:  getEnvOrDefault("ADMIN_EMAIL", defaultAdminEmail),
		FromAddress: getEnvOrDefault("MAIL_FROM", defaultFrom),
		Timeout:     timeout,
	}, nil
}

// getEnv возвращает значение переменной окружения.
// Возвращает пустую строку, если переменная не задана.
func getEnv(key string) string {
	return os.Getenv(key)
}

// getEnvOrDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}

// requireEnv возвращает значение обязательной переменной или ошибку.
func requireEnv(log logger.Logger, key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		err := e.Wrap(key, e.ErrMissingEnvVariable)
		log.Errorf(err, "missing %s", key)
		return "", err
	}

	return value, nil
}

// parseDurationEnv считывает длительность или возвращает значение по умолчанию.
func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return defaultValue, e.Wrap(key, e.ErrIncorrectEnvVariable)
		}
		return d, nil
	}

	return defaultValue, nil
}

func parseIntEnv(key string, defaultValue int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}

	intValue, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue, e.Wrap(key, e.ErrIncorrectEnvVariable)
	}

	return intValue, nil
}
