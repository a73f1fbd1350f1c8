package cfg

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/DRSN-tech/cart-sync/pkg/e"
	"github.com/DRSN-tech/cart-sync/pkg/logger"
	"github.com/jimlawless/whereami"
)

// Бэкенды хранилища снимков корзины.
const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
	StoreMinIO    = "minio"
)

type Config struct {
	Http        *HTTPConfig
	Grpc        *GRPCConfig
	CartService *CartServiceCfg
	Sync        *SyncCfg
	Store       *StoreCfg
	Db          *PGDBCfg  // только для CART_STORE=postgres
	Redis       *RedisCfg // только для CART_STORE=redis
	Minio       *MinIOCfg // только для CART_STORE=minio
	Kafka       *KafkaCfg // nil, если KAFKA_BROKERS не задан
}

type CartServiceCfg struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

type SyncCfg struct {
	DebounceWindow time.Duration
	PollEnabled    bool
	PollInterval   time.Duration
	PollMaxBackoff time.Duration
	PollJitter     float64 // доля интервала, на которую допускается случайное отклонение
}

type StoreCfg struct {
	Backend   string
	SessionID string
}

type KafkaCfg struct {
	Topic             string
	Brokers           []string
	NetworkMode       string
	Partitions        int
	ReplicationFactor int
}

type MinIOCfg struct {
	MinioEndpoint     string // Адрес конечной точки Minio
	BucketName        string // Бакет со снимками корзин
	MinioRootUser     string
	MinioRootPassword string
	MinioUseSSL       bool
	Prefix            string // Префикс ключей объектов
}

type HTTPConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type GRPCConfig struct {
	Port        string
	NetworkMode string
}

type PGDBCfg struct {
	Host           string
	Port           string
	User           string
	Password       string
	DBName         string
	SSLMode        string
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
	SnapshotTTL time.Duration
}

// Load безопасно загружает конфигурацию и возвращает ошибку в случае неудачи.
func Load(log logger.Logger) (*Config, error) {
	http, err := loadHTTPConfig(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	cartService, err := loadCartServiceCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	sync, err := loadSyncCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	store, err := loadStoreCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	kafka, err := loadKafkaCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	config := &Config{
		Http:        http,
		Grpc:        loadGRPCConfig(),
		CartService: cartService,
		Sync:        sync,
		Store:       store,
		Kafka:       kafka,
	}

	switch store.Backend {
	case StoreRedis:
		if config.Redis, err = loadRedisCfg(log); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
	case StorePostgres:
		if config.Db, err = loadPGDBCfg(log); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
	case StoreMinIO:
		if config.Minio, err = loadMinIOCfg(log); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
	}

	return config, nil
}

func loadCartServiceCfg(log logger.Logger) (*CartServiceCfg, error) {
	const (
		defaultBaseURL = "http://localhost:8081"
		defaultTimeout = 10 * time.Second
	)

	timeout, err := parseDurationEnv("CART_SERVICE_TIMEOUT", defaultTimeout)
	if err != nil {
		log.Errorf(err, "invalid CART_SERVICE_TIMEOUT")
		return nil, err
	}

	return &CartServiceCfg{
		BaseURL: getEnvOrDefault("CART_SERVICE_URL", defaultBaseURL),
		Token:   getEnv("CART_SERVICE_TOKEN"),
		Timeout: timeout,
	}, nil
}

func loadSyncCfg(log logger.Logger) (*SyncCfg, error) {
	const (
		defaultDebounceWindow = 600 * time.Millisecond
		defaultPollInterval   = 30 * time.Second
		defaultPollMaxBackoff = 5 * time.Minute
		defaultPollJitter     = 0.2
	)

	window, err := parseDurationEnv("CART_DEBOUNCE_WINDOW", defaultDebounceWindow)
	if err != nil {
		log.Errorf(err, "invalid CART_DEBOUNCE_WINDOW")
		return nil, err
	}

	interval, err := parseDurationEnv("CART_POLL_INTERVAL", defaultPollInterval)
	if err != nil {
		log.Errorf(err, "invalid CART_POLL_INTERVAL")
		return nil, err
	}

	maxBackoff, err := parseDurationEnv("CART_POLL_MAX_BACKOFF", defaultPollMaxBackoff)
	if err != nil {
		log.Errorf(err, "invalid CART_POLL_MAX_BACKOFF")
		return nil, err
	}

	jitter, err := strconv.ParseFloat(getEnvOrDefault("CART_POLL_JITTER", strconv.FormatFloat(defaultPollJitter, 'f', -1, 64)), 64)
	if err != nil || jitter < 0 || jitter >= 1 {
		err = e.ErrIncorrectEnvVariable
		log.Errorf(err, "invalid CART_POLL_JITTER")
		return nil, e.Wrap("CART_POLL_JITTER", err)
	}

	// Нулевой интервал отключает фоновую сверку.
	return &SyncCfg{
		DebounceWindow: window,
		PollEnabled:    interval > 0,
		PollInterval:   interval,
		PollMaxBackoff: maxBackoff,
		PollJitter:     jitter,
	}, nil
}

func loadStoreCfg() (*StoreCfg, error) {
	const (
		defaultBackend   = StoreMemory
		defaultSessionID = "default"
	)

	backend := strings.ToLower(getEnvOrDefault("CART_STORE", defaultBackend))
	switch backend {
	case StoreMemory, StoreRedis, StorePostgres, StoreMinIO:
	default:
		return nil, e.Wrap(fmt.Sprintf("CART_STORE=%s", backend), e.ErrUnknownStore)
	}

	return &StoreCfg{
		Backend:   backend,
		SessionID: getEnvOrDefault("CART_SESSION_ID", defaultSessionID),
	}, nil
}

func loadKafkaCfg() (*KafkaCfg, error) {
	const (
		defaultTopic             = "cart-events"
		defaultPartitions        = 3
		defaultReplicationFactor = 1
		defaultNetworkMode       = "tcp"
	)

	brokerStr := getEnv("KAFKA_BROKERS")
	if brokerStr == "" {
		return nil, nil
	}

	brokers := make([]string, 0)
	for _, b := range strings.Split(brokerStr, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}

	partitions, err := parseIntEnv("KAFKA_PARTITIONS", defaultPartitions)
	if err != nil {
		return nil, e.Wrap("KAFKA_PARTITIONS", err)
	}

	replicationFactor, err := parseIntEnv("REPLICATION_FACTOR", defaultReplicationFactor)
	if err != nil {
		return nil, e.Wrap("REPLICATION_FACTOR", err)
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
		defaultUseSSL   = false
		defaultEndpoint = "minio:9000"
		defaultBucket   = "carts"
		defaultPrefix   = "carts/"
	)

	useSSL, err := strconv.ParseBool(getEnvOrDefault("MINIO_USE_SSL", strconv.FormatBool(defaultUseSSL)))
	if err != nil {
		log.Errorf(err, "invalid MINIO_USE_SSL")
		return nil, err
	}

	return &MinIOCfg{
		MinioEndpoint:     getEnvOrDefault("MINIO_ENDPOINT", defaultEndpoint),
		BucketName:        getEnvOrDefault("BUCKET_NAME", defaultBucket),
		MinioRootUser:     getEnv("MINIO_ROOT_USER"),
		MinioRootPassword: getEnv("MINIO_ROOT_PASSWORD"),
		MinioUseSSL:       useSSL,
		Prefix:            getEnvOrDefault("MINIO_PREFIX", defaultPrefix),
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
	}, nil
}

func loadGRPCConfig() *GRPCConfig {
	const (
		defaultPort        = "8091"
		defaultNetworkMode = "tcp"
	)

	return &GRPCConfig{
		Port:        getEnvOrDefault("GRPC_PORT", defaultPort),
		NetworkMode: getEnvOrDefault("GRPC_NETWORK_MODE", defaultNetworkMode),
	}
}

func loadPGDBCfg(log logger.Logger) (*PGDBCfg, error) {
	const (
		defaultHost           = "localhost"
		defaultPort           = "5432"
		defaultSSLMode        = "disable"
		defaultMigrationsPath = "file://db/migrations"
	)

	user := getEnv("POSTGRES_USER")
	if user == "" {
		err := fmt.Errorf("POSTGRES_USER is required")
		log.Errorf(err, "missing POSTGRES_USER")
		return nil, err
	}

	password := getEnv("POSTGRES_PASSWORD")
	if password == "" {
		err := fmt.Errorf("POSTGRES_PASSWORD is required")
		log.Errorf(err, "missing POSTGRES_PASSWORD")
		return nil, err
	}

	dbName := getEnv("POSTGRES_DB")
	if dbName == "" {
		err := fmt.Errorf("POSTGRES_DB is required")
		log.Errorf(err, "missing POSTGRES_DB")
		return nil, err
	}

	return &PGDBCfg{
		Host:           getEnvOrDefault("POSTGRES_HOST", defaultHost),
		Port:           getEnvOrDefault("POSTGRES_PORT", defaultPort),
		User:           user,
		Password:       password,
		DBName:         dbName,
		SSLMode:        getEnvOrDefault("SSL_MODE", defaultSSLMode),
		MigrationsPath: getEnvOrDefault("MIGRATIONS_PATH", defaultMigrationsPath),
	}, nil
}

func loadRedisCfg(log logger.Logger) (*RedisCfg, error) {
	const (
		defaultAddr         = "localhost:6379"
		defaultDB           = 0
		defaultMaxRetries   = 3
		defaultDialTimeout  = 5 * time.Second
		defaultReadTimeout  = 3 * time.Second
		defaultWriteTimeout = 3 * time.Second
		defaultSnapshotTTL  = 30 * 24 * time.Hour
	)

	db, err := parseIntEnv("REDIS_DB_ID", defaultDB)
	if err != nil {
		log.Errorf(err, "invalid REDIS_DB_ID")
		return nil, err
	}

	maxRetries, err := parseIntEnv("MAX_RETRIES", defaultMaxRetries)
	if err != nil {
		log.Errorf(err, "invalid MAX_RETRIES")
		return nil, err
	}

	dialTimeout, err := parseDurationEnv("DIAL_TIMEOUT", defaultDialTimeout)
	if err != nil {
		log.Errorf(err, "invalid DIAL_TIMEOUT")
		return nil, err
	}

	readTimeout, err := parseDurationEnv("READ_TIMEOUT", defaultReadTimeout)
	if err != nil {
		log.Errorf(err, "invalid READ_TIMEOUT")
		return nil, err
	}

	writeTimeout, err := parseDurationEnv("WRITE_TIMEOUT", defaultWriteTimeout)
	if err != nil {
		log.Errorf(err, "invalid WRITE_TIMEOUT")
		return nil, err
	}

	snapshotTTL, err := parseDurationEnv("CART_SNAPSHOT_TTL", defaultSnapshotTTL)
	if err != nil {
		log.Errorf(err, "invalid CART_SNAPSHOT_TTL")
		return nil, err
	}

	timeout := readTimeout
	if writeTimeout > timeout {
		timeout = writeTimeout
	}

	return &RedisCfg{
		Addr:        getEnvOrDefault("REDIS_ADDR", defaultAddr),
		Password:    getEnv("REDIS_PASSWORD"),
		User:        getEnv("REDIS_USER"),
		DB:          db,
		MaxRetries:  maxRetries,
		DialTimeout: dialTimeout,
		Timeout:     timeout,
		SnapshotTTL: snapshotTTL,
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

// parseDurationEnv считывает длительность или возвращает значение по умолчанию.
func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	if v := os.Getenv(key); v != "" {
		return time.ParseDuration(v)
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
		return defaultValue, e.ErrIncorrectEnvVariable
	}

	return intValue, nil
}
