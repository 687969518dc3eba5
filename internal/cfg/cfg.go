package cfg

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/DRSN-tech/catalog-indexer/pkg/e"
	"github.com/DRSN-tech/catalog-indexer/pkg/logger"
	"github.com/jimlawless/whereami"
)

type Config struct {
	Redis  *RedisCfg
	Minio  *MinIOCfg
	Dynamo *DynamoCfg
	Embed  *EmbedCfg
	Ingest *IngestCfg
	Db     *PGDBCfg
	Kafka  *KafkaCfg
	Http   *HTTPConfig
}

// RedisCfg описывает подключение к векторному хранилищу (RediSearch).
type RedisCfg struct {
	Addr        string
	Password    string
	User        string
	DB          int
	UseTLS      bool
	Index       string // имя поискового индекса
	VectorDim   int    // размерность эмбеддинга
	HashPrefix  string // префикс ключей записей индекса
	MaxRetries  int
	DialTimeout time.Duration
	Timeout     time.Duration
}

type MinIOCfg struct {
	MinioEndpoint     string // Адрес конечной точки Minio
	BucketName        string // Название конкретного бакета в Minio
	MinioRootUser     string // Имя пользователя для доступа к Minio
	MinioRootPassword string // Пароль для доступа к Minio
	MinioUseSSL       bool
	PublicDomain      string // Домен для публичных ссылок: https://<bucket>.<domain>/<key>
}

// DynamoCfg описывает таблицу метаданных в DynamoDB.
type DynamoCfg struct {
	TableName string
	Region    string
	Endpoint  string // переопределение эндпоинта (локальный DynamoDB); пусто — стандартный AWS
	AccessKey string
	SecretKey string
}

// EmbedCfg описывает внешний inference-сервис эмбеддингов.
type EmbedCfg struct {
	URL        string
	MaxRetries int
	Timeout    time.Duration
}

// IngestCfg описывает входной каталог продуктов.
type IngestCfg struct {
	FilePath     string
	ImageColumn  string
	TitleColumn  string
	IDColumn     string
	DropLastRows int    // сколько завершающих строк отбрасывать (хвостовая/пустая строка)
	Tag          string // категорийная метка записей векторного индекса
}

type PGDBCfg struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type KafkaCfg struct {
	Topic             string
	Brokers           []string
	NetworkMode       string
	Partitions        int
	ReplicationFactor int
}

type HTTPConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Load безопасно загружает конфигурацию и возвращает ошибку в случае неудачи.
func Load(log logger.Logger) (*Config, error) {
	redis, err := loadRedisCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	minio, err := loadMinIOCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	dynamo, err := loadDynamoCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	embed, err := loadEmbedCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	ingest, err := loadIngestCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	db, err := loadPGDBCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	kafka, err := loadKafkaCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	http, err := loadHTTPConfig(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &Config{
		Redis:  redis,
		Minio:  minio,
		Dynamo: dynamo,
		Embed:  embed,
		Ingest: ingest,
		Db:     db,
		Kafka:  kafka,
		Http:   http,
	}, nil
}

func loadRedisCfg(log logger.Logger) (*RedisCfg, error) {
	const (
		defaultAddr        = "localhost:6379"
		defaultDB          = 0
		defaultMaxRetries  = 3
		defaultDialTimeout = 5 * time.Second
		defaultTimeout     = 3 * time.Second
		defaultVectorDim   = 1024
		defaultHashPrefix  = "HASH:"
		defaultUseTLS      = true
	)

	index := getEnv("REDIS_INDEX")
	if index == "" {
		err := fmt.Errorf("REDIS_INDEX is required")
		log.Errorf(err, "missing REDIS_INDEX")
		return nil, err
	}

	dbStr := getEnvOrDefault("REDIS_DB_ID", strconv.Itoa(defaultDB))
	db, err := strconv.Atoi(dbStr)
	if err != nil {
		log.Errorf(err, "invalid REDIS_DB_ID")
		return nil, err
	}

	useTLS, err := strconv.ParseBool(getEnvOrDefault("REDIS_USE_TLS", strconv.FormatBool(defaultUseTLS)))
	if err != nil {
		log.Errorf(err, "invalid REDIS_USE_TLS")
		return nil, err
	}

	vectorDim, err := parseIntEnv("VECTOR_DIM", defaultVectorDim)
	if err != nil {
		log.Errorf(err, "invalid VECTOR_DIM")
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

	return &RedisCfg{
		Addr:        getEnvOrDefault("REDIS_ADDR", defaultAddr),
		Password:    getEnv("REDIS_PASSWORD"),
		User:        getEnv("REDIS_USER"),
		DB:          db,
		UseTLS:      useTLS,
		Index:       index,
		VectorDim:   vectorDim,
		HashPrefix:  getEnvOrDefault("REDIS_HASH_PREFIX", defaultHashPrefix),
		MaxRetries:  maxRetries,
		DialTimeout: dialTimeout,
		Timeout:     timeout,
	}, nil
}

func loadMinIOCfg(log logger.Logger) (*MinIOCfg, error) {
	const (
		defaultUseSSL       = false
		defaultEndpoint     = "minio:9000"
		defaultPublicDomain = "s3.amazonaws.com"
	)

	useSSL, err := strconv.ParseBool(getEnvOrDefault("MINIO_USE_SSL", strconv.FormatBool(defaultUseSSL)))
	if err != nil {
		log.Errorf(err, "invalid MINIO_USE_SSL")
		return nil, err
	}

	bucket := getEnv("BUCKET_NAME")
	if bucket == "" {
		err := fmt.Errorf("BUCKET_NAME is required")
		log.Errorf(err, "missing BUCKET_NAME")
		return nil, err
	}

	return &MinIOCfg{
		MinioEndpoint:     getEnvOrDefault("MINIO_ENDPOINT", defaultEndpoint),
		BucketName:        bucket,
		MinioRootUser:     getEnv("MINIO_ROOT_USER"),
		MinioRootPassword: getEnv("MINIO_ROOT_PASSWORD"),
		MinioUseSSL:       useSSL,
		PublicDomain:      getEnvOrDefault("BLOB_PUBLIC_DOMAIN", defaultPublicDomain),
	}, nil
}

func loadDynamoCfg() (*DynamoCfg, error) {
	const defaultRegion = "us-west-2"

	tableName := getEnv("DYNAMO_TABLE_NAME")
	if tableName == "" {
		return nil, fmt.Errorf("DYNAMO_TABLE_NAME environment variable is required")
	}

	return &DynamoCfg{
		TableName: tableName,
		Region:    getEnvOrDefault("AWS_REGION", defaultRegion),
		Endpoint:  getEnv("DYNAMO_ENDPOINT"),
		AccessKey: getEnv("AWS_ACCESS_KEY_ID"),
		SecretKey: getEnv("AWS_SECRET_ACCESS_KEY"),
	}, nil
}

func loadEmbedCfg(log logger.Logger) (*EmbedCfg, error) {
	const (
		defaultMaxRetries = 3
		defaultTimeout    = 60 * time.Second
	)

	url := getEnv("EMBED_URL")
	if url == "" {
		err := fmt.Errorf("EMBED_URL is required")
		log.Errorf(err, "missing EMBED_URL")
		return nil, err
	}

	maxRetries, err := parseIntEnv("EMBED_MAX_RETRIES", defaultMaxRetries)
	if err != nil {
		log.Errorf(err, "invalid EMBED_MAX_RETRIES")
		return nil, err
	}

	timeout, err := parseDurationEnv("EMBED_TIMEOUT", defaultTimeout)
	if err != nil {
		log.Errorf(err, "invalid EMBED_TIMEOUT")
		return nil, err
	}

	return &EmbedCfg{
		URL:        url,
		MaxRetries: maxRetries,
		Timeout:    timeout,
	}, nil
}

func loadIngestCfg() (*IngestCfg, error) {
	const (
		defaultImageColumn  = "amazon_product_images_url"
		defaultTitleColumn  = "amazon_product_title"
		defaultIDColumn     = "ASIN"
		defaultDropLastRows = 1
		defaultTag          = "amazon"
	)

	filePath := getEnv("INGEST_FILE_PATH")
	if filePath == "" {
		return nil, fmt.Errorf("INGEST_FILE_PATH environment variable is required")
	}

	dropLastRows, err := parseIntEnv("INGEST_DROP_LAST_ROWS", defaultDropLastRows)
	if err != nil {
		return nil, e.Wrap("INGEST_DROP_LAST_ROWS", err)
	}
	if dropLastRows < 0 {
		return nil, fmt.Errorf("INGEST_DROP_LAST_ROWS must be non-negative")
	}

	return &IngestCfg{
		FilePath:     filePath,
		ImageColumn:  getEnvOrDefault("INGEST_IMAGE_COLUMN", defaultImageColumn),
		TitleColumn:  getEnvOrDefault("INGEST_TITLE_COLUMN", defaultTitleColumn),
		IDColumn:     getEnvOrDefault("INGEST_ID_COLUMN", defaultIDColumn),
		DropLastRows: dropLastRows,
		Tag:          getEnvOrDefault("INGEST_TAG", defaultTag),
	}, nil
}

func loadPGDBCfg(log logger.Logger) (*PGDBCfg, error) {
	const (
		defaultHost    = "localhost"
		defaultPort    = "5432"
		defaultSSLMode = "disable"
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
		Host:     getEnvOrDefault("POSTGRES_HOST", defaultHost),
		Port:     getEnvOrDefault("POSTGRES_PORT", defaultPort),
		User:     user,
		Password: password,
		DBName:   dbName,
		SSLMode:  getEnvOrDefault("SSL_MODE", defaultSSLMode),
	}, nil
}

func loadKafkaCfg() (*KafkaCfg, error) {
	const (
		defaultPartitions        = 3
		defaultReplicationFactor = 1
		defaultNetworkMode       = "tcp"
	)

	brokerStr := os.Getenv("KAFKA_BROKERS")
	if brokerStr == "" {
		return nil, fmt.Errorf("KAFKA_BROKERS environment variable is required")
	}
	brokers := strings.Split(brokerStr, ",")

	topic := os.Getenv("KAFKA_TOPIC")
	if topic == "" {
		return nil, fmt.Errorf("KAFKA_TOPIC environment variable is required")
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
		Topic:             topic,
		Partitions:        partitions,
		ReplicationFactor: replicationFactor,
		NetworkMode:       getEnvOrDefault("KAFKA_NETWORK_MODE", defaultNetworkMode),
	}, nil
}

func loadHTTPConfig(log logger.Logger) (*HTTPConfig, error) {
	const (
		defaultPort         = "8080"
		defaultReadTimeout  = 5 * time.Second
		defaultWriteTimeout = 10 * time.Second
		defaultIdleTimeout  = 60 * time.Second
	)

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
		Port:         getEnvOrDefault("HTTP_PORT", defaultPort),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
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
