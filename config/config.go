package config

import "time"

type Config struct {
	AppName                       string   `env:"APP_NAME" env-default:"bramble-api"`
	Port                          int      `env:"PORT" env-default:"3004"`
	LogLevel                      string   `env:"LOG_LEVEL" env-default:"info"`
	PrettyLogs                    bool     `env:"PRETTY_LOGS" env-default:"false"`
	HttpServerWriteTimeoutSeconds int      `env:"HTTP_SERVER_WRITE_TIMEOUT_SECONDS" env-default:"10"`
	HttpServerReadTimeoutSeconds  int      `env:"HTTP_SERVER_READ_TIMEOUT_SECONDS" env-default:"10"`
	HttpServerIdleTimeoutSeconds  int      `env:"HTTP_SERVER_IDLE_TIMEOUT_SECONDS" env-default:"10"`
	MaxHeaderBytes                int      `env:"HTTP_SERVER_MAX_HEADER_BYTES" env-default:"64000"` // 64KB
	ReadHeaderTimeoutSeconds      int      `env:"HTTP_SERVER_READ_HEADER_TIMEOUT_SECONDS" env-default:"10"`
	AllowOrigins                  []string `env:"HTTP_SERVER_ALLOW_ORIGINS" env-default:"*"`
	AllowMethods                  []string `env:"HTTP_SERVER_ALLOW_METHODS" env-default:"GET,POST,PUT,DELETE"`

	// PostgreSQL (listing store)
	DatabaseDriver                string        `env:"DB_DRIVER" env-default:"postgres"`
	DatabaseHost                  string        `env:"DB_HOST" env-default:""`
	DatabasePort                  string        `env:"DB_PORT" env-default:"5432"`
	DatabaseUserName              string        `env:"DB_USER_NAME" env-default:""`
	DatabasePassword              string        `env:"DB_PASSWORD" env-default:""`
	DatabaseName                  string        `env:"DB_NAME" env-default:"bramble"`
	DatabaseSSLMode               string        `env:"DB_SQL_MODE" env-default:"disable"`
	DatabaseMaxOpenConns          int           `env:"DB_MAX_OPEN_CONNS" env-default:"25"`
	DatabaseMaxIdleConns          int           `env:"DB_MAX_IDLE_CONNS" env-default:"10"`
	DatabaseConnMaxLifetime       time.Duration `env:"DB_CONN_MAX_LIFETIME" env-default:"10s"`
	DatabaseMigrationFolderPath   string        `env:"DB_MIGRATION_FOLDER_PATH" env-default:"db/pg"`
	DatabaseMigrationVersion      int           `env:"DB_MIGRATION_VERSION" env-default:"0"`
	DatabaseMigrationForce        int           `env:"DB_MIGRATION_FORCE" env-default:"0"`
	DatabaseMigrationAutoRollback bool          `env:"DB_MIGRATION_AUTO_ROLLBACK" env-default:"true"`

	// Kafka Consumer (scraper output - ingestion)
	KafkaBrokers         []string `env:"KAFKA_BROKERS" env-default:"localhost:9092"`
	KafkaInputTopic      string   `env:"KAFKA_INPUT_TOPIC" env-default:"scraped-listings"`
	KafkaConsumerGroup   string   `env:"KAFKA_CONSUMER_GROUP" env-default:"bramble-consumer"`
	KafkaConsumerEnabled bool     `env:"KAFKA_CONSUMER_ENABLED" env-default:"true"`

	// Kafka Producer settings
	KafkaOutputTopic  string `env:"KAFKA_OUTPUT_TOPIC" env-default:"listing-events"`
	KafkaBatchSize    int    `env:"KAFKA_BATCH_SIZE" env-default:"100"`
	KafkaBatchTimeout int    `env:"KAFKA_BATCH_TIMEOUT_MS" env-default:"100"`
	KafkaRequiredAcks int    `env:"KAFKA_REQUIRED_ACKS" env-default:"1"`
	KafkaCompression  string `env:"KAFKA_COMPRESSION" env-default:"snappy"`

	// Matching
	GeoProximityMeters float64 `env:"GEO_PROXIMITY_METERS" env-default:"500"`
	NameDistanceMax    int     `env:"NAME_DISTANCE_MAX" env-default:"3"`
	MinPhoneDigits     int     `env:"MIN_PHONE_DIGITS" env-default:"8"`
	RequireTwoSignals  bool    `env:"REQUIRE_TWO_SIGNALS" env-default:"false"`

	// Admission
	MinDescriptionChars    int `env:"MIN_DESCRIPTION_CHARS" env-default:"50"`
	MaxListingAgeDays      int `env:"MAX_LISTING_AGE_DAYS" env-default:"548"`
	FingerprintPrefixChars int `env:"FINGERPRINT_PREFIX_CHARS" env-default:"300"`

	// Quality gate
	MinDisplayScore           int      `env:"MIN_DISPLAY_SCORE" env-default:"15"`
	MinDisplayScoreApartments int      `env:"MIN_DISPLAY_SCORE_APARTMENTS" env-default:"10"`
	ApartmentListingTypes     []string `env:"APARTMENT_LISTING_TYPES" env-default:"appartement,apartment,studio"`

	// Pipeline
	PipelineInterval time.Duration `env:"PIPELINE_INTERVAL" env-default:"6h"`
	PipelineOnStart  bool          `env:"PIPELINE_ON_START" env-default:"false"`

	// Evaluator (external scoring service)
	EvaluatorBaseURL        string        `env:"EVALUATOR_BASE_URL" env-default:""`
	EvaluatorAPIKey         string        `env:"EVALUATOR_API_KEY" env-default:""`
	EvaluatorBatchSize      int           `env:"EVALUATOR_BATCH_SIZE" env-default:"5"`
	EvaluatorTimeoutSeconds int           `env:"EVALUATOR_TIMEOUT_SECONDS" env-default:"60"`
	EvaluatorEnabled        bool          `env:"EVALUATOR_ENABLED" env-default:"false"`
	GeocoderBaseURL         string        `env:"GEOCODER_BASE_URL" env-default:"https://nominatim.openstreetmap.org"`
	GeocoderUserAgent       string        `env:"GEOCODER_USER_AGENT" env-default:"bramble-listing-aggregator"`
	OutboundRequestDelay    time.Duration `env:"OUTBOUND_REQUEST_DELAY" env-default:"2s"`

	// Tracing
	TracingEnabled      bool   `env:"TRACING_ENABLED" env-default:"false"`
	TracingOTLPEndpoint string `env:"TRACING_OTLP_ENDPOINT" env-default:"localhost:4317"`
	TracingOTLPProtocol string `env:"TRACING_OTLP_PROTOCOL" env-default:"grpc"`
	TracingInsecure     bool   `env:"TRACING_INSECURE" env-default:"true"`
}
