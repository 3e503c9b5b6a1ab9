package config

// Environment variables read by Load. A .env file in the working directory
// (or the one named by --env-file) is loaded first without overriding
// variables that are already set.
const (
	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvStore         = "STORE_BACKEND"
	EnvPostgresDSN   = "POSTGRES_CONN"
	EnvMongoURI      = "MONGO_URI"
	EnvMongoDatabase = "MONGO_DATABASE"
	EnvStoreTimeout  = "STORE_TIMEOUT"

	EnvKafkaBrokers     = "KAFKA_BROKERS"
	EnvKafkaTopic       = "KAFKA_TOPIC"
	EnvKafkaGroupPrefix = "KAFKA_GROUP_PREFIX"
	EnvInstanceID       = "INSTANCE_ID"
	EnvSubscriberBuffer = "SUBSCRIBER_BUFFER"

	EnvBiddingWindow    = "BIDDING_WINDOW"
	EnvMinBid           = "MIN_BID"
	EnvMaxMessageLength = "MAX_MESSAGE_LENGTH"
	EnvMaxHelpers       = "MAX_HELPERS"
	EnvSweepInterval    = "SWEEP_INTERVAL"
	EnvAutoAward        = "AUTO_AWARD"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"
)
