package config

import (
	"os"
	"time"
)

const (
	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultStore         = StoreMemory
	DefaultMongoDatabase = "haul_bidding"
	DefaultStoreTimeout  = 5 * time.Second

	DefaultKafkaTopic       = "haul-bidding.changes"
	DefaultKafkaGroupPrefix = "haul-bidding-relay"
	DefaultSubscriberBuffer = 64

	DefaultBiddingWindow    = 5 * time.Minute
	DefaultMinBid           = 100.0
	DefaultMaxMessageLength = 500
	DefaultMaxHelpers       = 4
	DefaultSweepInterval    = 15 * time.Second
	DefaultAutoAward        = true

	DefaultReadTimeout = 10 * time.Second
	// event streams stay open indefinitely, so responses get no write deadline
	DefaultWriteTimeout    = 0
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 15 * time.Second
)

// defaultInstanceID names this process in the Kafka relay group. The host
// name survives restarts, so a restarted instance rejoins its own group.
func defaultInstanceID() string {
	host, err := os.Hostname()
	if err != nil {
		return ""
	}
	return host
}

// Defaults returns the configuration used when nothing overrides it.
func Defaults() Config {
	return Config{
		Port:             DefaultPort,
		LogLevel:         DefaultLogLevel,
		Store:            DefaultStore,
		MongoDatabase:    DefaultMongoDatabase,
		StoreTimeout:     DefaultStoreTimeout,
		KafkaTopic:       DefaultKafkaTopic,
		KafkaGroupPrefix: DefaultKafkaGroupPrefix,
		InstanceID:       defaultInstanceID(),
		SubscriberBuffer: DefaultSubscriberBuffer,
		BiddingWindow:    DefaultBiddingWindow,
		MinBid:           DefaultMinBid,
		MaxMessageLength: DefaultMaxMessageLength,
		MaxHelpers:       DefaultMaxHelpers,
		SweepInterval:    DefaultSweepInterval,
		AutoAward:        DefaultAutoAward,
		ReadTimeout:      DefaultReadTimeout,
		WriteTimeout:     DefaultWriteTimeout,
		IdleTimeout:      DefaultIdleTimeout,
		ShutdownTimeout:  DefaultShutdownTimeout,
	}
}
