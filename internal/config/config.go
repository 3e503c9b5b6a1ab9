// Package config assembles the server configuration. Later sources win:
// defaults, then the YAML file named by --config, then the environment
// (seeded from .env), then command-line flags.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"haul-bidding/utils"
)

// StoreBackend selects the AuctionDB implementation.
type StoreBackend string

const (
	StoreMemory   StoreBackend = "memory"
	StorePostgres StoreBackend = "postgres"
	StoreMongo    StoreBackend = "mongo"
)

type Config struct {
	Port     string `yaml:"port"`
	LogLevel string `yaml:"log_level"`

	Store         StoreBackend  `yaml:"store"`
	PostgresDSN   string        `yaml:"postgres_dsn"`
	MongoURI      string        `yaml:"mongo_uri"`
	MongoDatabase string        `yaml:"mongo_database"`
	StoreTimeout  time.Duration `yaml:"store_timeout"`

	// KafkaBrokers empty keeps change events inside this process.
	KafkaBrokers     []string `yaml:"kafka_brokers"`
	KafkaTopic       string   `yaml:"kafka_topic"`
	KafkaGroupPrefix string   `yaml:"kafka_group_prefix"`
	// InstanceID must be stable across restarts and unique per running
	// process; it names the Kafka consumer group of this instance.
	InstanceID       string   `yaml:"instance_id"`
	SubscriberBuffer int      `yaml:"subscriber_buffer"`

	BiddingWindow    time.Duration `yaml:"bidding_window"`
	MinBid           float64       `yaml:"min_bid"`
	MaxMessageLength int           `yaml:"max_message_length"`
	MaxHelpers       int           `yaml:"max_helpers"`
	SweepInterval    time.Duration `yaml:"sweep_interval"`
	AutoAward        bool          `yaml:"auto_award"`

	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// ErrHelp is returned by Load when -h or --help was given.
var ErrHelp = pflag.ErrHelp

// Load builds the configuration from args (without the program name) and
// the process environment, then validates it.
func Load(args []string) (*Config, error) {
	fl := newFlags()
	if err := fl.set.Parse(args); err != nil {
		return nil, err
	}

	cfg := Defaults()
	if *fl.configFile != "" {
		if err := loadYAML(&cfg, *fl.configFile); err != nil {
			return nil, err
		}
	}

	if err := godotenv.Load(*fl.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: failed to load %s: %w", *fl.envFile, err)
	}
	env := envLoader{}
	env.apply(&cfg)
	if len(env.errs) > 0 {
		return nil, fmt.Errorf("config: invalid environment: %w", errors.Join(env.errs...))
	}

	fl.apply(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadYAML(cfg *Config, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: failed to read %s: %w", path, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("config: failed to parse %s: %w", path, err)
	}
	return nil
}

type flags struct {
	set        *pflag.FlagSet
	configFile *string
	envFile    *string
	apply      func(*Config)
}

// newFlags declares one flag per setting. Only flags given on the command
// line are applied, so unset flags never mask the file or the environment.
func newFlags() *flags {
	set := pflag.NewFlagSet("haul-bidding", pflag.ContinueOnError)
	setters := map[string]func(*Config){}
	def := Defaults()

	bind(setters, set.String, "port", "HTTP listen port", def.Port, func(c *Config) *string { return &c.Port })
	bind(setters, set.String, "log-level", "log level (debug, info, warn, error)", def.LogLevel, func(c *Config) *string { return &c.LogLevel })
	bind(setters, set.String, "store", "store backend: memory, postgres or mongo", string(def.Store), func(c *Config) *string { return (*string)(&c.Store) })
	bind(setters, set.String, "postgres-dsn", "PostgreSQL connection string", def.PostgresDSN, func(c *Config) *string { return &c.PostgresDSN })
	bind(setters, set.String, "mongo-uri", "MongoDB connection URI", def.MongoURI, func(c *Config) *string { return &c.MongoURI })
	bind(setters, set.String, "mongo-database", "MongoDB database name", def.MongoDatabase, func(c *Config) *string { return &c.MongoDatabase })
	bind(setters, set.Duration, "store-timeout", "timeout for a single store operation", def.StoreTimeout, func(c *Config) *time.Duration { return &c.StoreTimeout })
	bind(setters, set.StringSlice, "kafka-brokers", "Kafka bootstrap brokers; empty keeps events in process", def.KafkaBrokers, func(c *Config) *[]string { return &c.KafkaBrokers })
	bind(setters, set.String, "kafka-topic", "Kafka topic for change events", def.KafkaTopic, func(c *Config) *string { return &c.KafkaTopic })
	bind(setters, set.String, "kafka-group-prefix", "prefix of the per-instance Kafka consumer group", def.KafkaGroupPrefix, func(c *Config) *string { return &c.KafkaGroupPrefix })
	bind(setters, set.String, "instance-id", "stable name of this instance; defaults to the host name", def.InstanceID, func(c *Config) *string { return &c.InstanceID })
	bind(setters, set.Int, "subscriber-buffer", "events buffered per realtime subscriber", def.SubscriberBuffer, func(c *Config) *int { return &c.SubscriberBuffer })
	bind(setters, set.Duration, "bidding-window", "how long a booking accepts bids", def.BiddingWindow, func(c *Config) *time.Duration { return &c.BiddingWindow })
	bind(setters, set.Float64, "min-bid", "lowest accepted bid amount", def.MinBid, func(c *Config) *float64 { return &c.MinBid })
	bind(setters, set.Int, "max-message-length", "longest bid message in characters", def.MaxMessageLength, func(c *Config) *int { return &c.MaxMessageLength })
	bind(setters, set.Int, "max-helpers", "most helpers a bid may offer", def.MaxHelpers, func(c *Config) *int { return &c.MaxHelpers })
	bind(setters, set.Duration, "sweep-interval", "how often elapsed bookings are settled", def.SweepInterval, func(c *Config) *time.Duration { return &c.SweepInterval })
	bind(setters, set.Bool, "auto-award", "award the lowest bid when a window elapses", def.AutoAward, func(c *Config) *bool { return &c.AutoAward })
	bind(setters, set.Duration, "read-timeout", "HTTP read timeout", def.ReadTimeout, func(c *Config) *time.Duration { return &c.ReadTimeout })
	bind(setters, set.Duration, "write-timeout", "HTTP write timeout; 0 disables it", def.WriteTimeout, func(c *Config) *time.Duration { return &c.WriteTimeout })
	bind(setters, set.Duration, "idle-timeout", "HTTP keep-alive idle timeout", def.IdleTimeout, func(c *Config) *time.Duration { return &c.IdleTimeout })
	bind(setters, set.Duration, "shutdown-timeout", "grace period for in-flight requests on shutdown", def.ShutdownTimeout, func(c *Config) *time.Duration { return &c.ShutdownTimeout })

	f := &flags{
		set:        set,
		configFile: set.String("config", "", "YAML configuration file"),
		envFile:    set.String("env-file", ".env", "dotenv file loaded into the environment"),
	}
	f.apply = func(c *Config) {
		set.Visit(func(fl *pflag.Flag) {
			if apply, ok := setters[fl.Name]; ok {
				apply(c)
			}
		})
	}
	return f
}

func bind[T any](setters map[string]func(*Config), define func(string, T, string) *T, name, usage string, def T, field func(*Config) *T) {
	p := define(name, def, usage)
	setters[name] = func(c *Config) { *field(c) = *p }
}

// envLoader overlays environment variables, remembering every value it
// could not parse.
type envLoader struct {
	errs []error
}

func (l *envLoader) apply(cfg *Config) {
	l.str(EnvPort, &cfg.Port)
	l.str(EnvLogLevel, &cfg.LogLevel)
	l.str(EnvStore, (*string)(&cfg.Store))
	l.str(EnvPostgresDSN, &cfg.PostgresDSN)
	l.str(EnvMongoURI, &cfg.MongoURI)
	l.str(EnvMongoDatabase, &cfg.MongoDatabase)
	l.duration(EnvStoreTimeout, &cfg.StoreTimeout)
	l.list(EnvKafkaBrokers, &cfg.KafkaBrokers)
	l.str(EnvKafkaTopic, &cfg.KafkaTopic)
	l.str(EnvKafkaGroupPrefix, &cfg.KafkaGroupPrefix)
	l.str(EnvInstanceID, &cfg.InstanceID)
	l.num(EnvSubscriberBuffer, &cfg.SubscriberBuffer)
	l.duration(EnvBiddingWindow, &cfg.BiddingWindow)
	l.float(EnvMinBid, &cfg.MinBid)
	l.num(EnvMaxMessageLength, &cfg.MaxMessageLength)
	l.num(EnvMaxHelpers, &cfg.MaxHelpers)
	l.duration(EnvSweepInterval, &cfg.SweepInterval)
	l.boolean(EnvAutoAward, &cfg.AutoAward)
	l.duration(EnvReadTimeout, &cfg.ReadTimeout)
	l.duration(EnvWriteTimeout, &cfg.WriteTimeout)
	l.duration(EnvIdleTimeout, &cfg.IdleTimeout)
	l.duration(EnvShutdownTimeout, &cfg.ShutdownTimeout)
}

func (l *envLoader) str(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func (l *envLoader) list(key string, dst *[]string) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	out := []string{}
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	*dst = out
}

func (l *envLoader) num(key string, dst *int) {
	parse(l, key, dst, strconv.Atoi)
}

func (l *envLoader) float(key string, dst *float64) {
	parse(l, key, dst, func(s string) (float64, error) { return strconv.ParseFloat(s, 64) })
}

func (l *envLoader) boolean(key string, dst *bool) {
	parse(l, key, dst, strconv.ParseBool)
}

func (l *envLoader) duration(key string, dst *time.Duration) {
	parse(l, key, dst, time.ParseDuration)
}

func parse[T any](l *envLoader, key string, dst *T, conv func(string) (T, error)) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	out, err := conv(strings.TrimSpace(v))
	if err != nil {
		l.errs = append(l.errs, fmt.Errorf("%s=%q: %w", key, v, err))
		return
	}
	*dst = out
}

var mongoScheme = regexp.MustCompile(`^mongodb(\+srv)?://`)

// Validate reports every invalid setting at once.
func (cfg *Config) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}
	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		problems = append(problems, fmt.Sprintf("LogLevel is not a log level, got: %s", cfg.LogLevel))
	}

	switch cfg.Store {
	case StoreMemory:
	case StorePostgres:
		if cfg.PostgresDSN == "" {
			problems = append(problems, "PostgresDSN cannot be empty when the store is postgres")
		}
	case StoreMongo:
		if !mongoScheme.MatchString(cfg.MongoURI) {
			problems = append(problems, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactMongoURI(cfg.MongoURI)))
		}
		if cfg.MongoDatabase == "" {
			problems = append(problems, "MongoDatabase cannot be empty when the store is mongo")
		}
	default:
		problems = append(problems, fmt.Sprintf("Store must be one of memory, postgres, mongo, got: %s", cfg.Store))
	}

	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaTopic == "" {
		problems = append(problems, "KafkaTopic cannot be empty when brokers are set")
	}
	if len(cfg.KafkaBrokers) > 0 && cfg.InstanceID == "" {
		problems = append(problems, "InstanceID cannot be empty when brokers are set")
	}

	positive := []struct {
		name string
		d    time.Duration
	}{
		{"StoreTimeout", cfg.StoreTimeout},
		{"BiddingWindow", cfg.BiddingWindow},
		{"SweepInterval", cfg.SweepInterval},
		{"ReadTimeout", cfg.ReadTimeout},
		{"IdleTimeout", cfg.IdleTimeout},
		{"ShutdownTimeout", cfg.ShutdownTimeout},
	}
	for _, p := range positive {
		if p.d <= 0 {
			problems = append(problems, fmt.Sprintf("%s must be positive, got: %s", p.name, p.d))
		}
	}
	if cfg.WriteTimeout < 0 {
		problems = append(problems, fmt.Sprintf("WriteTimeout cannot be negative, got: %s", cfg.WriteTimeout))
	}

	if cfg.MinBid <= 0 {
		problems = append(problems, fmt.Sprintf("MinBid must be positive, got: %g", cfg.MinBid))
	}
	if cfg.MaxMessageLength <= 0 {
		problems = append(problems, fmt.Sprintf("MaxMessageLength must be positive, got: %d", cfg.MaxMessageLength))
	}
	if cfg.MaxHelpers < 0 {
		problems = append(problems, fmt.Sprintf("MaxHelpers cannot be negative, got: %d", cfg.MaxHelpers))
	}
	if cfg.SubscriberBuffer <= 0 {
		problems = append(problems, fmt.Sprintf("SubscriberBuffer must be positive, got: %d", cfg.SubscriberBuffer))
	}

	if len(problems) > 0 {
		msg := "configuration validation failed:\n"
		for i, p := range problems {
			msg += fmt.Sprintf("  %d. %s\n", i+1, p)
		}
		return errors.New(msg)
	}
	return nil
}

// LogConfiguration logs the effective settings with credentials masked.
func (cfg *Config) LogConfiguration() {
	utils.Info("Configuration loaded successfully", map[string]any{
		"port":               cfg.Port,
		"log_level":          cfg.LogLevel,
		"store":              cfg.Store,
		"postgres_dsn":       redactPostgresDSN(cfg.PostgresDSN),
		"mongo_uri":          redactMongoURI(cfg.MongoURI),
		"mongo_database":     cfg.MongoDatabase,
		"store_timeout":      cfg.StoreTimeout.String(),
		"kafka_brokers":      cfg.KafkaBrokers,
		"kafka_topic":        cfg.KafkaTopic,
		"kafka_group_prefix": cfg.KafkaGroupPrefix,
		"instance_id":        cfg.InstanceID,
		"subscriber_buffer":  cfg.SubscriberBuffer,
		"bidding_window":     cfg.BiddingWindow.String(),
		"min_bid":            cfg.MinBid,
		"max_message_length": cfg.MaxMessageLength,
		"max_helpers":        cfg.MaxHelpers,
		"sweep_interval":     cfg.SweepInterval.String(),
		"auto_award":         cfg.AutoAward,
		"read_timeout":       cfg.ReadTimeout.String(),
		"write_timeout":      cfg.WriteTimeout.String(),
		"idle_timeout":       cfg.IdleTimeout.String(),
		"shutdown_timeout":   cfg.ShutdownTimeout.String(),
	})
}

var (
	mongoCredentials = regexp.MustCompile(`(mongodb(\+srv)?://)[^:@/]+:[^@]+@`)
	urlPassword      = regexp.MustCompile(`(postgres(ql)?://[^:@/]+:)[^@]+@`)
	kvPassword       = regexp.MustCompile(`(password=)('[^']*'|\S+)`)
)

func redactMongoURI(uri string) string {
	return mongoCredentials.ReplaceAllString(uri, "${1}***:***@")
}

func redactPostgresDSN(dsn string) string {
	dsn = urlPassword.ReplaceAllString(dsn, "${1}***@")
	return kvPassword.ReplaceAllString(dsn, "${1}***")
}
