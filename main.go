package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	bidding "haul-bidding/internal/biddingService"
	"haul-bidding/internal/clock"
	"haul-bidding/internal/config"
	"haul-bidding/internal/jobfeed"
	"haul-bidding/internal/realtime"
	"haul-bidding/internal/repository"
	"haul-bidding/internal/server"
	"haul-bidding/internal/sweeper"
	"haul-bidding/utils"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, config.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		utils.Fatal("Invalid configuration", map[string]any{"error": err.Error()})
	}
	if err := utils.SetLevel(cfg.LogLevel); err != nil {
		utils.Fatal("Invalid log level", map[string]any{"error": err.Error()})
	}
	cfg.LogConfiguration()

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	gin.DefaultWriter = utils.Writer(logrus.DebugLevel)
	gin.DefaultErrorWriter = utils.Writer(logrus.ErrorLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		utils.Error("Server exited with error", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	utils.Info("Server stopped gracefully", nil)
}

func run(ctx context.Context, cfg *config.Config) error {
	repo, closeRepo, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeRepo()

	hub := realtime.NewHub(cfg.SubscriberBuffer)
	var broker realtime.Broker = hub
	var relay *realtime.KafkaBroker
	if len(cfg.KafkaBrokers) > 0 {
		relay, err = realtime.NewKafkaBroker(realtime.KafkaConfig{
			Brokers:     cfg.KafkaBrokers,
			Topic:       cfg.KafkaTopic,
			GroupPrefix: cfg.KafkaGroupPrefix,
			InstanceID:  cfg.InstanceID,
		}, hub)
		if err != nil {
			return err
		}
		defer func() {
			if err := relay.Close(); err != nil {
				utils.Warn("Kafka relay close failed", map[string]any{"error": err.Error()})
			}
		}()
		broker = relay
	}

	clk := clock.Real()
	settings := bidding.DefaultSettings()
	settings.BiddingWindow = cfg.BiddingWindow
	settings.MinBid = cfg.MinBid
	settings.MaxMessageLen = cfg.MaxMessageLength
	settings.MaxHelpers = cfg.MaxHelpers

	svc := bidding.NewBiddingService(repo, broker, clk, settings)
	feed := jobfeed.New(repo, broker, clk)
	sw := sweeper.New(svc, clk, sweeper.Options{Interval: cfg.SweepInterval, AutoAward: cfg.AutoAward})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      server.SetupRouter(svc, feed),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		utils.Info("Starting HTTP server", map[string]any{"address": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error { return sw.Run(gctx) })
	if relay != nil {
		g.Go(func() error {
			if err := relay.Run(gctx); err != nil && gctx.Err() == nil {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		utils.Info("Starting graceful shutdown...", nil)

		// ends the event streams, which would otherwise hold Shutdown open
		hub.Close()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			utils.Error("Server shutdown failed", map[string]any{"error": err.Error()})
			return srv.Close()
		}
		return nil
	})

	return g.Wait()
}

// openStore connects the configured backend and returns its closer.
func openStore(ctx context.Context, cfg *config.Config) (repository.AuctionDB, func(), error) {
	switch cfg.Store {
	case config.StorePostgres:
		repo, err := repository.NewPostgresRepo(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		return repo, func() {
			if err := repo.Close(); err != nil {
				utils.Warn("Postgres close failed", map[string]any{"error": err.Error()})
			}
		}, nil

	case config.StoreMongo:
		repo, err := repository.NewMongoRepo(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.StoreTimeout)
		if err != nil {
			return nil, nil, err
		}
		return repo, func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), cfg.StoreTimeout)
			defer cancel()
			if err := repo.Close(closeCtx); err != nil {
				utils.Warn("Mongo close failed", map[string]any{"error": err.Error()})
			}
		}, nil

	default:
		utils.Warn("Using in-memory store; data is lost on restart", nil)
		return repository.NewMemoryRepo(), func() {}, nil
	}
}
