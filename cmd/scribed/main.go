package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/scribe/internal/blobstore"
	"github.com/user/scribe/internal/catalog"
	"github.com/user/scribe/internal/config"
	"github.com/user/scribe/internal/discovery"
	"github.com/user/scribe/internal/docdb"
	"github.com/user/scribe/internal/migrate"
	"github.com/user/scribe/internal/notify"
	"github.com/user/scribe/internal/observability"
	"github.com/user/scribe/internal/scheduler"
	"github.com/user/scribe/internal/server"
	"github.com/user/scribe/internal/store"
)

var (
	logLevel string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "scribed",
	Short: "scribed — video transcription job coordinator",
	Long:  "Coordinates discovery, claim, and completion of video-transcription jobs, plus bulk object-store migrations.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging()
	},
}

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the coordinator server",
	RunE:  runServer,
}

var (
	bindAddr        string
	dataDir         string
	docdbBackend    string
	configPath      string
	bucketURL       string
	topicURL        string
	oidcIssuer      string
	oidcClientID    string
	hmacSecret      string
	txnIDStrategy   string
	sweepInterval   time.Duration
	sweepLimit      int
	shutdownTimeout time.Duration
	otelEnabled     bool
	otelEndpoint    string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "data", "Directory for the document database")
	rootCmd.PersistentFlags().StringVar(&docdbBackend, "docdb", "badger", "Document database backend: badger, pebble, or sqlite")

	serverCmd.Flags().StringVar(&bindAddr, "bind", ":8080", "HTTP server bind address")
	serverCmd.Flags().StringVar(&configPath, "config", "", "Path to YAML config (categories, bucket, topic)")
	serverCmd.Flags().StringVar(&bucketURL, "bucket-url", "", "Object store URL (gs://, s3://, file://); overrides config")
	serverCmd.Flags().StringVar(&topicURL, "topic-url", "", "Wake channel topic URL (gcppubsub://, mem://); overrides config")
	serverCmd.Flags().StringVar(&oidcIssuer, "oidc-issuer", "", "OIDC issuer URL for bearer token verification")
	serverCmd.Flags().StringVar(&oidcClientID, "oidc-client-id", "", "OIDC client id (audience)")
	serverCmd.Flags().StringVar(&hmacSecret, "hmac-secret", "", "Shared secret for HS256 token verification when no OIDC issuer is set")
	serverCmd.Flags().StringVar(&txnIDStrategy, "txn-id-strategy", "unique", "Audit transaction id strategy: second or unique")
	serverCmd.Flags().DurationVar(&sweepInterval, "sweep-interval", 0, "Automatic discovery sweep cadence (0 disables; sweeps still run via the API)")
	serverCmd.Flags().IntVar(&sweepLimit, "sweep-limit", 0, "Per-sweep enqueue cap for automatic sweeps (0 = unbounded)")
	serverCmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 5*time.Second, "Graceful HTTP shutdown timeout before force-close")
	serverCmd.Flags().BoolVar(&otelEnabled, "otel-enabled", false, "Enable OpenTelemetry tracing")
	serverCmd.Flags().StringVar(&otelEndpoint, "otel-endpoint", "", "OTLP HTTP endpoint (host:port) for traces; if empty uses stdout exporter")

	rootCmd.AddCommand(serverCmd)
}

func setupLogging() {
	var level slog.Level
	switch logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

func openStore() (*store.Store, docdb.DB, error) {
	db, err := docdb.Open(docdbBackend, dataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("open document database: %w", err)
	}
	strategy, err := store.ParseTxnIDStrategy(txnIDStrategy)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return store.NewStore(db, store.WithTxnIDStrategy(strategy)), db, nil
}

func runServer(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	slog.Info("starting scribed server",
		"bind", bindAddr,
		"data_dir", dataDir,
		"docdb", docdbBackend,
		"config", configPath,
		"txn_id_strategy", txnIDStrategy,
		"otel_enabled", otelEnabled,
		"otel_endpoint", otelEndpoint,
	)

	otelShutdown, err := observability.InitTracer(otelEnabled, "scribed", otelEndpoint)
	if err != nil {
		return fmt.Errorf("init otel: %w", err)
	}
	defer func() {
		if err := otelShutdown(context.Background()); err != nil {
			slog.Warn("otel shutdown error", "error", err)
		}
	}()

	var cfg *config.Config
	if configPath != "" {
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
	} else {
		cfg = &config.Config{}
	}
	if bucketURL == "" {
		bucketURL = cfg.BucketURL
	}
	if topicURL == "" {
		topicURL = cfg.TopicURL
	}
	if oidcIssuer == "" {
		oidcIssuer = cfg.OIDC.IssuerURL
	}
	if oidcClientID == "" {
		oidcClientID = cfg.OIDC.ClientID
	}
	if hmacSecret == "" {
		hmacSecret = cfg.HMACSecret
	}

	s, db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	var bucket *blobstore.Bucket
	var engine *migrate.Engine
	if bucketURL != "" {
		bucket, err = blobstore.Open(ctx, bucketURL)
		if err != nil {
			return err
		}
		defer bucket.Close()
		engine = migrate.NewEngine(bucket, s)
	}

	var notifier notify.Publisher = notify.Noop{}
	if topicURL != "" {
		topic, err := notify.OpenTopic(ctx, topicURL)
		if err != nil {
			return err
		}
		defer topic.Shutdown(context.Background())
		notifier = topic
	}

	var enumerator *discovery.Enumerator
	if playlists := cfg.Playlists(); len(playlists) > 0 {
		enumerator = discovery.NewEnumerator(s, catalog.NewYouTube(), notifier, playlists)
	}

	var schedCancel context.CancelFunc = func() {}
	if enumerator != nil && sweepInterval > 0 {
		sched := scheduler.New(enumerator, scheduler.Config{Interval: sweepInterval, Limit: sweepLimit})
		var schedCtx context.Context
		schedCtx, schedCancel = context.WithCancel(context.Background())
		go sched.Run(schedCtx)
	}
	defer schedCancel()

	var verifier server.TokenVerifier
	switch {
	case oidcIssuer != "":
		verifier, err = server.NewOIDCVerifier(ctx, server.OIDCConfig{
			IssuerURL: oidcIssuer,
			ClientID:  oidcClientID,
		})
		if err != nil {
			return fmt.Errorf("init oidc verifier: %w", err)
		}
	case hmacSecret != "":
		verifier = server.NewHMACVerifier([]byte(hmacSecret))
	}

	srv := server.New(s, enumerator, engine, verifier, bindAddr)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("scribed server ready", "bind", bindAddr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	sig := <-sigCh
	slog.Info("received shutdown signal", "signal", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP shutdown error", "error", err)
	}

	slog.Info("scribed server stopped")
	return nil
}
