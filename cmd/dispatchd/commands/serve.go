package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/cobra"

	"github.com/voicebridge/dispatch/pkg/aisession"
	"github.com/voicebridge/dispatch/pkg/broadcast"
	"github.com/voicebridge/dispatch/pkg/dispatch"
	"github.com/voicebridge/dispatch/pkg/recording"
	"github.com/voicebridge/dispatch/pkg/telephony"
)

var flagConfig string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dispatch HTTP service",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagConfig, "config", "config.yaml", "Path to the configuration file")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := dispatch.LoadConfig(flagConfig)
	if err != nil {
		return err
	}

	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("Shutting down...")
		cancel()
	}()

	dialer := &telephony.TwilioDialer{
		AccountSID: cfg.Twilio.AccountSID,
		AuthToken:  cfg.Twilio.AuthToken,
		From:       cfg.Twilio.From,
		APIBase:    cfg.Twilio.APIBase,
		Log:        logger,
	}
	calls := broadcast.NewCallIndex()
	cascade := &broadcast.Cascade{Index: calls, Ender: dialer, Log: logger}
	notifier := &broadcast.HTTPNotifier{Log: logger}
	registry := broadcast.NewRegistry(notifier, cascade, logger)

	var opener aisession.Opener
	if cfg.Variant == dispatch.VariantAI {
		client, err := aisession.NewClient(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model, logger)
		if err != nil {
			return err
		}
		opener = client
	}

	store, err := newRecordingStore(cfg.Recording)
	if err != nil {
		return err
	}

	srv := dispatch.NewServer(cfg, logger, registry, calls, dialer, opener, store)
	httpSrv := &http.Server{
		Addr:    cfg.Listen,
		Handler: srv.Handler(),
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		httpSrv.Shutdown(shutdownCtx)
	}()

	logger.Info("dispatch service listening",
		"addr", cfg.Listen,
		"public_host", cfg.PublicHost,
		"variant", cfg.Variant)
	if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func newLogger(cfg dispatch.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func newRecordingStore(cfg dispatch.RecordingConfig) (recording.Store, error) {
	switch cfg.Backend {
	case "":
		return nil, nil
	case "dir":
		return recording.NewDir(cfg.Dir)
	case "s3":
		opts := s3.Options{Region: cfg.Region}
		if cfg.Endpoint != "" {
			opts.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		if cfg.AccessKey != "" {
			creds := aws.Credentials{
				AccessKeyID:     cfg.AccessKey,
				SecretAccessKey: cfg.SecretKey,
			}
			opts.Credentials = aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
				return creds, nil
			})
		}
		return recording.NewS3(s3.New(opts), cfg.Bucket, cfg.Prefix), nil
	default:
		return nil, fmt.Errorf("unknown recording backend %q", cfg.Backend)
	}
}
