package main

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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/tendant/resizor-go/pkg/resizor/resizortest"
	"github.com/tendant/resizor-go/pkg/resizor/signature"
	"github.com/tendant/resizor-go/pkg/resizor/storage"
	"github.com/tendant/resizor-go/pkg/resizor/storage/memory"
	"github.com/tendant/resizor-go/pkg/resizor/storage/s3"
)

type Config struct {
	Host       string        `env:"HOST" env-default:"localhost"`
	Port       uint16        `env:"PORT" env-default:"8090"`
	BaseURL    string        `env:"BASE_URL"`
	APIVersion string        `env:"RESIZOR_API_VERSION" env-default:"v1"`
	AccessKey  string        `env:"RESIZOR_ACCESS_KEY" env-default:"dev-access-key"`
	SecretKey  string        `env:"RESIZOR_SECRET_KEY" env-default:"dev-secret-key"`
	Algorithm  string        `env:"RESIZOR_SIGNATURE_ALGORITHM" env-default:"sha256"`
	MaxSkew    time.Duration `env:"RESIZOR_MAX_SKEW" env-default:"5m"`
	S3         S3Config
}

type S3Config struct {
	Endpoint        string `env:"AWS_S3_ENDPOINT"`
	AccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	BucketName      string `env:"AWS_S3_BUCKET"`
	Region          string `env:"AWS_S3_REGION" env-default:"us-east-1"`
	Prefix          string `env:"AWS_S3_PREFIX" env-default:"resizor/"`
	CreateBucket    bool   `env:"AWS_S3_CREATE_BUCKET" env-default:"false"`
}

func buildStore(config S3Config) (storage.BlobStore, error) {
	if config.BucketName == "" {
		return memory.New(), nil
	}

	backend, err := s3.New(s3.Config{
		Region:                 config.Region,
		Bucket:                 config.BucketName,
		Prefix:                 config.Prefix,
		AccessKeyID:            config.AccessKeyID,
		SecretAccessKey:        config.SecretAccessKey,
		Endpoint:               config.Endpoint,
		UsePathStyle:           config.Endpoint != "",
		CreateBucketIfNotExist: config.CreateBucket,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 backend: %w", err)
	}
	return backend, nil
}

func newRouter(fake *resizortest.Server) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		render.PlainText(w, r, http.StatusText(http.StatusOK))
	})
	r.Mount("/", fake.Handler())
	return r
}

func main() {
	var config Config
	if err := cleanenv.ReadEnv(&config); err != nil {
		slog.Error("Failed to read configuration", "err", err)
		os.Exit(1)
	}
	if !signature.ValidAlgorithm(signature.Algorithm(config.Algorithm)) {
		slog.Error("Unsupported signature algorithm", "algorithm", config.Algorithm)
		os.Exit(1)
	}

	store, err := buildStore(config.S3)
	if err != nil {
		slog.Error("Failed to initialize blob store", "err", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf("%s:%d", config.Host, config.Port)
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "http://" + addr
	}

	fake := resizortest.NewServer(resizortest.Options{
		APIVersion: config.APIVersion,
		AccessKey:  config.AccessKey,
		SecretKey:  config.SecretKey,
		Algorithm:  signature.Algorithm(config.Algorithm),
		Store:      store,
		MaxSkew:    config.MaxSkew,
		Logger:     slog.Default(),
	})
	fake.SetBaseURL(baseURL)

	server := &http.Server{
		Addr:              addr,
		Handler:           newRouter(fake),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("Fake Resizor listening", "addr", addr, "api_version", config.APIVersion, "access_key", config.AccessKey)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "err", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Failed to shut down cleanly", "err", err)
	}
}
