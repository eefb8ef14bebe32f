// Package main is the Azure Functions custom handler for the image styler.
//
// The Functions host forwards HTTP triggers to this process on
// FUNCTIONS_CUSTOMHANDLER_PORT; run locally it listens on 8080.
//
// Endpoints:
//
//	GET|POST /api/list_files    — list blob names in a container
//	POST     /api/style_images  — run the batch styling pipeline
//	GET      /api/health        — liveness check (not rate limited)
//
// All storage and transformation configuration comes from the environment:
// TARGET_STORAGE_CONNECTION_STRING / AzureWebJobsStorage for the blob
// gateway, AZURE_ENDPOINT_URL / AZURE_API_KEY for the transformation API.
// Missing configuration is never fatal at boot; affected requests fail with
// a JSON error instead.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/kwarren/image-styler/internal/api"
	"github.com/kwarren/image-styler/internal/blobstore"
	"github.com/kwarren/image-styler/internal/funcboot"
	"github.com/kwarren/image-styler/internal/logging"
	"github.com/kwarren/image-styler/internal/pipeline"
	"github.com/kwarren/image-styler/internal/ratelimit"
	"github.com/kwarren/image-styler/internal/transform"
)

var (
	initStart = time.Now()

	gateway     *blobstore.Gateway
	styleClient *transform.Client
)

func init() {
	funcboot.LoadEnv()
	logging.Init()

	gateway = funcboot.InitStorage()
	styleClient = funcboot.InitTransform()

	funcboot.StartupLog("styler-func", initStart).
		Container("default", blobstore.DefaultContainer).
		Endpoint("styleAPI", os.Getenv(transform.EnvEndpoint)).
		Feature("storage", blobstore.ConnectionSource() != "").
		Feature("transform", styleClient != nil).
		Config("rateLimit", fmt.Sprintf("%d per %s", ratelimit.DefaultLimit, ratelimit.DefaultWindow)).
		Log()
}

func main() {
	// A nil *transform.Client must stay a nil interface so the pipeline can
	// detect the unconfigured state.
	var tf pipeline.Transformer
	if styleClient != nil {
		tf = styleClient
	}

	limiter := ratelimit.New(ratelimit.DefaultLimit, ratelimit.DefaultWindow)
	handler := api.NewHandler(gateway, limiter, tf)
	root := withRequestLog(withMetrics(handler.Router()))

	port := logging.EnvOrDefault("FUNCTIONS_CUSTOMHANDLER_PORT", "8080")
	srv := &http.Server{
		Addr:        ":" + port,
		Handler:     root,
		ReadTimeout: 30 * time.Second,
		// Batch runs call the transformation API once per file and style;
		// the write timeout has to cover the whole batch.
		WriteTimeout: 300 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info().Msg("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}()

	log.Info().Str("port", port).Msg("Custom handler listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("Server failed")
	}
}
