// Package funcboot provides shared cold-start bootstrap logic for the
// function host and the CLI.
//
// Both binaries need the same subset: env file loading, the blob gateway,
// the transformation client, and startup logging. This package extracts the
// common init patterns so each main's startup is a short composition of
// helpers. Nothing here is fatal: a misconfigured process still boots and
// reports problems per request.
package funcboot

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/kwarren/image-styler/internal/blobstore"
	"github.com/kwarren/image-styler/internal/logging"
	"github.com/kwarren/image-styler/internal/transform"
)

// LoadEnv reads .env and .env.local when present, for local development.
// Does not error when the files are absent.
func LoadEnv() {
	_ = godotenv.Load(".env", ".env.local")
}

// InitStorage opens the blob gateway. The connection string is resolved
// lazily, so this only warns when the environment looks unconfigured.
func InitStorage() *blobstore.Gateway {
	if src := blobstore.ConnectionSource(); src == "" {
		log.Warn().Msg("No storage connection string set — storage requests will fail")
	} else {
		log.Debug().Str("source", src).Msg("Storage connection resolved")
	}
	return blobstore.Open()
}

// InitTransform builds the transformation API client from the environment.
// Returns nil (with a warning) when the API is not configured; the pipeline
// then records failures instead of calling out.
func InitTransform() *transform.Client {
	client, err := transform.NewFromEnv()
	if err != nil {
		log.Warn().Err(err).Msg("Transformation API not configured — style generation disabled")
		return nil
	}
	return client
}

// StartupLog is a convenience wrapper for the startup logger.
func StartupLog(name string, initStart time.Time) *logging.StartupLogger {
	return logging.NewStartupLogger(name).InitDuration(time.Since(initStart))
}
