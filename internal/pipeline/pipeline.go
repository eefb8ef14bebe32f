// Package pipeline implements the batch image styling engine.
//
// One run lists the source folder of a container, backs up every eligible
// image, and writes one restyled copy per catalog style. Failures are
// isolated: a broken file or a single failed (file, style) pair never aborts
// the rest of the batch. The engine records every unit of work in a Report.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/kwarren/image-styler/internal/styles"
)

// Folder layout inside the container. Requests may override the source and
// output folders; unmodified originals always land under BackupFolder inside
// the output folder.
const (
	DefaultSourceFolder = "source"
	DefaultOutputFolder = "output"
	BackupFolder        = "original"
)

// ErrSourceFolderNotFound means the source folder contains no blobs at all.
var ErrSourceFolderNotFound = errors.New("source folder not found")

// imageContentTypes maps eligible source extensions (lowercase) to the
// Content-Type stored on uploaded blobs. Extensions outside this map are
// ignored by the pipeline.
var imageContentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// Storage is the blob gateway surface the pipeline needs.
type Storage interface {
	ListPrefix(ctx context.Context, container, prefix string) ([]string, error)
	Exists(ctx context.Context, container, name string) (bool, error)
	Download(ctx context.Context, container, name string) ([]byte, error)
	Upload(ctx context.Context, container, name string, data []byte, contentType string) error
}

// Transformer styles a single image.
type Transformer interface {
	Stylize(ctx context.Context, image []byte, prompt string) ([]byte, error)
}

// Request names the container and folders for one batch run.
type Request struct {
	Container    string
	SourceFolder string
	OutputFolder string
}

// Outcome identifies one unit of work in the report. Style is empty for
// file-level outcomes such as a failed download.
type Outcome struct {
	Name  string `json:"name"`
	Style string `json:"style,omitempty"`
	Error string `json:"error,omitempty"`
}

// Report aggregates the outcome of one batch run. All three slices are
// always non-nil so they marshal as JSON arrays.
type Report struct {
	Processed []Outcome `json:"processed"`
	Skipped   []Outcome `json:"skipped"`
	Failed    []Outcome `json:"failed"`
}

// Engine runs style batches against a Storage using a Transformer.
type Engine struct {
	store  Storage
	tf     Transformer
	styles []styles.Style
}

// New returns an engine that produces the full style catalog.
// tf may be nil: every style pass is then recorded as failed without any
// outbound call, while backups still happen.
func New(store Storage, tf Transformer) *Engine {
	return NewWithStyles(store, tf, styles.All())
}

// NewWithStyles returns an engine restricted to the given styles.
func NewWithStyles(store Storage, tf Transformer, catalog []styles.Style) *Engine {
	return &Engine{store: store, tf: tf, styles: catalog}
}

// Run executes one batch. It returns an error only for whole-batch failures
// (unreadable container, empty source folder); per-file and per-style
// problems surface in the report instead.
func (e *Engine) Run(ctx context.Context, req Request) (*Report, error) {
	prefix := req.SourceFolder + "/"

	names, err := e.store.ListPrefix(ctx, req.Container, prefix)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrSourceFolderNotFound, req.SourceFolder)
	}

	report := &Report{Processed: []Outcome{}, Skipped: []Outcome{}, Failed: []Outcome{}}

	start := time.Now()
	eligible := 0
	for _, blobName := range names {
		name := strings.TrimPrefix(blobName, prefix)
		if name == "" {
			// Zero-byte folder placeholder blob.
			continue
		}
		contentType, ok := imageContentTypes[strings.ToLower(path.Ext(name))]
		if !ok {
			log.Debug().Str("blob", blobName).Msg("Skipping non-image blob")
			continue
		}
		eligible++
		e.processFile(ctx, req, name, blobName, contentType, report)
	}

	log.Info().
		Str("container", req.Container).
		Str("source_folder", req.SourceFolder).
		Int("eligible", eligible).
		Int("processed", len(report.Processed)).
		Int("skipped", len(report.Skipped)).
		Int("failed", len(report.Failed)).
		Dur("elapsed", time.Since(start)).
		Msg("Style batch complete")

	return report, nil
}

// processFile backs up one source image and generates its styled copies.
func (e *Engine) processFile(ctx context.Context, req Request, name, blobName, contentType string, report *Report) {
	logger := log.With().Str("file", name).Logger()

	data, err := e.store.Download(ctx, req.Container, blobName)
	if err != nil {
		logger.Error().Err(err).Msg("Download failed")
		report.Failed = append(report.Failed, Outcome{Name: name, Error: fmt.Sprintf("download: %v", err)})
		return
	}

	// Back up the original before styling. A failed backup is recorded but
	// does not block style generation for this file.
	backupName := path.Join(req.OutputFolder, BackupFolder, name)
	if err := e.store.Upload(ctx, req.Container, backupName, data, contentType); err != nil {
		logger.Error().Err(err).Str("blob", backupName).Msg("Backup failed")
		report.Failed = append(report.Failed, Outcome{Name: name, Error: fmt.Sprintf("backup: %v", err)})
	}

	for _, style := range e.styles {
		outName := path.Join(req.OutputFolder, style.Name, name)

		exists, err := e.store.Exists(ctx, req.Container, outName)
		if err != nil {
			logger.Error().Err(err).Str("style", style.Name).Msg("Output existence check failed")
			report.Failed = append(report.Failed, Outcome{Name: name, Style: style.Name, Error: fmt.Sprintf("check output: %v", err)})
			continue
		}
		if exists {
			logger.Debug().Str("style", style.Name).Msg("Output exists, skipping")
			report.Skipped = append(report.Skipped, Outcome{Name: name, Style: style.Name})
			continue
		}

		if e.tf == nil {
			report.Failed = append(report.Failed, Outcome{Name: name, Style: style.Name, Error: "transformation API not configured"})
			continue
		}

		styled, err := e.tf.Stylize(ctx, data, style.Prompt)
		if err != nil {
			logger.Error().Err(err).Str("style", style.Name).Msg("Transformation failed")
			report.Failed = append(report.Failed, Outcome{Name: name, Style: style.Name, Error: fmt.Sprintf("transform: %v", err)})
			continue
		}

		if err := e.store.Upload(ctx, req.Container, outName, styled, contentType); err != nil {
			logger.Error().Err(err).Str("style", style.Name).Msg("Styled upload failed")
			report.Failed = append(report.Failed, Outcome{Name: name, Style: style.Name, Error: fmt.Sprintf("upload: %v", err)})
			continue
		}

		logger.Info().Str("style", style.Name).Str("blob", outName).Msg("Styled image written")
		report.Processed = append(report.Processed, Outcome{Name: name, Style: style.Name})
	}
}
