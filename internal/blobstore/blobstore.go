// Package blobstore provides the Azure Blob Storage gateway shared by the
// HTTP functions and the CLI.
//
// The azblob client is constructed lazily on first use, so a process whose
// connection string is missing still boots and surfaces the problem as a
// per-request error instead of crashing at startup.
package blobstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/rs/zerolog/log"
)

// DefaultContainer is used when a request does not name a container.
const DefaultContainer = "file-container"

// Connection string environment variables, in resolution order.
const (
	EnvTargetConnection = "TARGET_STORAGE_CONNECTION_STRING"
	EnvWebJobsStorage   = "AzureWebJobsStorage"
)

var (
	// ErrNotConfigured means no storage connection string is set.
	ErrNotConfigured = errors.New("storage connection not configured")

	// ErrContainerNotFound wraps the service's ContainerNotFound code.
	ErrContainerNotFound = errors.New("container not found")

	// ErrBlobNotFound wraps the service's BlobNotFound code.
	ErrBlobNotFound = errors.New("blob not found")
)

// ResolveConnection returns the storage connection string from the
// environment: TARGET_STORAGE_CONNECTION_STRING when set, otherwise the
// Functions host default AzureWebJobsStorage.
func ResolveConnection() (string, error) {
	if conn := os.Getenv(EnvTargetConnection); conn != "" {
		return conn, nil
	}
	if conn := os.Getenv(EnvWebJobsStorage); conn != "" {
		return conn, nil
	}
	return "", ErrNotConfigured
}

// ConnectionSource names the environment variable that will supply the
// connection string, for startup logging. Empty when neither is set.
func ConnectionSource() string {
	if os.Getenv(EnvTargetConnection) != "" {
		return EnvTargetConnection
	}
	if os.Getenv(EnvWebJobsStorage) != "" {
		return EnvWebJobsStorage
	}
	return ""
}

// ContainerOrDefault returns name, or DefaultContainer when name is empty.
func ContainerOrDefault(name string) string {
	if name == "" {
		return DefaultContainer
	}
	return name
}

// Gateway wraps an azblob client with the blob operations the service needs.
type Gateway struct {
	client func() (*azblob.Client, error)
}

// Open returns a gateway whose connection string is resolved from the
// environment on first use. The resolved client is memoized for the life of
// the process.
func Open() *Gateway {
	return &Gateway{client: sync.OnceValues(func() (*azblob.Client, error) {
		conn, err := ResolveConnection()
		if err != nil {
			return nil, err
		}
		client, err := azblob.NewClientFromConnectionString(conn, nil)
		if err != nil {
			return nil, fmt.Errorf("create blob client: %w", err)
		}
		return client, nil
	})}
}

// ListContainer returns the name of every blob in the container, across all
// result pages.
func (g *Gateway) ListContainer(ctx context.Context, container string) ([]string, error) {
	return g.list(ctx, container, "")
}

// ListPrefix returns the names of blobs whose names start with prefix.
func (g *Gateway) ListPrefix(ctx context.Context, container, prefix string) ([]string, error) {
	return g.list(ctx, container, prefix)
}

func (g *Gateway) list(ctx context.Context, container, prefix string) ([]string, error) {
	client, err := g.client()
	if err != nil {
		return nil, err
	}

	opts := &azblob.ListBlobsFlatOptions{}
	if prefix != "" {
		opts.Prefix = to.Ptr(prefix)
	}

	names := []string{}
	pager := client.NewListBlobsFlatPager(container, opts)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, classify(err, fmt.Sprintf("list container %q", container))
		}
		for _, item := range page.Segment.BlobItems {
			if item.Name != nil {
				names = append(names, *item.Name)
			}
		}
	}
	return names, nil
}

// Exists reports whether the named blob exists.
func (g *Gateway) Exists(ctx context.Context, container, name string) (bool, error) {
	client, err := g.client()
	if err != nil {
		return false, err
	}

	_, err = client.ServiceClient().NewContainerClient(container).NewBlobClient(name).GetProperties(ctx, nil)
	if err == nil {
		return true, nil
	}
	if bloberror.HasCode(err, bloberror.BlobNotFound) {
		return false, nil
	}
	return false, classify(err, fmt.Sprintf("stat blob %s/%s", container, name))
}

// Download returns the full content of the named blob.
func (g *Gateway) Download(ctx context.Context, container, name string) ([]byte, error) {
	client, err := g.client()
	if err != nil {
		return nil, err
	}

	log.Debug().Str("container", container).Str("blob", name).Msg("Downloading blob")
	resp, err := client.DownloadStream(ctx, container, name, nil)
	if err != nil {
		return nil, classify(err, fmt.Sprintf("download blob %s/%s", container, name))
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read blob %s/%s: %w", container, name, err)
	}
	return data, nil
}

// Upload writes data to the named blob, overwriting any existing content.
// contentType is stored as the blob's Content-Type header when non-empty.
func (g *Gateway) Upload(ctx context.Context, container, name string, data []byte, contentType string) error {
	client, err := g.client()
	if err != nil {
		return err
	}

	log.Debug().Str("container", container).Str("blob", name).Int("bytes", len(data)).Msg("Uploading blob")
	opts := &azblob.UploadStreamOptions{}
	if contentType != "" {
		opts.HTTPHeaders = &blob.HTTPHeaders{BlobContentType: to.Ptr(contentType)}
	}
	if _, err := client.UploadStream(ctx, container, name, bytes.NewReader(data), opts); err != nil {
		return classify(err, fmt.Sprintf("upload blob %s/%s", container, name))
	}
	return nil
}

// classify translates azblob service error codes into the gateway's sentinel
// errors so callers can map them to HTTP statuses without importing the SDK.
func classify(err error, op string) error {
	switch {
	case bloberror.HasCode(err, bloberror.ContainerNotFound):
		return fmt.Errorf("%s: %w", op, ErrContainerNotFound)
	case bloberror.HasCode(err, bloberror.BlobNotFound):
		return fmt.Errorf("%s: %w", op, ErrBlobNotFound)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
