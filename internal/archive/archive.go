// Package archive keeps a copy of every run bundle in Azure Blob Storage.
package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/rs/zerolog"
)

var (
	ErrEmptyKey   = errors.New("archive key is empty")
	ErrInvalidKey = errors.New("archive key contains path traversal")
)

// Archiver stores run artefacts under a key.
type Archiver interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) error
}

type azure struct {
	client    *azblob.Client
	container string
	logger    zerolog.Logger
}

// NewAzure creates the client and makes sure the container exists.
func NewAzure(ctx context.Context, connectionString, container string, logger zerolog.Logger) (Archiver, error) {
	client, err := azblob.NewClientFromConnectionString(connectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	a := &azure{client: client, container: container, logger: logger.With().Str("component", "archive").Logger()}

	if _, err := client.CreateContainer(ctx, container, nil); err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
		return nil, fmt.Errorf("create container %s: %w", container, err)
	}
	a.logger.Info().Str("container", container).Msg("archive container ready")
	return a, nil
}

func (a *azure) Put(ctx context.Context, key string, r io.Reader, contentType string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	opts := &azblob.UploadStreamOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &contentType},
	}
	if _, err := a.client.UploadStream(ctx, a.container, key, r, opts); err != nil {
		return fmt.Errorf("upload blob %s: %w", key, err)
	}
	a.logger.Debug().Str("key", key).Msg("archived")
	return nil
}

// Nop discards everything. Used when no storage account is configured.
type Nop struct{}

func (Nop) Put(ctx context.Context, key string, r io.Reader, contentType string) error {
	return ValidateKey(key)
}

// Key builds "runs/<numero>/<run id>/<file>".
func Key(numero, runID, filename string) string {
	return strings.Join([]string{"runs", numero, runID, filename}, "/")
}

func ValidateKey(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if strings.Contains(key, "..") {
		return ErrInvalidKey
	}
	return nil
}
