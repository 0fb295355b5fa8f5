// Package blobsync mirrors persisted runs and the run index to an Azure Blob
// Storage container. The local run store stays the source of truth.
package blobsync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"sync"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"

	"github.com/kaveh8866/SemantIQ/internal/models"
	"github.com/kaveh8866/SemantIQ/internal/projectconfig"
	"github.com/kaveh8866/SemantIQ/internal/registry"
	"github.com/kaveh8866/SemantIQ/internal/runstore"
)

const contentTypeJSON = "application/json"

// Publisher uploads run artifacts using the same layout as the local run
// store: <prefix><runID>/result.json and <prefix>index.json.
type Publisher struct {
	client    blobClient
	container string
	prefix    string
	cred      azcore.TokenCredential
	logger    *slog.Logger

	containerOnce sync.Once
	containerErr  error
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithCredential overrides the default Azure credential chain.
func WithCredential(cred azcore.TokenCredential) Option {
	return func(p *Publisher) {
		p.cred = cred
	}
}

// WithPrefix places every blob under a virtual directory.
func WithPrefix(prefix string) Option {
	return func(p *Publisher) {
		p.prefix = strings.Trim(prefix, "/")
		if p.prefix != "" {
			p.prefix += "/"
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = l
	}
}

func withClient(c blobClient) Option {
	return func(p *Publisher) {
		p.client = c
	}
}

// New creates a publisher for the configured container. Without
// WithCredential it authenticates with azidentity's default credential chain
// (environment, workload identity, managed identity, Azure CLI).
func New(cfg projectconfig.AzureBlobConfig, opts ...Option) (*Publisher, error) {
	if !cfg.Enabled() {
		return nil, errors.New("azure blob mirror requires both account_url and container")
	}

	p := &Publisher{
		container: cfg.Container,
		logger:    slog.Default(),
	}
	for _, o := range opts {
		o(p)
	}
	if p.client != nil {
		return p, nil
	}

	if p.cred == nil {
		cred, err := azidentity.NewDefaultAzureCredential(nil)
		if err != nil {
			return nil, fmt.Errorf("creating azure credential: %w", err)
		}
		p.cred = cred
	}

	client, err := azblob.NewClient(cfg.AccountURL, p.cred, nil)
	if err != nil {
		return nil, fmt.Errorf("creating blob client for %s: %w", cfg.AccountURL, err)
	}
	p.client = client
	return p, nil
}

// PublishRun uploads the result of one run.
func (p *Publisher) PublishRun(ctx context.Context, result *models.RunResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling run %s: %w", result.RunID, err)
	}
	return p.upload(ctx, path.Join(result.RunID, runstore.ResultFile), data)
}

// PublishIndex uploads the run index.
func (p *Publisher) PublishIndex(ctx context.Context, entries []models.RegistryEntry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling run index: %w", err)
	}
	return p.upload(ctx, registry.IndexFile, data)
}

func (p *Publisher) upload(ctx context.Context, name string, data []byte) error {
	if err := p.ensureContainer(ctx); err != nil {
		return err
	}

	blobName := p.prefix + name
	_, err := p.client.UploadBuffer(ctx, p.container, blobName, data, &azblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: to.Ptr(contentTypeJSON)},
	})
	if err != nil {
		return fmt.Errorf("uploading %s to container %s: %w", blobName, p.container, describe(err))
	}

	p.logger.Debug("Published blob", "container", p.container, "blob", blobName, "bytes", len(data))
	return nil
}

// ensureContainer creates the container on first use. An existing container
// is fine.
func (p *Publisher) ensureContainer(ctx context.Context) error {
	p.containerOnce.Do(func() {
		_, err := p.client.CreateContainer(ctx, p.container, nil)
		if err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
			p.containerErr = fmt.Errorf("creating container %s: %w", p.container, describe(err))
		}
	})
	return p.containerErr
}

// describe shortens azcore response errors to their status and error code.
func describe(err error) error {
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		return fmt.Errorf("status %d (%s): %w", respErr.StatusCode, respErr.ErrorCode, err)
	}
	return err
}
