package blobsync

//go:generate go tool mockgen -source blob_client_wrappers.go -destination blob_mocks_test.go -package blobsync

import (
	"context"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
)

// blobClient is just an interface over [*azblob.Client]
type blobClient interface {
	// UploadBuffer maps to [azblob.Client.UploadBuffer]
	UploadBuffer(ctx context.Context, containerName string, blobName string, buffer []byte, o *azblob.UploadBufferOptions) (azblob.UploadBufferResponse, error)

	// CreateContainer maps to [azblob.Client.CreateContainer]
	CreateContainer(ctx context.Context, containerName string, o *azblob.CreateContainerOptions) (azblob.CreateContainerResponse, error)
}

var _ blobClient = (*azblob.Client)(nil)
