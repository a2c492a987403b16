package runbook

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
)

// AzureBlobStore implements BlobStore on Azure Blob Storage.
type AzureBlobStore struct {
	client *azblob.Client
}

// NewAzureBlobStore builds a blob client for the storage account,
// authenticating with an account key listed through ARM. When
// blobEndpointURL is set it overrides the public blob endpoint (used
// against simulators).
func NewAzureBlobStore(ctx context.Context, clients *Clients, resourceGroup, account, blobEndpointURL string) (*AzureBlobStore, error) {
	keys, err := clients.StorageAccounts.ListKeys(ctx, resourceGroup, account, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list keys for storage account %s: %w", account, err)
	}
	if len(keys.Keys) == 0 || keys.Keys[0].Value == nil {
		return nil, fmt.Errorf("storage account %s has no keys", account)
	}

	cred, err := azblob.NewSharedKeyCredential(account, *keys.Keys[0].Value)
	if err != nil {
		return nil, err
	}

	serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net/", account)
	var opts *azblob.ClientOptions
	if blobEndpointURL != "" {
		serviceURL = strings.TrimSuffix(blobEndpointURL, "/") + "/"
		opts = &azblob.ClientOptions{
			ClientOptions: azcore.ClientOptions{InsecureAllowCredentialWithHTTP: true},
		}
	}

	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, cred, opts)
	if err != nil {
		return nil, err
	}
	return &AzureBlobStore{client: client}, nil
}

// ContainerExists reports whether the container exists.
func (b *AzureBlobStore) ContainerExists(ctx context.Context, container string) (bool, error) {
	_, err := b.client.ServiceClient().NewContainerClient(container).GetProperties(ctx, nil)
	if bloberror.HasCode(err, bloberror.ContainerNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// EnsureContainer creates the container if it does not exist.
func (b *AzureBlobStore) EnsureContainer(ctx context.Context, container string) error {
	_, err := b.client.CreateContainer(ctx, container, nil)
	if bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
		return nil
	}
	return err
}

// BlobExists reports whether the named blob exists in the container.
func (b *AzureBlobStore) BlobExists(ctx context.Context, container, name string) (bool, error) {
	_, err := b.client.ServiceClient().NewContainerClient(container).NewBlobClient(name).GetProperties(ctx, nil)
	if bloberror.HasCode(err, bloberror.BlobNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// UploadFile uploads the local file as the named blob, overwriting any
// existing blob of that name.
func (b *AzureBlobStore) UploadFile(ctx context.Context, container, name, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = b.client.UploadFile(ctx, container, name, f, nil)
	return err
}

// BlobURL returns the URL the extension handler downloads from.
func (b *AzureBlobStore) BlobURL(container, name string) string {
	return b.client.ServiceClient().NewContainerClient(container).NewBlobClient(name).URL()
}
