package backup

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"github.com/Azure/azure-storage-blob-go/azblob"

	"workforce-ingest/internal/config"
	apperrors "workforce-ingest/internal/errors"
)

// AzureArtifactStore keeps artifacts in an Azure Blob Storage container
type AzureArtifactStore struct {
	containerURL azblob.ContainerURL
	prefix       string
}

// NewAzureArtifactStore creates an Azure-backed artifact store
func NewAzureArtifactStore(cfg config.AzureArtifacts) (*AzureArtifactStore, error) {
	credential, err := azblob.NewSharedKeyCredential(cfg.AccountName, cfg.AccountKey)
	if err != nil {
		return nil, apperrors.NewFault("failed to create Azure credentials", err)
	}

	pipeline := azblob.NewPipeline(credential, azblob.PipelineOptions{})
	serviceURL, err := url.Parse(fmt.Sprintf("https://%s.blob.core.windows.net", cfg.AccountName))
	if err != nil {
		return nil, apperrors.NewFault("failed to parse Azure service URL", err)
	}

	container := azblob.NewServiceURL(*serviceURL, pipeline).NewContainerURL(cfg.Container)
	return &AzureArtifactStore{
		containerURL: container,
		prefix:       normalizePrefix(cfg.Prefix, "backups/"),
	}, nil
}

// Put uploads a table's artifact
func (s *AzureArtifactStore) Put(ctx context.Context, table string, data []byte) error {
	name := s.prefix + artifactName(table)
	blobURL := s.containerURL.NewBlockBlobURL(name)

	_, err := azblob.UploadBufferToBlockBlob(ctx, data, blobURL, azblob.UploadToBlockBlobOptions{
		BlobHTTPHeaders: azblob.BlobHTTPHeaders{ContentType: "application/octet-stream"},
		Metadata:        azblob.Metadata{"table": table},
	})
	if err != nil {
		return apperrors.NewFault("failed to upload artifact to Azure", err).WithContext("blob", name)
	}
	return nil
}

// Get downloads a table's artifact
func (s *AzureArtifactStore) Get(ctx context.Context, table string) ([]byte, error) {
	name := s.prefix + artifactName(table)
	blobURL := s.containerURL.NewBlockBlobURL(name)

	response, err := blobURL.Download(ctx, 0, azblob.CountToEnd,
		azblob.BlobAccessConditions{}, false, azblob.ClientProvidedKeyOptions{})
	if err != nil {
		if storageErr, ok := err.(azblob.StorageError); ok &&
			storageErr.ServiceCode() == azblob.ServiceCodeBlobNotFound {
			return nil, apperrors.NewNotFound(table,
				fmt.Sprintf("Backup file for table '%s' not found.", table), err)
		}
		return nil, apperrors.NewFault("failed to download artifact from Azure", err).WithContext("blob", name)
	}

	body := response.Body(azblob.RetryReaderOptions{MaxRetryRequests: 3})
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, apperrors.NewFault("failed to read artifact body", err).WithContext("blob", name)
	}
	return data, nil
}
