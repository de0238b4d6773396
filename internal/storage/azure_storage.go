package storage

import (
	"context"
	"fmt"
	"image"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"

	"github.com/anime-shed/red-inspector-go/internal/analyzer"
	apperrors "github.com/anime-shed/red-inspector-go/internal/errors"
)

// AzureSource reads images from the blobs of one container.
type AzureSource struct {
	client    *azblob.Client
	container string
}

// NewAzureSource connects with a shared key. An empty endpoint means the
// public https://<account>.blob.core.windows.net service.
func NewAzureSource(accountName, accountKey, container, endpoint string) (*AzureSource, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid azure credentials", err)
	}

	if endpoint == "" {
		endpoint = fmt.Sprintf("https://%s.blob.core.windows.net", accountName)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(endpoint, credential, nil)
	if err != nil {
		return nil, fmt.Errorf("creating azure client: %w", err)
	}

	return &AzureSource{client: client, container: container}, nil
}

func (s *AzureSource) List(ctx context.Context) ([]string, error) {
	var names []string

	pager := s.client.NewListBlobsFlatPager(s.container, nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, apperrors.NewNetworkError(fmt.Sprintf("listing container %s", s.container), err)
		}
		for _, item := range page.Segment.BlobItems {
			if item.Name != nil {
				names = append(names, *item.Name)
			}
		}
	}
	return filterImageNames(names), nil
}

func (s *AzureSource) Open(ctx context.Context, name string) (image.Image, error) {
	resp, err := s.client.DownloadStream(ctx, s.container, name, nil)
	if err != nil {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("image not found: %s/%s", s.container, name), err)
	}
	defer resp.Body.Close()

	return analyzer.DecodeImage(resp.Body, name)
}

func (s *AzureSource) String() string {
	return "azure://" + s.container
}
