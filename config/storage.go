package config

import (
	"context"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// NewStorageClient prefers ADC (Cloud Run service account or
// GOOGLE_APPLICATION_CREDENTIALS); credJSON overrides it, e.g. locally.
func NewStorageClient(ctx context.Context, credJSON string) (*storage.Client, error) {
	if strings.TrimSpace(credJSON) != "" {
		return storage.NewClient(ctx, option.WithCredentialsJSON([]byte(credJSON)))
	}
	return storage.NewClient(ctx)
}
