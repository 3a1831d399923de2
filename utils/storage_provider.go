package utils

import (
	"os"
	"strings"
)

const (
	StorageProviderGCS = "gcs"
	StorageProviderDO  = "do"
)

func GetStorageProvider() string {
	provider := strings.TrimSpace(strings.ToLower(os.Getenv("STORAGE_PROVIDER")))
	if provider == "" {
		return StorageProviderGCS
	}
	return provider
}

// SignedReadsEnabled reports whether image references should be turned into signed GET URLs.
//
// Set via env:
// - GCS_SIGNED_READS=true
func SignedReadsEnabled() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("GCS_SIGNED_READS")))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}
