package config

import (
	"os"
	"strings"
)

// Settings groups the import-pipeline knobs read once at startup.
type Settings struct {
	// MaxUploadBytes bounds the multipart file size accepted on upload.
	MaxUploadBytes int64
	// StorageBackend selects the blob store: "local" (default) or "gcs".
	StorageBackend string
	// LocalStorageDir is the root for the local blob store.
	LocalStorageDir string
	// MarkFailedOnError controls whether an aborted confirmation moves the
	// job to the failed status. Default false: the job stays pending and the
	// confirmation can be retried.
	MarkFailedOnError bool
}

func LoadSettings() Settings {
	return Settings{
		MaxUploadBytes:    int64(intFromEnv("MAX_UPLOAD_BYTES", 10<<20)),
		StorageBackend:    envOr("STORAGE_BACKEND", "local"),
		LocalStorageDir:   envOr("LOCAL_STORAGE_DIR", "uploads"),
		MarkFailedOnError: boolFromEnv("IMPORT_MARK_FAILED_ON_ERROR", false),
	}
}

func boolFromEnv(key string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes":
		return true
	case "0", "false", "no":
		return false
	default:
		return def
	}
}
