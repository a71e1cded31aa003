// Package storage keeps uploaded recipe and profile images on local disk or in S3.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/pageza/pantrypal/backend/config"
)

// PublicPrefix starts every stored asset path, e.g. "uploads/recipes/1700000000000-pie.png".
const PublicPrefix = "uploads"

// Folder groups assets by what they belong to.
type Folder string

const (
	FolderRecipes Folder = "recipes"
	FolderProfile Folder = "profile"
)

var ErrInvalidPath = errors.New("invalid asset path")

// Storage saves and removes uploaded assets. Paths returned by Save are what
// gets persisted on recipes and users.
type Storage interface {
	Save(ctx context.Context, folder Folder, filename, contentType string, data io.Reader) (string, error)
	Delete(ctx context.Context, assetPath string) error
}

var imageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// IsImage reports whether contentType is an accepted image upload.
func IsImage(contentType string) bool {
	mediaType := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	return imageTypes[mediaType]
}

// New picks the backend named by STORAGE_TYPE.
func New(ctx context.Context, cfg *config.Config) (Storage, error) {
	switch cfg.StorageType {
	case "local", "":
		return NewLocalStorage(cfg.UploadDir)
	case "s3":
		awsCfg, err := cfg.AWSConfig(ctx)
		if err != nil {
			return nil, err
		}
		return NewS3Storage(awsCfg, cfg.S3BucketName), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.StorageType)
	}
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// assetPath builds "uploads/<folder>/<unix-millis>-<sanitized name>".
func assetPath(folder Folder, filename string, now time.Time) string {
	name := filepath.Base(strings.ReplaceAll(filename, `\`, "/"))
	name = strings.Trim(unsafeChars.ReplaceAllString(name, "_"), "_.")
	if name == "" {
		name = "upload"
	}
	return path.Join(PublicPrefix, string(folder), fmt.Sprintf("%d-%s", now.UnixMilli(), name))
}

// relativeKey strips the public prefix and rejects paths that escape it.
func relativeKey(assetPath string) (string, error) {
	clean := path.Clean("/" + assetPath)[1:]
	rel := strings.TrimPrefix(clean, PublicPrefix+"/")
	if rel == clean || rel == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, assetPath)
	}
	return rel, nil
}
