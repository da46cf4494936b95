package storage

import (
	"fmt"

	"github.com/bluecollarverse/media-pipeline/internal/catalog"
	"github.com/bluecollarverse/media-pipeline/internal/mediaerr"
)

// Key and URL construction is pure string building, but every component is
// validated up front: an empty part would silently produce a key that can
// never match an existing object.

// RawKey builds the raw-bucket key {username}/{mediaTypePrefix}/{filename}.
func RawKey(username string, mediaType catalog.MediaType, filename string) (string, error) {
	if err := requireAll(map[string]string{
		"username":  username,
		"mediaType": string(mediaType),
		"filename":  filename,
	}); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%s/%s", username, mediaType.S3Prefix(), filename), nil
}

// ProcessedKey builds the processed-bucket key {filename}/{size}.{extension}.
func ProcessedKey(filename string, size catalog.Size, extension catalog.Extension) (string, error) {
	if err := requireAll(map[string]string{
		"filename":  filename,
		"size":      string(size),
		"extension": string(extension),
	}); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%s.%s", filename, size, extension), nil
}

// MediaURL builds the public URL https://{domain}/{path}.
func MediaURL(domain, path string) (string, error) {
	if err := requireAll(map[string]string{
		"domain": domain,
		"path":   path,
	}); err != nil {
		return "", err
	}
	return fmt.Sprintf("https://%s/%s", domain, path), nil
}

func requireAll(params map[string]string) error {
	for name, value := range params {
		if value == "" {
			return mediaerr.Newf(mediaerr.KindValidation, "missing or empty parameter: %s", name)
		}
	}
	return nil
}
