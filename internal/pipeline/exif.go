package pipeline

import (
	"os"
	"strings"

	"github.com/evanoberholster/imagemeta"
	"github.com/rs/zerolog/log"
)

// logSourceMetadata records camera and capture-time EXIF fields from the
// downloaded source for troubleshooting. Strictly best effort: many sources
// carry no metadata at all, and extraction failures never touch the pipeline.
func logSourceMetadata(path string) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	exifData, err := imagemeta.Decode(f)
	if err != nil {
		log.Debug().Str("path", path).Msg("No EXIF metadata in source")
		return
	}

	evt := log.Debug().Str("path", path)
	if cameraMake := strings.TrimSpace(exifData.Make); cameraMake != "" {
		evt = evt.Str("cameraMake", cameraMake)
	}
	if model := strings.TrimSpace(exifData.Model); model != "" {
		evt = evt.Str("cameraModel", model)
	}
	if !exifData.DateTimeOriginal().IsZero() {
		evt = evt.Time("taken", exifData.DateTimeOriginal())
	}
	evt.Msg("Source metadata")
}
