// Package catalog is the static registry of media types, target sizes,
// aspect ratios, and encodable formats. It is a set of immutable lookup
// tables built at startup plus validation predicates; lookups fail with a
// typed error on missing keys, never with a silent default.
package catalog

import (
	"sort"
	"strings"

	"github.com/bluecollarverse/media-pipeline/internal/mediaerr"
)

// MediaType is the broad media category an extension belongs to.
type MediaType string

const (
	MediaTypeImage MediaType = "image"
	MediaTypeVideo MediaType = "video"
)

// S3Prefix returns the raw-bucket key prefix for this media type
// ("images" or "videos").
func (m MediaType) S3Prefix() string { return string(m) + "s" }

// Extension is a normalized target encode format. The "jpg" alias is always
// resolved to "jpeg" before any lookup, in both parse directions.
type Extension string

const (
	ExtJPEG Extension = "jpeg"
	ExtPNG  Extension = "png"
	ExtGIF  Extension = "gif"
	ExtMP4  Extension = "mp4"
	ExtAVI  Extension = "avi"
	ExtMOV  Extension = "mov"
)

// extensionMediaTypes maps every Extension to exactly one MediaType.
var extensionMediaTypes = map[Extension]MediaType{
	ExtJPEG: MediaTypeImage,
	ExtPNG:  MediaTypeImage,
	ExtGIF:  MediaTypeImage,
	ExtMP4:  MediaTypeVideo,
	ExtAVI:  MediaTypeVideo,
	ExtMOV:  MediaTypeVideo,
}

// extensionAliases normalizes historical spellings before lookup.
var extensionAliases = map[string]string{"jpg": "jpeg"}

// MediaType returns the media category the extension belongs to.
func (e Extension) MediaType() MediaType { return extensionMediaTypes[e] }

// ContentType returns the MIME type for the extension, e.g. "image/jpeg".
func (e Extension) ContentType() string {
	return string(e.MediaType()) + "/" + string(e)
}

// Size is a logical size label resolved to pixel dimensions per aspect ratio.
type Size string

const (
	SizeTiny   Size = "tiny"
	SizeSmall  Size = "small"
	SizeMedium Size = "medium"
	SizeLarge  Size = "large"
	SizeHuge   Size = "huge"
)

// DefaultSize is applied when a retrieval request omits the size parameter.
const DefaultSize = SizeMedium

// DefaultExtension is applied when a retrieval request omits the extension.
const DefaultExtension = ExtJPEG

// AspectRatio identifies a column of the dimension catalog.
type AspectRatio string

const (
	AspectRatio1x1   AspectRatio = "1:1"
	AspectRatio4x5   AspectRatio = "4:5"
	AspectRatio5x4   AspectRatio = "5:4"
	AspectRatio191x1 AspectRatio = "1.91:1"
	AspectRatio1x191 AspectRatio = "1:1.91"
)

// DefaultAspectRatio is used when a request does not carry one.
const DefaultAspectRatio = AspectRatio1x1

// Dimension is a concrete pixel target. Catalog entries are always
// strictly positive.
type Dimension struct {
	Width  int
	Height int
}

// dimensions is the dense (media type, aspect ratio, size) lookup table.
// Image and video share the same grid.
var dimensions = map[MediaType]map[AspectRatio]map[Size]Dimension{
	MediaTypeImage: imageDimensions,
	MediaTypeVideo: imageDimensions,
}

var imageDimensions = map[AspectRatio]map[Size]Dimension{
	AspectRatio1x1: {
		SizeTiny:   {120, 120},
		SizeSmall:  {270, 270},
		SizeMedium: {540, 540},
		SizeLarge:  {1080, 1080},
		SizeHuge:   {2160, 2160},
	},
	AspectRatio4x5: {
		SizeTiny:   {120, 150},
		SizeSmall:  {270, 338},
		SizeMedium: {540, 675},
		SizeLarge:  {1080, 1350},
		SizeHuge:   {2160, 2700},
	},
	AspectRatio5x4: {
		SizeTiny:   {150, 120},
		SizeSmall:  {338, 270},
		SizeMedium: {675, 540},
		SizeLarge:  {1350, 1080},
		SizeHuge:   {2700, 2160},
	},
}

// Dimensions resolves the pixel target for the combination. Absence of any
// component is a typed validation error, never a fallback.
func Dimensions(mediaType MediaType, ratio AspectRatio, size Size) (Dimension, error) {
	ratios, ok := dimensions[mediaType]
	if !ok {
		return Dimension{}, mediaerr.Newf(mediaerr.KindValidation, "unsupported media type: %s", mediaType)
	}
	sizes, ok := ratios[ratio]
	if !ok {
		return Dimension{}, mediaerr.Newf(mediaerr.KindValidation, "unsupported aspect ratio %s for media type %s", ratio, mediaType)
	}
	dim, ok := sizes[size]
	if !ok {
		return Dimension{}, mediaerr.Newf(mediaerr.KindValidation, "unsupported size %s for aspect ratio %s", size, ratio)
	}
	return dim, nil
}

// AspectRatios lists the aspect ratios present in the catalog for a media type.
func AspectRatios(mediaType MediaType) []AspectRatio {
	ratios := make([]AspectRatio, 0, len(dimensions[mediaType]))
	for r := range dimensions[mediaType] {
		ratios = append(ratios, r)
	}
	sort.Slice(ratios, func(i, j int) bool { return ratios[i] < ratios[j] })
	return ratios
}

// normalize lower-cases, trims, and applies the alias map. Every string
// entering the catalog passes through here so "jpg" and "jpeg" can never
// drift apart.
func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if alias, ok := extensionAliases[s]; ok {
		return alias
	}
	return s
}

// ParseSize validates a raw size string against the catalog.
func ParseSize(s string) (Size, error) {
	size := Size(normalize(s))
	for candidate := range imageDimensions[DefaultAspectRatio] {
		if size == candidate {
			return size, nil
		}
	}
	return "", mediaerr.Newf(mediaerr.KindValidation, "unsupported size: %s", s)
}

// ParseExtension validates a raw extension string, resolving aliases first.
func ParseExtension(s string) (Extension, error) {
	ext := Extension(normalize(s))
	if _, ok := extensionMediaTypes[ext]; !ok {
		return "", mediaerr.Newf(mediaerr.KindValidation, "unsupported extension: %s", s)
	}
	return ext, nil
}

// ExtensionFromContentType resolves a MIME content type ("image/jpg",
// "video/mp4") to its Extension. Malformed inputs and unknown parts fail
// with typed validation errors.
func ExtensionFromContentType(contentType string) (Extension, error) {
	parts := strings.SplitN(strings.TrimSpace(contentType), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", mediaerr.Newf(mediaerr.KindValidation, "invalid content type: %q", contentType)
	}

	mediaType := MediaType(strings.ToLower(parts[0]))
	if _, ok := dimensions[mediaType]; !ok {
		return "", mediaerr.Newf(mediaerr.KindValidation, "unsupported media type: %s", parts[0])
	}

	ext, err := ParseExtension(parts[1])
	if err != nil {
		return "", err
	}
	if ext.MediaType() != mediaType {
		return "", mediaerr.Newf(mediaerr.KindValidation, "extension %s does not belong to media type %s", ext, mediaType)
	}
	return ext, nil
}

// AllowedSizes returns the size labels accepted by the catalog, sorted.
func AllowedSizes() []string {
	sizes := make([]string, 0, len(imageDimensions[DefaultAspectRatio]))
	for s := range imageDimensions[DefaultAspectRatio] {
		sizes = append(sizes, string(s))
	}
	sort.Strings(sizes)
	return sizes
}

// AllowedExtensions returns the extension labels for a media type, sorted.
// An empty media type returns every extension.
func AllowedExtensions(mediaType MediaType) []string {
	exts := make([]string, 0, len(extensionMediaTypes))
	for e, mt := range extensionMediaTypes {
		if mediaType == "" || mt == mediaType {
			exts = append(exts, string(e))
		}
	}
	sort.Strings(exts)
	return exts
}

// AllowedContentTypes returns the full set of accepted MIME types.
func AllowedContentTypes() map[string]bool {
	types := make(map[string]bool, len(extensionMediaTypes))
	for e := range extensionMediaTypes {
		types[e.ContentType()] = true
	}
	return types
}

// ImageSizes returns every size label as a Size slice, sorted. Used by the
// dispatcher to request the full variant matrix.
func ImageSizes() []Size {
	labels := AllowedSizes()
	sizes := make([]Size, len(labels))
	for i, l := range labels {
		sizes[i] = Size(l)
	}
	return sizes
}
