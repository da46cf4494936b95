// Package mediainfo looks up ownership and content-type metadata for a
// logical media filename. The relational schema itself is owned by the
// upload service; this package is a read-only collaborator interface with
// an Aurora Data API implementation.
package mediainfo

import "context"

// Info is the metadata row for one media item.
type Info struct {
	Username    string
	ContentType string
}

// Store resolves a filename to its metadata. Implementations return a
// typed not-found error when the row is absent.
type Store interface {
	Lookup(ctx context.Context, filename string) (Info, error)
}
