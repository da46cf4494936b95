// Package scratch manages the per-invocation temp-file arena. Every path it
// hands out is unique, and release is a best-effort no-op when the file is
// already gone, so callers can defer cleanup unconditionally on every exit
// path. Lambda /tmp is ephemeral and reclaimed between invocations; nothing
// here survives a hard external kill, by contract.
package scratch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Arena allocates uniquely named scratch paths under a root directory.
type Arena struct {
	root string
}

// New creates an Arena rooted at dir. An empty dir uses the system temp
// directory (Lambda /tmp).
func New(dir string) *Arena {
	if dir == "" {
		dir = os.TempDir()
	}
	return &Arena{root: dir}
}

// Allocate returns a unique scratch path named {token}-{hint}.{ext}.
// The file itself is not created; the parent directory is ensured.
func (a *Arena) Allocate(hint, ext string) (string, error) {
	if err := os.MkdirAll(a.root, 0o755); err != nil {
		return "", fmt.Errorf("create scratch dir %s: %w", a.root, err)
	}
	name := uuid.NewString()
	if hint != "" {
		name += "-" + sanitizeHint(hint)
	}
	if ext != "" {
		name += "." + strings.TrimPrefix(ext, ".")
	}
	return filepath.Join(a.root, name), nil
}

// Release deletes the file at path if it exists. A missing file is a normal
// outcome, not an error; other removal failures are logged and swallowed
// since cleanup must never mask the primary error.
func (a *Arena) Release(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Str("path", path).Msg("Failed to remove scratch file")
	}
}

// sanitizeHint strips path separators so a hint can never escape the arena.
func sanitizeHint(hint string) string {
	hint = filepath.Base(hint)
	return strings.ReplaceAll(hint, string(os.PathSeparator), "_")
}
