package archive

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/coriolinus/ghost2zola/internal/apperr"
)

const dbFileName = "ghost.db"

// LogProgress emits a periodic checkpoint while scanning large archives.
// Cheap mask checks keep it out of the hot path for small archives.
func LogProgress(log *slog.Logger, idx int, verb string) {
	if idx == 0 {
		return
	}
	if idx&0x7fff == 0 {
		log.Info(fmt.Sprintf("%s archive entries", verb), slog.Int("count", idx))
	} else if idx&0x1fff == 0 {
		log.Debug(fmt.Sprintf("%s archive entries", verb), slog.Int("count", idx))
	}
}

// FindGhostDBs streams the archive-relative path of every entry whose base
// name is ghost.db to fn. Returning a non-nil error from fn stops the scan
// and surfaces that error.
func FindGhostDBs(r *Reader, log *slog.Logger, fn func(path string) error) error {
	for idx := 0; ; idx++ {
		hdr, err := r.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("archive: read entry: %w", err)
		}
		LogProgress(log, idx, "inspected")
		if path.Base(hdr.Name) != dbFileName {
			continue
		}
		if err := fn(hdr.Name); err != nil {
			return err
		}
	}
}

// errFoundTwo short-circuits the scan once uniqueness is already decided.
var errFoundTwo = errors.New("archive: second ghost.db found")

// FindGhostDB resolves the single ghost.db entry within the archive at
// archivePath, optionally restricted to entries under prefix. The scan
// stops as soon as a second candidate proves the archive ambiguous.
//
// Outcomes: zero matches fail with apperr.ErrGhostDBNotFound, two or more
// with apperr.ErrMultipleGhostDB, exactly one yields its path.
func FindGhostDB(archivePath, prefix string, log *slog.Logger) (string, error) {
	r, err := Open(archivePath)
	if err != nil {
		return "", err
	}
	defer r.Close()
	return findGhostDB(r, prefix, log)
}

func findGhostDB(r *Reader, prefix string, log *slog.Logger) (string, error) {
	var found string
	err := FindGhostDBs(r, log, func(p string) error {
		if !underPrefix(p, prefix) {
			return nil
		}
		if found != "" {
			return errFoundTwo
		}
		found = p
		return nil
	})
	switch {
	case errors.Is(err, errFoundTwo):
		return "", apperr.ErrMultipleGhostDB
	case err != nil:
		return "", err
	case found == "":
		return "", apperr.ErrGhostDBNotFound
	}
	return found, nil
}

// underPrefix reports whether p sits at or below prefix, comparing whole
// path components so "abc" does not match "abcd/ghost.db".
func underPrefix(p, prefix string) bool {
	if prefix == "" {
		return true
	}
	prefix = path.Clean(strings.TrimPrefix(prefix, "./"))
	return p == prefix || strings.HasPrefix(p, prefix+"/")
}
