package extract

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/coriolinus/ghost2zola/internal/post"
)

// writePosts renders every post to its computed relative path under root,
// overwriting any prior file there.
func writePosts(root string, posts []*post.Post, log *slog.Logger) error {
	for _, p := range posts {
		rel := p.RelativePath()
		dest := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return fmt.Errorf("extract: mkdir for post: %w", err)
		}
		var buf bytes.Buffer
		if err := p.Render(&buf); err != nil {
			return err
		}
		if err := os.WriteFile(dest, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("extract: write post: %w", err)
		}
		log.Debug("generated post", slog.String("path", rel))
	}
	return nil
}

// ensureIndices scaffolds the _index.md files Zola needs: the root index
// from the root template, and one branch index in every subdirectory that
// lacks one. Existing index files are never overwritten. Returns how many
// were created.
func ensureIndices(root string, log *slog.Logger) (int, error) {
	n, err := seedIndex(filepath.Join(root, "_index.md"), rootIndexData)
	if err != nil {
		return n, err
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return n, fmt.Errorf("extract: read destination: %w", err)
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		created, err := ensureBranchIndices(filepath.Join(root, entry.Name()), log)
		n += created
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

// ensureBranchIndices recursively seeds branch indices below dir. An
// unreadable subdirectory is logged and skipped; it never aborts the
// scaffold pass.
func ensureBranchIndices(dir string, log *slog.Logger) (int, error) {
	n, err := seedIndex(filepath.Join(dir, "_index.md"), branchIndexData)
	if err != nil {
		return n, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Warn("failed to read subdirectory",
			slog.String("path", dir),
			slog.String("error", err.Error()))
		return n, nil
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		created, err := ensureBranchIndices(filepath.Join(dir, entry.Name()), log)
		n += created
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

// seedIndex writes data to path only when no file exists there yet.
func seedIndex(path string, data []byte) (int, error) {
	_, err := os.Stat(path)
	if err == nil {
		return 0, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return 0, fmt.Errorf("extract: stat index: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return 0, fmt.Errorf("extract: write index: %w", err)
	}
	return 1, nil
}
