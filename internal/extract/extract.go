// Package extract runs the archive-to-site pipeline: locate the Ghost
// database inside a (possibly compressed) tar archive, copy it and its
// sibling images out, and render every post into a Zola content tree.
package extract

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/coriolinus/ghost2zola/internal/archive"
	"github.com/coriolinus/ghost2zola/internal/ghostdb"
	"github.com/coriolinus/ghost2zola/internal/post"
)

// Extractor extracts one Ghost archive into one destination directory.
type Extractor struct {
	dest     string
	prefix   string
	linkBase string
	log      *slog.Logger
}

// Summary reports what an extraction run produced.
type Summary struct {
	Posts   int
	Images  int
	Indices int
}

// New returns an Extractor writing into dest, which must already exist.
func New(dest string, opts ...Option) *Extractor {
	e := &Extractor{
		dest:     dest,
		linkBase: post.DefaultLinkBase,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes the full pipeline against the archive at archivePath.
//
// The archive is decoded twice: once to locate the database, once to copy
// bytes out. The compressed streams are forward-only, so a fresh decode is
// the only way to rewind; never special-case seekable inputs.
//
// Any I/O error is fatal for the whole run. The single recoverable
// condition is an entry whose path would resolve outside the destination
// root: it is logged and skipped while extraction continues.
func (e *Extractor) Run(ctx context.Context, archivePath string) (*Summary, error) {
	root, err := resolveRoot(e.dest)
	if err != nil {
		return nil, err
	}

	e.log.Info("analyzing archive", slog.String("path", archivePath))
	dbPath, err := archive.FindGhostDB(archivePath, e.prefix, e.log)
	if err != nil {
		return nil, err
	}
	e.log.Info("located database", slog.String("entry", dbPath))

	dbFile, images, err := e.copyOut(archivePath, dbPath, root)
	if err != nil {
		return nil, err
	}
	// The temp database belongs to this run alone and never survives it.
	defer os.Remove(dbFile)
	e.log.Info("extracted images", slog.Int("count", len(images)))

	posts, err := e.loadPosts(ctx, dbFile)
	if err != nil {
		return nil, err
	}

	if err := writePosts(root, posts, e.log); err != nil {
		return nil, err
	}
	e.log.Info("extracted posts", slog.Int("count", len(posts)))

	indices, err := ensureIndices(root, e.log)
	if err != nil {
		return nil, err
	}
	e.log.Info("added indices", slog.Int("count", indices))

	return &Summary{Posts: len(posts), Images: len(images), Indices: indices}, nil
}

// resolveRoot turns dest into an absolute path and requires it to be an
// existing directory. Every traversal check below compares against this.
func resolveRoot(dest string) (string, error) {
	root, err := filepath.Abs(dest)
	if err != nil {
		return "", fmt.Errorf("extract: resolve destination: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return "", fmt.Errorf("extract: stat destination: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("extract: destination is not a directory: %s", root)
	}
	return root, nil
}

// copyOut is the second full pass: it streams the database entry into a
// private temp file and unpacks every entry under the images base into the
// destination tree. Returns the temp file path and the extracted image
// destinations.
func (e *Extractor) copyOut(archivePath, dbPath, root string) (string, []string, error) {
	imagesBase, haveImages := imagesBase(dbPath)

	e.log.Info("processing archive")
	r, err := archive.Open(archivePath)
	if err != nil {
		return "", nil, err
	}
	defer r.Close()

	tmp, err := os.CreateTemp("", "ghost2zola-*.db")
	if err != nil {
		return "", nil, fmt.Errorf("extract: create temp db: %w", err)
	}
	tmpPath := tmp.Name()
	ok := false
	defer func() {
		tmp.Close()
		if !ok {
			os.Remove(tmpPath)
		}
	}()

	var images []string
	for idx := 0; ; idx++ {
		hdr, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", nil, fmt.Errorf("extract: read entry: %w", err)
		}
		archive.LogProgress(e.log, idx, "processed")

		switch {
		case hdr.Name == dbPath:
			if _, err := io.Copy(tmp, r); err != nil {
				return "", nil, fmt.Errorf("extract: copy database: %w", err)
			}
			e.log.Info("extracted database", slog.Int("entry", idx))
		case hdr.Typeflag == tar.TypeDir || strings.EqualFold(path.Ext(hdr.Name), ".md"):
			// Directories are created on demand, and Markdown bodies come
			// from the database, not the archive.
			continue
		case haveImages && underDir(hdr.Name, imagesBase):
			dest, extracted, err := e.unpackImage(r, hdr.Name, imagesBase, root)
			if err != nil {
				return "", nil, err
			}
			if extracted {
				images = append(images, dest)
			}
		}
	}

	if err := tmp.Sync(); err != nil {
		return "", nil, fmt.Errorf("extract: sync temp db: %w", err)
	}
	ok = true
	return tmpPath, images, nil
}

// unpackImage writes one image entry beneath root, preserving its position
// relative to imagesBase. The mandatory safety invariant lives here: the
// fully joined, normalized destination must still sit under root, otherwise
// the entry is skipped with a warning. Archives from untrusted sources may
// carry crafted ../ paths aimed outside the destination.
func (e *Extractor) unpackImage(r io.Reader, name, imagesBase, root string) (string, bool, error) {
	sub := strings.TrimPrefix(name, imagesBase+"/")
	// filepath.Join cleans the result, so ".." segments are resolved
	// before the containment check, not syntactically inspected.
	dest := filepath.Join(root, filepath.FromSlash(sub))
	if dest != root && !strings.HasPrefix(dest, root+string(os.PathSeparator)) {
		e.log.Warn("entry attempted to extract past extraction root",
			slog.String("entry", name))
		return "", false, nil
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", false, fmt.Errorf("extract: mkdir for image: %w", err)
	}
	e.log.Debug("extracting image", slog.String("path", dest))
	f, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return "", false, fmt.Errorf("extract: create image: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return "", false, fmt.Errorf("extract: write image: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", false, fmt.Errorf("extract: close image: %w", err)
	}
	return dest, true, nil
}

// loadPosts opens the temp database read-only, loads every post, and
// applies the one raw-content transformation (internal link rewriting).
func (e *Extractor) loadPosts(ctx context.Context, dbFile string) ([]*post.Post, error) {
	repo, err := ghostdb.Open(dbFile, e.log)
	if err != nil {
		return nil, err
	}
	defer repo.Close()

	posts, err := repo.Posts(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range posts {
		p.Content = post.RewriteInternalLinks(p.Content, e.linkBase)
	}
	return posts, nil
}

// imagesBase derives where post images live inside the archive: the
// database's parent-of-parent directory joined with "images". A database
// at a/b/data/ghost.db keeps its images at a/b/images. A database without
// two ancestor levels has no images base.
func imagesBase(dbPath string) (string, bool) {
	parent := path.Dir(dbPath)
	if parent == "." {
		return "", false
	}
	grand := path.Dir(parent)
	if grand == "." {
		return "images", true
	}
	return path.Join(grand, "images"), true
}

// underDir reports whether name sits strictly below dir, comparing whole
// path components.
func underDir(name, dir string) bool {
	return strings.HasPrefix(name, dir+"/")
}
