// Package testutil provides shared test helpers: in-memory tar archive
// builders and Ghost database fixtures.
package testutil

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"database/sql"
	"os"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// TarEntry describes one entry of a test archive.
type TarEntry struct {
	Name string
	Dir  bool
	Body []byte
}

// BuildTar writes the entries into an uncompressed tar stream.
func BuildTar(t *testing.T, entries []TarEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for _, e := range entries {
		hdr := &tar.Header{
			Name: e.Name,
			Mode: 0o644,
		}
		if e.Dir {
			hdr.Typeflag = tar.TypeDir
			hdr.Mode = 0o755
		} else {
			hdr.Typeflag = tar.TypeReg
			hdr.Size = int64(len(e.Body))
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("write tar header %s: %v", e.Name, err)
		}
		if !e.Dir {
			if _, err := tw.Write(e.Body); err != nil {
				t.Fatalf("write tar body %s: %v", e.Name, err)
			}
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("close tar: %v", err)
	}
	return buf.Bytes()
}

// BuildTarGz gzips the result of BuildTar.
func BuildTarGz(t *testing.T, entries []TarEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(BuildTar(t, entries)); err != nil {
		t.Fatalf("gzip tar: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("close gzip: %v", err)
	}
	return buf.Bytes()
}

// WriteFile writes data to a fresh file under a temp dir and returns its path.
func WriteFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := t.TempDir() + "/" + name
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

const ghostSchema = `
CREATE TABLE users (
	id    INTEGER PRIMARY KEY,
	name  TEXT NOT NULL,
	email TEXT NOT NULL DEFAULT ''
);

CREATE TABLE posts (
	id               INTEGER PRIMARY KEY,
	title            TEXT NOT NULL DEFAULT '',
	slug             TEXT,
	markdown         TEXT,
	html             TEXT,
	meta_description TEXT,
	language         TEXT,
	status           TEXT NOT NULL DEFAULT 'draft',
	published_at     DATETIME,
	updated_at       DATETIME,
	author_id        INTEGER NOT NULL
);

CREATE TABLE tags (
	id   INTEGER PRIMARY KEY,
	name TEXT NOT NULL
);

CREATE TABLE posts_tags (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	post_id INTEGER NOT NULL,
	tag_id  INTEGER NOT NULL
);
`

// SeedPost is one posts row for a fixture database. Nil pointer fields
// become NULL columns.
type SeedPost struct {
	ID          int64
	Title       string
	Slug        string
	Markdown    *string
	HTML        *string
	Description string
	Language    string
	Status      string
	Published   *time.Time
	Updated     *time.Time
	AuthorID    int64
	Tags        []string
}

// Str is a convenience for SeedPost pointer fields.
func Str(s string) *string { return &s }

// CreateGhostDB writes a Ghost-shaped SQLite database to path with one user
// per distinct author id and the given posts.
func CreateGhostDB(t *testing.T, path string, authors map[int64]string, posts []SeedPost) {
	t.Helper()
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("open fixture db: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(ghostSchema); err != nil {
		t.Fatalf("apply fixture schema: %v", err)
	}
	for id, name := range authors {
		if _, err := db.Exec(`INSERT INTO users (id, name) VALUES (?, ?)`, id, name); err != nil {
			t.Fatalf("insert user: %v", err)
		}
	}

	tagIDs := map[string]int64{}
	nextTag := int64(1)
	for _, p := range posts {
		_, err := db.Exec(`
			INSERT INTO posts (id, title, slug, markdown, html, meta_description,
				language, status, published_at, updated_at, author_id)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.Title, p.Slug, p.Markdown, p.HTML, p.Description,
			p.Language, p.Status, timeArg(p.Published), timeArg(p.Updated), p.AuthorID)
		if err != nil {
			t.Fatalf("insert post %d: %v", p.ID, err)
		}
		for _, tag := range p.Tags {
			id, ok := tagIDs[tag]
			if !ok {
				id = nextTag
				nextTag++
				tagIDs[tag] = id
				if _, err := db.Exec(`INSERT INTO tags (id, name) VALUES (?, ?)`, id, tag); err != nil {
					t.Fatalf("insert tag %s: %v", tag, err)
				}
			}
			if _, err := db.Exec(`INSERT INTO posts_tags (post_id, tag_id) VALUES (?, ?)`, p.ID, id); err != nil {
				t.Fatalf("insert posts_tags: %v", err)
			}
		}
	}
}

// GhostDBBytes builds a fixture database in a temp file and returns its raw
// bytes for embedding into test archives.
func GhostDBBytes(t *testing.T, authors map[int64]string, posts []SeedPost) []byte {
	t.Helper()
	path := t.TempDir() + "/ghost.db"
	CreateGhostDB(t, path, authors, posts)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read fixture db: %v", err)
	}
	return data
}

func timeArg(v *time.Time) any {
	if v == nil {
		return nil
	}
	return v.UTC()
}
