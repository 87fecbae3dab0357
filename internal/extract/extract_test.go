package extract

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/coriolinus/ghost2zola/internal/apperr"
	"github.com/coriolinus/ghost2zola/internal/testutil"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestImagesBase(t *testing.T) {
	cases := []struct {
		dbPath string
		want   string
		ok     bool
	}{
		{"site/data/ghost.db", "site/images", true},
		{"a/b/c/data/ghost.db", "a/b/c/images", true},
		{"data/ghost.db", "images", true},
		{"ghost.db", "", false},
	}
	for _, c := range cases {
		got, ok := imagesBase(c.dbPath)
		if got != c.want || ok != c.ok {
			t.Errorf("imagesBase(%q) = %q, %v; want %q, %v", c.dbPath, got, ok, c.want, c.ok)
		}
	}
}

func fixtureArchive(t *testing.T) string {
	t.Helper()
	published := time.Date(2021, 5, 4, 10, 0, 0, 0, time.UTC)
	db := testutil.GhostDBBytes(t,
		map[int64]string{1: "Alice"},
		[]testutil.SeedPost{
			{
				ID:        1,
				Title:     "Hello World",
				Slug:      "hello-world",
				Markdown:  testutil.Str("look: ![](/content/images/2021/05/pic.png)"),
				Language:  "en_US",
				Status:    "published",
				Published: &published,
				AuthorID:  1,
				Tags:      []string{"intro"},
			},
			{
				ID:       2,
				Title:    "Work in Progress",
				Slug:     "wip",
				Markdown: testutil.Str("unfinished"),
				Language: "en_US",
				Status:   "draft",
				AuthorID: 1,
			},
		},
	)
	entries := []testutil.TarEntry{
		{Name: "site", Dir: true},
		{Name: "site/data", Dir: true},
		{Name: "site/data/ghost.db", Body: db},
		{Name: "site/images", Dir: true},
		// crafted traversal entry comes first: it must be skipped without
		// aborting the entries after it
		{Name: "site/images/../../../escape.png", Body: []byte("evil")},
		{Name: "site/images/2021/05/pic.png", Body: []byte("png bytes")},
		{Name: "site/images/2021/05/notes.md", Body: []byte("not extracted")},
		{Name: "unrelated/readme.txt", Body: []byte("ignored")},
	}
	return testutil.WriteFile(t, "export.bin", testutil.BuildTarGz(t, entries))
}

func TestRunEndToEnd(t *testing.T) {
	archivePath := fixtureArchive(t)
	dest := t.TempDir()

	summary, err := New(dest, WithLogger(discardLogger())).Run(context.Background(), archivePath)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Posts != 2 {
		t.Errorf("posts = %d, want 2", summary.Posts)
	}
	if summary.Images != 1 {
		t.Errorf("images = %d, want 1", summary.Images)
	}

	// published post at its dated path, without a draft key, with the
	// internal link rewritten
	data, err := os.ReadFile(filepath.Join(dest, "2021", "05", "04", "hello-world.md"))
	if err != nil {
		t.Fatalf("read post: %v", err)
	}
	doc := string(data)
	if strings.Contains(doc, "draft") {
		t.Errorf("published post carries draft key:\n%s", doc)
	}
	if !strings.Contains(doc, "![](/blog/2021/05/pic.png)") {
		t.Errorf("internal link not rewritten:\n%s", doc)
	}
	if !strings.Contains(doc, `tags = ["intro"]`) {
		t.Errorf("tags missing:\n%s", doc)
	}

	// draft post lands under undated/
	data, err = os.ReadFile(filepath.Join(dest, "undated", "wip.md"))
	if err != nil {
		t.Fatalf("read draft post: %v", err)
	}
	if !strings.Contains(string(data), "draft = true") {
		t.Errorf("draft key missing:\n%s", data)
	}

	// image mirrored at its year/month position
	img, err := os.ReadFile(filepath.Join(dest, "2021", "05", "pic.png"))
	if err != nil {
		t.Fatalf("read image: %v", err)
	}
	if string(img) != "png bytes" {
		t.Errorf("image content = %q", img)
	}

	// markdown under images/ comes from the database, not the archive
	if _, err := os.Stat(filepath.Join(dest, "2021", "05", "notes.md")); err == nil {
		t.Error("archive markdown should not be extracted")
	}

	// traversal entry must not have escaped the destination root
	if _, err := os.Stat(filepath.Join(filepath.Dir(dest), "escape.png")); err == nil {
		t.Error("traversal entry escaped the extraction root")
	}
	if _, err := os.Stat(filepath.Join(dest, "escape.png")); err == nil {
		t.Error("traversal entry should have been skipped entirely")
	}

	// indices: root plus 2021, 2021/05, 2021/05/04, undated
	if summary.Indices != 5 {
		t.Errorf("indices = %d, want 5", summary.Indices)
	}
	root, err := os.ReadFile(filepath.Join(dest, "_index.md"))
	if err != nil {
		t.Fatalf("read root index: %v", err)
	}
	if !strings.Contains(string(root), "sort_by") {
		t.Errorf("root index not from root template:\n%s", root)
	}
	branch, err := os.ReadFile(filepath.Join(dest, "2021", "05", "_index.md"))
	if err != nil {
		t.Fatalf("read branch index: %v", err)
	}
	if !strings.Contains(string(branch), "transparent") {
		t.Errorf("branch index not from branch template:\n%s", branch)
	}

	// temp database is gone
	matches, _ := filepath.Glob(filepath.Join(os.TempDir(), "ghost2zola-*.db"))
	for _, m := range matches {
		t.Errorf("leftover temp database: %s", m)
	}
}

func TestRunKeepsExistingIndices(t *testing.T) {
	archivePath := fixtureArchive(t)
	dest := t.TempDir()
	custom := []byte("+++\ntitle = \"mine\"\n+++\n")
	if err := os.WriteFile(filepath.Join(dest, "_index.md"), custom, 0o644); err != nil {
		t.Fatal(err)
	}

	summary, err := New(dest, WithLogger(discardLogger())).Run(context.Background(), archivePath)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(dest, "_index.md"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(custom) {
		t.Errorf("existing index overwritten:\n%s", got)
	}
	if summary.Indices != 4 {
		t.Errorf("indices = %d, want 4", summary.Indices)
	}
}

func TestRunIsRepeatable(t *testing.T) {
	// a second run overwrites posts and creates no new indices
	archivePath := fixtureArchive(t)
	dest := t.TempDir()
	e := New(dest, WithLogger(discardLogger()))

	if _, err := e.Run(context.Background(), archivePath); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	summary, err := e.Run(context.Background(), archivePath)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if summary.Posts != 2 {
		t.Errorf("posts = %d", summary.Posts)
	}
	if summary.Indices != 0 {
		t.Errorf("indices = %d, want 0 on rerun", summary.Indices)
	}
}

func TestRunPrefixSelectsSite(t *testing.T) {
	published := time.Date(2020, 1, 2, 8, 0, 0, 0, time.UTC)
	mkDB := func(title, slug string) []byte {
		return testutil.GhostDBBytes(t,
			map[int64]string{1: "Alice"},
			[]testutil.SeedPost{{
				ID: 1, Title: title, Slug: slug,
				Markdown: testutil.Str("content"), Status: "published",
				Published: &published, AuthorID: 1,
			}},
		)
	}
	entries := []testutil.TarEntry{
		{Name: "one/data/ghost.db", Body: mkDB("One", "one")},
		{Name: "two/data/ghost.db", Body: mkDB("Two", "two")},
	}
	archivePath := testutil.WriteFile(t, "multi.bin", testutil.BuildTar(t, entries))

	dest := t.TempDir()
	if _, err := New(dest, WithLogger(discardLogger())).Run(context.Background(), archivePath); !errors.Is(err, apperr.ErrMultipleGhostDB) {
		t.Errorf("err = %v, want ErrMultipleGhostDB", err)
	}

	dest = t.TempDir()
	if _, err := New(dest, WithPrefix("two"), WithLogger(discardLogger())).Run(context.Background(), archivePath); err != nil {
		t.Fatalf("Run with prefix: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dest, "2020", "01", "02", "two.md")); err != nil {
		t.Errorf("prefixed post missing: %v", err)
	}
}

func TestRunRejectsNonArchive(t *testing.T) {
	path := testutil.WriteFile(t, "plain.txt", []byte("not an archive"))
	_, err := New(t.TempDir(), WithLogger(discardLogger())).Run(context.Background(), path)
	if !errors.Is(err, apperr.ErrNotTar) {
		t.Errorf("err = %v, want ErrNotTar", err)
	}
}

func TestRunRequiresExistingDestination(t *testing.T) {
	archivePath := fixtureArchive(t)
	missing := filepath.Join(t.TempDir(), "does-not-exist")
	if _, err := New(missing, WithLogger(discardLogger())).Run(context.Background(), archivePath); err == nil {
		t.Error("expected error for missing destination")
	}
}

func TestRunWithoutGhostDB(t *testing.T) {
	entries := []testutil.TarEntry{{Name: "just/a/file.txt", Body: []byte("x")}}
	path := testutil.WriteFile(t, "empty.bin", testutil.BuildTar(t, entries))
	_, err := New(t.TempDir(), WithLogger(discardLogger())).Run(context.Background(), path)
	if !errors.Is(err, apperr.ErrGhostDBNotFound) {
		t.Errorf("err = %v, want ErrGhostDBNotFound", err)
	}
}
