package archive

import (
	"encoding/hex"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/coriolinus/ghost2zola/internal/apperr"
	"github.com/coriolinus/ghost2zola/internal/testutil"
)

// A tiny tar.bz2 holding data/hello.txt; the stdlib can decompress bzip2
// but cannot produce it, so the fixture is pre-built.
const tarBz2Hex = "425a6839314159265359ce8dec800000757b84c91000444001ff80100066449e" +
	"40000080082000741a21a8034347a43436a0929a200068034097ceb1cc8413c0" +
	"048b70a08c6a9cb9c92065d30f933f784c0a6802bd5f38838d88e3c8dc92b606" +
	"243a5a06efc1e80a142e34ac18d1aadb5e44407e2ee48a70a1219d1bd900"

func tarBz2Fixture(t *testing.T) []byte {
	t.Helper()
	data, err := hex.DecodeString(tarBz2Hex)
	if err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	return data
}

func sampleEntries() []testutil.TarEntry {
	return []testutil.TarEntry{
		{Name: "data", Dir: true},
		{Name: "data/hello.txt", Body: []byte("hello\n")},
	}
}

func TestSniffTar(t *testing.T) {
	path := testutil.WriteFile(t, "sample.bin", testutil.BuildTar(t, sampleEntries()))
	got, err := Sniff(path)
	if err != nil {
		t.Fatalf("Sniff: %v", err)
	}
	if got != Tar {
		t.Errorf("type = %v, want %v", got, Tar)
	}
}

func TestSniffTarGz(t *testing.T) {
	path := testutil.WriteFile(t, "sample.bin", testutil.BuildTarGz(t, sampleEntries()))
	got, err := Sniff(path)
	if err != nil {
		t.Fatalf("Sniff: %v", err)
	}
	if got != TarGz {
		t.Errorf("type = %v, want %v", got, TarGz)
	}
}

func TestSniffTarBz2(t *testing.T) {
	path := testutil.WriteFile(t, "sample.bin", tarBz2Fixture(t))
	got, err := Sniff(path)
	if err != nil {
		t.Fatalf("Sniff: %v", err)
	}
	if got != TarBz2 {
		t.Errorf("type = %v, want %v", got, TarBz2)
	}
}

func TestSniffSqlite(t *testing.T) {
	data := testutil.GhostDBBytes(t, map[int64]string{1: "me"}, nil)
	// deliberately misleading extension: sniffing goes by content
	path := testutil.WriteFile(t, "export.tar.gz", data)
	got, err := Sniff(path)
	if err != nil {
		t.Fatalf("Sniff: %v", err)
	}
	if got != Sqlite3 {
		t.Errorf("type = %v, want %v", got, Sqlite3)
	}
}

func TestSniffUnknown(t *testing.T) {
	path := testutil.WriteFile(t, "sample.txt", []byte("just some text\n"))
	got, err := Sniff(path)
	if err != nil {
		t.Fatalf("Sniff: %v", err)
	}
	if got != Unknown {
		t.Errorf("type = %v, want %v", got, Unknown)
	}
}

func TestOpenRejectsNonArchives(t *testing.T) {
	data := testutil.GhostDBBytes(t, map[int64]string{1: "me"}, nil)
	path := testutil.WriteFile(t, "ghost.db", data)
	if _, err := Open(path); !errors.Is(err, apperr.ErrNotTar) {
		t.Errorf("Open(sqlite) err = %v, want ErrNotTar", err)
	}

	path = testutil.WriteFile(t, "sample.txt", []byte("just some text\n"))
	if _, err := Open(path); !errors.Is(err, apperr.ErrNotTar) {
		t.Errorf("Open(text) err = %v, want ErrNotTar", err)
	}
}

func TestOpenReadsAllEncodings(t *testing.T) {
	cases := map[string][]byte{
		"tar":     testutil.BuildTar(t, sampleEntries()),
		"tar.gz":  testutil.BuildTarGz(t, sampleEntries()),
		"tar.bz2": tarBz2Fixture(t),
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			r, err := Open(testutil.WriteFile(t, "sample.bin", data))
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			defer r.Close()

			var names []string
			var content string
			for {
				hdr, err := r.Next()
				if errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					t.Fatalf("Next: %v", err)
				}
				names = append(names, hdr.Name)
				if hdr.Name == "data/hello.txt" {
					body, err := io.ReadAll(r)
					if err != nil {
						t.Fatalf("read entry: %v", err)
					}
					content = string(body)
				}
			}
			joined := strings.Join(names, ",")
			if !strings.Contains(joined, "data/hello.txt") {
				t.Errorf("entries = %q, want data/hello.txt", joined)
			}
			if content != "hello\n" {
				t.Errorf("content = %q", content)
			}
		})
	}
}

func TestNormalizeName(t *testing.T) {
	cases := map[string]string{
		"./a/b":              "a/b",
		"a/b/":               "a/b",
		"./":                 "",
		"a/images/../../x":   "a/images/../../x", // traversal segments must survive
		"site/data/ghost.db": "site/data/ghost.db",
	}
	for in, want := range cases {
		if got := normalizeName(in); got != want {
			t.Errorf("normalizeName(%q) = %q, want %q", in, got, want)
		}
	}
}
