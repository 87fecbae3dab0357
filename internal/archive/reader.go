package archive

import (
	"archive/tar"
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"os"
	"strings"

	"github.com/coriolinus/ghost2zola/internal/apperr"
)

// Reader exposes a forward-only sequence of tar entries from a sniffed
// archive. The underlying decompressors cannot seek, so a Reader is consumed
// once; callers needing a second pass must Open the path again.
type Reader struct {
	file   *os.File
	gz     *gzip.Reader // nil unless gzip
	tr     *tar.Reader
	header *tar.Header
}

// Open sniffs the file at path and wraps it in the matching decompressor.
// Inputs that are not one of the three archive kinds fail with
// apperr.ErrNotTar.
func Open(p string) (*Reader, error) {
	ftype, err := Sniff(p)
	if err != nil {
		return nil, fmt.Errorf("archive: sniff %s: %w", p, err)
	}

	f, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("archive: open %s: %w", p, err)
	}

	r := &Reader{file: f}
	switch ftype {
	case Tar:
		r.tr = tar.NewReader(f)
	case TarGz:
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("archive: gzip %s: %w", p, err)
		}
		r.gz = gz
		r.tr = tar.NewReader(gz)
	case TarBz2:
		r.tr = tar.NewReader(bzip2.NewReader(f))
	default:
		f.Close()
		return nil, apperr.ErrNotTar
	}
	return r, nil
}

// Next advances to the next entry. It returns io.EOF at the end of the
// archive. The header name is normalized to a clean slash-separated
// relative path.
func (r *Reader) Next() (*tar.Header, error) {
	hdr, err := r.tr.Next()
	if err != nil {
		return nil, err
	}
	hdr.Name = normalizeName(hdr.Name)
	r.header = hdr
	return hdr, nil
}

// Read reads the content of the current entry.
func (r *Reader) Read(p []byte) (int, error) {
	return r.tr.Read(p)
}

// Close releases the underlying file and decompressor.
func (r *Reader) Close() error {
	if r.gz != nil {
		// gzip checksum errors on a truncated stream are not interesting
		// once the tar layer has been fully consumed.
		_ = r.gz.Close()
	}
	return r.file.Close()
}

// normalizeName trims the cosmetic "./" prefix and the trailing slash of
// directory entries so names compare equal across tar writers. It must NOT
// collapse ".." segments: crafted traversal paths have to survive to the
// extractor, which resolves and rejects them there.
func normalizeName(name string) string {
	name = strings.TrimPrefix(name, "./")
	name = strings.TrimSuffix(name, "/")
	if name == "." {
		return ""
	}
	return name
}
