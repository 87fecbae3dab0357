// Package archive sniffs input files by content and streams tar entries out
// of plain, gzip-compressed, or bzip2-compressed archives.
package archive

import (
	"github.com/gabriel-vasile/mimetype"
)

// FileType classifies an input file by its sniffed media type, never by its
// filename extension. Exported blog archives frequently carry wrong or
// missing extensions.
type FileType int

const (
	// Unknown is the zero value for unrecognized content.
	Unknown FileType = iota
	// Sqlite3 is a bare SQLite database.
	Sqlite3
	// Tar is an uncompressed tar archive.
	Tar
	// TarGz is a gzip-compressed tar archive.
	TarGz
	// TarBz2 is a bzip2-compressed tar archive.
	TarBz2
)

// String returns a human-readable name for diagnostics.
func (t FileType) String() string {
	switch t {
	case Sqlite3:
		return "sqlite3"
	case Tar:
		return "tar"
	case TarGz:
		return "tar.gz"
	case TarBz2:
		return "tar.bz2"
	default:
		return "unknown"
	}
}

// Sniff inspects the content of the file at path and classifies it.
// Unrecognized content yields Unknown, not an error; the caller decides
// whether that is fatal.
func Sniff(path string) (FileType, error) {
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return Unknown, err
	}
	switch {
	case mtype.Is("application/vnd.sqlite3"):
		return Sqlite3, nil
	case mtype.Is("application/x-tar"):
		return Tar, nil
	case mtype.Is("application/gzip"):
		return TarGz, nil
	case mtype.Is("application/x-bzip2"), mtype.Is("application/x-bzip"):
		return TarBz2, nil
	default:
		return Unknown, nil
	}
}

// MediaType returns the raw sniffed media type string for a path, for the
// filetype diagnostic command.
func MediaType(path string) (string, error) {
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return "", err
	}
	return mtype.String(), nil
}
