// Package post models a Ghost blog post and the transformations that turn
// it into a Zola-compatible Markdown document with TOML front matter.
package post

import (
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// slugMaxLen bounds slugs derived from very long titles.
const slugMaxLen = 150

// Naive TOML serialization quotes datetimes as strings; Zola wants native
// TOML datetime literals. This matches only the date/updated lines.
var quotedDateRe = regexp.MustCompile(`(?m)^(date|updated) = "([^"]+)"$`)

// Post is one blog post materialized from the Ghost database. It is
// constructed once per row, has its tags and content attached in place, and
// is consumed exactly once by the site writer.
type Post struct {
	ID          int64
	Title       string
	Slug        string // explicit slug from the database, may be empty
	Description string
	Date        *time.Time // published_at, UTC
	Updated     *time.Time // updated_at, UTC
	Status      Status
	Language    string
	AuthorName  string
	Tags        []string
	Content     string
}

// frontMatter is the serialized shape of the post metadata. Scalar keys
// come before the sub-tables so the encoder emits valid TOML.
type frontMatter struct {
	Title       string     `toml:"title"`
	Slug        string     `toml:"slug,omitempty"`
	Description string     `toml:"description,omitempty"`
	Date        string     `toml:"date,omitempty"`
	Updated     string     `toml:"updated,omitempty"`
	Draft       bool       `toml:"draft,omitempty"`
	Extra       extra      `toml:"extra"`
	Taxonomies  taxonomies `toml:"taxonomies"`
}

type extra struct {
	ID         int64  `toml:"id"`
	Language   string `toml:"language"`
	AuthorName string `toml:"author_name"`
}

type taxonomies struct {
	Tags []string `toml:"tags"`
}

// SafeSlug returns a usable slug for this post:
//
//   - an explicit slug wins, verbatim
//   - otherwise one is derived from the title, truncated to 150 characters
//   - with neither, a random identifier keeps the filename usable
func (p *Post) SafeSlug() string {
	if p.Slug != "" {
		return p.Slug
	}
	if p.Title == "" {
		return uuid.NewString()
	}
	s := slug.Make(p.Title)
	if len(s) > slugMaxLen {
		s = strings.TrimRight(s[:slugMaxLen], "-")
	}
	return s
}

// RelativePath returns the archive-root-relative path this post renders to:
// yyyy/mm/dd/slug.md for dated posts, undated/slug.md otherwise. Calendar
// fields are UTC and zero-padded.
func (p *Post) RelativePath() string {
	name := p.SafeSlug() + ".md"
	if p.Date == nil {
		return path.Join("undated", name)
	}
	d := p.Date.UTC()
	return path.Join(fmt.Sprintf("%04d", d.Year()), fmt.Sprintf("%02d", int(d.Month())), fmt.Sprintf("%02d", d.Day()), name)
}

// Render writes the full document: TOML front matter between +++ fences,
// then the content with footnotes reified. Link rewriting is applied once,
// earlier, to the raw content.
func (p *Post) Render(w io.Writer) error {
	fm := frontMatter{
		Title:       p.Title,
		Slug:        p.Slug,
		Description: p.Description,
		Draft:       p.Status.IsDraft(),
		Extra: extra{
			ID:         p.ID,
			Language:   p.Language,
			AuthorName: p.AuthorName,
		},
		Taxonomies: taxonomies{Tags: p.Tags},
	}
	if fm.Taxonomies.Tags == nil {
		fm.Taxonomies.Tags = []string{}
	}
	if p.Date != nil {
		fm.Date = p.Date.UTC().Format(time.RFC3339Nano)
	}
	if p.Updated != nil {
		fm.Updated = p.Updated.UTC().Format(time.RFC3339Nano)
	}

	var buf strings.Builder
	if err := toml.NewEncoder(&buf).Encode(fm); err != nil {
		return fmt.Errorf("post: encode front matter: %w", err)
	}
	matter := unquoteDates(buf.String())

	if _, err := fmt.Fprintf(w, "+++\n%s+++\n\n%s\n", matter, ReifyFootnotes(p.Content)); err != nil {
		return fmt.Errorf("post: render: %w", err)
	}
	return nil
}

// unquoteDates converts quoted date/updated values into native TOML
// datetime literals, leaving every other quoted string alone.
func unquoteDates(matter string) string {
	return quotedDateRe.ReplaceAllString(matter, "${1} = ${2}")
}
