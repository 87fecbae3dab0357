// Package ghost models the Ghost JSON export format.
//
// See https://ghost.org/docs/api/v3/migration/developers/ for the shape.
// The top level is ambiguous between a bare database object and a wrapper
// holding a list of databases; Top makes that an explicit two-variant type
// instead of leaving callers to guess structurally.
package ghost

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Top is the root of a Ghost export document: either a wrapper holding
// several databases or a single bare database.
type Top struct {
	Wrapper *Wrapper
	Bare    *DB
}

// DBs returns the contained database(s) regardless of which variant was
// parsed.
func (t *Top) DBs() []DB {
	switch {
	case t.Wrapper != nil:
		return t.Wrapper.DB
	case t.Bare != nil:
		return []DB{*t.Bare}
	default:
		return nil
	}
}

// UnmarshalJSON tries the wrapper variant first, identified by its "db"
// key, and falls back to the bare database object.
func (t *Top) UnmarshalJSON(data []byte) error {
	var w Wrapper
	if err := json.Unmarshal(data, &w); err == nil && w.DB != nil {
		t.Wrapper = &w
		return nil
	}
	var db DB
	if err := json.Unmarshal(data, &db); err != nil {
		return fmt.Errorf("ghost: export is neither wrapper nor bare db: %w", err)
	}
	if db.Meta == nil || db.Data == nil {
		return errors.New("ghost: export is missing meta or data")
	}
	t.Bare = &db
	return nil
}

// Wrapper is the multi-database export variant.
type Wrapper struct {
	DB []DB `json:"db"`
}

// DB is one exported database: meta plus the relational data dump.
type DB struct {
	Meta *Meta `json:"meta"`
	Data *Data `json:"data"`
}

// Meta describes the export itself.
type Meta struct {
	ExportedOn int64  `json:"exported_on"` // milliseconds since the epoch
	Version    string `json:"version"`
}

// ExportedAt returns the export timestamp as a time.Time in UTC.
func (m *Meta) ExportedAt() time.Time {
	return time.UnixMilli(m.ExportedOn).UTC()
}

// Data holds the relational tables. Posts and tags stay raw: their schemas
// drift between Ghost versions and nothing here needs their fields.
type Data struct {
	Posts        []json.RawMessage `json:"posts"`
	Tags         []json.RawMessage `json:"tags"`
	Users        []User            `json:"users"`
	PostsTags    []json.RawMessage `json:"posts_tags,omitempty"`
	PostsAuthors []json.RawMessage `json:"posts_authors,omitempty"`
	RolesAuthors []json.RawMessage `json:"roles_authors,omitempty"`
}

// User is a post author.
type User struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
