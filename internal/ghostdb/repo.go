// Package ghostdb reads posts out of an extracted Ghost SQLite database.
//
// The database is always opened read-only: the source archive is never
// modified and the extracted copy is a disposable temp file.
//
// Posts whose Markdown body was lost (a NULL markdown column, typically
// from an earlier Ghost import) are recovered by converting the stored
// rendered HTML back to Markdown. Only when both columns are absent does a
// post go out with empty content.
package ghostdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	md "github.com/JohannesKaufmann/html-to-markdown"
	_ "github.com/mattn/go-sqlite3"

	"github.com/coriolinus/ghost2zola/internal/post"
)

// Repo provides read-only access to a Ghost database file.
type Repo struct {
	conn *sql.DB
	conv *md.Converter
	log  *slog.Logger
}

// Open opens the database at path read-only and verifies the connection.
func Open(path string, log *slog.Logger) (*Repo, error) {
	dsn := fmt.Sprintf("file:%s?mode=ro&_loc=UTC", path)
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("ghostdb: open: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ghostdb: ping: %w", err)
	}
	return &Repo{
		conn: conn,
		conv: md.NewConverter("", true, nil),
		log:  log,
	}, nil
}

// Close closes the underlying connection.
func (r *Repo) Close() error {
	return r.conn.Close()
}

// Posts returns every post joined with its author, in natural row order,
// each with its tag list attached. There is no partial success: the first
// error aborts and nothing is returned.
func (r *Repo) Posts(ctx context.Context) ([]*post.Post, error) {
	rows, err := r.conn.QueryContext(ctx, `
		SELECT
			posts.id,
			posts.title,
			posts.markdown,
			posts.html,
			posts.meta_description,
			posts.published_at,
			posts.updated_at,
			posts.status,
			posts.slug,
			posts.language,
			users.name
		FROM posts
		INNER JOIN users
		ON posts.author_id = users.id
	`)
	if err != nil {
		return nil, fmt.Errorf("ghostdb: query posts: %w", err)
	}
	defer rows.Close()

	var posts []*post.Post
	for rows.Next() {
		p, err := r.scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ghostdb: iterate posts: %w", err)
	}

	// Bounded N+1: one tag query per post. Exports hold hundreds of posts,
	// not millions.
	for _, p := range posts {
		if err := r.loadTags(ctx, p); err != nil {
			return nil, err
		}
	}
	return posts, nil
}

func (r *Repo) scanPost(rows *sql.Rows) (*post.Post, error) {
	var (
		p           post.Post
		markdown    sql.NullString
		html        sql.NullString
		description sql.NullString
		published   sql.NullTime
		updated     sql.NullTime
		slug        sql.NullString
		language    sql.NullString
	)
	err := rows.Scan(
		&p.ID,
		&p.Title,
		&markdown,
		&html,
		&description,
		&published,
		&updated,
		&p.Status,
		&slug,
		&language,
		&p.AuthorName,
	)
	if err != nil {
		return nil, fmt.Errorf("ghostdb: scan post: %w", err)
	}
	p.Description = description.String
	p.Slug = slug.String
	p.Language = language.String
	if published.Valid {
		t := published.Time.UTC()
		p.Date = &t
	}
	if updated.Valid {
		t := updated.Time.UTC()
		p.Updated = &t
	}
	p.Content = r.content(&p, markdown, html)
	return &p, nil
}

// content picks the post body: the stored Markdown when present, otherwise
// Markdown regenerated from the rendered HTML.
func (r *Repo) content(p *post.Post, markdown, html sql.NullString) string {
	if markdown.Valid && markdown.String != "" {
		return markdown.String
	}
	if !html.Valid || html.String == "" {
		return ""
	}
	recovered, err := r.conv.ConvertString(html.String)
	if err != nil {
		r.log.Warn("failed to recover markdown from html",
			slog.Int64("post_id", p.ID),
			slog.String("error", err.Error()))
		return ""
	}
	r.log.Debug("recovered markdown from html", slog.Int64("post_id", p.ID))
	return recovered
}

func (r *Repo) loadTags(ctx context.Context, p *post.Post) error {
	rows, err := r.conn.QueryContext(ctx, `
		SELECT
			tags.name
		FROM tags
		INNER JOIN posts_tags
		ON tags.id = posts_tags.tag_id
		WHERE posts_tags.post_id = ?
	`, p.ID)
	if err != nil {
		return fmt.Errorf("ghostdb: query tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("ghostdb: scan tag: %w", err)
		}
		p.Tags = append(p.Tags, name)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("ghostdb: iterate tags: %w", err)
	}
	return nil
}
