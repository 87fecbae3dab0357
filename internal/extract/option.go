package extract

import "log/slog"

// Option is a functional option for configuring an Extractor.
type Option func(*Extractor)

// WithPrefix restricts the ghost.db search to archive entries under the
// given archive-relative prefix, for archives bundling several exports.
func WithPrefix(prefix string) Option {
	return func(e *Extractor) {
		e.prefix = prefix
	}
}

// WithLinkBase sets the site-relative base that internal image links are
// rewritten to. Defaults to post.DefaultLinkBase.
func WithLinkBase(base string) Option {
	return func(e *Extractor) {
		e.linkBase = base
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(e *Extractor) {
		e.log = log
	}
}
