// Package store persists fetched articles to sqlite for history lookups.
// Writes are best-effort: the retrieval pipeline never depends on them.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/go-pkgz/repeater/v2"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // sqlite driver

	"github.com/akarpovich/newsbrief/pkg/domain"
)

// Archive stores fetched articles keyed by the normalized query that
// produced them
type Archive struct {
	db *sqlx.DB
}

// ArchivedArticle is an article row with its archive metadata
type ArchivedArticle struct {
	Query     string    `db:"query" json:"query"`
	Title     string    `db:"title" json:"title"`
	Summary   string    `db:"summary" json:"summary"`
	URL       string    `db:"url" json:"url"`
	Source    string    `db:"source" json:"source"`
	Published string    `db:"published" json:"published"`
	FetchedAt time.Time `db:"fetched_at" json:"fetched_at"`
}

const schema = `
CREATE TABLE IF NOT EXISTS articles (
	query      TEXT NOT NULL,
	title      TEXT NOT NULL,
	summary    TEXT NOT NULL DEFAULT '',
	url        TEXT NOT NULL DEFAULT '#',
	source     TEXT NOT NULL DEFAULT '',
	published  TEXT NOT NULL DEFAULT '',
	fetched_at DATETIME NOT NULL,
	PRIMARY KEY (query, title)
);
CREATE INDEX IF NOT EXISTS idx_articles_fetched ON articles(fetched_at DESC);
`

// NewArchive opens (and if needed initializes) the archive database
func NewArchive(dsn string) (*Archive, error) {
	db, err := sqlx.Connect("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open archive db: %w", err)
	}
	db.SetMaxOpenConns(1) // sqlite, single writer

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init archive schema: %w", err)
	}

	return &Archive{db: db}, nil
}

// Close closes the underlying database
func (a *Archive) Close() error {
	return a.db.Close()
}

// SaveArticles upserts the articles fetched for a query key. Retries on
// sqlite lock errors, gives up on anything else.
func (a *Archive) SaveArticles(ctx context.Context, query string, articles []domain.Article) error {
	retrier := repeater.NewBackoff(5, 50*time.Millisecond, repeater.WithMaxDelay(2*time.Second))

	return retrier.Do(ctx, func() error {
		tx, err := a.db.BeginTxx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin archive tx: %w", err)
		}
		defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

		now := time.Now()
		for _, art := range articles {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO articles (query, title, summary, url, source, published, fetched_at)
				VALUES (?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT(query, title) DO UPDATE SET
					summary = excluded.summary,
					url = excluded.url,
					fetched_at = excluded.fetched_at
			`, query, art.Title, art.Summary, art.URL, art.SourceName, art.Published, now)
			if err != nil {
				if isLockError(err) {
					return err // retried by repeater
				}
				return &criticalError{err: fmt.Errorf("archive article %q: %w", art.Title, err)}
			}
		}

		if err := tx.Commit(); err != nil {
			if isLockError(err) {
				return err
			}
			return &criticalError{err: fmt.Errorf("commit archive tx: %w", err)}
		}
		return nil
	})
}

// History returns the most recently archived articles for a query key
func (a *Archive) History(ctx context.Context, query string, limit int) ([]ArchivedArticle, error) {
	if limit <= 0 {
		limit = 50
	}

	var rows []ArchivedArticle
	err := a.db.SelectContext(ctx, &rows, `
		SELECT query, title, summary, url, source, published, fetched_at
		FROM articles
		WHERE query = ?
		ORDER BY fetched_at DESC, title
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query archive history: %w", err)
	}
	return rows, nil
}
