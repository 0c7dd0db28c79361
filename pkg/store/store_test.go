package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akarpovich/newsbrief/pkg/domain"
)

func testArchive(t *testing.T) *Archive {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "test.db") + "?cache=shared&mode=rwc"
	archive, err := NewArchive(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, archive.Close()) })
	return archive
}

func TestArchive_SaveAndHistory(t *testing.T) {
	archive := testArchive(t)
	ctx := context.Background()

	articles := []domain.Article{
		{Title: "First", Summary: "s1", URL: "http://a/1", SourceName: "BBC", Published: "Mon, 01 Sep 2025 10:00:00 GMT"},
		{Title: "Second", Summary: "s2", URL: "http://a/2", SourceName: "NYT", Published: "Mon, 01 Sep 2025 11:00:00 GMT"},
	}
	require.NoError(t, archive.SaveArticles(ctx, "ai news", articles))

	rows, err := archive.History(ctx, "ai news", 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "ai news", rows[0].Query)
	assert.Equal(t, "First", rows[0].Title)
	assert.Equal(t, "BBC", rows[0].Source)
	assert.Equal(t, "http://a/1", rows[0].URL)
	assert.False(t, rows[0].FetchedAt.IsZero())

	// different key, separate history
	rows, err = archive.History(ctx, "cricket", 10)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestArchive_Upsert(t *testing.T) {
	archive := testArchive(t)
	ctx := context.Background()

	require.NoError(t, archive.SaveArticles(ctx, "ai", []domain.Article{
		{Title: "Story", Summary: "old summary", URL: "http://old"},
	}))
	require.NoError(t, archive.SaveArticles(ctx, "ai", []domain.Article{
		{Title: "Story", Summary: "new summary", URL: "http://new"},
	}))

	rows, err := archive.History(ctx, "ai", 10)
	require.NoError(t, err)
	require.Len(t, rows, 1, "same query and title update in place")
	assert.Equal(t, "new summary", rows[0].Summary)
	assert.Equal(t, "http://new", rows[0].URL)
}

func TestArchive_HistoryLimit(t *testing.T) {
	archive := testArchive(t)
	ctx := context.Background()

	articles := make([]domain.Article, 10)
	for i := range articles {
		articles[i] = domain.Article{Title: fmt.Sprintf("Story %02d", i)}
	}
	require.NoError(t, archive.SaveArticles(ctx, "busy", articles))

	rows, err := archive.History(ctx, "busy", 3)
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	// non-positive limit falls back to the default
	rows, err = archive.History(ctx, "busy", 0)
	require.NoError(t, err)
	assert.Len(t, rows, 10)
}

func TestArchive_SaveEmpty(t *testing.T) {
	archive := testArchive(t)
	require.NoError(t, archive.SaveArticles(context.Background(), "nothing", nil))
}

func TestNewArchive_BadDSN(t *testing.T) {
	_, err := NewArchive("file:/nonexistent-dir/sub/test.db?mode=rw")
	require.Error(t, err)
}

func TestIsLockError(t *testing.T) {
	assert.False(t, isLockError(nil))
	assert.False(t, isLockError(errors.New("syntax error")))
	assert.True(t, isLockError(errors.New("database is locked (5) (SQLITE_BUSY)")))
	assert.True(t, isLockError(errors.New("database table is locked")))
}

func TestCriticalError(t *testing.T) {
	inner := errors.New("boom")
	critErr := &criticalError{err: inner}
	assert.Equal(t, "boom", critErr.Error())
}
