// Package warmer keeps the freshness cache populated for a configured set of
// queries so interactive requests hit warm entries.
package warmer

import (
	"context"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
	"golang.org/x/sync/errgroup"

	"github.com/akarpovich/newsbrief/pkg/domain"
)

// NewsProvider is the aggregator entry point the warmer drives
type NewsProvider interface {
	FetchNews(ctx context.Context, topic string, hours int) []domain.Article
}

// Warmer periodically refreshes the cache for its configured topics
type Warmer struct {
	news          NewsProvider
	topics        []string
	interval      time.Duration
	maxConcurrent int

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// New creates a warmer; interval 0 or an empty topic list makes Start a no-op
func New(news NewsProvider, topics []string, interval time.Duration, maxConcurrent int) *Warmer {
	if maxConcurrent <= 0 {
		maxConcurrent = 2
	}
	return &Warmer{news: news, topics: topics, interval: interval, maxConcurrent: maxConcurrent}
}

// Start begins the warm loop, the first cycle runs immediately
func (w *Warmer) Start(ctx context.Context) {
	if w.interval == 0 || len(w.topics) == 0 {
		lgr.Printf("[INFO] cache warming disabled")
		return
	}

	ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(1)

	go func() {
		defer w.wg.Done()

		lgr.Printf("[INFO] cache warming started, %d topics every %v", len(w.topics), w.interval)
		w.warmAll(ctx)

		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				w.warmAll(ctx)
			}
		}
	}()
}

// Stop cancels the loop and waits for the current cycle to finish
func (w *Warmer) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}

// warmAll refreshes every configured topic; distinct cache keys, so the
// fetches can run concurrently without contending on entries
func (w *Warmer) warmAll(ctx context.Context) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(w.maxConcurrent)

	for _, topic := range w.topics {
		g.Go(func() error {
			articles := w.news.FetchNews(ctx, topic, 48)
			lgr.Printf("[DEBUG] warmed %q: %d articles", topic, len(articles))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		lgr.Printf("[WARN] warm cycle error: %v", err)
	}
}
