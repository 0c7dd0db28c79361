// Package news implements the tiered news retrieval pipeline: broad query
// search, topic-bucket fallback and the global default fallback, with
// freshness caching and title deduplication on top.
package news

import (
	"context"
	"sync"

	"github.com/go-pkgz/lgr"

	"github.com/akarpovich/newsbrief/pkg/cache"
	"github.com/akarpovich/newsbrief/pkg/classify"
	"github.com/akarpovich/newsbrief/pkg/domain"
)

// tier volume thresholds. Tiers short-circuit by collected volume, not by
// per-source success or failure.
const (
	searchMaxItems = 15 // entries inspected per search fetch
	bucketMaxItems = 8  // entries inspected per fallback feed
	sparseBelow    = 5  // run the topic-bucket tier when fewer collected
	bucketStopAt   = 10 // stop iterating bucket feeds once collected this many
	minAcceptable  = 3  // run the default tier when still fewer than this
)

// Fetcher retrieves articles from a single source. Errors are recorded
// failure reasons, never propagated past the aggregator.
type Fetcher interface {
	FetchFeed(ctx context.Context, url string, maxItems int) ([]domain.Article, error)
	FetchQuerySearch(ctx context.Context, query string, maxItems int) ([]domain.Article, error)
}

// Cache is the freshness cache the aggregator consults before fetching
type Cache interface {
	Get(query string) ([]domain.Article, bool)
	Put(query string, articles []domain.Article)
}

// Archiver records fetched articles for later history lookups, best-effort
type Archiver interface {
	SaveArticles(ctx context.Context, query string, articles []domain.Article) error
}

// Aggregator orchestrates the tiered fetch strategy. All collaborators are
// injected; the composition root owns their lifecycles.
type Aggregator struct {
	fetcher  Fetcher
	cache    Cache
	archiver Archiver // optional, nil disables archiving
	sources  map[domain.Topic][]string

	mu       sync.Mutex
	keyLocks map[string]*sync.Mutex
}

// NewAggregator creates an aggregator over the given feed source table.
// sources must contain domain.TopicDefault; archiver may be nil.
func NewAggregator(fetcher Fetcher, c Cache, archiver Archiver, sources map[domain.Topic][]string) *Aggregator {
	return &Aggregator{
		fetcher:  fetcher,
		cache:    c,
		archiver: archiver,
		sources:  sources,
		keyLocks: make(map[string]*sync.Mutex),
	}
}

// FetchNews returns deduplicated articles for the topic. hours is accepted
// for interface compatibility with time-windowed retrieval but does not
// constrain results: every fetched item is returned regardless of age.
// Feed-level failures never escape; the result is empty only when every
// source of every tier failed.
func (a *Aggregator) FetchNews(ctx context.Context, topic string, hours int) []domain.Article {
	_ = hours // kept for callers that pass a window, see package docs

	// serialize same-key work so concurrent identical queries don't both
	// miss the cache and both fetch
	unlock := a.lockKey(cache.Key(topic))
	defer unlock()

	if articles, ok := a.cache.Get(topic); ok {
		lgr.Printf("[INFO] cache hit for %q: %d articles", topic, len(articles))
		return articles
	}

	var collected []domain.Article

	// tier 1: broad query search
	lgr.Printf("[INFO] search feed query %q", topic)
	found, err := a.fetcher.FetchQuerySearch(ctx, topic, searchMaxItems)
	if err != nil {
		lgr.Printf("[WARN] search fetch failed for %q: %v", topic, err)
	}
	collected = append(collected, found...)

	// tier 2: topic bucket fallback when search came back sparse
	if len(collected) < sparseBelow {
		bucket := classify.Detect(topic)
		lgr.Printf("[INFO] sparse search result (%d), falling back to %q bucket", len(collected), bucket)
		for _, feedURL := range a.bucketURLs(bucket) {
			found, err := a.fetcher.FetchFeed(ctx, feedURL, bucketMaxItems)
			if err != nil {
				lgr.Printf("[WARN] fallback feed %s failed: %v", feedURL, err)
			}
			collected = append(collected, found...)
			if len(collected) >= bucketStopAt {
				break
			}
		}
	}

	// tier 3: global default, every URL, no early stop
	if len(collected) < minAcceptable {
		lgr.Printf("[INFO] still sparse (%d), trying default feeds", len(collected))
		for _, feedURL := range a.sources[domain.TopicDefault] {
			found, err := a.fetcher.FetchFeed(ctx, feedURL, bucketMaxItems)
			if err != nil {
				lgr.Printf("[WARN] default feed %s failed: %v", feedURL, err)
			}
			collected = append(collected, found...)
		}
	}

	unique := dedupByTitle(collected)
	lgr.Printf("[INFO] %d unique articles for %q", len(unique), topic)

	a.cache.Put(topic, unique)
	a.archive(ctx, topic, unique)
	return unique
}

// Topics returns the topic buckets known to this aggregator in canonical order
func (a *Aggregator) Topics() []domain.Topic {
	topics := make([]domain.Topic, 0, len(a.sources))
	for _, t := range domain.AllTopics() {
		if _, ok := a.sources[t]; ok {
			topics = append(topics, t)
		}
	}
	return topics
}

// bucketURLs returns the feed list for the bucket, default bucket when the
// classified bucket has no configured feeds
func (a *Aggregator) bucketURLs(bucket domain.Topic) []string {
	if urls, ok := a.sources[bucket]; ok && len(urls) > 0 {
		return urls
	}
	return a.sources[domain.TopicDefault]
}

// archive records the fetched list, failures are logged and swallowed
func (a *Aggregator) archive(ctx context.Context, topic string, articles []domain.Article) {
	if a.archiver == nil || len(articles) == 0 {
		return
	}
	if err := a.archiver.SaveArticles(ctx, cache.Key(topic), articles); err != nil {
		lgr.Printf("[WARN] failed to archive %d articles for %q: %v", len(articles), topic, err)
	}
}

// lockKey acquires the per-key mutex, creating it on first use. Key mutexes
// are never removed; the key space is the same unbounded set the cache holds.
func (a *Aggregator) lockKey(key string) (unlock func()) {
	a.mu.Lock()
	km, ok := a.keyLocks[key]
	if !ok {
		km = &sync.Mutex{}
		a.keyLocks[key] = km
	}
	a.mu.Unlock()

	km.Lock()
	return km.Unlock
}

// dedupByTitle drops repeated titles keeping the first occurrence,
// order-preserving. Titles are never empty here, the fetcher discards
// untitled entries.
func dedupByTitle(articles []domain.Article) []domain.Article {
	seen := make(map[string]struct{}, len(articles))
	unique := make([]domain.Article, 0, len(articles))
	for _, a := range articles {
		if _, ok := seen[a.Title]; ok {
			continue
		}
		seen[a.Title] = struct{}{}
		unique = append(unique, a)
	}
	return unique
}
