package domain

// Article represents a single retrieved news article. Articles are built
// once by the fetcher and never mutated afterwards.
type Article struct {
	Title      string `json:"title"`
	Summary    string `json:"summary"`
	URL        string `json:"url"`
	SourceName string `json:"source"`
	Published  string `json:"published"` // raw timestamp as the feed published it, format varies by source
}

// Content returns the article text used as a unit of briefing context
func (a Article) Content() string {
	return "Title: " + a.Title + "\n\nSummary: " + a.Summary
}

// SourceCitation is the reduced projection of an article shown to the user
// next to a generated briefing
type SourceCitation struct {
	Title      string `json:"title"`
	SourceName string `json:"source"`
	URL        string `json:"url"`
}

// Citation builds the user-facing projection of the article
func (a Article) Citation() SourceCitation {
	return SourceCitation{Title: a.Title, SourceName: a.SourceName, URL: a.URL}
}
