// Package briefing turns a user question into a sourced news briefing:
// retrieve articles, build a bounded context, call the model.
package briefing

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-pkgz/lgr"

	"github.com/akarpovich/newsbrief/pkg/domain"
)

// context construction bounds
const (
	maxContextArticles = 8     // articles included in the model context and citations
	maxArticleChars    = 1200  // per-article content limit
	maxContextChars    = 12000 // total joined context limit
	maxTopicChars      = 50    // question prefix used as the retrieval topic
	contextSeparator   = "\n\n---\n\n"
)

// NoArticlesAnswer is the terminal user-visible answer when every retrieval
// attempt came back empty. Not an error: total exhaustion is a normal outcome.
const NoArticlesAnswer = "⚠️ No news articles found."

// systemPrompt is the fixed output-format contract for the model
const systemPrompt = `You are an expert news analyst. Provide detailed, well-organized news briefings.

FORMATTING RULES:
- Do NOT use markdown headers (no #, ## or ###).
- Use **bold labels** for section names.
- Use tables for structured data, clean paragraphs and bullet points otherwise.

Structure your response EXACTLY like this:

**📰 What Happened**
A clear 3-4 sentence overview covering who, what, where, when.

**🔍 Key Facts**
A numbered table of the five most important facts.

**🌍 Background**
2-3 sentences of broader context: why now, what led to this.

**📊 Impact**
A table of affected groups and how they are affected.

**🌡️ Sentiment:** Positive / Neutral / Negative — one sentence explaining why.

**📌 Sources:** source names separated by commas.

Answer strictly based on the provided articles. Be thorough: the user wants
a complete briefing, not a short summary.`

// NewsProvider is the retrieval pipeline the orchestrator calls into
type NewsProvider interface {
	FetchNews(ctx context.Context, topic string, hours int) []domain.Article
}

// Generator is the external model call
type Generator interface {
	Generate(ctx context.Context, system, user string) (string, error)
}

// Extractor pulls full article text for deep-read context, optional
type Extractor interface {
	Extract(ctx context.Context, url string) (string, error)
}

// Orchestrator builds briefings from retrieved news
type Orchestrator struct {
	news      NewsProvider
	generator Generator
	extractor Extractor // nil disables deep-read
}

// NewOrchestrator creates an orchestrator; extractor may be nil
func NewOrchestrator(news NewsProvider, generator Generator, extractor Extractor) *Orchestrator {
	return &Orchestrator{news: news, generator: generator, extractor: extractor}
}

// Answer produces a briefing and its citations for the question. The pair is
// always displayable: retrieval exhaustion yields the sentinel answer, a
// model failure yields an error-description answer, both with no citations.
func (o *Orchestrator) Answer(ctx context.Context, question string) (string, []domain.SourceCitation) {
	topic := question
	if len(topic) > maxTopicChars {
		topic = topic[:maxTopicChars]
	}

	articles := o.news.FetchNews(ctx, topic, 48)
	if len(articles) == 0 {
		articles = o.news.FetchNews(ctx, "latest news", 24)
	}
	if len(articles) == 0 {
		return NoArticlesAnswer, nil
	}

	if len(articles) > maxContextArticles {
		articles = articles[:maxContextArticles]
	}

	newsContext := o.buildContext(ctx, articles)
	citations := make([]domain.SourceCitation, 0, len(articles))
	for _, a := range articles {
		citations = append(citations, a.Citation())
	}

	userPrompt := fmt.Sprintf("NEWS ARTICLES:\n%s\n\nQUESTION: %s", newsContext, question)

	answer, err := o.generator.Generate(ctx, systemPrompt, userPrompt)
	if err != nil {
		lgr.Printf("[ERROR] briefing generation failed for %q: %v", question, err)
		return fmt.Sprintf("Error: %v", err), nil
	}

	return answer, citations
}

// buildContext concatenates truncated article contents, bounded per article
// and in total
func (o *Orchestrator) buildContext(ctx context.Context, articles []domain.Article) string {
	pieces := make([]string, 0, len(articles))
	for _, a := range articles {
		pieces = append(pieces, truncate(o.articleContent(ctx, a), maxArticleChars))
	}
	return truncate(strings.Join(pieces, contextSeparator), maxContextChars)
}

// articleContent returns the article text for the context, full extracted
// text when deep-read is on and succeeds, the feed summary otherwise
func (o *Orchestrator) articleContent(ctx context.Context, a domain.Article) string {
	if o.extractor == nil || a.URL == "" || a.URL == "#" {
		return a.Content()
	}

	text, err := o.extractor.Extract(ctx, a.URL)
	if err != nil {
		lgr.Printf("[DEBUG] deep-read failed for %s, using feed summary: %v", a.URL, err)
		return a.Content()
	}
	return "Title: " + a.Title + "\n\n" + text
}

// truncate cuts s to at most n bytes
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
