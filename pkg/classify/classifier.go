// Package classify maps free-text queries to fixed topic buckets via
// keyword matching.
package classify

import (
	"strings"

	"github.com/akarpovich/newsbrief/pkg/domain"
)

// topicKeywords binds a bucket to its trigger keywords. The table is iterated
// in declared order and the first bucket with any substring match wins, so a
// query hitting keywords from several buckets resolves to whichever is listed
// first. The ordering is carried over as-is, it encodes no priority.
type topicKeywords struct {
	topic    domain.Topic
	keywords []string
}

var keywordTable = []topicKeywords{
	{domain.TopicCricket, []string{"cricket", "t20", "ipl", "odi", "test match", "bcci", "virat", "rohit"}},
	{domain.TopicTechnology, []string{"tech", "ai", "artificial intelligence", "software", "apple", "google",
		"microsoft", "startup", "coding", "computer"}},
	{domain.TopicBusiness, []string{"business", "economy", "trade", "company", "market", "gdp", "startup"}},
	{domain.TopicSports, []string{"sport", "football", "soccer", "tennis", "hockey", "basketball", "olympics"}},
	{domain.TopicHealth, []string{"health", "medical", "hospital", "disease", "vaccine", "covid", "doctor"}},
	{domain.TopicScience, []string{"science", "space", "nasa", "climate", "research", "discovery"}},
	{domain.TopicWorld, []string{"world", "international", "global", "war", "conflict", "ukraine", "russia"}},
	{domain.TopicPolitics, []string{"politics", "election", "government", "parliament", "minister", "president"}},
	{domain.TopicFinance, []string{"finance", "stock", "gold", "price", "bank", "invest", "rupee", "dollar"}},
	{domain.TopicEntertainment, []string{"movie", "film", "celebrity", "bollywood", "hollywood", "music", "actor"}},
}

// Detect maps a free-text query to a topic bucket. Pure and deterministic,
// returns domain.TopicDefault when no keyword matches.
func Detect(query string) domain.Topic {
	q := strings.ToLower(query)
	for _, tk := range keywordTable {
		for _, kw := range tk.keywords {
			if strings.Contains(q, kw) {
				return tk.topic
			}
		}
	}
	return domain.TopicDefault
}
