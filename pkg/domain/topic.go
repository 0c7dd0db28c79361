package domain

// Topic identifies a news topic bucket. The set is closed: every query maps
// to one of the named buckets, with TopicDefault catching everything else.
type Topic string

// known topic buckets
const (
	TopicCricket       Topic = "cricket"
	TopicTechnology    Topic = "technology"
	TopicBusiness      Topic = "business"
	TopicSports        Topic = "sports"
	TopicHealth        Topic = "health"
	TopicScience       Topic = "science"
	TopicWorld         Topic = "world"
	TopicPolitics      Topic = "politics"
	TopicFinance       Topic = "finance"
	TopicEntertainment Topic = "entertainment"
	TopicDefault       Topic = "default"
)

// AllTopics returns every bucket in canonical order, TopicDefault last
func AllTopics() []Topic {
	return []Topic{
		TopicCricket, TopicTechnology, TopicBusiness, TopicSports,
		TopicHealth, TopicScience, TopicWorld, TopicPolitics,
		TopicFinance, TopicEntertainment, TopicDefault,
	}
}

// String implements fmt.Stringer
func (t Topic) String() string { return string(t) }
