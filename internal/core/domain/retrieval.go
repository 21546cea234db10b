package domain

// ScoredChunk is a retrieval hit ranked by cosine similarity.
type ScoredChunk struct {
	ID         string  `json:"id"`
	Content    string  `json:"content"`
	Similarity float64 `json:"similarity"`
}

type Intent string

const (
	IntentGreeting Intent = "GREETING"
	IntentQuery    Intent = "QUERY"
)

// Classification is the intent router verdict. Reply is set only for greetings.
type Classification struct {
	Intent Intent
	Reply  string
}

func (c Classification) IsGreeting() bool {
	return c.Intent == IntentGreeting && c.Reply != ""
}
