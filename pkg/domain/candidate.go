package domain

// FeedOwner is the profile or page a feed belongs to
type FeedOwner struct {
	Name string
	Slug string
}

// Candidate is one scraped feed entry before classification.
// Position is the item's index in the rendered document; Err carries a partial
// extraction failure reported by the DOM reader.
type Candidate struct {
	AuthorName  string
	AuthorURL   string
	AuthorTitle string
	AvatarURL   string
	Text        string
	VisibleText string
	Media       []string
	Signals     []TimeSignal
	Permalink   string
	URN         string
	Position    int
	Err         error
}

// Reason explains an originality verdict
type Reason string

const (
	ReasonExactName     Reason = "exact-name-match"
	ReasonSubstringName Reason = "substring-name-match"
	ReasonNoName        Reason = "no-name-available"
	ReasonIndicator     Reason = "indicator-phrase-match"
	ReasonMismatch      Reason = "author-mismatch"
)

// Verdict is the original/repost decision for a candidate
type Verdict struct {
	Original bool
	Reason   Reason
}
