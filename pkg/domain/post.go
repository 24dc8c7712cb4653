package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Author describes who wrote a post
type Author struct {
	Name       string
	ProfileURL string
	Title      string
	AvatarURL  string
}

// Post is a retained, fully assembled feed record
type Post struct {
	Permalink  string
	Text       string
	Media      []string
	LocalMedia []string // downloaded copies of Media, relative to the media root
	Timestamp  Timestamp
	Author     Author
	Reason     Reason
	Feed       string
	Position   int
}

// ID returns the stable identifier of the post: the permalink when known,
// otherwise a content hash of the text and the first media URL.
func (p Post) ID() string {
	if p.Permalink != "" {
		return p.Permalink
	}
	content := p.Text + "|"
	if len(p.Media) > 0 {
		content += p.Media[0]
	}
	hash := sha256.Sum256([]byte(content))
	return hex.EncodeToString(hash[:])
}

// HasContent reports whether the post carries text or media
func (p Post) HasContent() bool {
	return strings.TrimSpace(p.Text) != "" || len(p.Media) > 0
}

// Session describes one extraction run
type Session struct {
	ID         int64
	StartedAt  time.Time
	FinishedAt *time.Time
	Feeds      []string
	PostCount  int
	Error      string
}
