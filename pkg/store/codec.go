package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/umputun/postscope/pkg/domain"
)

// ErrInvalidPayload is returned when persisted data is not a collection of post records
var ErrInvalidPayload = errors.New("invalid posts payload")

// TimeLayout is the persisted timestamp form, fixed millisecond precision in UTC so that
// string order matches time order
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

// Record is the persisted and served form of a post
type Record struct {
	ID         string       `json:"id,omitempty"`
	Original   string       `json:"original"`
	Text       string       `json:"text"`
	Media      []string     `json:"media"`
	LocalMedia []string     `json:"local_media,omitempty"`
	Timestamp  string       `json:"timestamp"`
	Author     RecordAuthor `json:"author"`
	Source     string       `json:"source,omitempty"`
	Reason     string       `json:"reason,omitempty"`
	Feed       string       `json:"feed,omitempty"`
}

// RecordAuthor is the nested author object of a record
type RecordAuthor struct {
	Name       string `json:"name"`
	ProfileURL string `json:"profile_url"`
	Title      string `json:"title"`
	AvatarURL  string `json:"avatar_url,omitempty"`
}

// Entry is a post with its key in the current ordering
type Entry struct {
	Key  string
	Post domain.Post
}

// NewRecord converts a post to its persisted form, timestamps are written in TimeLayout
func NewRecord(p domain.Post) Record {
	media := p.Media
	if media == nil {
		media = []string{}
	}
	rec := Record{
		ID:         p.ID(),
		Original:   p.Permalink,
		Text:       p.Text,
		Media:      media,
		LocalMedia: p.LocalMedia,
		Author: RecordAuthor{
			Name:       p.Author.Name,
			ProfileURL: p.Author.ProfileURL,
			Title:      p.Author.Title,
			AvatarURL:  p.Author.AvatarURL,
		},
		Source: string(p.Timestamp.Source),
		Reason: string(p.Reason),
		Feed:   p.Feed,
	}
	if !p.Timestamp.Time.IsZero() {
		rec.Timestamp = p.Timestamp.Time.UTC().Format(TimeLayout)
	}
	return rec
}

// Post converts the record back. A timestamp that can't be parsed becomes the zero time
// and sorts last; values without a zone are taken as UTC.
func (r Record) Post() domain.Post {
	return domain.Post{
		Permalink:  r.Original,
		Text:       r.Text,
		Media:      r.Media,
		LocalMedia: r.LocalMedia,
		Timestamp:  domain.Timestamp{Time: parseTimestamp(r.Timestamp), Source: domain.TimeSource(r.Source)},
		Author: domain.Author{
			Name:       r.Author.Name,
			ProfileURL: r.Author.ProfileURL,
			Title:      r.Author.Title,
			AvatarURL:  r.Author.AvatarURL,
		},
		Reason: domain.Reason(r.Reason),
		Feed:   r.Feed,
	}
}

func parseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC()
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

// Sort orders posts newest first by the decoded timestamp. Equal timestamps keep their order.
func Sort(posts []domain.Post) {
	slices.SortStableFunc(posts, func(a, b domain.Post) int {
		return b.Timestamp.Time.Compare(a.Timestamp.Time)
	})
}

// Encode writes posts as a JSON object keyed "0".."n-1" in slice order
func Encode(posts []domain.Post) ([]byte, error) {
	entries := make([]Entry, len(posts))
	for i, p := range posts {
		entries[i] = Entry{Key: strconv.Itoa(i), Post: p}
	}
	return EncodeEntries(entries)
}

// EncodeEntries writes entries as a JSON object keeping their order
func EncodeEntries(entries []Entry) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("  ", "  ")

	buf.WriteString("{")
	for i, e := range entries {
		if i > 0 {
			buf.WriteString(",")
		}
		buf.WriteString("\n  ")
		key, err := json.Marshal(e.Key)
		if err != nil {
			return nil, fmt.Errorf("marshal key %q: %w", e.Key, err)
		}
		buf.Write(key)
		buf.WriteString(": ")
		if err := enc.Encode(NewRecord(e.Post)); err != nil {
			return nil, fmt.Errorf("marshal post %q: %w", e.Key, err)
		}
		buf.Truncate(buf.Len() - 1) // encoder adds a newline
	}
	if len(entries) > 0 {
		buf.WriteString("\n")
	}
	buf.WriteString("}\n")
	return buf.Bytes(), nil
}

// Decode reads a persisted collection. Records are returned in file order, the keys are dropped.
// Anything but a JSON object of record objects is rejected with ErrInvalidPayload, and so is
// a record with neither text nor media.
func Decode(data []byte) ([]domain.Post, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("%w: json must be an object", ErrInvalidPayload)
	}

	posts := []domain.Post{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		key, _ := tok.(string)
		var rec *Record
		if err := dec.Decode(&rec); err != nil {
			return nil, fmt.Errorf("%w: record %q: %v", ErrInvalidPayload, key, err)
		}
		if rec == nil {
			return nil, fmt.Errorf("%w: record %q is null", ErrInvalidPayload, key)
		}
		p := rec.Post()
		if !p.HasContent() {
			return nil, fmt.Errorf("%w: record %q has no text or media", ErrInvalidPayload, key)
		}
		posts = append(posts, p)
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: unexpected data after object", ErrInvalidPayload)
	}
	return posts, nil
}
