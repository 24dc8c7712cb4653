// Package store keeps the served post collection in memory and handles its persisted
// JSON form. The collection is replaced as a whole, readers always see a complete snapshot.
package store

import (
	"errors"
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/umputun/postscope/pkg/domain"
)

// ErrNotFound is returned when no post matches the key
var ErrNotFound = errors.New("post not found")

// Collection is the live, sorted set of posts
type Collection struct {
	snap      atomic.Pointer[snapshot]
	publishMu sync.Mutex // serializes Publish and Load
}

type snapshot struct {
	posts   []domain.Post
	byID    map[string]int
	updated time.Time
}

// Stats summarizes the collection
type Stats struct {
	TotalPosts      int        `json:"total_posts"`
	TotalMedia      int        `json:"total_media"`
	TotalCharacters int        `json:"total_characters"`
	AverageLength   int        `json:"average_length"`
	PostsWithMedia  int        `json:"posts_with_media"`
	DateRange       *DateRange `json:"date_range"`
}

// DateRange is the span of post timestamps
type DateRange struct {
	Earliest time.Time `json:"earliest"`
	Latest   time.Time `json:"latest"`
}

// NewCollection makes an empty collection
func NewCollection() *Collection {
	c := &Collection{}
	c.snap.Store(&snapshot{byID: map[string]int{}})
	return c
}

// Replace sorts a copy of posts newest first and swaps it in, dense keys are reassigned
func (c *Collection) Replace(posts []domain.Post) {
	sorted := slices.Clone(posts)
	Sort(sorted)
	byID := make(map[string]int, len(sorted))
	for i, p := range sorted {
		if _, ok := byID[p.ID()]; !ok {
			byID[p.ID()] = i
		}
	}
	c.snap.Store(&snapshot{posts: sorted, byID: byID, updated: time.Now()})
}

// Publish sorts posts newest first, passes them to persist and swaps them in once persist
// succeeded. Publishers run one at a time, so the persisted copy and the live collection change
// in the same order. A nil persist only swaps.
func (c *Collection) Publish(posts []domain.Post, persist func(sorted []domain.Post) error) error {
	c.publishMu.Lock()
	defer c.publishMu.Unlock()

	sorted := slices.Clone(posts)
	Sort(sorted)
	if persist != nil {
		if err := persist(sorted); err != nil {
			return err
		}
	}
	c.Replace(sorted)
	return nil
}

// Load replaces the collection with the result of load, serialized with Publish.
// The collection is kept if load fails.
func (c *Collection) Load(load func() ([]domain.Post, error)) (int, error) {
	c.publishMu.Lock()
	defer c.publishMu.Unlock()

	posts, err := load()
	if err != nil {
		return 0, err
	}
	c.Replace(posts)
	return len(posts), nil
}

// All returns posts in key order. The slice is shared and must not be modified.
func (c *Collection) All() []domain.Post {
	return c.snap.Load().posts
}

// Len returns the number of posts
func (c *Collection) Len() int {
	return len(c.snap.Load().posts)
}

// Updated returns the time of the last replacement
func (c *Collection) Updated() time.Time {
	return c.snap.Load().updated
}

// Get finds a post by its dense key or its stable id
func (c *Collection) Get(key string) (Entry, error) {
	s := c.snap.Load()
	if i, err := strconv.Atoi(key); err == nil && i >= 0 && i < len(s.posts) && strconv.Itoa(i) == key {
		return Entry{Key: key, Post: s.posts[i]}, nil
	}
	if i, ok := s.byID[key]; ok {
		return Entry{Key: strconv.Itoa(i), Post: s.posts[i]}, nil
	}
	return Entry{}, ErrNotFound
}

// Search returns up to limit posts whose text, author name or author title contains q, case-insensitive.
// Non-positive limit means no limit.
func (c *Collection) Search(q string, limit int) []Entry {
	q = strings.ToLower(q)
	res := []Entry{}
	for i, p := range c.snap.Load().posts {
		if limit > 0 && len(res) >= limit {
			break
		}
		searchable := strings.ToLower(strings.Join([]string{p.Text, p.Author.Name, p.Author.Title}, " "))
		if strings.Contains(searchable, q) {
			res = append(res, Entry{Key: strconv.Itoa(i), Post: p})
		}
	}
	return res
}

// Stats computes collection statistics, posts without a timestamp are left out of the date range
func (c *Collection) Stats() Stats {
	posts := c.snap.Load().posts
	var st Stats
	st.TotalPosts = len(posts)
	for _, p := range posts {
		st.TotalMedia += len(p.Media)
		st.TotalCharacters += utf8.RuneCountInString(p.Text)
		if len(p.Media) > 0 {
			st.PostsWithMedia++
		}
		ts := p.Timestamp.Time
		if ts.IsZero() {
			continue
		}
		if st.DateRange == nil {
			st.DateRange = &DateRange{Earliest: ts, Latest: ts}
			continue
		}
		if ts.Before(st.DateRange.Earliest) {
			st.DateRange.Earliest = ts
		}
		if ts.After(st.DateRange.Latest) {
			st.DateRange.Latest = ts
		}
	}
	if st.TotalPosts > 0 {
		st.AverageLength = st.TotalCharacters / st.TotalPosts
	}
	return st
}
