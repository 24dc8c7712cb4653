package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-pkgz/repeater/v2"
	"github.com/jmoiron/sqlx"

	"github.com/umputun/postscope/pkg/domain"
)

// PostRepository handles archived posts
type PostRepository struct {
	db *sqlx.DB
}

// postSQL represents a post for SQL operations
type postSQL struct {
	ID           int64      `db:"id"`
	StableID     string     `db:"stable_id"`
	Permalink    string     `db:"permalink"`
	Text         string     `db:"text"`
	Media        stringsSQL `db:"media"`
	LocalMedia   stringsSQL `db:"local_media"`
	Published    *time.Time `db:"published"`
	TimeSource   string     `db:"time_source"`
	AuthorName   string     `db:"author_name"`
	AuthorURL    string     `db:"author_url"`
	AuthorTitle  string     `db:"author_title"`
	AuthorAvatar string     `db:"author_avatar"`
	Reason       string     `db:"reason"`
	Feed         string     `db:"feed"`
	FirstSeen    time.Time  `db:"first_seen"`
	LastSeen     time.Time  `db:"last_seen"`
	Position     int        `db:"position"`
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *sqlx.DB) *PostRepository {
	return &PostRepository{db: db}
}

// SavePosts upserts posts by their stable id and links them to the session.
// first_seen is kept on update, a fallback timestamp never replaces a resolved one
// and a run without downloaded media keeps the files of an earlier one.
func (r *PostRepository) SavePosts(ctx context.Context, sessionID int64, posts []domain.Post) error {
	if len(posts) == 0 {
		return nil
	}

	retrier := repeater.NewBackoff(5, 50*time.Millisecond, repeater.WithMaxDelay(2*time.Second))
	return retrier.Do(ctx, func() error {
		err := r.savePosts(ctx, sessionID, posts)
		if err != nil && !isLockError(err) {
			return &criticalError{err: err}
		}
		return err
	})
}

func (r *PostRepository) savePosts(ctx context.Context, sessionID int64, posts []domain.Post) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	upsert := `
		INSERT INTO posts (
			stable_id, permalink, text, media, local_media, published, time_source,
			author_name, author_url, author_title, author_avatar, reason, feed, first_seen, last_seen
		) VALUES (
			:stable_id, :permalink, :text, :media, :local_media, :published, :time_source,
			:author_name, :author_url, :author_title, :author_avatar, :reason, :feed, :first_seen, :last_seen
		)
		ON CONFLICT(stable_id) DO UPDATE SET
			permalink = excluded.permalink,
			text = excluded.text,
			media = excluded.media,
			local_media = CASE WHEN excluded.local_media = '[]' THEN posts.local_media ELSE excluded.local_media END,
			published = CASE WHEN excluded.time_source = 'fallback-now' AND posts.published IS NOT NULL
				THEN posts.published ELSE excluded.published END,
			time_source = CASE WHEN excluded.time_source = 'fallback-now' AND posts.published IS NOT NULL
				THEN posts.time_source ELSE excluded.time_source END,
			author_name = excluded.author_name,
			author_url = excluded.author_url,
			author_title = excluded.author_title,
			author_avatar = excluded.author_avatar,
			reason = excluded.reason,
			feed = excluded.feed,
			last_seen = excluded.last_seen
	`
	now := time.Now().UTC()
	for i, p := range posts {
		rec := toSQL(p, now)
		if _, err := tx.NamedExecContext(ctx, upsert, rec); err != nil {
			return fmt.Errorf("upsert post %s: %w", rec.StableID, err)
		}

		var postID int64
		if err := tx.GetContext(ctx, &postID, "SELECT id FROM posts WHERE stable_id = ?", rec.StableID); err != nil {
			return fmt.Errorf("get post id: %w", err)
		}
		link := `INSERT INTO session_posts (session_id, post_id, position) VALUES (?, ?, ?)
			ON CONFLICT(session_id, post_id) DO UPDATE SET position = excluded.position`
		if _, err := tx.ExecContext(ctx, link, sessionID, postID, i); err != nil {
			return fmt.Errorf("link post to session %d: %w", sessionID, err)
		}
	}
	return tx.Commit()
}

// GetSessionPosts returns posts of a session in the order they were saved
func (r *PostRepository) GetSessionPosts(ctx context.Context, sessionID int64) ([]domain.Post, error) {
	query := `
		SELECT p.*, sp.position
		FROM posts p
		JOIN session_posts sp ON sp.post_id = p.id
		WHERE sp.session_id = ?
		ORDER BY sp.position
	`
	var recs []postSQL
	if err := r.db.SelectContext(ctx, &recs, query, sessionID); err != nil {
		return nil, fmt.Errorf("get session posts: %w", err)
	}
	res := make([]domain.Post, len(recs))
	for i := range recs {
		res[i] = recs[i].toDomain()
	}
	return res, nil
}

// CountPosts returns the number of distinct archived posts
func (r *PostRepository) CountPosts(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM posts"); err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return count, nil
}

func toSQL(p domain.Post, seen time.Time) *postSQL {
	rec := &postSQL{
		StableID:     p.ID(),
		Permalink:    p.Permalink,
		Text:         p.Text,
		Media:        stringsSQL(p.Media),
		LocalMedia:   stringsSQL(p.LocalMedia),
		TimeSource:   string(p.Timestamp.Source),
		AuthorName:   p.Author.Name,
		AuthorURL:    p.Author.ProfileURL,
		AuthorTitle:  p.Author.Title,
		AuthorAvatar: p.Author.AvatarURL,
		Reason:       string(p.Reason),
		Feed:         p.Feed,
		FirstSeen:    seen,
		LastSeen:     seen,
	}
	if !p.Timestamp.Time.IsZero() {
		t := p.Timestamp.Time.UTC()
		rec.Published = &t
	}
	return rec
}

func (p *postSQL) toDomain() domain.Post {
	res := domain.Post{
		Permalink: p.Permalink,
		Text:      p.Text,
		Media:     []string(p.Media),
		Timestamp: domain.Timestamp{Source: domain.TimeSource(p.TimeSource)},
		Author: domain.Author{
			Name:       p.AuthorName,
			ProfileURL: p.AuthorURL,
			Title:      p.AuthorTitle,
			AvatarURL:  p.AuthorAvatar,
		},
		Reason:   domain.Reason(p.Reason),
		Feed:     p.Feed,
		Position: p.Position,
	}
	if len(p.LocalMedia) > 0 {
		res.LocalMedia = []string(p.LocalMedia)
	}
	if p.Published != nil {
		res.Timestamp.Time = p.Published.UTC()
	}
	return res
}
