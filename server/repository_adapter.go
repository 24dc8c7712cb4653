package server

import (
	"context"

	"github.com/umputun/postscope/pkg/domain"
	"github.com/umputun/postscope/pkg/repository"
)

// RepositoryAdapter adapts archive repositories to the server.Archive interface
type RepositoryAdapter struct {
	repos *repository.Repositories
}

// NewRepositoryAdapter creates a new repository adapter
func NewRepositoryAdapter(repos *repository.Repositories) *RepositoryAdapter {
	return &RepositoryAdapter{repos: repos}
}

// ListSessions returns recent scrape sessions
func (r *RepositoryAdapter) ListSessions(ctx context.Context, limit int) ([]domain.Session, error) {
	return r.repos.Session.ListSessions(ctx, limit)
}

// GetSession returns a single session
func (r *RepositoryAdapter) GetSession(ctx context.Context, id int64) (*domain.Session, error) {
	return r.repos.Session.GetSession(ctx, id)
}

// GetSessionPosts returns posts of a session in scrape order
func (r *RepositoryAdapter) GetSessionPosts(ctx context.Context, sessionID int64) ([]domain.Post, error) {
	return r.repos.Post.GetSessionPosts(ctx, sessionID)
}

// CountPosts returns the number of archived posts
func (r *RepositoryAdapter) CountPosts(ctx context.Context) (int, error) {
	return r.repos.Post.CountPosts(ctx)
}
