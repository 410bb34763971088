package discussion

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/carevista/carevista/internal/platform/apperr"
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// CreatePost stores a new thread after the identifier scan. Flagged
// content is rejected outright; there is no redact-and-store path.
func (s *Service) CreatePost(ctx context.Context, authorID, title, body string) (*Post, error) {
	if strings.TrimSpace(title) == "" {
		return nil, apperr.Validation("title is required")
	}
	if strings.TrimSpace(body) == "" {
		return nil, apperr.Validation("body is required")
	}
	if ContainsIdentifier(title) || ContainsIdentifier(body) {
		return nil, apperr.Validation("post appears to contain patient-identifying information; remove identifiers and repost")
	}

	p := &Post{
		ID:        uuid.New(),
		AuthorID:  authorID,
		Title:     title,
		Body:      body,
		CreatedAt: s.now(),
	}
	if err := s.repo.CreatePost(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) CreateReply(ctx context.Context, authorID string, postID uuid.UUID, body string) (*Reply, error) {
	if strings.TrimSpace(body) == "" {
		return nil, apperr.Validation("body is required")
	}
	if ContainsIdentifier(body) {
		return nil, apperr.Validation("reply appears to contain patient-identifying information; remove identifiers and repost")
	}

	post, err := s.repo.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, apperr.NotFound("post not found")
	}

	r := &Reply{
		ID:        uuid.New(),
		PostID:    postID,
		AuthorID:  authorID,
		Body:      body,
		CreatedAt: s.now(),
	}
	if err := s.repo.CreateReply(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Service) GetPost(ctx context.Context, id uuid.UUID) (*Post, error) {
	p, err := s.repo.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperr.NotFound("post not found")
	}
	return p, nil
}

func (s *Service) ListPosts(ctx context.Context, limit, offset int) ([]*Post, error) {
	return s.repo.ListPosts(ctx, limit, offset)
}

func (s *Service) ListReplies(ctx context.Context, postID uuid.UUID) ([]*Reply, error) {
	if _, err := s.GetPost(ctx, postID); err != nil {
		return nil, err
	}
	return s.repo.ListReplies(ctx, postID)
}
