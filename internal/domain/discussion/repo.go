package discussion

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	CreatePost(ctx context.Context, p *Post) error
	// GetPost returns nil when the post does not exist.
	GetPost(ctx context.Context, id uuid.UUID) (*Post, error)
	ListPosts(ctx context.Context, limit, offset int) ([]*Post, error)
	CreateReply(ctx context.Context, r *Reply) error
	ListReplies(ctx context.Context, postID uuid.UUID) ([]*Reply, error)
}
