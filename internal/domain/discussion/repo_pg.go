package discussion

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carevista/carevista/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) db.Queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

func (r *repoPG) CreatePost(ctx context.Context, p *Post) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO discussion_posts (id, author_id, title, body, created_at)
		VALUES ($1,$2,$3,$4,$5)`,
		p.ID, p.AuthorID, p.Title, p.Body, p.CreatedAt)
	return err
}

func (r *repoPG) GetPost(ctx context.Context, id uuid.UUID) (*Post, error) {
	var p Post
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, author_id, title, body, created_at FROM discussion_posts
		WHERE id = $1`, id).Scan(&p.ID, &p.AuthorID, &p.Title, &p.Body, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repoPG) ListPosts(ctx context.Context, limit, offset int) ([]*Post, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, author_id, title, body, created_at FROM discussion_posts
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Post
	for rows.Next() {
		var p Post
		if err := rows.Scan(&p.ID, &p.AuthorID, &p.Title, &p.Body, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

func (r *repoPG) CreateReply(ctx context.Context, rep *Reply) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO discussion_replies (id, post_id, author_id, body, created_at)
		VALUES ($1,$2,$3,$4,$5)`,
		rep.ID, rep.PostID, rep.AuthorID, rep.Body, rep.CreatedAt)
	return err
}

func (r *repoPG) ListReplies(ctx context.Context, postID uuid.UUID) ([]*Reply, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, post_id, author_id, body, created_at FROM discussion_replies
		WHERE post_id = $1
		ORDER BY created_at ASC`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Reply
	for rows.Next() {
		var rep Reply
		if err := rows.Scan(&rep.ID, &rep.PostID, &rep.AuthorID, &rep.Body, &rep.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &rep)
	}
	return out, rows.Err()
}
