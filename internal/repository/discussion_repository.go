package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/institute-portal-api/internal/models"
)

// DiscussionRepository stores course board posts.
type DiscussionRepository struct {
	db *sqlx.DB
}

// NewDiscussionRepository constructs the repository.
func NewDiscussionRepository(db *sqlx.DB) *DiscussionRepository {
	return &DiscussionRepository{db: db}
}

// Create inserts a post.
func (r *DiscussionRepository) Create(ctx context.Context, post *models.DiscussionPost) error {
	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO discussion_posts (id, course_id, author_id, body, created_at)
	VALUES (:id, :course_id, :author_id, :body, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, post); err != nil {
		return fmt.Errorf("create discussion post: %w", err)
	}
	return nil
}

// ListByCourse returns a page of posts, newest first, with author names.
func (r *DiscussionRepository) ListByCourse(ctx context.Context, courseID string, page, pageSize int) ([]models.DiscussionPost, int, error) {
	_, size, offset := paginate(page, pageSize)
	query := fmt.Sprintf(`SELECT p.id, p.course_id, p.author_id, COALESCE(u.full_name, u.username, '') AS author_name, p.body, p.created_at
	FROM discussion_posts p LEFT JOIN users_table u ON u.id = p.author_id
	WHERE p.course_id = $1 ORDER BY p.created_at DESC LIMIT %d OFFSET %d`, size, offset)
	var posts []models.DiscussionPost
	if err := r.db.SelectContext(ctx, &posts, query, courseID); err != nil {
		return nil, 0, fmt.Errorf("list discussion posts: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM discussion_posts WHERE course_id = $1`, courseID); err != nil {
		return nil, 0, fmt.Errorf("count discussion posts: %w", err)
	}
	return posts, total, nil
}
