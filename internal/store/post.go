package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/wanderblog/apiserver/types"
)

const postColumns = `id, title, author_name, author_id, image_link, description, categories, is_featured, created_at`

// PostRepository handles persistence for posts.
type PostRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) *PostRepository {
	return &PostRepository{db: db}
}

func (r *PostRepository) queryPosts(ctx context.Context, query string, args ...any) ([]types.Post, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := make([]types.Post, 0)
	for rows.Next() {
		var post types.Post
		if err := rows.Scan(
			&post.ID,
			&post.Title,
			&post.AuthorName,
			&post.AuthorID,
			&post.ImageLink,
			&post.Description,
			pq.Array(&post.Categories),
			&post.IsFeaturedPost,
			&post.CreatedAt,
		); err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return posts, nil
}

func (r *PostRepository) List(ctx context.Context) ([]types.Post, error) {
	const query = `
		SELECT ` + postColumns + `
		FROM posts
		ORDER BY id`
	return r.queryPosts(ctx, query)
}

func (r *PostRepository) ListFeatured(ctx context.Context) ([]types.Post, error) {
	const query = `
		SELECT ` + postColumns + `
		FROM posts
		WHERE is_featured
		ORDER BY id`
	return r.queryPosts(ctx, query)
}

func (r *PostRepository) ListLatest(ctx context.Context) ([]types.Post, error) {
	const query = `
		SELECT ` + postColumns + `
		FROM posts
		ORDER BY created_at DESC`
	return r.queryPosts(ctx, query)
}

func (r *PostRepository) ListByCategory(ctx context.Context, category string) ([]types.Post, error) {
	const query = `
		SELECT ` + postColumns + `
		FROM posts
		WHERE $1 = ANY (categories)
		ORDER BY id`
	return r.queryPosts(ctx, query, category)
}

// ListByCategories returns posts filed under any of the given categories.
func (r *PostRepository) ListByCategories(ctx context.Context, categories []string) ([]types.Post, error) {
	const query = `
		SELECT ` + postColumns + `
		FROM posts
		WHERE categories && $1
		ORDER BY id`
	return r.queryPosts(ctx, query, pq.Array(categories))
}

func (r *PostRepository) Get(ctx context.Context, id int64) (types.Post, error) {
	const query = `
		SELECT ` + postColumns + `
		FROM posts
		WHERE id = $1`
	var post types.Post
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&post.ID,
		&post.Title,
		&post.AuthorName,
		&post.AuthorID,
		&post.ImageLink,
		&post.Description,
		pq.Array(&post.Categories),
		&post.IsFeaturedPost,
		&post.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Post{}, ErrNotFound
		}
		return types.Post{}, err
	}
	return post, nil
}

func (r *PostRepository) Create(ctx context.Context, post types.Post) (types.Post, error) {
	post.CreatedAt = time.Now()

	const query = `
		INSERT INTO posts (title, author_name, author_id, image_link, description, categories, is_featured, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		post.Title,
		post.AuthorName,
		post.AuthorID,
		post.ImageLink,
		post.Description,
		pq.Array(post.Categories),
		post.IsFeaturedPost,
		post.CreatedAt,
	).Scan(&post.ID); err != nil {
		return types.Post{}, err
	}

	return post, nil
}

func (r *PostRepository) Update(ctx context.Context, post types.Post) (types.Post, error) {
	const query = `
		UPDATE posts
		SET title = $1,
			author_name = $2,
			image_link = $3,
			description = $4,
			categories = $5,
			is_featured = $6
		WHERE id = $7`
	result, err := r.db.ExecContext(
		ctx,
		query,
		post.Title,
		post.AuthorName,
		post.ImageLink,
		post.Description,
		pq.Array(post.Categories),
		post.IsFeaturedPost,
		post.ID,
	)
	if err != nil {
		return types.Post{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Post{}, err
	}
	if affected == 0 {
		return types.Post{}, ErrNotFound
	}

	return post, nil
}

// Delete removes a post and returns the deleted row so callers can unlink
// it from its owner.
func (r *PostRepository) Delete(ctx context.Context, id int64) (types.Post, error) {
	const query = `
		DELETE FROM posts
		WHERE id = $1
		RETURNING ` + postColumns
	var post types.Post
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&post.ID,
		&post.Title,
		&post.AuthorName,
		&post.AuthorID,
		&post.ImageLink,
		&post.Description,
		pq.Array(&post.Categories),
		&post.IsFeaturedPost,
		&post.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Post{}, ErrNotFound
		}
		return types.Post{}, err
	}
	return post, nil
}
