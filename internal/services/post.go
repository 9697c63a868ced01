package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sync"

	"github.com/wanderblog/apiserver/internal/apperr"
	"github.com/wanderblog/apiserver/internal/cache"
	"github.com/wanderblog/apiserver/internal/events"
	"github.com/wanderblog/apiserver/internal/store"
	"github.com/wanderblog/apiserver/types"
)

// Cache keys for the three listing views kept warm by reads and
// invalidated by every mutation.
const (
	keyAllPosts      = "all-posts"
	keyFeaturedPosts = "featured-posts"
	keyLatestPosts   = "latest-posts"
)

const maxCategories = 3

var imageLinkPattern = regexp.MustCompile(`(?i)\.(jpg|jpeg|png|webp)$`)

// PostRepository defines persistence operations for posts.
type PostRepository interface {
	List(ctx context.Context) ([]types.Post, error)
	ListFeatured(ctx context.Context) ([]types.Post, error)
	ListLatest(ctx context.Context) ([]types.Post, error)
	ListByCategory(ctx context.Context, category string) ([]types.Post, error)
	ListByCategories(ctx context.Context, categories []string) ([]types.Post, error)
	Get(ctx context.Context, id int64) (types.Post, error)
	Create(ctx context.Context, post types.Post) (types.Post, error)
	Update(ctx context.Context, post types.Post) (types.Post, error)
	Delete(ctx context.Context, id int64) (types.Post, error)
}

// PostOwnerRepository maintains the owning user's posts list.
type PostOwnerRepository interface {
	AddPost(ctx context.Context, userID, postID int64) error
	RemovePost(ctx context.Context, userID, postID int64) error
}

// PostService wraps post mutations so that every write invalidates the
// cached listing views it could affect, and serves the hot listings
// cache-aside.
type PostService struct {
	repo   PostRepository
	users  PostOwnerRepository
	cache  cache.Cache
	events *events.Publisher
	logger *slog.Logger
}

func NewPostService(repo PostRepository, users PostOwnerRepository, c cache.Cache, publisher *events.Publisher, logger *slog.Logger) *PostService {
	if c == nil {
		c = cache.Disabled{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostService{repo: repo, users: users, cache: c, events: publisher, logger: logger}
}

// Create validates and persists a new post owned by author, invalidates
// the cached listing views, and links the post to its owner.
func (s *PostService) Create(ctx context.Context, author types.User, post types.Post) (types.Post, error) {
	post.AuthorID = author.ID

	if violations := validatePost(post); len(violations) > 0 {
		return types.Post{}, apperr.Validation("invalid post details", violations...)
	}

	created, err := s.repo.Create(ctx, post)
	if err != nil {
		return types.Post{}, apperr.Internal("failed to create post", err)
	}

	s.invalidateListViews(ctx)

	if err := s.users.AddPost(ctx, author.ID, created.ID); err != nil {
		return types.Post{}, apperr.Internal("failed to link post to author", err)
	}

	s.events.PostEvent(ctx, events.PostCreated, created)
	return created, nil
}

// Update applies a partial update, re-validates the result, and
// invalidates the cached listing views.
func (s *PostService) Update(ctx context.Context, id int64, upd types.PostUpdate) (types.Post, error) {
	post, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Post{}, apperr.NotFound("post not found")
		}
		return types.Post{}, apperr.Internal("failed to load post", err)
	}

	if upd.Title != nil {
		post.Title = *upd.Title
	}
	if upd.AuthorName != nil {
		post.AuthorName = *upd.AuthorName
	}
	if upd.ImageLink != nil {
		post.ImageLink = *upd.ImageLink
	}
	if upd.Description != nil {
		post.Description = *upd.Description
	}
	if upd.Categories != nil {
		post.Categories = *upd.Categories
	}
	if upd.IsFeaturedPost != nil {
		post.IsFeaturedPost = *upd.IsFeaturedPost
	}

	if violations := validatePost(post); len(violations) > 0 {
		return types.Post{}, apperr.Validation("invalid post details", violations...)
	}

	updated, err := s.repo.Update(ctx, post)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Post{}, apperr.NotFound("post not found")
		}
		return types.Post{}, apperr.Internal("failed to update post", err)
	}

	s.invalidateListViews(ctx)

	s.events.PostEvent(ctx, events.PostUpdated, updated)
	return updated, nil
}

// Delete removes a post, pulls its id from the owner's posts list, and
// invalidates the cached listing views.
func (s *PostService) Delete(ctx context.Context, id int64) (types.Post, error) {
	post, err := s.repo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Post{}, apperr.NotFound("post not found")
		}
		return types.Post{}, apperr.Internal("failed to delete post", err)
	}

	if err := s.users.RemovePost(ctx, post.AuthorID, id); err != nil {
		return types.Post{}, apperr.Internal("failed to unlink post from author", err)
	}

	s.invalidateListViews(ctx)

	s.events.PostEvent(ctx, events.PostDeleted, post)
	return post, nil
}

// All serves the all-posts view cache-aside.
func (s *PostService) All(ctx context.Context) ([]types.Post, error) {
	return s.cachedList(ctx, keyAllPosts, s.repo.List)
}

// Featured serves the featured-posts view cache-aside.
func (s *PostService) Featured(ctx context.Context) ([]types.Post, error) {
	return s.cachedList(ctx, keyFeaturedPosts, s.repo.ListFeatured)
}

// Latest serves the latest-posts view cache-aside.
func (s *PostService) Latest(ctx context.Context) ([]types.Post, error) {
	return s.cachedList(ctx, keyLatestPosts, s.repo.ListLatest)
}

// ByCategory lists posts in a category. Never cached.
func (s *PostService) ByCategory(ctx context.Context, category string) ([]types.Post, error) {
	if !types.ValidCategory(category) {
		return nil, apperr.Validation("invalid category")
	}
	posts, err := s.repo.ListByCategory(ctx, category)
	if err != nil {
		return nil, apperr.Internal("failed to list posts", err)
	}
	return posts, nil
}

// RelatedByCategories lists posts filed under any of the given
// categories. Never cached.
func (s *PostService) RelatedByCategories(ctx context.Context, categories []string) ([]types.Post, error) {
	posts, err := s.repo.ListByCategories(ctx, categories)
	if err != nil {
		return nil, apperr.Internal("failed to list posts", err)
	}
	return posts, nil
}

// Get fetches a single post by id. Never cached.
func (s *PostService) Get(ctx context.Context, id int64) (types.Post, error) {
	post, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Post{}, apperr.NotFound("post not found")
		}
		return types.Post{}, apperr.Internal("failed to load post", err)
	}
	return post, nil
}

// cachedList implements the cache-aside read: cache hit wins, a miss
// fetches live and writes back unconditionally, even for empty results.
func (s *PostService) cachedList(ctx context.Context, key string, fetch func(context.Context) ([]types.Post, error)) ([]types.Post, error) {
	if raw, ok := s.cache.Get(ctx, key); ok {
		var posts []types.Post
		if err := json.Unmarshal([]byte(raw), &posts); err == nil {
			return posts, nil
		}
		s.logger.Warn("dropping corrupt cache entry", "key", key)
		s.cache.Del(ctx, key)
	}

	posts, err := fetch(ctx)
	if err != nil {
		return nil, apperr.Internal("failed to list posts", err)
	}
	if posts == nil {
		posts = []types.Post{}
	}

	if raw, err := json.Marshal(posts); err == nil {
		s.cache.Set(ctx, key, string(raw))
	}
	return posts, nil
}

// invalidateListViews drops all three cached listing views. Deletes run
// concurrently but all complete before the mutation returns; invalidation
// is unconditional, never dependent on which fields changed.
func (s *PostService) invalidateListViews(ctx context.Context) {
	var wg sync.WaitGroup
	for _, key := range []string{keyAllPosts, keyFeaturedPosts, keyLatestPosts} {
		key := key
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.cache.Del(ctx, key)
		}()
	}
	wg.Wait()
}

func validatePost(post types.Post) []string {
	var violations []string

	if post.Title == "" || post.AuthorName == "" || post.ImageLink == "" || post.Description == "" {
		violations = append(violations, "all fields are required")
	}
	if post.ImageLink != "" && !imageLinkPattern.MatchString(post.ImageLink) {
		violations = append(violations, "image link must end in .jpg, .jpeg, .png, or .webp")
	}
	if len(post.Categories) == 0 {
		violations = append(violations, "at least one category is required")
	}
	if len(post.Categories) > maxCategories {
		violations = append(violations, "maximum 3 categories are allowed")
	}
	for _, category := range post.Categories {
		if !types.ValidCategory(category) {
			violations = append(violations, fmt.Sprintf("invalid category: %s", category))
		}
	}

	return violations
}
