package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/wanderblog/apiserver/internal/store"
	"github.com/wanderblog/apiserver/types"
)

// fakeUserRepo is an in-memory UserRepository and PostOwnerRepository.
type fakeUserRepo struct {
	users          map[int64]*types.User
	nextID         int64
	failSetRefresh bool
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]*types.User)}
}

func (f *fakeUserRepo) GetByID(_ context.Context, id int64) (types.User, error) {
	if user, ok := f.users[id]; ok {
		return *user, nil
	}
	return types.User{}, store.ErrNotFound
}

func (f *fakeUserRepo) GetByUsernameOrEmail(_ context.Context, username, email string) (types.User, error) {
	// Username matches take precedence, mirroring the SQL lookup.
	for _, user := range f.users {
		if user.Username == username {
			return *user, nil
		}
	}
	for _, user := range f.users {
		if user.Email == email {
			return *user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (f *fakeUserRepo) GetByLogin(_ context.Context, usernameOrEmail string) (types.User, error) {
	for _, user := range f.users {
		if user.Username == strings.ToLower(usernameOrEmail) || user.Email == usernameOrEmail {
			return *user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (f *fakeUserRepo) Create(_ context.Context, user types.User) (types.User, error) {
	f.nextID++
	user.ID = f.nextID
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.Posts == nil {
		user.Posts = []int64{}
	}
	stored := user
	f.users[user.ID] = &stored
	return user, nil
}

func (f *fakeUserRepo) SetRefreshToken(_ context.Context, id int64, token string) error {
	if f.failSetRefresh {
		return context.DeadlineExceeded
	}
	user, ok := f.users[id]
	if !ok {
		return store.ErrNotFound
	}
	user.RefreshToken = token
	return nil
}

func (f *fakeUserRepo) SetResetToken(_ context.Context, id int64, tokenHash string, expiry time.Time) error {
	user, ok := f.users[id]
	if !ok {
		return store.ErrNotFound
	}
	user.ForgotPasswordToken = &tokenHash
	user.ForgotPasswordExpiry = &expiry
	return nil
}

func (f *fakeUserRepo) AddPost(_ context.Context, userID, postID int64) error {
	user, ok := f.users[userID]
	if !ok {
		return store.ErrNotFound
	}
	user.Posts = append(user.Posts, postID)
	return nil
}

func (f *fakeUserRepo) RemovePost(_ context.Context, userID, postID int64) error {
	user, ok := f.users[userID]
	if !ok {
		return store.ErrNotFound
	}
	posts := user.Posts[:0]
	for _, id := range user.Posts {
		if id != postID {
			posts = append(posts, id)
		}
	}
	user.Posts = posts
	return nil
}

// fakePostRepo is an in-memory PostRepository.
type fakePostRepo struct {
	posts  map[int64]*types.Post
	nextID int64
}

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{posts: make(map[int64]*types.Post)}
}

func (f *fakePostRepo) all() []types.Post {
	posts := make([]types.Post, 0, len(f.posts))
	for _, post := range f.posts {
		posts = append(posts, *post)
	}
	sort.Slice(posts, func(i, j int) bool { return posts[i].ID < posts[j].ID })
	return posts
}

func (f *fakePostRepo) List(context.Context) ([]types.Post, error) {
	return f.all(), nil
}

func (f *fakePostRepo) ListFeatured(context.Context) ([]types.Post, error) {
	var posts []types.Post
	for _, post := range f.all() {
		if post.IsFeaturedPost {
			posts = append(posts, post)
		}
	}
	return posts, nil
}

func (f *fakePostRepo) ListLatest(context.Context) ([]types.Post, error) {
	posts := f.all()
	sort.Slice(posts, func(i, j int) bool { return posts[i].CreatedAt.After(posts[j].CreatedAt) })
	return posts, nil
}

func (f *fakePostRepo) ListByCategory(_ context.Context, category string) ([]types.Post, error) {
	var posts []types.Post
	for _, post := range f.all() {
		for _, c := range post.Categories {
			if c == category {
				posts = append(posts, post)
				break
			}
		}
	}
	return posts, nil
}

func (f *fakePostRepo) ListByCategories(_ context.Context, categories []string) ([]types.Post, error) {
	wanted := make(map[string]bool, len(categories))
	for _, c := range categories {
		wanted[c] = true
	}
	var posts []types.Post
	for _, post := range f.all() {
		for _, c := range post.Categories {
			if wanted[c] {
				posts = append(posts, post)
				break
			}
		}
	}
	return posts, nil
}

func (f *fakePostRepo) Get(_ context.Context, id int64) (types.Post, error) {
	if post, ok := f.posts[id]; ok {
		return *post, nil
	}
	return types.Post{}, store.ErrNotFound
}

func (f *fakePostRepo) Create(_ context.Context, post types.Post) (types.Post, error) {
	f.nextID++
	post.ID = f.nextID
	post.CreatedAt = time.Now()
	stored := post
	f.posts[post.ID] = &stored
	return post, nil
}

func (f *fakePostRepo) Update(_ context.Context, post types.Post) (types.Post, error) {
	if _, ok := f.posts[post.ID]; !ok {
		return types.Post{}, store.ErrNotFound
	}
	stored := post
	f.posts[post.ID] = &stored
	return post, nil
}

func (f *fakePostRepo) Delete(_ context.Context, id int64) (types.Post, error) {
	post, ok := f.posts[id]
	if !ok {
		return types.Post{}, store.ErrNotFound
	}
	delete(f.posts, id)
	return *post, nil
}
