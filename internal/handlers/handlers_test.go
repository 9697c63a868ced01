package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/wanderblog/apiserver/internal/cache"
	"github.com/wanderblog/apiserver/internal/events"
	"github.com/wanderblog/apiserver/internal/services"
	"github.com/wanderblog/apiserver/internal/store"
	"github.com/wanderblog/apiserver/internal/token"
	"github.com/wanderblog/apiserver/types"
)

// memUserRepo backs the user service in handler tests.
type memUserRepo struct {
	users  map[int64]*types.User
	nextID int64
}

func (m *memUserRepo) GetByID(_ context.Context, id int64) (types.User, error) {
	if user, ok := m.users[id]; ok {
		return *user, nil
	}
	return types.User{}, store.ErrNotFound
}

func (m *memUserRepo) GetByUsernameOrEmail(_ context.Context, username, email string) (types.User, error) {
	for _, user := range m.users {
		if user.Username == username {
			return *user, nil
		}
	}
	for _, user := range m.users {
		if user.Email == email {
			return *user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (m *memUserRepo) GetByLogin(_ context.Context, usernameOrEmail string) (types.User, error) {
	for _, user := range m.users {
		if user.Username == strings.ToLower(usernameOrEmail) || user.Email == usernameOrEmail {
			return *user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (m *memUserRepo) Create(_ context.Context, user types.User) (types.User, error) {
	m.nextID++
	user.ID = m.nextID
	if user.Posts == nil {
		user.Posts = []int64{}
	}
	stored := user
	m.users[user.ID] = &stored
	return user, nil
}

func (m *memUserRepo) SetRefreshToken(_ context.Context, id int64, refresh string) error {
	user, ok := m.users[id]
	if !ok {
		return store.ErrNotFound
	}
	user.RefreshToken = refresh
	return nil
}

func (m *memUserRepo) SetResetToken(_ context.Context, id int64, tokenHash string, expiry time.Time) error {
	user, ok := m.users[id]
	if !ok {
		return store.ErrNotFound
	}
	user.ForgotPasswordToken = &tokenHash
	user.ForgotPasswordExpiry = &expiry
	return nil
}

func (m *memUserRepo) AddPost(_ context.Context, userID, postID int64) error {
	user, ok := m.users[userID]
	if !ok {
		return store.ErrNotFound
	}
	user.Posts = append(user.Posts, postID)
	return nil
}

func (m *memUserRepo) RemovePost(_ context.Context, userID, postID int64) error {
	user, ok := m.users[userID]
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

// memPostRepo backs the post service in handler tests.
type memPostRepo struct {
	posts  map[int64]*types.Post
	nextID int64
}

func (m *memPostRepo) all() []types.Post {
	posts := make([]types.Post, 0, len(m.posts))
	for _, post := range m.posts {
		posts = append(posts, *post)
	}
	sort.Slice(posts, func(i, j int) bool { return posts[i].ID < posts[j].ID })
	return posts
}

func (m *memPostRepo) List(context.Context) ([]types.Post, error) { return m.all(), nil }

func (m *memPostRepo) ListFeatured(context.Context) ([]types.Post, error) {
	var posts []types.Post
	for _, post := range m.all() {
		if post.IsFeaturedPost {
			posts = append(posts, post)
		}
	}
	return posts, nil
}

func (m *memPostRepo) ListLatest(context.Context) ([]types.Post, error) {
	posts := m.all()
	sort.Slice(posts, func(i, j int) bool { return posts[i].CreatedAt.After(posts[j].CreatedAt) })
	return posts, nil
}

func (m *memPostRepo) ListByCategory(_ context.Context, category string) ([]types.Post, error) {
	var posts []types.Post
	for _, post := range m.all() {
		for _, c := range post.Categories {
			if c == category {
				posts = append(posts, post)
				break
			}
		}
	}
	return posts, nil
}

func (m *memPostRepo) ListByCategories(_ context.Context, categories []string) ([]types.Post, error) {
	wanted := make(map[string]bool, len(categories))
	for _, c := range categories {
		wanted[c] = true
	}
	var posts []types.Post
	for _, post := range m.all() {
		for _, c := range post.Categories {
			if wanted[c] {
				posts = append(posts, post)
				break
			}
		}
	}
	return posts, nil
}

func (m *memPostRepo) Get(_ context.Context, id int64) (types.Post, error) {
	if post, ok := m.posts[id]; ok {
		return *post, nil
	}
	return types.Post{}, store.ErrNotFound
}

func (m *memPostRepo) Create(_ context.Context, post types.Post) (types.Post, error) {
	m.nextID++
	post.ID = m.nextID
	post.CreatedAt = time.Now()
	stored := post
	m.posts[post.ID] = &stored
	return post, nil
}

func (m *memPostRepo) Update(_ context.Context, post types.Post) (types.Post, error) {
	if _, ok := m.posts[post.ID]; !ok {
		return types.Post{}, store.ErrNotFound
	}
	stored := post
	m.posts[post.ID] = &stored
	return post, nil
}

func (m *memPostRepo) Delete(_ context.Context, id int64) (types.Post, error) {
	post, ok := m.posts[id]
	if !ok {
		return types.Post{}, store.ErrNotFound
	}
	delete(m.posts, id)
	return *post, nil
}

type testEnv struct {
	router http.Handler
	users  *memUserRepo
	posts  *memPostRepo
	tokens *token.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	users := &memUserRepo{users: make(map[int64]*types.User)}
	posts := &memPostRepo{posts: make(map[int64]*types.Post)}
	tokens := token.NewService("handler-test-secret", time.Hour, 24*time.Hour)

	userSvc := services.NewUserService(users, tokens, nil)
	postSvc := services.NewPostService(posts, users, cache.Disabled{}, events.NewPublisher(nil, nil), nil)

	requireAuth := RequireAuth(userSvc, tokens)
	requireAdmin := RequireRole(types.RoleAdmin)
	cookies := CookieConfig{}

	r := chi.NewRouter()
	r.Route("/api/auth", func(r chi.Router) {
		AuthRouter(r, userSvc, cookies, requireAuth)
	})
	r.Route("/api/posts", func(r chi.Router) {
		PostRouter(r, postSvc, requireAuth, requireAdmin)
	})

	return &testEnv{router: r, users: users, posts: posts, tokens: tokens}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// signUp registers a user through the API and returns it with the
// session cookies the server set.
func (e *testEnv) signUp(t *testing.T, username string) (types.User, []*http.Cookie) {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/api/auth/email-password/signup", SignUpRequest{
		UserName: username,
		FullName: "Test User",
		Email:    username + "@example.com",
		Password: "Str0ng#pass",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("signup status = %d, body %s", rec.Code, rec.Body.String())
	}
	var user types.User
	for _, stored := range e.users.users {
		if stored.Username == username {
			user = *stored
		}
	}
	if user.ID == 0 {
		t.Fatalf("user %q not persisted", username)
	}
	return user, rec.Result().Cookies()
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func findCookie(t *testing.T, cookies []*http.Cookie, name string) *http.Cookie {
	t.Helper()
	for _, cookie := range cookies {
		if cookie.Name == name {
			return cookie
		}
	}
	t.Fatalf("cookie %q not set (have %v)", name, cookies)
	return nil
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode envelope: %v (body %s)", err, rec.Body.String())
	}
	return resp
}

func decodeErrorEnvelope(t *testing.T, rec *httptest.ResponseRecorder) APIErrorResponse {
	t.Helper()
	var resp APIErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error envelope: %v (body %s)", err, rec.Body.String())
	}
	return resp
}
