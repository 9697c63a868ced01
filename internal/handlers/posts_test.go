package handlers

import (
	"net/http"
	"testing"

	"github.com/wanderblog/apiserver/types"
)

func validCreateRequest() CreatePostRequest {
	return CreatePostRequest{
		Title:       "Walking the Lycian Way",
		AuthorName:  "Jo Doe",
		ImageLink:   "https://cdn.example.com/lycia.jpg",
		Description: "Four days on the Turkish coast.",
		Categories:  []string{"Travel", "Mountains"},
	}
}

func TestCreatePostRequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	// No access cookie at all.
	rec := env.do(t, http.MethodPost, "/api/posts/", validCreateRequest())
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for missing cookie", rec.Code)
	}
	resp := decodeErrorEnvelope(t, rec)
	if resp.Message != "please log in again" {
		t.Errorf("message = %q", resp.Message)
	}

	// Unverifiable access cookie.
	rec = env.do(t, http.MethodPost, "/api/posts/", validCreateRequest(),
		&http.Cookie{Name: "access_token", Value: "garbage"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403 for invalid token", rec.Code)
	}
	resp = decodeErrorEnvelope(t, rec)
	if resp.Message != "invalid token" {
		t.Errorf("message = %q", resp.Message)
	}
}

func TestCreatePost(t *testing.T) {
	env := newTestEnv(t)
	user, cookies := env.signUp(t, "writer")

	rec := env.do(t, http.MethodPost, "/api/posts/", validCreateRequest(), cookies...)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	resp := decodeEnvelope(t, rec)
	if resp.Message != "post created successfully" {
		t.Errorf("message = %q", resp.Message)
	}

	if len(env.posts.posts) != 1 {
		t.Fatalf("persisted %d posts, want 1", len(env.posts.posts))
	}
	for _, post := range env.posts.posts {
		if post.AuthorID != user.ID {
			t.Errorf("author id = %d, want %d", post.AuthorID, user.ID)
		}
	}
	if posts := env.users.users[user.ID].Posts; len(posts) != 1 {
		t.Fatalf("owner posts = %v, want one entry", posts)
	}
}

func TestCreatePostValidationError(t *testing.T) {
	env := newTestEnv(t)
	_, cookies := env.signUp(t, "writer")

	req := validCreateRequest()
	req.ImageLink = "https://cdn.example.com/photo.gif"
	rec := env.do(t, http.MethodPost, "/api/posts/", req, cookies...)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	resp := decodeErrorEnvelope(t, rec)
	if len(resp.Errors) == 0 {
		t.Fatal("expected violation details")
	}
}

func TestListEndpoints(t *testing.T) {
	env := newTestEnv(t)
	_, cookies := env.signUp(t, "writer")

	featured := validCreateRequest()
	featured.IsFeaturedPost = true
	for _, req := range []CreatePostRequest{validCreateRequest(), featured} {
		rec := env.do(t, http.MethodPost, "/api/posts/", req, cookies...)
		if rec.Code != http.StatusOK {
			t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
		}
	}

	for path, want := range map[string]int{
		"/api/posts/":                   2,
		"/api/posts/featured":           1,
		"/api/posts/latest":             2,
		"/api/posts/categories/Travel":  2,
		"/api/posts/categories/Beaches": 0,
	} {
		rec := env.do(t, http.MethodGet, path, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s status = %d, body %s", path, rec.Code, rec.Body.String())
		}
		resp := decodeEnvelope(t, rec)
		posts, ok := resp.Data.([]any)
		if !ok {
			t.Fatalf("%s data = %T, want a list", path, resp.Data)
		}
		if len(posts) != want {
			t.Errorf("%s returned %d posts, want %d", path, len(posts), want)
		}
	}
}

func TestByCategoryRejectsUnknown(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/posts/categories/Skiing", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestRelatedRequiresCategories(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/posts/related-posts-by-category", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 for missing query", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/api/posts/related-posts-by-category?categories=Travel&categories=Food", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestGetPost(t *testing.T) {
	env := newTestEnv(t)
	_, cookies := env.signUp(t, "writer")

	rec := env.do(t, http.MethodPost, "/api/posts/", validCreateRequest(), cookies...)
	if rec.Code != http.StatusOK {
		t.Fatalf("create status = %d", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/api/posts/1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodGet, "/api/posts/99", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/api/posts/not-a-number", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for malformed id", rec.Code)
	}
}

func TestUpdatePost(t *testing.T) {
	env := newTestEnv(t)
	_, cookies := env.signUp(t, "writer")

	rec := env.do(t, http.MethodPost, "/api/posts/", validCreateRequest(), cookies...)
	if rec.Code != http.StatusOK {
		t.Fatalf("create status = %d", rec.Code)
	}

	title := "A new title"
	rec = env.do(t, http.MethodPatch, "/api/posts/1", types.PostUpdate{Title: &title}, cookies...)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if env.posts.posts[1].Title != title {
		t.Errorf("title = %q, want %q", env.posts.posts[1].Title, title)
	}

	// Updates still require a session.
	rec = env.do(t, http.MethodPatch, "/api/posts/1", types.PostUpdate{Title: &title})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 without cookie", rec.Code)
	}
}

func TestDeletePost(t *testing.T) {
	env := newTestEnv(t)
	user, cookies := env.signUp(t, "writer")

	rec := env.do(t, http.MethodPost, "/api/posts/", validCreateRequest(), cookies...)
	if rec.Code != http.StatusOK {
		t.Fatalf("create status = %d", rec.Code)
	}

	rec = env.do(t, http.MethodDelete, "/api/posts/1", nil, cookies...)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if len(env.posts.posts) != 0 {
		t.Fatal("post survived deletion")
	}
	if posts := env.users.users[user.ID].Posts; len(posts) != 0 {
		t.Fatalf("owner still lists deleted post: %v", posts)
	}

	rec = env.do(t, http.MethodDelete, "/api/posts/1", nil, cookies...)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 for missing post", rec.Code)
	}
}

func TestAdminDeleteRequiresAdminRole(t *testing.T) {
	env := newTestEnv(t)
	_, cookies := env.signUp(t, "writer")

	rec := env.do(t, http.MethodPost, "/api/posts/", validCreateRequest(), cookies...)
	if rec.Code != http.StatusOK {
		t.Fatalf("create status = %d", rec.Code)
	}

	// A regular user is rejected with 401.
	rec = env.do(t, http.MethodDelete, "/api/posts/admin/1", nil, cookies...)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401 for non-admin", rec.Code)
	}
	resp := decodeErrorEnvelope(t, rec)
	if resp.Message != "unauthorized access denied" {
		t.Errorf("message = %q", resp.Message)
	}

	// Promote the user and retry.
	for _, stored := range env.users.users {
		stored.Role = types.RoleAdmin
	}
	rec = env.do(t, http.MethodDelete, "/api/posts/admin/1", nil, cookies...)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if len(env.posts.posts) != 0 {
		t.Fatal("post survived admin deletion")
	}
}
