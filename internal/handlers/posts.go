package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/wanderblog/apiserver/internal/apperr"
	"github.com/wanderblog/apiserver/internal/services"
	"github.com/wanderblog/apiserver/types"
)

// PostHandler provides HTTP handlers for posts.
type PostHandler struct {
	posts *services.PostService
}

// NewPostHandler constructs a handler with the provided service.
func NewPostHandler(posts *services.PostService) *PostHandler {
	return &PostHandler{posts: posts}
}

// PostRouter registers post routes on the given router.
func PostRouter(
	r chi.Router,
	posts *services.PostService,
	requireAuth func(http.Handler) http.Handler,
	requireAdmin func(http.Handler) http.Handler,
) {
	handler := NewPostHandler(posts)

	r.Get("/", handler.All)
	r.Get("/featured", handler.Featured)
	r.Get("/latest", handler.Latest)
	r.Get("/categories/{category}", handler.ByCategory)
	r.Get("/related-posts-by-category", handler.Related)
	r.With(requireAuth).Post("/", handler.Create)
	r.With(requireAuth, requireAdmin).Delete("/admin/{postID}", handler.Delete)
	r.Route("/{postID}", func(r chi.Router) {
		r.Get("/", handler.Get)
		r.With(requireAuth).Patch("/", handler.Update)
		r.With(requireAuth).Delete("/", handler.Delete)
	})
}

type CreatePostRequest struct {
	Title          string   `json:"title"`
	AuthorName     string   `json:"authorName"`
	ImageLink      string   `json:"imageLink"`
	Description    string   `json:"description"`
	Categories     []string `json:"categories"`
	IsFeaturedPost bool     `json:"isFeaturedPost"`
}

func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, apperr.Unauthorized("unauthorized access denied"))
		return
	}

	var req CreatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.Validation("invalid request body"))
		return
	}

	created, err := h.posts.Create(r.Context(), user, types.Post{
		Title:          req.Title,
		AuthorName:     req.AuthorName,
		ImageLink:      req.ImageLink,
		Description:    req.Description,
		Categories:     req.Categories,
		IsFeaturedPost: req.IsFeaturedPost,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, created, "post created successfully")
}

func (h *PostHandler) All(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts.All(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, posts, "")
}

func (h *PostHandler) Featured(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts.Featured(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, posts, "")
}

func (h *PostHandler) Latest(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts.Latest(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, posts, "")
}

func (h *PostHandler) ByCategory(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts.ByCategory(r.Context(), chi.URLParam(r, "category"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, posts, "")
}

func (h *PostHandler) Related(w http.ResponseWriter, r *http.Request) {
	categories := r.URL.Query()["categories"]
	if len(categories) == 0 {
		writeError(w, apperr.NotFound("invalid category"))
		return
	}

	posts, err := h.posts.RelatedByCategories(r.Context(), categories)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, posts, "")
}

func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parsePostID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	post, err := h.posts.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, post, "")
}

func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parsePostID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var upd types.PostUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeError(w, apperr.Validation("invalid request body"))
		return
	}

	updated, err := h.posts.Update(r.Context(), id, upd)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, updated, "post updated successfully")
}

func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parsePostID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if _, err := h.posts.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, "", "post deleted")
}

func parsePostID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "postID"), 10, 64)
	if err != nil || id < 1 {
		return 0, apperr.Validation("invalid post id")
	}
	return id, nil
}
