package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/response"
)

const commentNotFound = "Comment not found"

// CommentHandler manages comments on videos.
type CommentHandler struct {
	Comments CommentStore
	Videos   VideoStore
	NowFunc  func() time.Time
}

type commentRequest struct {
	Content string `json:"content"`
}

// List handles GET /api/v1/comments/{videoId}.
func (h CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	videoID, err := pathID(r, "videoId")
	if err != nil {
		fail(w, r, err, "")
		return
	}
	if _, err := h.Videos.Detail(ctx, videoID, auth.ActorFromContext(ctx)); err != nil {
		fail(w, r, err, videoNotFound)
		return
	}

	page, err := h.Comments.ListForVideo(ctx, videoID, auth.ActorFromContext(ctx), listOptions(r))
	if err != nil {
		fail(w, r, err, videoNotFound)
		return
	}
	response.JSON(ctx, w, http.StatusOK, page, "Comments fetched successfully")
}

// Add handles POST /api/v1/comments/{videoId}.
func (h CommentHandler) Add(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	videoID, err := pathID(r, "videoId")
	if err != nil {
		fail(w, r, err, "")
		return
	}
	var req commentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, r, err, "")
		return
	}
	if err := required(&req.Content); err != nil {
		fail(w, r, err, "")
		return
	}
	if _, err := h.Videos.Detail(ctx, videoID, auth.ActorFromContext(ctx)); err != nil {
		fail(w, r, err, videoNotFound)
		return
	}

	now := h.now()
	comment := models.Comment{
		ID:        uuid.NewString(),
		OwnerID:   auth.ActorFromContext(ctx),
		VideoID:   videoID,
		Content:   req.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.Comments.Create(ctx, comment); err != nil {
		fail(w, r, err, videoNotFound)
		return
	}
	response.JSON(ctx, w, http.StatusCreated, comment, "Comment added successfully")
}

// Update handles PATCH /api/v1/comments/c/{commentId}.
func (h CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req commentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, r, err, "")
		return
	}
	if err := required(&req.Content); err != nil {
		fail(w, r, err, "")
		return
	}

	comment, ok := h.owned(w, r)
	if !ok {
		return
	}
	comment.Content, comment.UpdatedAt = req.Content, h.now()
	if err := h.Comments.Update(ctx, comment); err != nil {
		fail(w, r, err, commentNotFound)
		return
	}
	response.JSON(ctx, w, http.StatusOK, comment, "Comment updated successfully")
}

// Delete handles DELETE /api/v1/comments/c/{commentId}. Likes on the comment
// go with it.
func (h CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	comment, ok := h.owned(w, r)
	if !ok {
		return
	}
	if err := h.Comments.Delete(ctx, comment.ID); err != nil {
		fail(w, r, err, commentNotFound)
		return
	}
	response.JSON(ctx, w, http.StatusOK, map[string]string{"commentId": comment.ID}, "Comment deleted successfully")
}

func (h CommentHandler) owned(w http.ResponseWriter, r *http.Request) (models.Comment, bool) {
	ctx := r.Context()

	id, err := pathID(r, "commentId")
	if err != nil {
		fail(w, r, err, "")
		return models.Comment{}, false
	}
	comment, err := h.Comments.FindByID(ctx, id)
	if err != nil {
		fail(w, r, err, commentNotFound)
		return models.Comment{}, false
	}
	if err := ensureOwner(auth.ActorFromContext(ctx), comment.OwnerID, "comment"); err != nil {
		fail(w, r, err, "")
		return models.Comment{}, false
	}
	return comment, true
}

func (h CommentHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
