package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/apperr"
	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
	"github.com/vidtube/backend/internal/response"
)

const videoNotFound = "Video not found"

// VideoHandler manages video publishing and discovery.
type VideoHandler struct {
	Videos  VideoStore
	Media   MediaStorage
	Prober  DurationProber
	Janitor AssetDiscarder
	Uploads Uploads
	NowFunc func() time.Time
}

// List handles GET /api/v1/videos. Supports query, userId, sortBy, sortType,
// page and limit.
func (h VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	filter := repositories.VideoListFilter{
		Query:  q.Get("query"),
		Viewer: auth.ActorFromContext(ctx),
	}
	if raw := strings.TrimSpace(q.Get("userId")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			fail(w, r, apperr.InvalidArgument("Invalid userId"), "")
			return
		}
		filter.OwnerID = id.String()
	}

	page, err := h.Videos.List(ctx, filter, listOptions(r))
	if err != nil {
		fail(w, r, err, "")
		return
	}
	response.JSON(ctx, w, http.StatusOK, page, "Videos fetched successfully")
}

// Publish handles POST /api/v1/videos.
func (h VideoHandler) Publish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.Uploads.parse(w, r); err != nil {
		fail(w, r, err, "")
		return
	}
	title, description := r.FormValue("title"), r.FormValue("description")
	if err := required(&title, &description); err != nil {
		fail(w, r, err, "")
		return
	}

	videoPath, err := h.Uploads.stageRequired(r, "videoFile")
	if err != nil {
		fail(w, r, err, "")
		return
	}
	thumbnailPath, err := h.Uploads.stageRequired(r, "thumbnail")
	if err != nil {
		discardLocal(ctx, videoPath)
		fail(w, r, err, "")
		return
	}

	// probe before upload; the staged file is gone afterwards
	var duration float64
	if h.Prober != nil {
		duration = h.Prober.DurationOrZero(ctx, videoPath)
	}

	videoFile, err := upload(ctx, h.Media, "videoFile", videoPath)
	if err != nil {
		discardLocal(ctx, thumbnailPath)
		fail(w, r, err, "")
		return
	}
	thumbnail, err := upload(ctx, h.Media, "thumbnail", thumbnailPath)
	if err != nil {
		h.discard(ctx, videoFile)
		fail(w, r, err, "")
		return
	}

	now := h.now()
	video := models.Video{
		ID:          uuid.NewString(),
		OwnerID:     auth.ActorFromContext(ctx),
		VideoFile:   videoFile,
		Thumbnail:   thumbnail,
		Title:       title,
		Description: description,
		Duration:    duration,
		IsPublished: true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.Videos.Create(ctx, video); err != nil {
		h.discard(ctx, videoFile, thumbnail)
		fail(w, r, err, "")
		return
	}

	logging.FromContext(ctx).Info("video published", "videoId", video.ID)
	response.JSON(ctx, w, http.StatusCreated, video, "Video published successfully")
}

// Get handles GET /api/v1/videos/{videoId}. Each read counts as a view and
// lands in the viewer's watch history.
func (h VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	viewer := auth.ActorFromContext(ctx)

	id, err := pathID(r, "videoId")
	if err != nil {
		fail(w, r, err, "")
		return
	}

	if err := h.Videos.RecordView(ctx, id, viewer); err != nil {
		fail(w, r, err, videoNotFound)
		return
	}
	video, err := h.Videos.Detail(ctx, id, viewer)
	if err != nil {
		fail(w, r, err, videoNotFound)
		return
	}
	response.JSON(ctx, w, http.StatusOK, video, "Video fetched successfully")
}

// Update handles PATCH /api/v1/videos/{videoId}. A new thumbnail is optional;
// the old one is discarded only after the record points at the new one.
func (h VideoHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	video, ok := h.owned(w, r)
	if !ok {
		return
	}

	if err := h.Uploads.parse(w, r); err != nil {
		fail(w, r, err, "")
		return
	}
	title, description := r.FormValue("title"), r.FormValue("description")
	if err := required(&title, &description); err != nil {
		fail(w, r, err, "")
		return
	}

	thumbnailPath, err := h.Uploads.stage(r, "thumbnail")
	if err != nil {
		fail(w, r, err, "")
		return
	}

	previous := video.Thumbnail
	var replaced bool
	if thumbnailPath != "" {
		if video.Thumbnail, err = upload(ctx, h.Media, "thumbnail", thumbnailPath); err != nil {
			fail(w, r, err, "")
			return
		}
		replaced = true
	}

	video.Title, video.Description, video.UpdatedAt = title, description, h.now()
	if err := h.Videos.Update(ctx, video); err != nil {
		if replaced {
			h.discard(ctx, video.Thumbnail)
		}
		fail(w, r, err, videoNotFound)
		return
	}
	if replaced {
		h.discard(ctx, previous)
	}

	response.JSON(ctx, w, http.StatusOK, video, "Video updated successfully")
}

// Delete handles DELETE /api/v1/videos/{videoId}.
func (h VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	video, ok := h.owned(w, r)
	if !ok {
		return
	}

	assets, err := h.Videos.Delete(ctx, video.ID)
	if err != nil {
		fail(w, r, err, videoNotFound)
		return
	}
	h.discard(ctx, assets...)

	response.JSON(ctx, w, http.StatusOK, map[string]string{"videoId": video.ID}, "Video deleted successfully")
}

// TogglePublish handles PATCH /api/v1/videos/toggle/publish/{videoId}.
func (h VideoHandler) TogglePublish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	video, ok := h.owned(w, r)
	if !ok {
		return
	}

	published, err := h.Videos.TogglePublished(ctx, video.ID)
	if err != nil {
		fail(w, r, err, videoNotFound)
		return
	}
	response.JSON(ctx, w, http.StatusOK, map[string]any{"videoId": video.ID, "isPublished": published}, "Video publish status toggled")
}

// owned loads the video named in the path and checks the actor owns it,
// writing the error response otherwise.
func (h VideoHandler) owned(w http.ResponseWriter, r *http.Request) (models.Video, bool) {
	ctx := r.Context()

	id, err := pathID(r, "videoId")
	if err != nil {
		fail(w, r, err, "")
		return models.Video{}, false
	}
	video, err := h.Videos.FindByID(ctx, id)
	if err != nil {
		fail(w, r, err, videoNotFound)
		return models.Video{}, false
	}
	if err := ensureOwner(auth.ActorFromContext(ctx), video.OwnerID, "video"); err != nil {
		fail(w, r, err, "")
		return models.Video{}, false
	}
	return video, true
}

func (h VideoHandler) discard(ctx context.Context, assets ...models.MediaAsset) {
	if h.Janitor != nil {
		h.Janitor.Discard(ctx, assets...)
	}
}

func (h VideoHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
