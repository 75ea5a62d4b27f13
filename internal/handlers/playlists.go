package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/apperr"
	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
	"github.com/vidtube/backend/internal/response"
)

const playlistNotFound = "Playlist not found"

var errAlreadyInPlaylist = apperr.Conflict("Video already in playlist")

// PlaylistHandler manages playlists and their videos.
type PlaylistHandler struct {
	Playlists PlaylistStore
	Users     UserFinder
	Videos    VideoStore
	NowFunc   func() time.Time
}

type playlistRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h PlaylistHandler) decode(w http.ResponseWriter, r *http.Request) (playlistRequest, error) {
	var req playlistRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return req, err
	}
	return req, required(&req.Name, &req.Description)
}

// Create handles POST /api/v1/playlists.
func (h PlaylistHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, err := h.decode(w, r)
	if err != nil {
		fail(w, r, err, "")
		return
	}

	now := h.now()
	playlist := models.Playlist{
		ID:          uuid.NewString(),
		OwnerID:     auth.ActorFromContext(ctx),
		Name:        req.Name,
		Description: req.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.Playlists.Create(ctx, playlist); err != nil {
		fail(w, r, err, "User not found")
		return
	}
	response.JSON(ctx, w, http.StatusCreated, playlist, "Playlist created successfully")
}

// Get handles GET /api/v1/playlists/{playlistId}.
func (h PlaylistHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "playlistId")
	if err != nil {
		fail(w, r, err, "")
		return
	}
	h.respondWithDetail(w, r, id, http.StatusOK, "Playlist fetched successfully")
}

// ListForUser handles GET /api/v1/playlists/user/{userId}.
func (h PlaylistHandler) ListForUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := pathID(r, "userId")
	if err != nil {
		fail(w, r, err, "")
		return
	}
	if _, err := h.Users.FindByID(ctx, userID); err != nil {
		fail(w, r, err, "User not found")
		return
	}

	page, err := h.Playlists.ListForUser(ctx, userID, auth.ActorFromContext(ctx), listOptions(r))
	if err != nil {
		fail(w, r, err, "")
		return
	}
	response.JSON(ctx, w, http.StatusOK, page, "Playlists fetched successfully")
}

// Update handles PATCH /api/v1/playlists/{playlistId}.
func (h PlaylistHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, err := h.decode(w, r)
	if err != nil {
		fail(w, r, err, "")
		return
	}
	playlist, ok := h.owned(w, r)
	if !ok {
		return
	}

	playlist.Name, playlist.Description, playlist.UpdatedAt = req.Name, req.Description, h.now()
	if err := h.Playlists.Update(ctx, playlist); err != nil {
		fail(w, r, err, playlistNotFound)
		return
	}
	response.JSON(ctx, w, http.StatusOK, playlist, "Playlist updated successfully")
}

// Delete handles DELETE /api/v1/playlists/{playlistId}.
func (h PlaylistHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	playlist, ok := h.owned(w, r)
	if !ok {
		return
	}
	if err := h.Playlists.Delete(ctx, playlist.ID); err != nil {
		fail(w, r, err, playlistNotFound)
		return
	}
	response.JSON(ctx, w, http.StatusOK, map[string]string{"playlistId": playlist.ID}, "Playlist deleted successfully")
}

// AddVideo handles PATCH /api/v1/playlists/add/{videoId}/{playlistId}.
func (h PlaylistHandler) AddVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	playlist, videoID, ok := h.entry(w, r)
	if !ok {
		return
	}
	// drafts of other users stay hidden
	if _, err := h.Videos.Detail(ctx, videoID, auth.ActorFromContext(ctx)); err != nil {
		fail(w, r, err, videoNotFound)
		return
	}

	err := h.Playlists.AddVideo(ctx, playlist.ID, videoID)
	if errors.Is(err, repositories.ErrConflict) {
		fail(w, r, errAlreadyInPlaylist, "")
		return
	}
	if err != nil {
		fail(w, r, err, playlistNotFound)
		return
	}
	h.respondWithDetail(w, r, playlist.ID, http.StatusOK, "Video added to playlist")
}

// RemoveVideo handles PATCH /api/v1/playlists/remove/{videoId}/{playlistId}.
func (h PlaylistHandler) RemoveVideo(w http.ResponseWriter, r *http.Request) {
	playlist, videoID, ok := h.entry(w, r)
	if !ok {
		return
	}

	if err := h.Playlists.RemoveVideo(r.Context(), playlist.ID, videoID); err != nil {
		fail(w, r, err, "Video not in playlist")
		return
	}
	h.respondWithDetail(w, r, playlist.ID, http.StatusOK, "Video removed from playlist")
}

// entry resolves the owned playlist and the video id of an add/remove request.
func (h PlaylistHandler) entry(w http.ResponseWriter, r *http.Request) (models.Playlist, string, bool) {
	videoID, err := pathID(r, "videoId")
	if err != nil {
		fail(w, r, err, "")
		return models.Playlist{}, "", false
	}
	playlist, ok := h.owned(w, r)
	if !ok {
		return models.Playlist{}, "", false
	}
	return playlist, videoID, true
}

func (h PlaylistHandler) owned(w http.ResponseWriter, r *http.Request) (models.Playlist, bool) {
	ctx := r.Context()

	id, err := pathID(r, "playlistId")
	if err != nil {
		fail(w, r, err, "")
		return models.Playlist{}, false
	}
	playlist, err := h.Playlists.FindByID(ctx, id)
	if err != nil {
		fail(w, r, err, playlistNotFound)
		return models.Playlist{}, false
	}
	if err := ensureOwner(auth.ActorFromContext(ctx), playlist.OwnerID, "playlist"); err != nil {
		fail(w, r, err, "")
		return models.Playlist{}, false
	}
	return playlist, true
}

func (h PlaylistHandler) respondWithDetail(w http.ResponseWriter, r *http.Request, id string, status int, message string) {
	ctx := r.Context()

	playlist, err := h.Playlists.Detail(ctx, id, auth.ActorFromContext(ctx))
	if err != nil {
		fail(w, r, err, playlistNotFound)
		return
	}
	response.JSON(ctx, w, status, playlist, message)
}

func (h PlaylistHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
