package handlers

import (
	"errors"
	"net/http"

	"github.com/vidtube/backend/internal/apperr"
	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/repositories"
	"github.com/vidtube/backend/internal/response"
)

// fail writes the error envelope for err. notFound names the resource for
// repository misses, e.g. "Video not found".
func fail(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	ctx := r.Context()

	var appErr *apperr.Error
	switch {
	case errors.As(err, &appErr) && appErr.Kind != apperr.KindInternal:
		response.Error(ctx, w, appErr.Kind.Status(), appErr.Message)
	case errors.Is(err, repositories.ErrNotFound):
		response.Error(ctx, w, http.StatusNotFound, notFound)
	case errors.Is(err, repositories.ErrConflict):
		response.Error(ctx, w, http.StatusConflict, "Resource already exists")
	case errors.Is(err, auth.ErrSessionNotFound),
		errors.Is(err, auth.ErrRefreshTokenExpired),
		errors.Is(err, auth.ErrInvalidToken):
		response.Error(ctx, w, http.StatusUnauthorized, "Invalid or expired refresh token")
	default:
		logging.FromContext(ctx).Error("request failed", "error", err)
		response.Error(ctx, w, http.StatusInternalServerError, "Something went wrong")
	}
}

func ensureOwner(actor, owner, resource string) error {
	if owner == "" || owner != actor {
		return apperr.Forbidden("You are not allowed to modify this " + resource)
	}
	return nil
}
