package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/apperr"
	"github.com/vidtube/backend/internal/pagination"
	"github.com/vidtube/backend/internal/repositories"
)

const maxJSONBody = 1 << 20

// pathID reads a path parameter that must hold an entity id.
func pathID(r *http.Request, name string) (string, error) {
	raw := strings.TrimSpace(r.PathValue(name))
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", apperr.InvalidArgument("Invalid " + name)
	}
	return id.String(), nil
}

func pageParams(r *http.Request) pagination.Params {
	q := r.URL.Query()
	return pagination.Parse(q.Get("page"), q.Get("limit"))
}

func listOptions(r *http.Request) repositories.ListOptions {
	q := r.URL.Query()
	return repositories.ListOptions{
		Page:     pageParams(r),
		SortBy:   q.Get("sortBy"),
		SortType: q.Get("sortType"),
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return apperr.InvalidArgument("Invalid request body")
	}
	return nil
}

// required trims every field in place and rejects the request when any is empty.
func required(fields ...*string) error {
	for _, f := range fields {
		*f = strings.TrimSpace(*f)
		if *f == "" {
			return apperr.InvalidArgument("All fields are required")
		}
	}
	return nil
}
