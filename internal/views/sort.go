package views

import (
	"sort"
	"strings"

	"github.com/vidtube/backend/internal/apperr"
)

// Sort orders a view by one expression. Every ordering is completed with the
// view's primary key so pages partition the result exactly.
type Sort struct {
	Key  string
	Expr string
	Desc bool
}

func (s Sort) direction() string {
	if s.Desc {
		return "DESC"
	}
	return "ASC"
}

func (s Sort) clause() string {
	return s.Expr + " " + s.direction()
}

// ParseSort resolves client sort parameters against the allowed keys. An
// empty sortBy selects def. A named key requires an explicit asc or desc.
func ParseSort(sortBy, sortType string, allowed map[string]string, def Sort) (Sort, error) {
	sortBy = strings.TrimSpace(sortBy)
	sortType = strings.ToLower(strings.TrimSpace(sortType))

	if sortBy == "" {
		if sortType != "" && sortType != "asc" && sortType != "desc" {
			return Sort{}, apperr.InvalidArgument("sortType must be asc or desc")
		}
		if sortType != "" {
			def.Desc = sortType == "desc"
		}
		return def, nil
	}

	expr, ok := allowed[sortBy]
	if !ok {
		keys := make([]string, 0, len(allowed))
		for k := range allowed {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return Sort{}, apperr.InvalidArgument("sortBy must be one of: " + strings.Join(keys, ", "))
	}

	switch sortType {
	case "asc":
		return Sort{Key: sortBy, Expr: expr}, nil
	case "desc":
		return Sort{Key: sortBy, Expr: expr, Desc: true}, nil
	default:
		return Sort{}, apperr.InvalidArgument("sortType must be asc or desc when sortBy is set")
	}
}
