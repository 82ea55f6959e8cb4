package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/angelmondragon/hatchery-backend/pkg/errors"
)

// IntBounds describes an optional integer query parameter.
type IntBounds struct {
	Default int
	Min     int
	Max     int
}

// QueryInt reads key from the query string, falling back to the default when
// the parameter is absent.
func QueryInt(r *http.Request, key string, bounds IntBounds) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return bounds.Default, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, key+" must be an integer").
			WithDetails(map[string]any{"field": key, "value": raw})
	}
	if value < bounds.Min || value > bounds.Max {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, key+" is out of range").
			WithDetails(map[string]any{"field": key, "min": bounds.Min, "max": bounds.Max})
	}
	return value, nil
}
