package validators

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	pkgerrors "github.com/angelmondragon/humidityzone-backend/pkg/errors"
)

func ParseQueryInt(r *http.Request, key string, defaultVal, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultVal, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be numeric").WithDetails(map[string]any{"field": key})
	}
	if value < min || value > max {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter out of range").WithDetails(map[string]any{"field": key, "min": min, "max": max})
	}
	return value, nil
}

// ParseQueryEnum returns the lower-cased query value when it is one of allowed,
// or defaultVal when the parameter is absent.
func ParseQueryEnum(r *http.Request, key, defaultVal string, allowed ...string) (string, error) {
	raw := strings.ToLower(strings.TrimSpace(r.URL.Query().Get(key)))
	if raw == "" {
		return defaultVal, nil
	}
	for _, option := range allowed {
		if raw == option {
			return raw, nil
		}
	}
	return "", pkgerrors.New(pkgerrors.CodeValidation, key+" must be one of "+strings.Join(allowed, ", ")).
		WithDetails(map[string]any{"field": key, "allowed": allowed})
}

// ParsePathID reads a positive int64 chi URL parameter.
func ParsePathID(r *http.Request, param string) (int64, error) {
	raw := strings.TrimSpace(chi.URLParam(r, param))
	if raw == "" {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, param+" is required").WithDetails(map[string]any{"field": param})
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+param).WithDetails(map[string]any{"field": param})
	}
	if id <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, param+" must be positive").WithDetails(map[string]any{"field": param})
	}
	return id, nil
}
