package request

import (
	"net/http"
	"strconv"

	"github.com/mcoot/bingohall/internal/api/apierr"
)

// Limits for the rounds listing
const (
	DefaultRoundsLimit = 20
	MaxRoundsLimit     = 100
)

// RoundsQuery holds the query parameters of GET /rounds
type RoundsQuery struct {
	Limit int
}

// ParseRoundsQuery reads ?limit=n, applying the default and the cap
func ParseRoundsQuery(r *http.Request) (RoundsQuery, error) {
	q := RoundsQuery{Limit: DefaultRoundsLimit}

	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return q, nil
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return q, apierr.NewInvalidRequestError("limit must be a positive integer")
	}
	q.Limit = min(limit, MaxRoundsLimit)
	return q, nil
}
