package handler

import (
	"net/http"

	"github.com/mcoot/bingohall/internal/api/apierr"
)

// Re-exported so handlers report model error kinds without importing apierr
type APIError = apierr.APIError
type ErrorResponse = apierr.ErrorResponse

// WriteError maps err to a status code. Unknown player and round lookups become 404.
func WriteError(w http.ResponseWriter, err error) {
	apierr.WriteError(w, err)
}
