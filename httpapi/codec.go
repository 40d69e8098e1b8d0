package httpapi

import (
	"net/http"
	"strconv"

	jsoniter "github.com/json-iterator/go"

	"github.com/labinf/libraryapi/core"
)

var json = jsoniter.ConfigFastest

const contentTypeJSON = "application/json"

// apiErrors is the error body shape: {"errors": ["..."]}.
type apiErrors struct {
	Errors []string `json:"errors"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeErrors(w http.ResponseWriter, status int, messages ...string) {
	writeJSON(w, status, apiErrors{Errors: messages})
}

func decodeBody(w http.ResponseWriter, r *http.Request, into any) bool {
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		writeErrors(w, http.StatusBadRequest, "malformed request body")
		return false
	}

	return true
}

// pageRequest reads the page and size query parameters. Unparsable or
// missing values fall back to the defaults via normalization.
func pageRequest(r *http.Request) core.PageRequest {
	query := r.URL.Query()

	page, _ := strconv.Atoi(query.Get("page"))
	size, _ := strconv.Atoi(query.Get("size"))

	return core.PageRequest{Number: page, Size: size}.Normalized()
}
