package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// MaxJSONBodyBytes caps JSON request bodies. Metadata requests are tiny;
// file bytes go through the multipart upload endpoint instead.
const MaxJSONBodyBytes = 1 << 20

// ParseJSON decodes JSON from the request body into the given destination.
// Unknown fields are rejected so that typos like "parentId" fail loudly
// instead of silently moving an entry to the root.
func ParseJSON(w http.ResponseWriter, r *http.Request, dest any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxJSONBodyBytes)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	return nil
}
