package api

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gowebpki/jcs"
)

// ETag returns a strong entity tag over the RFC 8785 canonical form of v.
func ETag(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal: %w", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("canonicalize: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return `"sha256-` + hex.EncodeToString(sum[:]) + `"`, nil
}

// WriteCacheable writes v with an ETag and answers 304 when the request's
// If-None-Match already names it.
func WriteCacheable(w http.ResponseWriter, r *http.Request, v any) {
	tag, err := ETag(v)
	if err != nil {
		WriteInternal(w, r, err)
		return
	}
	w.Header().Set("ETag", tag)
	if matches(r.Header.Get("If-None-Match"), tag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	WriteJSON(w, http.StatusOK, v)
}

func matches(header, tag string) bool {
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == "*" || candidate == tag {
			return true
		}
	}
	return false
}
