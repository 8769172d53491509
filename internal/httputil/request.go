package httputil

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/ayush/myflix/internal/common"
)

// MaxBodyBytes caps request bodies; the API only accepts small JSON documents.
const MaxBodyBytes = 1 << 20

// DecodeJSON decodes the request body into dest. Failures wrap common.ErrValidation.
func DecodeJSON(r *http.Request, dest interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, MaxBodyBytes))
	if err := dec.Decode(dest); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", common.ErrValidation, err)
	}
	return nil
}

// DecodeForm fills fields from an urlencoded form. set is called with each
// (key, first value) pair.
func DecodeForm(r *http.Request, set func(key, value string)) error {
	r.Body = http.MaxBytesReader(nil, r.Body, MaxBodyBytes)
	if err := r.ParseForm(); err != nil {
		return fmt.Errorf("%w: invalid form body: %v", common.ErrValidation, err)
	}
	for key, values := range r.PostForm {
		if len(values) > 0 {
			set(key, values[0])
		}
	}
	return nil
}

// IsForm reports whether the request carries urlencoded form data.
func IsForm(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	return mt == "application/x-www-form-urlencoded"
}
