// Package bind decodes JSON request bodies into structs and runs
// validation in one step.
package bind

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/shashiranjanraj/sehatly/config"
	"github.com/shashiranjanraj/sehatly/pkg/validate"
)

const defaultMaxBodyBytes = 4 << 20 // 4MB

// JSON decodes the request body into dst and validates it.
// Returns (validationErrors, nil) when the body parsed but failed
// validation, and (nil, err) when the body could not be parsed at all.
func JSON(w http.ResponseWriter, r *http.Request, dst interface{}) (map[string]string, error) {
	max := int64(defaultMaxBodyBytes)
	if raw := config.Get("MAX_BODY_BYTES", ""); raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil && n > 0 {
			max = n
		}
	}
	r.Body = http.MaxBytesReader(w, r.Body, max)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return nil, err
	}

	if errs := validate.Struct(dst); validate.HasErrors(errs) {
		return errs, nil
	}
	return nil, nil
}
