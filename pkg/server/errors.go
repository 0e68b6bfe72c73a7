package server

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/vango-dev/vpatch/internal/errors"
)

// errorBody is the JSON shape of an error response.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
	Path    string `json:"path,omitempty"`
}

// statusFor maps an error code to an HTTP status.
func statusFor(code string) int {
	switch code {
	case "E200", "E201", "E204", "E210", "E211", "E212", "E213", "E231":
		return http.StatusBadRequest
	case "E230", "E251":
		return http.StatusNotFound
	case "E252":
		return http.StatusGone
	case "E253":
		return http.StatusConflict
	case "E250":
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// writeError writes err as a JSON error response.
func writeError(w http.ResponseWriter, err error) {
	body := errorBody{Code: "E000", Message: http.StatusText(http.StatusInternalServerError)}
	var ve *errors.Error
	if stderrors.As(err, &ve) && ve.Code != "" {
		body = errorBody{Code: ve.Code, Message: ve.Message, Detail: ve.Detail}
		if len(ve.Path) > 0 {
			body.Path = ve.Path.String()
		}
	}
	writeJSON(w, statusFor(body.Code), body)
}

// badRequest writes a 400 for malformed request bodies.
func badRequest(w http.ResponseWriter, detail string) {
	writeJSON(w, http.StatusBadRequest, errorBody{
		Code:    "E213",
		Message: "Invalid snapshot document",
		Detail:  detail,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
