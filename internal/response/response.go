// Package response renders service results and failures as JSON.
package response

import (
	"net/http"

	"drafthub/pkg/apperr"
	"drafthub/pkg/logger"

	"github.com/go-chi/render"
)

// ErrResponse is the error payload for every endpoint.
type ErrResponse struct {
	Err            error `json:"-"` // low-level runtime error
	HTTPStatusCode int   `json:"-"`

	StatusText string `json:"status"`          // user-level status message
	ErrorText  string `json:"error,omitempty"` // short description safe to show
}

func (e *ErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

// FromError maps an error kind to a status code and a short message.
// Internal errors never expose their text.
func FromError(err error) *ErrResponse {
	resp := &ErrResponse{Err: err, ErrorText: err.Error()}
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		resp.HTTPStatusCode, resp.StatusText = http.StatusBadRequest, "Invalid request."
	case apperr.KindAuth:
		resp.HTTPStatusCode, resp.StatusText = http.StatusUnauthorized, "Authentication failed."
	case apperr.KindNotAuthenticated:
		resp.HTTPStatusCode, resp.StatusText = http.StatusUnauthorized, "Not logged in."
	case apperr.KindNotFound:
		resp.HTTPStatusCode, resp.StatusText = http.StatusNotFound, "Resource not found."
	case apperr.KindGeneration:
		resp.HTTPStatusCode, resp.StatusText = http.StatusBadGateway, "Generation failed."
	case apperr.KindConfiguration:
		resp.HTTPStatusCode, resp.StatusText = http.StatusInternalServerError, "Service is not configured."
	default:
		resp.HTTPStatusCode, resp.StatusText = http.StatusInternalServerError, "Internal error."
		resp.ErrorText = ""
	}
	return resp
}

// Error logs err and writes the mapped payload.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	resp := FromError(err)
	if resp.HTTPStatusCode >= http.StatusInternalServerError {
		logger.Sugar.Errorf("%s %s: %v", r.Method, r.URL.Path, err)
	} else {
		logger.Sugar.Infof("%s %s: %v", r.Method, r.URL.Path, err)
	}
	if rerr := render.Render(w, r, resp); rerr != nil {
		logger.Sugar.Errorf("Failed to render error response: %v", rerr)
	}
}

// InvalidBody writes a 400 for an undecodable request body.
func InvalidBody(w http.ResponseWriter, r *http.Request, err error) {
	Error(w, r, apperr.Wrap(apperr.KindValidation, "decode body", err))
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	render.Status(r, status)
	render.JSON(w, r, v)
}
