package server

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/matzehuels/gvbind/pkg/errors"
)

type errorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

// statusFor maps an error code to an HTTP status.
func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidRef,
		errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidEngine, errors.ErrCodeInvalidPath:
		return http.StatusBadRequest
	case errors.ErrCodeAttrNotFound, errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeLayoutFailed, errors.ErrCodeRenderFailed:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	body := errorBody{RequestID: RequestID(r.Context())}

	var tooLarge *http.MaxBytesError
	if stderrors.As(err, &tooLarge) {
		body.Code = string(errors.ErrCodeInvalidInput)
		body.Message = "request body too large"
		writeJSON(w, http.StatusRequestEntityTooLarge, body)
		return
	}

	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	status := statusFor(code)
	body.Code = string(code)
	body.Message = errors.UserMessage(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "request_id", body.RequestID, "op", errors.GetOp(err), "error", err)
		body.Message = "internal error"
	} else {
		s.logger.Debug("request rejected", "request_id", body.RequestID, "code", code, "error", err)
	}
	writeJSON(w, status, body)
}

func errNotFound(msg string) error {
	return errors.New(errors.ErrCodeNotFound, "%s", msg)
}
