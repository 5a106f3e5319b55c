package api

import (
	"encoding/json"
	"errors"
	"net/http"

	fgerrors "github.com/fedgraph/fedgraph/pkg/errors"
	"github.com/fedgraph/fedgraph/pkg/store"
)

// errorPayload is the wire form of an error response.
type errorPayload struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// httpStatus maps error codes to HTTP status codes: validation 400,
// duplicates and cycles 409, not-found 404, corrupt documents 422,
// everything else 500.
func httpStatus(code fgerrors.Code) int {
	switch code {
	case fgerrors.ErrCodeInvalidInput, fgerrors.ErrCodeInvalidNode, fgerrors.ErrCodeInvalidEdge,
		fgerrors.ErrCodeInvalidManifest, fgerrors.ErrCodeInvalidPath:
		return http.StatusBadRequest
	case fgerrors.ErrCodeDuplicateNode, fgerrors.ErrCodeDuplicateEdge, fgerrors.ErrCodeCycleDetected:
		return http.StatusConflict
	case fgerrors.ErrCodeNotFound, fgerrors.ErrCodeNodeNotFound, fgerrors.ErrCodeEdgeNotFound,
		fgerrors.ErrCodeGraphNotFound:
		return http.StatusNotFound
	case fgerrors.ErrCodeCorruptGraph:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps err onto the structured error payload. Engine sentinels
// pick up their codes via the errors package; store misses map to
// GRAPH_NOT_FOUND here because the store layer is not the engine's concern.
func writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrGraphNotFound) || errors.Is(err, store.ErrInvalidName) {
		code := fgerrors.ErrCodeGraphNotFound
		if errors.Is(err, store.ErrInvalidName) {
			code = fgerrors.ErrCodeInvalidInput
		}
		err = fgerrors.Wrap(code, err, "%s", err.Error())
	} else {
		err = fgerrors.FromDAG(err)
	}

	code := fgerrors.GetCode(err)
	if code == "" {
		code = fgerrors.ErrCodeInternal
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus(code))
	_ = json.NewEncoder(w).Encode(errorPayload{Error: errorBody{
		Code:    string(code),
		Message: fgerrors.UserMessage(err),
	}})
}

// writeJSON writes v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeRawJSON writes pre-marshaled JSON bytes with a 200 status.
func writeRawJSON(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
