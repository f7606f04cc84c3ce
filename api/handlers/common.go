package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/agentbridge/types"
)

// maxBodyBytes bounds request bodies accepted by the API.
const maxBodyBytes = 1 << 20

// Response is the envelope every endpoint answers with.
type Response struct {
	Success   bool       `json:"success"`
	Data      any        `json:"data,omitempty"`
	Error     *ErrorInfo `json:"error,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
	RequestID string     `json:"request_id,omitempty"`
}

// ErrorInfo is the serialized form of a bridge error.
type ErrorInfo struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
	AgentID   string `json:"agent_id,omitempty"`
	Protocol  string `json:"protocol,omitempty"`
}

// WriteJSON writes data as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a success envelope around data.
func WriteSuccess(w http.ResponseWriter, r *http.Request, data any) {
	requestID, _ := types.RequestID(r.Context())
	WriteJSON(w, http.StatusOK, Response{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC(),
		RequestID: requestID,
	})
}

// WriteError writes an error envelope. The HTTP status comes from the error
// itself when set, otherwise from the code mapping.
func WriteError(w http.ResponseWriter, r *http.Request, err *types.Error, logger *zap.Logger) {
	status := err.HTTPStatus
	if status == 0 {
		status = mapErrorCodeToHTTPStatus(err.Code)
	}

	if logger != nil {
		logger.Warn("request failed",
			zap.String("code", string(err.Code)),
			zap.String("message", err.Message),
			zap.Int("status", status),
			zap.Bool("retryable", err.Retryable),
			zap.Error(err.Cause))
	}

	requestID, _ := types.RequestID(r.Context())
	WriteJSON(w, status, Response{
		Success: false,
		Error: &ErrorInfo{
			Code:      string(err.Code),
			Message:   err.Message,
			Retryable: err.Retryable,
			AgentID:   err.AgentID,
			Protocol:  err.Protocol,
		},
		Timestamp: time.Now().UTC(),
		RequestID: requestID,
	})
}

// WriteErrorMessage writes a plain error with an explicit status.
func WriteErrorMessage(w http.ResponseWriter, r *http.Request, status int, code types.ErrorCode, message string, logger *zap.Logger) {
	WriteError(w, r, types.NewError(code, message).WithHTTPStatus(status), logger)
}

// mapErrorCodeToHTTPStatus maps bridge error codes to HTTP statuses.
func mapErrorCodeToHTTPStatus(code types.ErrorCode) int {
	switch code {
	case types.ErrInvalidRequest:
		return http.StatusBadRequest
	case types.ErrAgentNotFound:
		return http.StatusNotFound
	case types.ErrRoutingNoCandidate:
		return http.StatusUnprocessableEntity
	case types.ErrRoutingBackendUnavailable:
		return http.StatusServiceUnavailable
	case types.ErrRoutingValidationRejected,
		types.ErrDiscoveryUnreachable,
		types.ErrDiscoveryMalformed,
		types.ErrDiscoveryUnsupportedVersion,
		types.ErrExecutionNetwork,
		types.ErrExecutionNonSuccess,
		types.ErrExecutionMalformed:
		return http.StatusBadGateway
	case types.ErrDiscoveryTimeout, types.ErrExecutionTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// DecodeJSONBody decodes a JSON request body into dst, rejecting unknown
// fields and bodies over maxBodyBytes. On failure it writes the error
// response itself and returns the error.
func DecodeJSONBody(w http.ResponseWriter, r *http.Request, dst any, logger *zap.Logger) error {
	if r.Body == nil {
		err := types.NewError(types.ErrInvalidRequest, "request body is empty")
		WriteError(w, r, err, logger)
		return err
	}

	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		apiErr := types.NewError(types.ErrInvalidRequest, "invalid JSON body").
			WithCause(err).
			WithHTTPStatus(http.StatusBadRequest)
		WriteError(w, r, apiErr, logger)
		return apiErr
	}
	return nil
}

// RequireMethod rejects requests whose method differs, writing the 405
// itself. Returns true when the method matches.
func RequireMethod(w http.ResponseWriter, r *http.Request, method string, logger *zap.Logger) bool {
	if r.Method != method {
		w.Header().Set("Allow", method)
		WriteErrorMessage(w, r, http.StatusMethodNotAllowed, types.ErrInvalidRequest,
			"method not allowed", logger)
		return false
	}
	return true
}

// ResponseWriter wraps http.ResponseWriter to capture the status code.
type ResponseWriter struct {
	http.ResponseWriter
	StatusCode int
	Written    bool
}

// NewResponseWriter wraps w with status capture.
func NewResponseWriter(w http.ResponseWriter) *ResponseWriter {
	return &ResponseWriter{
		ResponseWriter: w,
		StatusCode:     http.StatusOK,
	}
}

// WriteHeader captures the first status code written.
func (rw *ResponseWriter) WriteHeader(code int) {
	if !rw.Written {
		rw.StatusCode = code
		rw.Written = true
		rw.ResponseWriter.WriteHeader(code)
	}
}

// Write marks the response as written before delegating.
func (rw *ResponseWriter) Write(b []byte) (int, error) {
	if !rw.Written {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}
