// internal/middleware/middleware.go
package middleware

import (
	"bufio"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"kitchenops/internal/logger"
)

// Request context keys
type contextKey string

const (
	RequestIDKey contextKey = "request_id"
)

const maxBodyBytes = 1 << 20

// ErrorBody is the error half of the response envelope.
type ErrorBody struct {
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type errorEnvelope struct {
	Error ErrorBody `json:"error"`
}

type dataEnvelope struct {
	Data any `json:"data"`
}

// Pagination is echoed back on paginated list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

type paginatedEnvelope struct {
	Data       any        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// =============================================================================
// MIDDLEWARE
// =============================================================================

// RequestID adds a unique request ID to each request, reusing an incoming X-Request-ID.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" || len(requestID) > 64 {
			requestID = generateRequestID()
		}
		ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Logging logs every request once it completes.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start)
		logger.LogInfow("API request completed",
			"request_id", GetRequestID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.statusCode,
			"client_ip", logger.GetClientIP(r),
			"duration_ms", duration.Milliseconds(),
		)
	})
}

// Recover turns a handler panic into a 500 envelope.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				if err == http.ErrAbortHandler {
					panic(err)
				}
				logger.LogErrorw("Panic in API handler",
					"request_id", GetRequestID(r.Context()),
					"error", fmt.Sprintf("%v", err),
					"path", r.URL.Path,
					"method", r.Method,
					"stack", string(debug.Stack()),
				)
				WriteError(w, r, http.StatusInternalServerError, "Internal server error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// Helper functions
func generateRequestID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

// =============================================================================
// RESPONSES
// =============================================================================

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.LogError("Failed to encode response for %s %s: %v", r.Method, r.URL.Path, err)
	}
}

// WriteError writes {error: {message, details?}}.
func WriteError(w http.ResponseWriter, r *http.Request, status int, message string, details any) {
	if status >= http.StatusInternalServerError {
		logger.LogHTTPError(r, status, errors.New(message))
	}
	writeJSON(w, r, status, errorEnvelope{Error: ErrorBody{Message: message, Details: details}})
}

// WriteData writes {data} with the given status.
func WriteData(w http.ResponseWriter, r *http.Request, status int, data any) {
	writeJSON(w, r, status, dataEnvelope{Data: data})
}

func WriteOK(w http.ResponseWriter, r *http.Request, data any) {
	WriteData(w, r, http.StatusOK, data)
}

func WriteCreated(w http.ResponseWriter, r *http.Request, data any) {
	WriteData(w, r, http.StatusCreated, data)
}

func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// WritePaginated writes {data, pagination}.
func WritePaginated(w http.ResponseWriter, r *http.Request, data any, total int, page PageParams) {
	writeJSON(w, r, http.StatusOK, paginatedEnvelope{
		Data: data,
		Pagination: Pagination{
			Page:       page.Page,
			PageSize:   page.PageSize,
			Total:      total,
			TotalPages: int(math.Ceil(float64(total) / float64(page.PageSize))),
		},
	})
}

// =============================================================================
// REQUEST PARSING
// =============================================================================

// ErrBadJSON marks a body that is not valid JSON.
var ErrBadJSON = errors.New("invalid JSON body")

// DecodePayload reads the JSON body as a generic value with numbers kept as
// json.Number. Schemas in the validation package interpret it.
func DecodePayload(r *http.Request) (any, error) {
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "application/json") {
		return nil, fmt.Errorf("%w: content-type must be application/json", ErrBadJSON)
	}

	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	decoder.UseNumber()

	var v any
	if err := decoder.Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: request body is empty", ErrBadJSON)
		}
		return nil, fmt.Errorf("%w: %v", ErrBadJSON, err)
	}
	if decoder.More() {
		return nil, fmt.Errorf("%w: unexpected data after JSON value", ErrBadJSON)
	}
	return v, nil
}

// PageParams is a resolved page request.
type PageParams struct {
	Page     int
	PageSize int
	Offset   int
}

const (
	defaultPageSize = 50
	maxPageSize     = 100
)

// ParsePagination reads ?page (min 1) and ?page_size (1..100, default 50).
// Unparseable values fall back to the defaults.
func ParsePagination(r *http.Request) PageParams {
	q := r.URL.Query()

	page := 1
	if n, err := strconv.Atoi(q.Get("page")); err == nil {
		page = max(1, n)
	}
	pageSize := defaultPageSize
	if n, err := strconv.Atoi(q.Get("page_size")); err == nil {
		pageSize = min(maxPageSize, max(1, n))
	}
	return PageParams{Page: page, PageSize: pageSize, Offset: (page - 1) * pageSize}
}

// =============================================================================
// RESPONSE WRITER
// =============================================================================

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}

// Flush lets streaming handlers push through the wrapper.
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := rw.ResponseWriter.(http.Hijacker); ok {
		return h.Hijack()
	}
	return nil, nil, fmt.Errorf("hijacking not supported")
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
