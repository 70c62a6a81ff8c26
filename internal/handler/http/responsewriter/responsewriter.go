// Package responsewriter records what a handler sent: the status, the body
// size and whether the header is already committed. One recorder is shared
// by every middleware layer of a request.
package responsewriter

import (
	"net/http"
)

// ResponseWriter wraps http.ResponseWriter and records the response.
type ResponseWriter struct {
	http.ResponseWriter
	status int
	bytes  int64
}

// Wrap returns a recorder for w. When w already is one, it is returned
// as is, so the access log, metrics and the span all see the same response.
func Wrap(w http.ResponseWriter) *ResponseWriter {
	if rw, ok := w.(*ResponseWriter); ok {
		return rw
	}
	return &ResponseWriter{ResponseWriter: w}
}

// WriteHeader records the first status code and forwards it. Later calls
// are dropped instead of triggering "superfluous WriteHeader" warnings.
func (w *ResponseWriter) WriteHeader(statusCode int) {
	if w.status != 0 {
		return
	}
	w.status = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

// Write commits an implicit 200 on first use and counts the body bytes.
func (w *ResponseWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += int64(n)
	return n, err
}

// Flush forwards to the underlying writer when it supports flushing.
func (w *ResponseWriter) Flush() {
	if w.status == 0 {
		w.WriteHeader(http.StatusOK)
	}
	_ = http.NewResponseController(w.ResponseWriter).Flush()
}

// StatusCode returns the status sent, or 200 when the handler wrote nothing.
func (w *ResponseWriter) StatusCode() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

// BytesWritten returns the number of body bytes sent.
func (w *ResponseWriter) BytesWritten() int64 {
	return w.bytes
}

// Committed reports whether the status line has been sent.
func (w *ResponseWriter) Committed() bool {
	return w.status != 0
}

// Unwrap returns the underlying http.ResponseWriter (for http.ResponseController support).
func (w *ResponseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// Committed reports whether a response has started on w. Writers that are
// not recorders are assumed uncommitted.
func Committed(w http.ResponseWriter) bool {
	rw, ok := w.(*ResponseWriter)
	return ok && rw.Committed()
}
