package common

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/bytedance/sonic"
)

// HttpError carries the status code a handler error should be answered with.
type HttpError struct {
	Status int
	Err    error
}

func (e *HttpError) Error() string {
	return e.Err.Error()
}

func (e *HttpError) Unwrap() error {
	return e.Err
}

func BadRequest(err error) error {
	return &HttpError{Status: http.StatusBadRequest, Err: err}
}

func NotFound(err error) error {
	return &HttpError{Status: http.StatusNotFound, Err: err}
}

func MethodNotAllowed(r *http.Request) error {
	return &HttpError{Status: http.StatusMethodNotAllowed, Err: fmt.Errorf("method %s not allowed", r.Method)}
}

// JsonHandler wraps fn with CORS preflight handling and error logging. Fn
// returns the value to encode as JSON. Errors are answered with the status
// of an *HttpError, or 500.
func JsonHandler(fn func(w http.ResponseWriter, r *http.Request) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			RespondToOptions(w, r)
			return
		}
		data, err := fn(w, r)
		if err != nil {
			status := http.StatusInternalServerError
			var httpErr *HttpError
			if errors.As(err, &httpErr) {
				status = httpErr.Status
			}
			log.Printf("error handling %s %s: %v", r.Method, r.URL.Path, err)
			http.Error(w, err.Error(), status)
			return
		}
		WriteJson(w, r, http.StatusOK, data)
	}
}

func WriteJson(w http.ResponseWriter, r *http.Request, status int, data any) {
	bytes, err := sonic.Marshal(data)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	if origin := r.Header.Get("Origin"); origin != "" {
		w.Header().Set("Access-Control-Allow-Origin", origin)
	}
	w.WriteHeader(status)
	w.Write(bytes)
}

func RespondToOptions(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "public, max-age=3600")
	origin := r.Header.Get("Origin")
	if origin != "" {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Max-Age", "86400")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")
		w.Header().Set("Access-Control-Allow-Credentials", "true")
	}
	w.Header().Set("Age", "0")
	w.WriteHeader(http.StatusAccepted)
}
