// Package middleware holds the go-restful filters and error helpers shared
// by the HTTP handlers.
package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/emicklei/go-restful/v3"
	"github.com/rs/zerolog"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

// HandleError writes err as an ErrorResponse with the given status.
func HandleError(resp *restful.Response, err error, status int) {
	resp.WriteHeaderAndEntity(status, ErrorResponse{
		Error:  err.Error(),
		Status: status,
	})
}

// Logger logs one line per request.
func Logger(logger zerolog.Logger) restful.FilterFunction {
	return func(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
		start := time.Now()
		chain.ProcessFilter(req, resp)

		status := resp.StatusCode()
		event := logger.Info()
		switch {
		case status >= 500:
			event = logger.Error()
		case status >= 400:
			event = logger.Warn()
		}
		event.
			Str("method", req.Request.Method).
			Str("path", req.Request.URL.Path).
			Str("query", req.Request.URL.RawQuery).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Msg("request")
	}
}

// RecoverPanic turns a panicking handler into a 500 response.
func RecoverPanic(logger zerolog.Logger) restful.FilterFunction {
	return func(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error().
					Interface("panic", r).
					Str("path", req.Request.URL.Path).
					Bytes("stack", debug.Stack()).
					Msg("handler panicked")
				HandleError(resp, fmt.Errorf("internal server error"), http.StatusInternalServerError)
			}
		}()
		chain.ProcessFilter(req, resp)
	}
}
