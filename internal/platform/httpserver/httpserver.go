// Package httpserver constructs the process's HTTP listener.
package httpserver

import (
	"net/http"
	"time"
)

// New wraps the handler in a server whose header read is bounded so a stalled
// client cannot pin a connection open. Per-request deadlines come from the
// router's timeout middleware, not from here.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
}
