package httpserver

import (
	"net/http"
	"time"
)

// New builds the API server. Header reads are bounded to shed slow-loris
// connections; per-request deadlines come from the timeout middleware, so
// no blanket write timeout is set here.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
}
