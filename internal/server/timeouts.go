package server

import "time"

// Upload endpoints accept bodies up to 8 MB and the enrichment endpoint
// can hold a request for its full 10s provider deadline, so both request
// timeouts sit above those bounds.
const (
	readTimeout  = 15 * time.Second
	writeTimeout = 30 * time.Second
	idleTimeout  = 2 * time.Minute
)

// shutdownTimeout is a var so tests can shorten it.
var shutdownTimeout = 10 * time.Second
