/*
Package server implements the application's network transport layer.
It initializes the HTTP server, configures timeouts, and exposes the coach
service over HTTP and WebSocket.
*/
package server

import (
	"fmt"
	"net/http"
	"time"

	"GainsGuide_AI/internal/coachservice"
)

// Server defines the configuration and dependencies for the HTTP service.
type Server struct {
	// port specifies the TCP port the server will listen on.
	port int

	// coach answers chat requests.
	coach *coachservice.Service

	// startTime is reported by the health endpoint.
	startTime time.Time
}

const (
	minWriteTimeout = 2 * time.Minute
	writeSlack      = 15 * time.Second
)

// NewServer initializes a new Server instance and returns a configured *http.Server.
// providerBudget is the worst-case time the whole provider chain may spend on one
// request; the write timeout is kept above it so a failed chain still gets its
// error body out.
func NewServer(port int, coach *coachservice.Service, providerBudget time.Duration) *http.Server {
	if port == 0 {
		port = 8080
	}

	newApp := &Server{
		port:      port,
		coach:     coach,
		startTime: time.Now(),
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", newApp.port),
		Handler:      newApp.RegisterRoutes(),      // Injected from routes.go
		IdleTimeout:  time.Minute,                  // Time to wait for the next request on keep-alive connections.
		ReadTimeout:  10 * time.Second,             // Maximum duration for reading the entire request.
		WriteTimeout: writeTimeout(providerBudget), // Maximum duration before timing out writes of the response.
	}

	return server
}

func writeTimeout(providerBudget time.Duration) time.Duration {
	return max(minWriteTimeout, providerBudget+writeSlack)
}
