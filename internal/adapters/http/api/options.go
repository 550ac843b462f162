package api

import "github.com/okian/fantasyfamily/pkg/logger"

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithAllowedOrigins enables CORS for the given origins.
func WithAllowedOrigins(origins []string) Option {
	return func(s *Server) {
		s.allowedOrigins = origins
	}
}

// WithMaxFeedLimit caps the limit accepted by the activity feed.
func WithMaxFeedLimit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxFeedLimit = n
		}
	}
}

// WithLogger sets a custom logger for the server.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

