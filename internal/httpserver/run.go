package httpserver

import (
	"context"
	"fmt"
)

// Run maps all handlers and starts listening on the configured port.
// It blocks until the underlying listener fails.
func (srv HTTPServer) Run() error {
	if err := srv.mapHandlers(); err != nil {
		return err
	}

	ctx := context.Background()
	srv.l.Infof(ctx, "HTTP server listening on :%d", srv.port)

	return srv.gin.Run(fmt.Sprintf(":%d", srv.port))
}
