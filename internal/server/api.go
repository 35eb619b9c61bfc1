package server

import (
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sp2yt/internal/tasks"
)

// APIOpts configures [NewAPI].
type APIOpts struct {
	Engine  tasks.Transferer
	Timeout time.Duration          // per-transfer timeout, zero for none
	Version string                 // reported by /health
	Auth    func() map[string]bool // optional credential status for /health
	Logger  *log.Logger
}

// NewAPI builds the router served by `serve`: POST /transfer and GET /health behind
// request id, logging, recovery and CORS middleware.
func NewAPI(opts APIOpts) *BasicRouter {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	router := NewBasicRouter()
	router.Use(RequestID(), Logging(logger), Recover(logger), CORS())
	router.Handle(http.MethodPost, "/transfer", NewTransferHandler(opts.Engine, opts.Timeout, logger))
	router.Handle(http.MethodGet, "/health", NewHealthHandler(opts.Version, opts.Auth))
	return router
}
