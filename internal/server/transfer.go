package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sp2yt/internal/models"
	"github.com/desertthunder/sp2yt/internal/shared"
	"github.com/desertthunder/sp2yt/internal/tasks"
)

// maxRequestBody bounds the JSON body of POST /transfer.
const maxRequestBody = 1 << 20

// TransferResponse is the body of a successful POST /transfer.
type TransferResponse struct {
	Message    string                `json:"message"`
	ID         string                `json:"id"`
	Status     models.TransferStatus `json:"status"`
	Counts     models.TransferCounts `json:"counts"`
	PlaylistID string                `json:"playlist_id"`
}

// TransferHandler runs one synchronous transfer per request.
type TransferHandler struct {
	engine  tasks.Transferer
	timeout time.Duration
	logger  *log.Logger
}

// NewTransferHandler creates a handler over engine. A zero timeout lets transfers run as long as the client waits.
func NewTransferHandler(engine tasks.Transferer, timeout time.Duration, logger *log.Logger) *TransferHandler {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &TransferHandler{engine: engine, timeout: timeout, logger: logger}
}

func (h *TransferHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req models.TransferRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := dec.Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err), tasks.ParsingInput.String())
		return
	}

	ctx := r.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	report, err := h.engine.Run(ctx, req, nil)
	if err != nil {
		status, detail, stage := describeError(err)
		h.logger.Warn("transfer request failed", "status", status, "stage", stage, "error", err, "request_id", RequestIDFrom(r.Context()))
		WriteError(w, status, detail, stage)
		return
	}

	s := report.Summary
	WriteJSON(w, http.StatusOK, TransferResponse{
		Message:    "Playlist transfer completed",
		ID:         s.ID,
		Status:     s.Status,
		Counts:     s.Counts,
		PlaylistID: s.DestinationPlaylistID,
	})
}

// describeError maps a transfer error to a status code, a client-facing detail and the failed stage.
func describeError(err error) (status int, detail, stage string) {
	var terr *tasks.TransferError
	if errors.As(err, &terr) {
		stage = terr.Phase.String()
	}

	detail = err.Error()
	if terr != nil && terr.Err != nil {
		detail = terr.Err.Error()
	}

	switch {
	case errors.Is(err, shared.ErrInvalidInput):
		return http.StatusBadRequest, strings.TrimPrefix(detail, shared.ErrInvalidInput.Error()+": "), stage
	case errors.Is(err, shared.ErrNotAuthenticated), errors.Is(err, shared.ErrMissingCredentials), errors.Is(err, shared.ErrRefreshFailed):
		return http.StatusUnauthorized, detail, stage
	case errors.Is(err, shared.ErrSourceRead), errors.Is(err, shared.ErrDestinationSetup),
		errors.Is(err, shared.ErrSearchFailed), errors.Is(err, shared.ErrUnclassifiedWrite):
		return http.StatusBadGateway, detail, stage
	default:
		return http.StatusInternalServerError, detail, stage
	}
}
