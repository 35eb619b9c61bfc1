package shared

import "fmt"

var (
	// Configuration errors
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrRefreshFailed    = fmt.Errorf("token refresh failed")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrPlaylistNotFound   = fmt.Errorf("playlist not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")

	// Transfer errors. Each names the pipeline stage or write outcome that failed.
	ErrSourceRead        = fmt.Errorf("source read failed")
	ErrDestinationSetup  = fmt.Errorf("destination setup failed")
	ErrSearchFailed      = fmt.Errorf("search failed")
	ErrTransientConflict = fmt.Errorf("transient conflict")
	ErrWriteExhausted    = fmt.Errorf("max retries exceeded")
	ErrUnclassifiedWrite = fmt.Errorf("write failed")
)
