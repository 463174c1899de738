package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Library store errors
	ErrLibraryUnavailable = fmt.Errorf("library API unreachable")
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrTrackNotFound      = fmt.Errorf("track not found")
	ErrPlaylistNotFound   = fmt.Errorf("playlist not found")
	ErrWriteRejected      = fmt.Errorf("library write rejected")

	// Classifier errors
	ErrNotTrained     = fmt.Errorf("classifier not trained")
	ErrModelNotFound  = fmt.Errorf("model file not found")
	ErrNoTrainingData = fmt.Errorf("no training data provided")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
)
