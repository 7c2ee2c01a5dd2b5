package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Task and checkpoint errors
	ErrTaskNotFound      = fmt.Errorf("task not found")
	ErrTaskNotResumable  = fmt.Errorf("task is not resumable")
	ErrTaskAlreadyFinal  = fmt.Errorf("task already reached a terminal status")
	ErrCheckpointCorrupt = fmt.Errorf("checkpoint file is corrupt")

	// Library errors
	ErrTrackNotFound  = fmt.Errorf("track not found")
	ErrLibraryMissing = fmt.Errorf("library root does not exist")

	// Analysis and lookup errors
	ErrExtractorUnavailable = fmt.Errorf("feature extractor unavailable")
	ErrExtractionFailed     = fmt.Errorf("feature extraction failed")
	ErrMissingTags          = fmt.Errorf("required tags missing")
	ErrLookupUnavailable    = fmt.Errorf("online lookup unavailable")
	ErrAPIRequest           = fmt.Errorf("API request failed")
	ErrNoMatch              = fmt.Errorf("no match found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
