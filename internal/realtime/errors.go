package realtime

import "errors"

var (
	ErrHubUnavailable = errors.New("realtime hub not initialized")
	ErrHubBusy        = errors.New("realtime hub busy")
	ErrHubStopped     = errors.New("realtime hub stopped")
	ErrInvalidRoom    = errors.New("invalid conversation id")
)
