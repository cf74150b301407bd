package main

import (
	"context"
	"errors"
)

// MediaController defines the interface for querying the active media player across platforms
type MediaController interface {
	GetArtURL(ctx context.Context) (string, error)
}

// Error kinds reported by the cover pipeline. Every failure wraps exactly one of these.
var (
	ErrNoMetadata = errors.New("no media player is running or no metadata available")
	ErrNotFound   = errors.New("file not found")
	ErrDecode     = errors.New("error decoding image")
	ErrWrite      = errors.New("error writing image")
)
