//go:build linux
// +build linux

package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strings"
	"time"
)

// PlayerctlController implements MediaController using playerctl for Linux
type PlayerctlController struct {
	command string        // playerctl binary name or path
	player  string        // optional --player filter, empty means playerctl's default
	timeout time.Duration // upper bound for a single query
}

// NewMediaController creates a new media controller for the current platform
func NewMediaController(cfg Config) MediaController {
	return &PlayerctlController{
		command: cfg.Player.Command,
		player:  cfg.Player.Name,
		timeout: cfg.Player.Timeout,
	}
}

func (p *PlayerctlController) args() []string {
	var args []string
	if p.player != "" {
		args = append(args, "--player="+p.player)
	}
	return append(args, "metadata", "mpris:artUrl")
}

func (p *PlayerctlController) GetArtURL(ctx context.Context) (string, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, p.command, p.args()...)
	var out bytes.Buffer
	cmd.Stdout = &out
	// Don't hang on grandchildren still holding stdout after the kill
	cmd.WaitDelay = 250 * time.Millisecond

	if err := cmd.Run(); err != nil {
		switch {
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			return "", fmt.Errorf("%w: %s timed out after %s", ErrNoMetadata, p.command, p.timeout)
		case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist):
			return "", fmt.Errorf("%w: %s is not installed", ErrNoMetadata, p.command)
		default:
			return "", fmt.Errorf("%w: %s failed: %v", ErrNoMetadata, p.command, err)
		}
	}

	artURL := strings.TrimSpace(out.String())
	if artURL == "" {
		return "", fmt.Errorf("%w: player reported no artwork URL", ErrNoMetadata)
	}

	return artURL, nil
}
