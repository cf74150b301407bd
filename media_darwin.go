//go:build darwin
// +build darwin

package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// AppleScriptController implements MediaController using AppleScript for macOS.
// Only Spotify exposes an artwork URL; Apple Music keeps artwork as raw data.
// Spotify's URL is always https://, which saveCover does not download, so a
// query-mode run on macOS ends in ErrNotFound. Pass a local path instead.
type AppleScriptController struct {
	player  string // preferred application, empty means autodetect
	timeout time.Duration
}

// NewMediaController creates a new media controller for the current platform
func NewMediaController(cfg Config) MediaController {
	return &AppleScriptController{
		player:  cfg.Player.Name,
		timeout: cfg.Player.Timeout,
	}
}

func (a *AppleScriptController) runAppleScript(ctx context.Context, script string) (string, error) {
	cmd := exec.CommandContext(ctx, "osascript", "-e", script)
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return "", err
	}
	return strings.TrimSpace(out.String()), nil
}

// findActivePlayer checks the supported music applications to find one that's playing
func (a *AppleScriptController) findActivePlayer(ctx context.Context) (string, error) {
	players := []string{"Spotify", "Music"}
	if a.player != "" {
		players = []string{a.player}
	}

	for _, player := range players {
		checkScript := fmt.Sprintf(`
			tell application "System Events"
				if exists (process "%s") then
					tell application "%s"
						if player state is not stopped then
							return "true"
						end if
					end tell
				end if
				return "false"
			end tell`, player, player)

		result, err := a.runAppleScript(ctx, checkScript)
		if err == nil && result == "true" {
			return player, nil
		}
	}

	return "", errors.New("no active music player found")
}

func (a *AppleScriptController) GetArtURL(ctx context.Context) (string, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	player, err := a.findActivePlayer(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoMetadata, err)
	}

	if player != "Spotify" {
		return "", fmt.Errorf("%w: %s does not expose an artwork URL", ErrNoMetadata, player)
	}

	artURL, err := a.runAppleScript(ctx, `tell application "Spotify" to return artwork url of current track`)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: osascript timed out after %s", ErrNoMetadata, a.timeout)
		}
		return "", fmt.Errorf("%w: osascript failed: %v", ErrNoMetadata, err)
	}
	if artURL == "" {
		return "", fmt.Errorf("%w: player reported no artwork URL", ErrNoMetadata)
	}

	return artURL, nil
}
