//go:build linux
// +build linux

package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// writeFakePlayerctl installs a shell script standing in for playerctl and returns its path
func writeFakePlayerctl(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "playerctl")
	assertNoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func TestPlayerctlGetArtURL(t *testing.T) {
	t.Run("returns trimmed url", func(t *testing.T) {
		p := &PlayerctlController{
			command: writeFakePlayerctl(t, `printf '  file:///tmp/cover.png\n\n'`),
			timeout: time.Second,
		}

		artURL, err := p.GetArtURL(context.Background())
		assertNoError(t, err)
		assertEqual(t, artURL, "file:///tmp/cover.png", "art url")
	})

	t.Run("requests mpris:artUrl", func(t *testing.T) {
		p := &PlayerctlController{
			command: writeFakePlayerctl(t, `echo "$@"`),
			timeout: time.Second,
		}

		args, err := p.GetArtURL(context.Background())
		assertNoError(t, err)
		assertEqual(t, args, "metadata mpris:artUrl", "arguments")
	})

	t.Run("passes player filter", func(t *testing.T) {
		p := &PlayerctlController{
			command: writeFakePlayerctl(t, `echo "$@"`),
			player:  "spotify",
			timeout: time.Second,
		}

		args, err := p.GetArtURL(context.Background())
		assertNoError(t, err)
		assertEqual(t, args, "--player=spotify metadata mpris:artUrl", "arguments")
	})

	t.Run("non-zero exit", func(t *testing.T) {
		p := &PlayerctlController{
			command: writeFakePlayerctl(t, `echo "No players found" >&2; exit 1`),
			timeout: time.Second,
		}

		_, err := p.GetArtURL(context.Background())
		if !errors.Is(err, ErrNoMetadata) {
			t.Fatalf("Expected ErrNoMetadata, got %v", err)
		}
		if !strings.Contains(err.Error(), "failed") {
			t.Errorf("Expected failure detail, got %q", err.Error())
		}
	})

	t.Run("empty output", func(t *testing.T) {
		p := &PlayerctlController{
			command: writeFakePlayerctl(t, `echo "   "`),
			timeout: time.Second,
		}

		_, err := p.GetArtURL(context.Background())
		if !errors.Is(err, ErrNoMetadata) {
			t.Fatalf("Expected ErrNoMetadata, got %v", err)
		}
		if !strings.Contains(err.Error(), "no artwork URL") {
			t.Errorf("Expected empty-output detail, got %q", err.Error())
		}
	})

	t.Run("missing binary path", func(t *testing.T) {
		p := &PlayerctlController{
			command: filepath.Join(t.TempDir(), "playerctl"),
			timeout: time.Second,
		}

		_, err := p.GetArtURL(context.Background())
		if !errors.Is(err, ErrNoMetadata) {
			t.Fatalf("Expected ErrNoMetadata, got %v", err)
		}
		if !strings.Contains(err.Error(), "is not installed") {
			t.Errorf("Expected not-installed detail, got %q", err.Error())
		}
	})

	t.Run("missing binary in PATH", func(t *testing.T) {
		t.Setenv("PATH", t.TempDir())
		p := &PlayerctlController{command: "playerctl", timeout: time.Second}

		_, err := p.GetArtURL(context.Background())
		if !errors.Is(err, ErrNoMetadata) {
			t.Fatalf("Expected ErrNoMetadata, got %v", err)
		}
		if !strings.Contains(err.Error(), "is not installed") {
			t.Errorf("Expected not-installed detail, got %q", err.Error())
		}
	})

	t.Run("timeout", func(t *testing.T) {
		p := &PlayerctlController{
			command: writeFakePlayerctl(t, `exec sleep 5`),
			timeout: 100 * time.Millisecond,
		}

		start := time.Now()
		_, err := p.GetArtURL(context.Background())
		if !errors.Is(err, ErrNoMetadata) {
			t.Fatalf("Expected ErrNoMetadata, got %v", err)
		}
		if !strings.Contains(err.Error(), "timed out") {
			t.Errorf("Expected timeout detail, got %q", err.Error())
		}
		if elapsed := time.Since(start); elapsed > 3*time.Second {
			t.Errorf("Query was not cut short, took %s", elapsed)
		}
	})
}

func TestNewMediaController(t *testing.T) {
	cfg := defaultConfig()
	cfg.Player.Name = "mpv"

	p, ok := NewMediaController(cfg).(*PlayerctlController)
	if !ok {
		t.Fatal("Expected a PlayerctlController on linux")
	}
	assertEqual(t, p.command, "playerctl", "command")
	assertEqual(t, p.player, "mpv", "player")
	assertEqual(t, p.timeout, 5*time.Second, "timeout")
}
