package main

import (
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// generateTestImage creates a simple test image with specified dimensions and colors
// Useful for testing artwork processing functions
func generateTestImage(width, height int, fillColor color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))

	// Fill image with the specified color
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, fillColor)
		}
	}

	return img
}

// generateGradientImage creates a gradient test image for color extraction testing
func generateGradientImage(width, height int, startColor, endColor color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))

	for y := 0; y < height; y++ {
		ratio := float64(y) / float64(height)
		r := uint8(float64(startColor.R)*(1-ratio) + float64(endColor.R)*ratio)
		g := uint8(float64(startColor.G)*(1-ratio) + float64(endColor.G)*ratio)
		b := uint8(float64(startColor.B)*(1-ratio) + float64(endColor.B)*ratio)

		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{r, g, b, 255})
		}
	}

	return img
}

// defaultConfig returns a Config holding every default value
func defaultConfig() Config {
	var cfg Config
	cfg.Output.Quality = defaultQuality
	cfg.Player.Command = defaultPlayerCommand
	cfg.Player.Timeout = defaultPlayerTimeout
	return cfg
}

// writePNG encodes img as PNG into dir and returns the file path
func writePNG(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	assertNoError(t, err)
	defer f.Close()
	assertNoError(t, png.Encode(f, img))
	return path
}

// decodeJPEGFile fails the test unless path holds a valid color JPEG
func decodeJPEGFile(t *testing.T, path string) image.Image {
	t.Helper()
	f, err := os.Open(path)
	assertNoError(t, err)
	defer f.Close()

	img, err := jpeg.Decode(f)
	assertNoError(t, err)
	if _, ok := img.(*image.YCbCr); !ok {
		t.Fatalf("Expected a 3-channel color JPEG, got %T", img)
	}
	return img
}

// assertError is a test helper that checks if an error occurred and fails the test if not
func assertError(t *testing.T, err error, msg string) {
	t.Helper()
	if err == nil {
		t.Errorf("Expected error: %s, got nil", msg)
	}
}

// assertNoError is a test helper that fails the test if an error occurred
func assertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
}

// assertEqual is a generic test helper for comparing values
func assertEqual(t *testing.T, got, want interface{}, msg string) {
	t.Helper()
	if got != want {
		t.Errorf("%s: got %v, want %v", msg, got, want)
	}
}

// assertNotExists fails the test if anything exists at path
func assertNotExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err == nil {
		t.Errorf("Expected %s not to exist", path)
	}
}

// isValidHexColor checks if a string is a valid hex color (e.g., "#RRGGBB")
func isValidHexColor(color string) bool {
	if len(color) != 7 {
		return false
	}
	if color[0] != '#' {
		return false
	}
	for i := 1; i < 7; i++ {
		c := color[i]
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')) {
			return false
		}
	}
	return true
}
