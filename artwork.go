package main

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/EdlinOrg/prominentcolor"
	"github.com/nfnt/resize"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const fileScheme = "file://"

// coverOptions controls how a decoded cover is written out
type coverOptions struct {
	quality int // JPEG quality, 1-100
	maxSize int // longest side in pixels, 0 keeps the original size
}

// resolveArtPath turns an art location into a local path.
// Only the file:// prefix is handled; any other scheme is returned untouched.
func resolveArtPath(artURL string) string {
	if !strings.HasPrefix(artURL, fileScheme) {
		return artURL
	}

	path := strings.TrimPrefix(artURL, fileScheme)
	// MPRIS players escape spaces and non-ASCII characters
	if unescaped, err := url.PathUnescape(path); err == nil {
		return unescaped
	}
	return path
}

// loadImage opens and decodes the image at path
func loadImage(path string) (image.Image, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			if strings.Contains(path, "://") {
				return nil, fmt.Errorf("%w: %s (only local files are supported)", ErrNotFound, path)
			}
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}

	return img, nil
}

// toRGB drops the alpha channel, keeping the straight (non-premultiplied)
// color of every pixel and making it fully opaque
func toRGB(img image.Image) *image.RGBA {
	bounds := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			dst.SetRGBA(x-bounds.Min.X, y-bounds.Min.Y, color.RGBA{R: c.R, G: c.G, B: c.B, A: 255})
		}
	}

	return dst
}

// fitWithin shrinks img so its longer side is at most maxSize, keeping the aspect ratio.
// Smaller images are returned unchanged.
func fitWithin(img image.Image, maxSize int) image.Image {
	if maxSize <= 0 {
		return img
	}
	bounds := img.Bounds()
	if bounds.Dx() <= maxSize && bounds.Dy() <= maxSize {
		return img
	}
	return resize.Thumbnail(uint(maxSize), uint(maxSize), img, resize.Lanczos3)
}

// resolveOutputPath follows symlinks at dst so the rename in writeJPEG
// replaces the linked file rather than the link itself
func resolveOutputPath(dst string) string {
	if target, err := filepath.EvalSymlinks(dst); err == nil {
		return target
	}
	// Dangling link: write where it points
	if target, err := os.Readlink(dst); err == nil {
		if !filepath.IsAbs(target) {
			target = filepath.Join(filepath.Dir(dst), target)
		}
		return target
	}
	return dst
}

// writeJPEG encodes img next to dst and renames it into place,
// so dst never holds a partially written file
func writeJPEG(dst string, img image.Image, quality int) error {
	dst = resolveOutputPath(dst)
	mode := os.FileMode(0o644)
	if info, err := os.Stat(dst); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".getcover-*.jpg")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	tmpPath := tmp.Name()

	if err := jpeg.Encode(tmp, img, &jpeg.Options{Quality: quality}); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	// CreateTemp uses 0600
	if err := os.Chmod(tmpPath, mode); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}

	return nil
}

// saveCover loads the image at src, normalizes it to RGB and writes it to dst as JPEG.
// It returns the normalized image so callers can derive more from it without decoding twice.
func saveCover(src, dst string, opts coverOptions) (image.Image, error) {
	img, err := loadImage(src)
	if err != nil {
		return nil, err
	}

	rgb := toRGB(fitWithin(img, opts.maxSize))

	if err := writeJPEG(dst, rgb, opts.quality); err != nil {
		return nil, err
	}

	return rgb, nil
}

// Extract dominant color from image and convert to hex
// Uses a sampling approach to find vibrant, light colors suitable for dark backgrounds
func extractDominantColor(img image.Image) (string, error) {
	if img == nil {
		return "", fmt.Errorf("nil image")
	}

	bounds := img.Bounds()

	// Sample every 5th pixel, much faster than analyzing all of them
	colorMap := make(map[uint32]int)
	const sampleRate = 5

	for y := bounds.Min.Y; y < bounds.Max.Y; y += sampleRate {
		for x := bounds.Min.X; x < bounds.Max.X; x += sampleRate {
			r, g, b, a := img.At(x, y).RGBA()

			// Skip transparent pixels
			if a < 32768 {
				continue
			}

			rgb := (uint32(uint8(r>>8)) << 16) | (uint32(uint8(g>>8)) << 8) | uint32(uint8(b>>8))
			colorMap[rgb]++
		}
	}

	type colorScore struct {
		rgb   uint32
		score float64
	}

	var candidates []colorScore

	for rgb, count := range colorMap {
		lightness, saturation := hsl(rgb)

		// Skip colors that are too dark, near-white, or too unsaturated
		if lightness < 0.3 || lightness > 0.85 || saturation < 0.25 {
			continue
		}

		// Ideal lightness is around 0.5-0.7, penalize anything lighter
		lightnessScore := lightness
		if lightness > 0.7 {
			lightnessScore = 0.7 - (lightness - 0.7)
		}

		score := (saturation * 2.5) + (lightnessScore * 1.5) + (float64(count) / 1000.0)
		candidates = append(candidates, colorScore{rgb: rgb, score: score})
	}

	if len(candidates) == 0 {
		// Fallback: try K-means if our sampling didn't find good colors
		colors, err := prominentcolor.Kmeans(img)
		if err != nil || len(colors) == 0 {
			return "", fmt.Errorf("no suitable colors found")
		}
		c := colors[0]
		return fmt.Sprintf("#%02x%02x%02x", c.Color.R, c.Color.G, c.Color.B), nil
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].rgb < candidates[j].rgb
	})

	best := candidates[0].rgb
	return fmt.Sprintf("#%02x%02x%02x", uint8(best>>16), uint8(best>>8), uint8(best)), nil
}

// hsl returns the lightness and saturation of a packed 0xRRGGBB color
func hsl(rgb uint32) (lightness, saturation float64) {
	rf := float64(uint8(rgb>>16)) / 255.0
	gf := float64(uint8(rgb>>8)) / 255.0
	bf := float64(uint8(rgb)) / 255.0

	hi := max(rf, gf, bf)
	lo := min(rf, gf, bf)

	lightness = (hi + lo) / 2.0
	if hi == lo {
		return lightness, 0
	}
	if lightness > 0.5 {
		return lightness, (hi - lo) / (2.0 - hi - lo)
	}
	return lightness, (hi - lo) / (hi + lo)
}

// writeAccentColor stores the dominant color of img as a single "#rrggbb" line
func writeAccentColor(path string, img image.Image) (string, error) {
	hex, err := extractDominantColor(img)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(hex+"\n"), 0o644); err != nil {
		return "", err
	}
	return hex, nil
}
