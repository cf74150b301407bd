package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// flagBindings maps config keys to the flags that override them
var flagBindings = map[string]string{
	"output.path":       "output",
	"output.quality":    "quality",
	"output.color_file": "color-file",
	"player.name":       "player",
	"player.timeout":    "timeout",
	"artwork.max_size":  "max-size",
}

func newFlagSet(stderr io.Writer) *flag.FlagSet {
	flags := flag.NewFlagSet("getcover", flag.ContinueOnError)
	flags.SetOutput(stderr)

	flags.StringP("output", "o", "", "Write the cover here (default: album_cover.jpg next to the executable)")
	flags.IntP("quality", "q", defaultQuality, "JPEG quality (1-100)")
	flags.StringP("player", "p", "", "Ask this player only (playerctl --player)")
	flags.Duration("timeout", defaultPlayerTimeout, "Give up on the player query after this long")
	flags.Int("max-size", 0, "Shrink covers larger than this many pixels on the longer side (0 = keep size)")
	flags.String("color-file", "", "Also write the cover's accent color (#rrggbb) to this file")
	flags.String("config", "", "Path to config file")
	flags.BoolP("verbose", "v", false, "Print debug information")

	flags.Usage = func() {
		fmt.Fprintf(stderr, "Usage: getcover [flags] [art-location [output-path]]\n\n")
		fmt.Fprintf(stderr, "Without art-location the current track's mpris:artUrl is used.\n\n")
		flags.PrintDefaults()
	}

	return flags
}

func bindFlags(v *viper.Viper, flags *flag.FlagSet) error {
	for key, name := range flagBindings {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			return fmt.Errorf("binding --%s: %w", name, err)
		}
	}
	return nil
}

// run executes one fetch and returns the process exit status
func run(args []string, stdout, stderr io.Writer) int {
	rep := newReporter(stdout, stderr)

	flags := newFlagSet(stderr)
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}
	rep.verbose, _ = flags.GetBool("verbose")

	positional := flags.Args()
	if len(positional) > 2 {
		rep.Error(fmt.Errorf("expected at most 2 arguments, got %d", len(positional)))
		flags.Usage()
		return 1
	}

	v := viper.New()
	if err := bindFlags(v, flags); err != nil {
		rep.Error(err)
		return 1
	}
	configFile, _ := flags.GetString("config")
	cfg := loadConfig(v, configFile, rep)

	// Explicit art location wins over asking the player
	var artURL string
	if len(positional) > 0 {
		artURL = positional[0]
	} else {
		url, err := NewMediaController(cfg).GetArtURL(context.Background())
		if err != nil {
			rep.Error(err)
			return 1
		}
		rep.Debug("Player reported %s", url)
		artURL = url
	}

	outputPath := cfg.Output.Path
	if len(positional) > 1 {
		outputPath = positional[1]
	}
	if outputPath == "" {
		outputPath = defaultOutputPath()
	}

	src := resolveArtPath(artURL)
	rep.Debug("Reading %s", src)

	img, err := saveCover(src, outputPath, coverOptions{
		quality: cfg.Output.Quality,
		maxSize: cfg.Artwork.MaxSize,
	})
	if err != nil {
		rep.Error(err)
		return 1
	}
	rep.Success("Album art saved to %s", outputPath)

	if cfg.Output.ColorFile != "" {
		// The cover itself is already saved, a missing accent color is not a failure
		if hex, err := writeAccentColor(cfg.Output.ColorFile, img); err != nil {
			rep.Warn("Could not write accent color: %v", err)
		} else {
			rep.Debug("Accent color %s written to %s", hex, cfg.Output.ColorFile)
		}
	}

	return 0
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
