package config

// This file implements CLI flag parsing and help text. Flags are grouped
// into tiling, filtering, source, and utility sections in the usage output.
// Long and short spellings register the same destination, so either works.

import (
	"flag"
	"fmt"
	"os"
)

// ParseFlags parses os.Args into cfg. On --help or --version it prints and
// exits. On error it returns non-nil (e.g. unknown flag, too many args).
func ParseFlags(cfg *Config, version string) error {
	fs := flag.NewFlagSet("tilepress", flag.ContinueOnError)
	fs.Usage = func() { printUsage(fs) }

	var showHelp, showVersion, forceColor, noColor bool

	// Tiling.
	fs.IntVar(&cfg.MinZoom, "min-zoom", cfg.MinZoom, "Minimum zoom level (0-24; default: auto-detect)")
	fs.IntVar(&cfg.MaxZoom, "max-zoom", cfg.MaxZoom, "Maximum zoom level (0-24; default: auto-detect)")
	fs.StringVar(&cfg.Layer, "layer", "", "Tile layer name (default: input file stem)")
	fs.StringVar(&cfg.Layer, "l", "", "Same as --layer")
	fs.IntVar(&cfg.Precision, "precision", cfg.Precision, "Coordinate detail, 0-15 (default: tool default)")
	fs.StringVar(&cfg.Attribution, "attribution", "", "Attribution text embedded in the archive")

	// Filtering.
	fs.StringVar(&cfg.BBox, "bbox", "", "Bounding box filter: minx,miny,maxx,maxy")
	fs.StringVar(&cfg.BBox, "b", "", "Same as --bbox")
	fs.StringVar(&cfg.Where, "where", "", "Row filter expression")
	fs.StringVar(&cfg.Where, "w", "", "Same as --where")
	fs.StringVar(&cfg.Columns, "columns", "", "Comma-separated list of columns to keep")

	// Source.
	fs.StringVar(&cfg.SrcCRS, "src-crs", "", "Source CRS override (adds a reprojection stage)")
	fs.StringVar(&cfg.Profile, "profile", "", "Cloud storage credential profile for remote inputs")

	// Behavior, display, utility.
	fs.BoolVar(&cfg.DryRun, "dry-run", false, "Print the planned commands without running them")
	fs.BoolVar(&cfg.DryRun, "d", false, "Same as --dry-run")
	fs.BoolVar(&cfg.Verbose, "verbose", false, "Verbose output (stage argv, live diagnostics)")
	fs.BoolVar(&cfg.Verbose, "v", false, "Same as --verbose")
	fs.BoolVar(&forceColor, "color", false, "Force colored logs")
	fs.BoolVar(&noColor, "no-color", false, "Disable colored logs")
	fs.StringVar(&cfg.LogFile, "log", "", "Append logs to file")
	fs.BoolVar(&cfg.CheckOnly, "check", false, "Check external tools and exit")
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")
	fs.BoolVar(&showVersion, "V", false, "Same as --version")
	fs.BoolVar(&showHelp, "help", false, "Show this help and exit")
	fs.BoolVar(&showHelp, "h", false, "Same as --help")

	if err := fs.Parse(os.Args[1:]); err != nil {
		return err
	}

	if showHelp {
		printUsage(fs)
		os.Exit(0)
	}
	if showVersion {
		fmt.Fprintln(os.Stdout, "tilepress v"+version)
		os.Exit(0)
	}

	if noColor {
		cfg.ColorMode = ColorNever
	} else if forceColor {
		cfg.ColorMode = ColorAlways
	}

	return parsePositionalArgs(fs, cfg)
}

// parsePositionalArgs sets InputPath and the optional OutputPath. In
// CheckOnly mode positional args are not required.
func parsePositionalArgs(fs *flag.FlagSet, cfg *Config) error {
	args := fs.Args()
	if cfg.CheckOnly && len(args) == 0 {
		return nil
	}
	switch len(args) {
	case 1:
		cfg.InputPath = args[0]
	case 2:
		cfg.InputPath = args[0]
		cfg.OutputPath = args[1]
	default:
		return fmt.Errorf("expected <input> [output], got %d positional arguments", len(args))
	}
	return nil
}

// printUsage writes column-aligned help text to stderr.
func printUsage(fs *flag.FlagSet) {
	const col1 = 30

	fmt.Fprintln(os.Stderr, "Usage: tilepress [OPTIONS] <input> [output]")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Convert a GeoParquet file (local or remote) into a PMTiles archive by")
	fmt.Fprintln(os.Stderr, "streaming it through gpio and tippecanoe. No intermediate files are written.")

	lines := []struct{ flags, desc string }{
		{"", ""},
		{"Tiling", ""},
		{"  --min-zoom <0-24>", "Minimum zoom level (default: auto-detect)"},
		{"  --max-zoom <0-24>", "Maximum zoom level (default: auto-detect)"},
		{"  -l, --layer <name>", "Tile layer name (default: input file stem)"},
		{"  --precision <0-15>", "Coordinate detail passed to the tile builder"},
		{"  --attribution <text>", "Attribution embedded in the archive"},
		{"", ""},
		{"Filtering", ""},
		{"  -b, --bbox <minx,miny,maxx,maxy>", "Keep only features inside the box"},
		{"  -w, --where <expr>", "Row filter expression"},
		{"  --columns <a,b,c>", "Keep only the listed columns"},
		{"", ""},
		{"Source", ""},
		{"  --src-crs <crs>", "Source CRS override (adds a reprojection stage)"},
		{"  --profile <name>", "Cloud credential profile for remote inputs"},
		{"", ""},
		{"Behavior", ""},
		{"  -d, --dry-run", "Print the planned commands without running them"},
		{"  -v, --verbose", "Stage argv and live diagnostics"},
		{"  --color / --no-color", "Force or disable colored logs"},
		{"  --log <path>", "Append logs to file"},
		{"", ""},
		{"Utility", ""},
		{"  --check", "Check gpio and tippecanoe availability and exit"},
		{"  -V, --version", "Print version and exit"},
		{"  -h, --help", "Show this help and exit"},
	}

	for _, l := range lines {
		if l.flags == "" && l.desc == "" {
			fmt.Fprintln(os.Stderr)
			continue
		}
		if l.desc == "" {
			fmt.Fprintln(os.Stderr, l.flags)
			continue
		}
		padding := col1 - len(l.flags)
		if padding < 1 {
			padding = 1
		}
		fmt.Fprintf(os.Stderr, "%s%*s%s\n", l.flags, padding, "", l.desc)
	}
}
