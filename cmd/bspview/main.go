// bspview loads Doom levels and prints what the BSP walk sees from a pose.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/stuarthighley/wad/v2"
	"github.com/stuarthighley/wad/v2/fixed"
	"github.com/stuarthighley/wad/v2/internal/config"
	"github.com/stuarthighley/wad/v2/render"
)

const defaultConfigPath = "bspview.yaml"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("bspview", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		configPath  string
		level       string
		x, y        float64
		angle       float64
		list        bool
		tree        bool
		lines       bool
		validate    bool
		skipInvalid bool
		logLevel    string
	)

	fs.StringVar(&configPath, "config", defaultConfigPath, "YAML config file")
	fs.StringVar(&level, "level", "", "level to view, e.g. E1M1 or MAP01")
	fs.Float64Var(&x, "x", 0, "viewer x in map units")
	fs.Float64Var(&y, "y", 0, "viewer y in map units")
	fs.Float64Var(&angle, "angle", 0, "viewer angle in degrees, counterclockwise from east")
	fs.BoolVar(&list, "list", false, "list loaded levels and exit")
	fs.BoolVar(&tree, "tree", false, "print the level's BSP tree")
	fs.BoolVar(&lines, "lines", false, "print the level's linedefs and their flags")
	fs.BoolVar(&validate, "validate", false, "check the level's references before viewing")
	fs.BoolVar(&skipInvalid, "skip-invalid", false, "skip levels with missing or malformed lumps")
	fs.StringVar(&logLevel, "log-level", "", "debug, info, warn or error")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Flags given on the command line override the config file.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "level":
			cfg.Level = level
		case "x":
			cfg.Pose.X = x
		case "y":
			cfg.Pose.Y = y
		case "angle":
			cfg.Pose.AngleDegrees = angle
		case "skip-invalid":
			cfg.SkipInvalidLevels = skipInvalid
		case "log-level":
			cfg.LogLevel = logLevel
		}
	})
	if fs.NArg() > 0 {
		cfg.Archives = fs.Args()
	}
	if len(cfg.Archives) == 0 {
		return errors.New("no archives given")
	}

	handler := slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()})
	log := slog.New(handler)
	wad.SetLogger(slog.NewLogLogger(handler, slog.LevelDebug))
	defer wad.SetLogger(nil)

	catalog := wad.NewCatalog()
	if err := catalog.LoadFiles(ctx, cfg.Archives, wad.WithSkipInvalidLevels(cfg.SkipInvalidLevels)); err != nil {
		return fmt.Errorf("loading archives: %w", err)
	}
	log.Info("archives loaded", "archives", len(cfg.Archives), "levels", catalog.Len())

	if list {
		for _, m := range catalog.Maps() {
			sum := m.Checksum()
			fmt.Fprintf(stdout, "%s %x\n", m, sum[:8])
		}
		return nil
	}

	m, ok := catalog.FindByName(cfg.Level)
	if !ok {
		return fmt.Errorf("level %s not found", cfg.Level)
	}

	if validate {
		if err := m.Validate(); err != nil {
			return fmt.Errorf("validating %s: %w", m.Name, err)
		}
		log.Info("level is valid", "level", m.Name)
	}

	if tree {
		wad.PrintTree(stdout, m)
		return nil
	}

	if lines {
		for i := range m.Lines {
			fmt.Fprintf(stdout, "line %d: %s\n", i, describeLine(&m.Lines[i]))
		}
		return nil
	}

	pose := render.Pose{
		X:     fixed.FromFloat(cfg.Pose.X),
		Y:     fixed.FromFloat(cfg.Pose.Y),
		Angle: fixed.AngleFromDegrees(cfg.Pose.AngleDegrees),
	}
	log.Debug("viewing", "level", m.Name, "x", cfg.Pose.X, "y", cfg.Pose.Y, "angle", cfg.Pose.AngleDegrees)

	r := render.NewRenderer(m)
	n := r.Render(pose, render.ProjectorFunc(func(vs render.ViewSegment) {
		fmt.Fprintf(stdout, "seg %d: (%.2f, %.2f) -> (%.2f, %.2f)\n",
			vs.Seg, vs.V1.X.Float(), vs.V1.Z.Float(), vs.V2.X.Float(), vs.V2.Z.Float())
	}))
	log.Info("frame done", "level", m.Name, "segments", n)

	return nil
}

// describeLine formats a linedef's vertices, sides and set flags.
func describeLine(l *wad.LineDef) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "v%d -> v%d", l.V1, l.V2)
	if l.HasSideR() {
		fmt.Fprintf(&sb, ", right side %d", l.SideR)
	}
	if l.HasSideL() {
		fmt.Fprintf(&sb, ", left side %d", l.SideL)
	}
	if l.Special != 0 {
		fmt.Fprintf(&sb, ", special %d tag %d", l.Special, l.SectorTag)
	}

	flags := []struct {
		set  bool
		name string
	}{
		{l.Blocking(), "blocking"},
		{l.BlockMonsters(), "block-monsters"},
		{l.TwoSided(), "two-sided"},
		{l.UpperTextureUnpegged(), "upper-unpegged"},
		{l.LowerTextureUnpegged(), "lower-unpegged"},
		{l.Secret(), "secret"},
		{l.BlocksSound(), "block-sound"},
		{l.NeverMap(), "never-map"},
		{l.AlwaysMap(), "always-map"},
	}
	var names []string
	for _, f := range flags {
		if f.set {
			names = append(names, f.name)
		}
	}
	if len(names) > 0 {
		fmt.Fprintf(&sb, " [%s]", strings.Join(names, " "))
	}
	return sb.String()
}
