// Garment ironing path and wrinkle extraction

package main

import (
	"context"
	"encoding/json"
	"image"
	"image/color"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"gocv.io/x/gocv"

	"garment-ironing/internal/config"
	frameio "garment-ironing/internal/io"
	"garment-ironing/internal/pipeline"
)

const (
	AppName    = "ironpath"
	AppVersion = "1.0.0"

	flagConfig     = "config"
	flagDebug      = "debug"
	flagRGB        = "rgb"
	flagDepth      = "depth"
	flagImage      = "image"
	flagMask       = "mask"
	flagOverlayDir = "overlay-dir"
	flagMode       = "mode"
	flagWorkers    = "workers"

	modePath    = "path"
	modeWrinkle = "wrinkle"
)

func main() {
	var (
		logger *logrus.Logger
		cfg    config.Config
	)

	app := &cli.App{
		Name:    AppName,
		Usage:   "compute garment ironing paths and wrinkle strokes from RGB-D frames",
		Version: AppVersion,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "load configuration from `FILE`",
			},
			&cli.BoolFlag{
				Name:  flagDebug,
				Usage: "enable debug logging",
			},
		},
		Before: func(c *cli.Context) error {
			logger = initLogger(c.Bool(flagDebug))
			var err error
			cfg, err = config.Load(c.String(flagConfig))
			if err != nil {
				return err
			}
			logger.WithFields(logrus.Fields{
				"version": AppVersion,
				"config":  c.String(flagConfig),
			}).Debug("Configuration loaded")
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  modePath,
				Usage: "compute the ironing path of one frame",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: flagRGB, Required: true, Usage: "RGB image `FILE`"},
					&cli.StringFlag{Name: flagDepth, Required: true, Usage: "depth matrix `FILE`"},
					&cli.StringFlag{Name: flagOverlayDir, Usage: "write the path drawn on the RGB image to `DIR`"},
				},
				Action: func(c *cli.Context) error {
					loader := frameio.NewLoader(logger, cfg.Dataset)
					p, err := pipeline.NewPathPipeline(cfg, logger)
					if err != nil {
						return err
					}
					ref := frameio.FrameRef{
						Name:      frameName(c.String(flagRGB), cfg.Dataset.RGBSuffix),
						Primary:   c.String(flagRGB),
						Secondary: c.String(flagDepth),
					}
					res, err := runPathFrame(loader, p, ref, c.String(flagOverlayDir))
					if err != nil {
						return err
					}
					return emit(c, res)
				},
			},
			{
				Name:  modeWrinkle,
				Usage: "trace the dominant wrinkle of one frame",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: flagImage, Required: true, Usage: "intensity matrix `FILE`"},
					&cli.StringFlag{Name: flagMask, Required: true, Usage: "garment mask `FILE` (matrix or image)"},
				},
				Action: func(c *cli.Context) error {
					loader := frameio.NewLoader(logger, cfg.Dataset)
					p, err := pipeline.NewWrinklePipeline(cfg, logger, nil)
					if err != nil {
						return err
					}
					ref := frameio.FrameRef{
						Name:      frameName(c.String(flagImage), cfg.Dataset.ImageSuffix),
						Primary:   c.String(flagImage),
						Secondary: c.String(flagMask),
					}
					res, err := runWrinkleFrame(loader, p, ref)
					if err != nil {
						return err
					}
					return emit(c, res)
				},
			},
			{
				Name:  "list",
				Usage: "list the image operators and adequacy metrics",
				Action: func(c *cli.Context) error {
					return writeCatalog(c.App.Writer)
				},
			},
			{
				Name:      "batch",
				Usage:     "process every frame of a dataset directory",
				ArgsUsage: "DIR",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: flagMode, Value: modePath, Usage: "`MODE` is path or wrinkle"},
					&cli.IntFlag{Name: flagWorkers, Usage: "frames processed concurrently (default from config)"},
					&cli.StringFlag{Name: flagOverlayDir, Usage: "write path overlays to `DIR` (path mode)"},
				},
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return errors.New("batch expects exactly one dataset directory")
					}
					workers := cfg.Dataset.Workers
					if c.IsSet(flagWorkers) {
						workers = c.Int(flagWorkers)
					}
					return runBatch(c, logger, cfg, c.Args().First(), c.String(flagMode), workers, c.String(flagOverlayDir))
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		if logger == nil {
			logger = initLogger(false)
		}
		logger.WithError(err).Error("ironpath failed")
		os.Exit(1)
	}
}

// initLogger initializes the logger with appropriate level. Logs go to
// stderr; stdout carries the JSON results.
func initLogger(debugMode bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	if debugMode {
		logger.SetLevel(logrus.DebugLevel)
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   true,
		})
		logger.Debug("Debug logging enabled")
	} else {
		logger.SetLevel(logrus.InfoLevel)
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	return logger
}

func runBatch(c *cli.Context, logger *logrus.Logger, cfg config.Config, dir, mode string, workers int, overlayDir string) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	loader := frameio.NewLoader(logger, cfg.Dataset)
	recorder := pipeline.NewStageRecorder(logger)
	defer recorder.LogSummary()

	var (
		refs []frameio.FrameRef
		fn   pipeline.FrameFunc
		err  error
	)
	switch mode {
	case modePath:
		refs, err = loader.ListPathFrames(dir)
		if err != nil {
			return err
		}
		p, err := pipeline.NewPathPipeline(cfg, logger, pipeline.WithRecorder(recorder))
		if err != nil {
			return err
		}
		fn = func(_ context.Context, ref frameio.FrameRef) (interface{}, error) {
			return runPathFrame(loader, p, ref, overlayDir)
		}
	case modeWrinkle:
		refs, err = loader.ListWrinkleFrames(dir)
		if err != nil {
			return err
		}
		p, err := pipeline.NewWrinklePipeline(cfg, logger, recorder)
		if err != nil {
			return err
		}
		fn = func(_ context.Context, ref frameio.FrameRef) (interface{}, error) {
			return runWrinkleFrame(loader, p, ref)
		}
	default:
		return errors.Errorf("unknown mode %q", mode)
	}

	if len(refs) == 0 {
		return errors.Errorf("no %s frames in %s", mode, dir)
	}

	results, err := pipeline.ProcessBatch(ctx, logger, refs, workers, fn)
	if writeErr := writeResults(c.App.Writer, results); writeErr != nil {
		return writeErr
	}
	return err
}

func runPathFrame(loader *frameio.Loader, p *pipeline.PathPipeline, ref frameio.FrameRef, overlayDir string) (*pipeline.PathResult, error) {
	frame, err := loader.LoadPathFrame(ref)
	if err != nil {
		return nil, err
	}
	defer frame.Close()

	res, err := p.RunFrame(frame.Name, frame.RGB, frame.Depth)
	if err != nil {
		return nil, err
	}

	if overlayDir != "" {
		if err := saveOverlay(loader, frame.RGB, res, filepath.Join(overlayDir, frame.Name+"-path.png")); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func runWrinkleFrame(loader *frameio.Loader, p *pipeline.WrinklePipeline, ref frameio.FrameRef) (*pipeline.WrinkleResult, error) {
	frame, err := loader.LoadWrinkleFrame(ref)
	if err != nil {
		return nil, err
	}
	return p.Run(frame.Name, frame.Depth, frame.Mask)
}

// saveOverlay draws the garment contour, the chosen path and its target on
// a copy of rgb
func saveOverlay(loader *frameio.Loader, rgb gocv.Mat, res *pipeline.PathResult, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "creating overlay directory")
	}

	overlay := rgb.Clone()
	defer overlay.Close()

	outline := gocv.NewPointsVectorFromPoints([][]image.Point{res.Contour})
	defer outline.Close()
	gocv.Polylines(&overlay, outline, true, color.RGBA{0, 255, 0, 0}, 2)

	if res.Extended != nil {
		gocv.Line(&overlay, res.Extended.Start, res.Extended.End, color.RGBA{255, 255, 0, 0}, 1)
	}
	gocv.Line(&overlay, res.Start, res.End, color.RGBA{0, 0, 255, 0}, 2)
	gocv.Circle(&overlay, res.Target, 4, color.RGBA{255, 0, 0, 0}, -1)

	return loader.SaveImage(overlay, path)
}

func emit(c *cli.Context, v interface{}) error {
	return json.NewEncoder(c.App.Writer).Encode(v)
}

func frameName(path, suffix string) string {
	base := filepath.Base(path)
	if suffix != "" && base != suffix && strings.HasSuffix(base, suffix) {
		return strings.TrimSuffix(base, suffix)
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}
