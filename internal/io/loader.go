// Frame loading and image saving
package io

import (
	"bufio"
	goio "io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"garment-ironing/internal/config"
	"garment-ironing/internal/core"
)

// FrameRef names the two files that make up one frame on disk
type FrameRef struct {
	Name string
	// Primary is the RGB image (path frames) or the intensity matrix (wrinkle frames)
	Primary string
	// Secondary is the depth matrix (path frames) or the mask matrix (wrinkle frames)
	Secondary string
}

// Loader reads frames, images and text matrices
type Loader struct {
	logger logrus.FieldLogger
	cfg    config.DatasetConfig
}

func NewLoader(logger logrus.FieldLogger, cfg config.DatasetConfig) *Loader {
	return &Loader{
		logger: logger,
		cfg:    cfg,
	}
}

// LoadImage reads a colour image as BGR. The caller owns the Mat.
func (l *Loader) LoadImage(path string) (gocv.Mat, error) {
	l.logger.WithField("path", path).Debug("Loading image")

	if !isSupportedImageFormat(path) {
		return gocv.NewMat(), errors.Errorf("unsupported image format: %s", path)
	}

	mat := gocv.IMRead(path, gocv.IMReadColor)
	if mat.Empty() {
		mat.Close()
		return gocv.NewMat(), errors.Errorf("failed to load image: %s", path)
	}

	l.logger.WithFields(logrus.Fields{
		"path":     path,
		"width":    mat.Cols(),
		"height":   mat.Rows(),
		"channels": mat.Channels(),
	}).Debug("Image loaded")

	return mat, nil
}

// SaveImage writes mat to path; the format follows the extension
func (l *Loader) SaveImage(mat gocv.Mat, path string) error {
	if mat.Empty() {
		return errors.New("cannot save empty image")
	}
	if !isSupportedImageFormat(path) {
		return errors.Errorf("unsupported image format: %s", path)
	}

	if !gocv.IMWrite(path, mat) {
		return errors.Errorf("failed to save image: %s", path)
	}

	l.logger.WithFields(logrus.Fields{
		"path":   path,
		"width":  mat.Cols(),
		"height": mat.Rows(),
	}).Info("Image saved")
	return nil
}

// LoadMatrix reads whitespace separated numbers, one matrix row per line.
// Blank lines and lines starting with '#' are skipped.
func (l *Loader) LoadMatrix(path string) (*core.Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening matrix")
	}
	defer f.Close()

	g, err := ParseMatrix(f)
	if err != nil {
		return nil, errors.Wrapf(err, "reading matrix %s", path)
	}

	l.logger.WithFields(logrus.Fields{
		"path":   path,
		"width":  g.Width,
		"height": g.Height,
	}).Debug("Matrix loaded")
	return g, nil
}

// ParseMatrix parses the text matrix format read by LoadMatrix
func ParseMatrix(r goio.Reader) (*core.Grid, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var rows [][]float64
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		row := make([]float64, len(fields))
		for i, field := range fields {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "line %d, column %d", line, i+1)
			}
			row[i] = v
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.New("matrix has no rows")
	}
	return core.NewGridFromRows(rows)
}

// LoadMask reads a mask from a text matrix or an image file. Any non-zero
// value is garment.
func (l *Loader) LoadMask(path string) (*core.Mask, error) {
	if isSupportedImageFormat(path) {
		mat := gocv.IMRead(path, gocv.IMReadGrayScale)
		defer mat.Close()
		if mat.Empty() {
			return nil, errors.Errorf("failed to load mask: %s", path)
		}
		return core.MaskFromMat(mat)
	}

	g, err := l.LoadMatrix(path)
	if err != nil {
		return nil, err
	}
	return core.MaskFromGrid(g), nil
}

// ListPathFrames pairs every RGB image in dir with its depth matrix
func (l *Loader) ListPathFrames(dir string) ([]FrameRef, error) {
	return l.listPairs(dir, l.cfg.RGBSuffix, l.cfg.DepthSuffix)
}

// ListWrinkleFrames pairs every intensity matrix in dir with its mask
func (l *Loader) ListWrinkleFrames(dir string) ([]FrameRef, error) {
	return l.listPairs(dir, l.cfg.ImageSuffix, l.cfg.MaskSuffix)
}

func (l *Loader) listPairs(dir, primarySuffix, secondarySuffix string) ([]FrameRef, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "listing %s", dir)
	}

	present := make(map[string]bool, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			present[e.Name()] = true
		}
	}

	var refs []FrameRef
	for name := range present {
		if !strings.HasSuffix(name, primarySuffix) {
			continue
		}
		base := strings.TrimSuffix(name, primarySuffix)
		// a depth suffix may also end with the rgb suffix
		if base == "" || strings.HasSuffix(name, secondarySuffix) {
			continue
		}
		partner := base + secondarySuffix
		if !present[partner] {
			l.logger.WithFields(logrus.Fields{
				"frame":   base,
				"missing": partner,
			}).Warn("Skipping frame without partner file")
			continue
		}
		refs = append(refs, FrameRef{
			Name:      base,
			Primary:   filepath.Join(dir, name),
			Secondary: filepath.Join(dir, partner),
		})
	}

	sort.Slice(refs, func(i, j int) bool { return refs[i].Name < refs[j].Name })
	l.logger.WithFields(logrus.Fields{"dir": dir, "frames": len(refs)}).Info("Frames listed")
	return refs, nil
}

// LoadPathFrame reads the RGB image and the depth matrix of ref. The depth
// matrix is transposed when the dataset stores it column-major.
func (l *Loader) LoadPathFrame(ref FrameRef) (*core.Frame, error) {
	rgb, err := l.LoadImage(ref.Primary)
	if err != nil {
		return nil, err
	}
	depth, err := l.LoadMatrix(ref.Secondary)
	if err != nil {
		rgb.Close()
		return nil, err
	}
	if l.cfg.TransposeDepth {
		depth = depth.Transpose()
	}

	frame := &core.Frame{Name: ref.Name, RGB: rgb, Depth: depth}
	if err := frame.Validate(); err != nil {
		frame.Close()
		return nil, err
	}
	return frame, nil
}

// LoadWrinkleFrame reads the intensity matrix and the mask of ref
func (l *Loader) LoadWrinkleFrame(ref FrameRef) (*core.Frame, error) {
	img, err := l.LoadMatrix(ref.Primary)
	if err != nil {
		return nil, err
	}
	mask, err := l.LoadMask(ref.Secondary)
	if err != nil {
		return nil, err
	}

	frame := &core.Frame{Name: ref.Name, Depth: img, Mask: mask}
	if err := frame.Validate(); err != nil {
		return nil, err
	}
	return frame, nil
}

func isSupportedImageFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	supportedFormats := []string{".jpg", ".jpeg", ".png", ".tiff", ".tif", ".bmp"}

	for _, format := range supportedFormats {
		if ext == format {
			return true
		}
	}

	return false
}
