// Package paths proposes, scores and selects straight ironing paths.
package paths

import (
	"image"

	"github.com/pkg/errors"

	"garment-ironing/internal/contour"
	"garment-ironing/internal/core"
	"garment-ironing/internal/metrics"
	"garment-ironing/internal/superpixel"
)

// Segment is a straight path from Start to End in pixel coordinates
type Segment = contour.Segment

// Candidate is one straight path from a contour midpoint to a target
type Candidate struct {
	AnchorID    int // index of the contour edge whose midpoint anchors the path
	TargetIndex int
	Segment     Segment
}

// Predicate accepts or rejects a candidate segment
type Predicate func(Segment) bool

// Generate builds one candidate per (contour midpoint, target) pair, anchor
// order first, and drops those rejected by any predicate.
func Generate(c contour.Contour, targets []image.Point, preds ...Predicate) ([]Candidate, error) {
	var candidates []Candidate
	for anchorID, anchor := range c.Midpoints() {
		for ti, target := range targets {
			seg := Segment{Start: anchor, End: target}
			if accepted(seg, preds) {
				candidates = append(candidates, Candidate{
					AnchorID:    anchorID,
					TargetIndex: ti,
					Segment:     seg,
				})
			}
		}
	}

	if len(candidates) == 0 {
		return nil, errors.Wrapf(core.ErrEmptyCandidateSet, "%d anchors, %d targets", len(c.Midpoints()), len(targets))
	}
	return candidates, nil
}

func accepted(seg Segment, preds []Predicate) bool {
	for _, p := range preds {
		if !p(seg) {
			return false
		}
	}
	return true
}

// InsideMask accepts segments whose sampled pixels fall in the mask at least minRatio of the time
func InsideMask(mask *core.Mask, minRatio float64) Predicate {
	return func(seg Segment) bool {
		points := superpixel.LinePoints(seg.Start, seg.End, superpixel.DefaultStep)
		inside := 0
		for _, p := range points {
			if mask.InBounds(p.X, p.Y) && mask.At(p.X, p.Y) {
				inside++
			}
		}
		return float64(inside) >= minRatio*float64(len(points))
	}
}

// InsideContour accepts segments whose interior samples lie inside the polygon.
// Endpoints are skipped since anchors sit on the polygon itself.
func InsideContour(c contour.Contour) Predicate {
	return func(seg Segment) bool {
		points := superpixel.LinePoints(seg.Start, seg.End, superpixel.DefaultStep)
		for i := 1; i < len(points)-1; i++ {
			if !c.Contains(points[i]) {
				return false
			}
		}
		return true
	}
}

// Scored is a candidate with its sampled profile and adequacy score
type Scored struct {
	Candidate
	Profile superpixel.Profile
	Score   float64
}

// Score samples every candidate on the superpixel field and scores the
// garment samples of its profile with the chosen adequacy metric.
func Score(field *superpixel.Field, candidates []Candidate, e *metrics.Evaluator, metric metrics.Adequacy, step float64) ([]Scored, error) {
	scored := make([]Scored, 0, len(candidates))
	for _, c := range candidates {
		profile := superpixel.SampleLine(field, c.Segment.Start, c.Segment.End, step)
		score, err := e.Adequacy(metric, profile.GarmentSamples())
		if err != nil {
			return nil, errors.Wrapf(err, "scoring anchor %d", c.AnchorID)
		}
		scored = append(scored, Scored{Candidate: c, Profile: profile, Score: score})
	}
	return scored, nil
}
