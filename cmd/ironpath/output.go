package main

import (
	"encoding/json"
	"io"

	"github.com/pkg/errors"

	"garment-ironing/internal/algorithms"
	"garment-ironing/internal/metrics"
	"garment-ironing/internal/pipeline"
)

// frameFailure is the result line of a frame that could not be processed
type frameFailure struct {
	Frame string `json:"frame"`
	Error string `json:"error"`
}

// catalogEntry describes one registered image operator or adequacy metric
type catalogEntry struct {
	Kind         string                 `json:"kind"`
	Name         string                 `json:"name"`
	Title        string                 `json:"title,omitempty"`
	Category     string                 `json:"category,omitempty"`
	Description  string                 `json:"description"`
	Defaults     map[string]interface{} `json:"defaults,omitempty"`
	HigherBetter bool                   `json:"higher_better,omitempty"`
}

// writeResults emits one JSON line per frame, failures included, in batch
// order. It reports an error when no frame succeeded.
func writeResults(w io.Writer, results []pipeline.BatchResult) error {
	enc := json.NewEncoder(w)
	failed := 0
	for _, r := range results {
		var line interface{} = r.Result
		if r.Err != nil {
			failed++
			line = frameFailure{Frame: r.Frame, Error: r.Err.Error()}
		}
		if err := enc.Encode(line); err != nil {
			return errors.Wrap(err, "writing results")
		}
	}
	if len(results) > 0 && failed == len(results) {
		return errors.Errorf("all %d frames failed", failed)
	}
	return nil
}

// writeCatalog lists the image operators and adequacy metrics
func writeCatalog(w io.Writer) error {
	category := make(map[string]string)
	for cat, names := range algorithms.GetAlgorithmsByCategory() {
		for _, name := range names {
			category[name] = cat
		}
	}

	enc := json.NewEncoder(w)
	for _, name := range algorithms.Names() {
		algorithm, ok := algorithms.Get(name)
		if !ok {
			continue
		}
		entry := catalogEntry{
			Kind:        "algorithm",
			Name:        name,
			Title:       algorithm.GetName(),
			Category:    category[name],
			Description: algorithm.GetDescription(),
			Defaults:    algorithm.GetDefaultParams(),
		}
		if err := enc.Encode(entry); err != nil {
			return errors.Wrap(err, "writing catalog")
		}
	}

	for _, info := range metrics.NewEvaluator().GetMetricInfo() {
		entry := catalogEntry{
			Kind:         "metric",
			Name:         info.Name,
			Description:  info.Description,
			HigherBetter: info.HigherBetter,
		}
		if err := enc.Encode(entry); err != nil {
			return errors.Wrap(err, "writing catalog")
		}
	}
	return nil
}
