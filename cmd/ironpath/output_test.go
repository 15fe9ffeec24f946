package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"garment-ironing/internal/core"
	"garment-ironing/internal/pipeline"
)

func decodeLines(t *testing.T, out string) []map[string]interface{} {
	t.Helper()
	var lines []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		var v map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &v), line)
		lines = append(lines, v)
	}
	return lines
}

func TestWriteResultsReportsFailures(t *testing.T) {
	var buf bytes.Buffer
	err := writeResults(&buf, []pipeline.BatchResult{
		{Frame: "a", Result: &pipeline.WrinkleResult{Frame: "a", Found: true, Severity: 0.5}},
		{Frame: "b", Err: errors.Wrap(core.ErrEmptyMask, "contour")},
	})
	require.NoError(t, err)

	lines := decodeLines(t, buf.String())
	require.Len(t, lines, 2)
	assert.Equal(t, "a", lines[0]["frame"])
	assert.Equal(t, 0.5, lines[0]["severity"])
	assert.Equal(t, "b", lines[1]["frame"])
	assert.Contains(t, lines[1]["error"], "mask has no foreground pixels")
}

func TestWriteResultsFailsWhenEveryFrameFails(t *testing.T) {
	var buf bytes.Buffer
	err := writeResults(&buf, []pipeline.BatchResult{
		{Frame: "a", Err: core.ErrEmptyMask},
		{Frame: "b", Err: core.ErrNoPath},
	})
	assert.Error(t, err)
	assert.Len(t, decodeLines(t, buf.String()), 2)
}

func TestWriteCatalog(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeCatalog(&buf))

	kinds := map[string][]string{}
	for _, line := range decodeLines(t, buf.String()) {
		kind := line["kind"].(string)
		kinds[kind] = append(kinds[kind], line["name"].(string))
		if line["name"] == "otsu" {
			assert.Equal(t, "Binarization", line["category"])
			assert.Contains(t, line["defaults"], "max_value")
		}
	}
	assert.Contains(t, kinds["algorithm"], "otsu")
	assert.Contains(t, kinds["algorithm"], "closing")
	assert.Equal(t, []string{"roughness", "sum", "sum_alt", "sum_reserved"}, kinds["metric"])
}

func TestFrameName(t *testing.T) {
	assert.Equal(t, "shirt01", frameName("/data/shirt01-wild_image.m", "-wild_image.m"))
	assert.Equal(t, "shirt01", frameName("shirt01.png", ".png"))
	assert.Equal(t, "scan", frameName("scan.jpg", ".png"))
}
