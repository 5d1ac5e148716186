package io

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/matzehuels/contribnet/pkg/centrality"
	"github.com/matzehuels/contribnet/pkg/errors"
	"github.com/matzehuels/contribnet/pkg/projection"
)

// Format selects an output encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatGEXF Format = "gexf"
)

// ParseFormat resolves a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatCSV, FormatGEXF:
		return f, nil
	default:
		return "", errors.New(errors.ErrCodeInvalidInput, "unknown format %q (want json, csv or gexf)", s)
	}
}

// FormatFromPath derives the format from the extension of path.
func FormatFromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", errors.New(errors.ErrCodeInvalidInput, "%s has no extension", path)
	}
	return ParseFormat(ext)
}

// WriteMetrics writes the analysis result in format f. JSON and CSV carry
// only the table; GEXF carries the projection with metric attributes.
func WriteMetrics(w io.Writer, f Format, g *projection.Graph, t *centrality.Table) error {
	switch f {
	case FormatJSON:
		return WriteMetricsJSON(w, t)
	case FormatCSV:
		return WriteMetricsCSV(w, t)
	case FormatGEXF:
		return WriteGEXF(w, g, t)
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown format %q", f)
	}
}

// ExportMetrics writes the analysis result to path, choosing the format
// from its extension.
func ExportMetrics(path string, g *projection.Graph, t *centrality.Table) error {
	f, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	return writeFile(path, func(w io.Writer) error { return WriteMetrics(w, f, g, t) })
}

// ImportMetrics reads a metrics table from a .json or .csv file.
func ImportMetrics(path string) (*centrality.Table, error) {
	f, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	file, err := open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	switch f {
	case FormatJSON:
		return ReadMetricsJSON(file)
	case FormatCSV:
		return ReadMetricsCSV(file)
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "cannot import metrics from %s", f)
	}
}
