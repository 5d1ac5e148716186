package io

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/matzehuels/contribnet/pkg/centrality"
	"github.com/matzehuels/contribnet/pkg/errors"
)

// CSVHeader is the first record of a metrics CSV file.
var CSVHeader = []string{"member", "degree", "normalized_degree", "closeness", "betweenness", "clustering"}

// WriteMetricsJSON encodes t as an object keyed by member:
//
//	{"rsc": {"degree": 2, "normalized_degree": 1, ...}, ...}
func WriteMetricsJSON(w io.Writer, t *centrality.Table) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(t); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ReadMetricsJSON decodes output of [WriteMetricsJSON].
func ReadMetricsJSON(r io.Reader) (*centrality.Table, error) {
	var t centrality.Table
	if err := json.NewDecoder(r).Decode(&t); err != nil {
		return nil, errors.Wrap(errors.ErrCodeMalformedInput, err, "decode metrics")
	}
	return &t, nil
}

// WriteMetricsCSV writes one row per member in member order, preceded by
// [CSVHeader]. Floats use the shortest representation that round-trips.
func WriteMetricsCSV(w io.Writer, t *centrality.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, row := range t.Rows() {
		rec := []string{
			row.Member,
			strconv.Itoa(row.Degree),
			formatFloat(row.NormalizedDegree),
			formatFloat(row.Closeness),
			formatFloat(row.Betweenness),
			formatFloat(row.Clustering),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadMetricsCSV parses output of [WriteMetricsCSV]. The header must match
// [CSVHeader] exactly.
func ReadMetricsCSV(r io.Reader) (*centrality.Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(CSVHeader)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeMalformedInput, err, "read metrics csv")
	}
	if len(records) == 0 {
		return nil, errors.New(errors.ErrCodeMalformedInput, "metrics csv is empty")
	}
	for i, h := range CSVHeader {
		if records[0][i] != h {
			return nil, errors.New(errors.ErrCodeMalformedInput, "column %d is %q, want %q", i+1, records[0][i], h)
		}
	}

	rows := records[1:]
	members := make([]string, len(rows))
	seen := make(map[string]bool, len(rows))
	for i, rec := range rows {
		if seen[rec[0]] {
			return nil, errors.New(errors.ErrCodeMalformedInput, "line %d: duplicate member %q", i+2, rec[0])
		}
		seen[rec[0]] = true
		members[i] = rec[0]
	}
	t := centrality.NewTable(members)
	for i, rec := range rows {
		m, err := parseRecord(rec)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeMalformedInput, err, "line %d", i+2)
		}
		t.Set(rec[0], m)
	}
	return t, nil
}

func parseRecord(rec []string) (centrality.Metrics, error) {
	var m centrality.Metrics
	var err error
	if m.Degree, err = strconv.Atoi(rec[1]); err != nil {
		return m, err
	}
	floats := []*float64{&m.NormalizedDegree, &m.Closeness, &m.Betweenness, &m.Clustering}
	for i, dst := range floats {
		if *dst, err = strconv.ParseFloat(rec[i+2], 64); err != nil {
			return m, err
		}
	}
	return m, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
