// Package io reads and writes projections and metric tables.
//
// # Graph JSON
//
// [WriteGraph] emits node-link JSON, the format consumed by the render and
// serve commands:
//
//	{
//	  "nodes": [
//	    {"id": "alice", "metrics": {"degree": 1, "closeness": 1, ...}},
//	    {"id": "bob"}
//	  ],
//	  "edges": [
//	    {"source": "alice", "target": "bob", "weight": 2}
//	  ]
//	}
//
// Nodes are sorted by id and every undirected edge appears once with
// source < target, so output is byte-stable for a given projection.
// [ReadGraph] validates the document with the same rules as
// [projection.FromEdges].
//
// # Metrics
//
// [WriteMetricsJSON] writes an object keyed by member. [WriteMetricsCSV]
// writes one row per member under [CSVHeader]. Both have readers that
// reproduce the table.
//
// # GEXF
//
// [WriteGEXF] targets Gephi: the projection with edge weights and, when a
// table is given, one node attribute per metric. [WriteBipartiteGEXF]
// exports the raw membership relation with repo and user nodes instead.
//
// # Files
//
// The Export and Import variants work on paths. A missing input file is
// reported with code FILE_NOT_FOUND; malformed content with
// MALFORMED_INPUT. [FormatFromPath] picks a writer from a file extension.
package io
