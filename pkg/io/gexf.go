package io

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"

	"github.com/matzehuels/contribnet/pkg/centrality"
	"github.com/matzehuels/contribnet/pkg/membership"
	"github.com/matzehuels/contribnet/pkg/projection"
)

const gexfNamespace = "http://www.gexf.net/1.2draft"

type gexfDoc struct {
	XMLName xml.Name  `xml:"gexf"`
	XMLNS   string    `xml:"xmlns,attr"`
	Version string    `xml:"version,attr"`
	Graph   gexfGraph `xml:"graph"`
}

type gexfGraph struct {
	Mode            string          `xml:"mode,attr"`
	DefaultEdgeType string          `xml:"defaultedgetype,attr"`
	Attributes      *gexfAttributes `xml:"attributes,omitempty"`
	Nodes           []gexfNode      `xml:"nodes>node"`
	Edges           []gexfEdge      `xml:"edges>edge"`
}

type gexfAttributes struct {
	Class      string          `xml:"class,attr"`
	Attributes []gexfAttribute `xml:"attribute"`
}

type gexfAttribute struct {
	ID    string `xml:"id,attr"`
	Title string `xml:"title,attr"`
	Type  string `xml:"type,attr"`
}

type gexfNode struct {
	ID     string          `xml:"id,attr"`
	Label  string          `xml:"label,attr"`
	Values []gexfAttrValue `xml:"attvalues>attvalue,omitempty"`
}

type gexfAttrValue struct {
	For   string `xml:"for,attr"`
	Value string `xml:"value,attr"`
}

type gexfEdge struct {
	ID     string `xml:"id,attr"`
	Source string `xml:"source,attr"`
	Target string `xml:"target,attr"`
	Weight int    `xml:"weight,attr"`
}

func newGEXF(attrs *gexfAttributes) gexfDoc {
	return gexfDoc{
		XMLNS:   gexfNamespace,
		Version: "1.2",
		Graph: gexfGraph{
			Mode:            "static",
			DefaultEdgeType: "undirected",
			Attributes:      attrs,
		},
	}
}

// WriteGEXF writes the weighted projection as GEXF 1.2 for Gephi and
// similar tools. With a non-nil table every metric becomes a node
// attribute.
func WriteGEXF(w io.Writer, g *projection.Graph, t *centrality.Table) error {
	var attrs *gexfAttributes
	if t != nil {
		attrs = &gexfAttributes{Class: "node"}
		for _, m := range centrality.AllMetrics {
			typ := "double"
			if m == centrality.MetricDegree {
				typ = "integer"
			}
			attrs.Attributes = append(attrs.Attributes, gexfAttribute{ID: string(m), Title: string(m), Type: typ})
		}
	}
	doc := newGEXF(attrs)

	for _, id := range g.Nodes() {
		n := gexfNode{ID: id, Label: id}
		if t != nil {
			if m, ok := t.Get(id); ok {
				for _, metric := range centrality.AllMetrics {
					v := formatFloat(m.Value(metric))
					if metric == centrality.MetricDegree {
						v = strconv.Itoa(m.Degree)
					}
					n.Values = append(n.Values, gexfAttrValue{For: string(metric), Value: v})
				}
			}
		}
		doc.Graph.Nodes = append(doc.Graph.Nodes, n)
	}
	for i, e := range g.Edges() {
		doc.Graph.Edges = append(doc.Graph.Edges, gexfEdge{
			ID:     strconv.Itoa(i),
			Source: e.Source,
			Target: e.Target,
			Weight: e.Weight,
		})
	}
	return encodeXML(w, doc)
}

// WriteBipartiteGEXF writes the raw membership relation as GEXF: one node
// per group (type "repo") and member (type "user"), and one weight-1 edge
// from each member to each of its groups.
//
// Group and member identifiers share one namespace in the output, so an
// identifier used as both is prefixed with its type.
func WriteBipartiteGEXF(w io.Writer, rel membership.Relation) error {
	doc := newGEXF(&gexfAttributes{
		Class:      "node",
		Attributes: []gexfAttribute{{ID: "type", Title: "type", Type: "string"}},
	})

	groups := rel.Groups()
	members := rel.AllMembers()
	isGroup := make(map[string]bool, len(groups))
	for _, g := range groups {
		isGroup[g] = true
	}
	memberID := func(m string) string {
		if isGroup[m] {
			return "user:" + m
		}
		return m
	}
	isMember := make(map[string]bool, len(members))
	for _, m := range members {
		isMember[m] = true
	}
	groupID := func(g string) string {
		if isMember[g] {
			return "repo:" + g
		}
		return g
	}

	for _, g := range groups {
		doc.Graph.Nodes = append(doc.Graph.Nodes, gexfNode{
			ID:     groupID(g),
			Label:  g,
			Values: []gexfAttrValue{{For: "type", Value: "repo"}},
		})
	}
	for _, m := range members {
		doc.Graph.Nodes = append(doc.Graph.Nodes, gexfNode{
			ID:     memberID(m),
			Label:  m,
			Values: []gexfAttrValue{{For: "type", Value: "user"}},
		})
	}
	for _, g := range groups {
		for _, m := range rel.Members(g) {
			doc.Graph.Edges = append(doc.Graph.Edges, gexfEdge{
				ID:     strconv.Itoa(len(doc.Graph.Edges)),
				Source: memberID(m),
				Target: groupID(g),
				Weight: 1,
			})
		}
	}
	return encodeXML(w, doc)
}

// ExportGEXF writes [WriteGEXF] output to path.
func ExportGEXF(path string, g *projection.Graph, t *centrality.Table) error {
	return writeFile(path, func(w io.Writer) error { return WriteGEXF(w, g, t) })
}

func encodeXML(w io.Writer, v any) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode gexf: %w", err)
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}
