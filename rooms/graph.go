package rooms

import (
	"math"
	"sort"
)

// DefaultSnapSize is the node snap grid in world units. Endpoints whose
// quantized grid keys coincide are merged onto a single node.
const DefaultSnapSize = 1e-3

// unset marks a missing node or edge reference in the graph arenas.
const unset = -1

// Node is a unique snapped point in the wall graph.
type Node struct {
	ID  int
	Pos Point

	// Outgoing holds the ids of half-edges leaving this node. After
	// Build it is sorted ascending by edge angle.
	Outgoing []int
}

// HalfEdge is one directed traversal of a wall segment. Each segment is
// stored as two opposite half-edges that are mutual twins.
type HalfEdge struct {
	ID    int
	From  int
	To    int
	Twin  int
	Next  int     // next edge when walking around a face; unset if none
	Angle float64 // direction angle at the From node, atan2 range (-pi, pi]
}

// gridKey is a node lookup key quantized to the snap grid.
// It is never exposed outside the graph.
type gridKey struct {
	ix int
	iy int
}

// Graph reconstructs closed rooms from an unordered set of wall
// centerline segments using a half-edge graph and a face walk. Nodes and
// edges are kept in flat arenas and referenced by integer id.
//
// A Graph is not safe for concurrent use; callers must serialize Build
// invocations.
type Graph struct {
	snapSize  float64
	nodes     []Node
	edges     []HalfEdge
	rooms     []Room
	nodeIndex map[gridKey]int

	// malformedWalks counts face walks that ran into an edge already
	// used by another walk. This should not happen on well-formed
	// planar input; the walk is discarded and the count kept for
	// diagnostics.
	malformedWalks int
}

// NewGraph returns an empty graph with the default snap size.
func NewGraph() *Graph {
	return NewGraphWithSnap(DefaultSnapSize)
}

// NewGraphWithSnap returns an empty graph using the given snap grid
// size. Non-positive values fall back to the default.
func NewGraphWithSnap(snapSize float64) *Graph {
	if snapSize <= 0 {
		snapSize = DefaultSnapSize
	}
	return &Graph{
		snapSize:  snapSize,
		nodeIndex: make(map[gridKey]int),
	}
}

func (g *Graph) clear() {
	g.nodes = nil
	g.edges = nil
	g.rooms = nil
	g.nodeIndex = make(map[gridKey]int)
	g.malformedWalks = 0
}

// Build discards any prior graph state and reconstructs all rooms from
// the given segments. Degenerate segments (zero length after snapping)
// are dropped silently; anomalies during the face walk discard the
// affected loop, never fail the build.
func (g *Graph) Build(segments []Segment) {
	g.clear()

	if len(segments) == 0 {
		return
	}

	g.buildNodesAndEdges(segments)
	g.sortOutgoingByAngle()
	g.buildNextRelations()
	g.walkCycles()
}

// Rooms returns the rooms extracted by the last Build, in discovery
// order. The returned slice is owned by the graph and must not be
// modified.
func (g *Graph) Rooms() []Room {
	return g.rooms
}

// MalformedWalks returns the number of face walks discarded because
// they reached an edge consumed by an earlier walk.
func (g *Graph) MalformedWalks() int {
	return g.malformedWalks
}

// findOrCreateNode snaps the point to the grid and reuses an existing
// node when one occupies the same cell. New nodes store the original
// unsnapped position. Points within snap distance that straddle a cell
// boundary can still land on distinct nodes; that asymmetry is accepted.
func (g *Graph) findOrCreateNode(p Point) int {
	key := gridKey{
		ix: int(math.Floor(p.X/g.snapSize + 0.5)),
		iy: int(math.Floor(p.Y/g.snapSize + 0.5)),
	}

	if id, ok := g.nodeIndex[key]; ok {
		return id
	}

	id := len(g.nodes)
	g.nodes = append(g.nodes, Node{ID: id, Pos: p})
	g.nodeIndex[key] = id
	return id
}

// buildNodesAndEdges converts each input segment into two directed
// half-edges and registers them on the corresponding nodes.
func (g *Graph) buildNodesAndEdges(segments []Segment) {
	g.nodes = make([]Node, 0, len(segments)*2)
	g.edges = make([]HalfEdge, 0, len(segments)*2)

	for _, s := range segments {
		a := g.findOrCreateNode(s.A)
		b := g.findOrCreateNode(s.B)

		// Zero length after snapping.
		if a == b {
			continue
		}

		pa := g.nodes[a].Pos
		pb := g.nodes[b].Pos

		e1 := HalfEdge{
			ID:    len(g.edges),
			From:  a,
			To:    b,
			Next:  unset,
			Angle: math.Atan2(pb.Y-pa.Y, pb.X-pa.X),
		}
		e2 := HalfEdge{
			ID:    e1.ID + 1,
			From:  b,
			To:    a,
			Next:  unset,
			Angle: math.Atan2(pa.Y-pb.Y, pa.X-pb.X),
		}
		e1.Twin = e2.ID
		e2.Twin = e1.ID

		g.nodes[a].Outgoing = append(g.nodes[a].Outgoing, e1.ID)
		g.nodes[b].Outgoing = append(g.nodes[b].Outgoing, e2.ID)

		g.edges = append(g.edges, e1, e2)
	}
}

// sortOutgoingByAngle orders each node's outgoing half-edges ascending
// by angle, giving a consistent circular ordering around the point.
// Edges with exactly equal angles (duplicate collinear segments) keep
// an unspecified relative order.
func (g *Graph) sortOutgoingByAngle() {
	for i := range g.nodes {
		out := g.nodes[i].Outgoing
		if len(out) <= 1 {
			continue
		}
		sort.Slice(out, func(a, b int) bool {
			return g.edges[out[a]].Angle < g.edges[out[b]].Angle
		})
	}
}

// buildNextRelations computes the face-walk successor of every
// half-edge. For an edge from A to B, we stand at B, locate twin(e) in
// B's angularly sorted outgoing list and take the edge just before it
// (wrapping), i.e. turning right. Following Next then traces the
// boundary of the face on the left of the traversal direction: bounded
// interior faces close counter-clockwise, the unbounded exterior
// clockwise.
func (g *Graph) buildNextRelations() {
	for i := range g.edges {
		e := &g.edges[i]

		if e.To < 0 || e.To >= len(g.nodes) {
			continue
		}

		out := g.nodes[e.To].Outgoing
		if len(out) == 0 {
			continue
		}

		pos := -1
		for k, id := range out {
			if id == e.Twin {
				pos = k
				break
			}
		}
		if pos < 0 {
			continue
		}

		n := len(out)
		e.Next = out[(pos-1+n)%n]
	}
}
