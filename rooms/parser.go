package rooms

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/simplify"
)

// Parse errors
var (
	ErrEmptyPayload = errors.New("empty segment payload")
	ErrNoGeometry   = errors.New("batch contains no segments or polylines")
)

// ParseBatchJSON parses a JSON segment batch. The payload must contain
// at least one segment or polyline entry.
func ParseBatchJSON(data []byte) (*SegmentBatch, error) {
	if len(data) == 0 {
		return nil, ErrEmptyPayload
	}

	var batch SegmentBatch
	if err := json.Unmarshal(data, &batch); err != nil {
		return nil, fmt.Errorf("parsing segment batch JSON: %w", err)
	}

	if len(batch.Segments) == 0 && len(batch.Polylines) == 0 {
		return nil, ErrNoGeometry
	}

	return &batch, nil
}

// ParseBatchFile reads and parses a segment batch from a JSON file.
func ParseBatchFile(path string) (*SegmentBatch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading segment file: %w", err)
	}
	return ParseBatchJSON(data)
}

// ExpandBatch flattens a batch into the segment list the graph
// consumes. Direct segments are taken as-is. Polylines are simplified
// with Ramer-Douglas-Peucker at the given tolerance (0 disables) and
// split into consecutive segments. Polylines with fewer than two points
// are skipped.
func ExpandBatch(batch *SegmentBatch, tolerance float64) []Segment {
	if batch == nil {
		return nil
	}

	segments := make([]Segment, 0, len(batch.Segments))
	for _, q := range batch.Segments {
		segments = append(segments, Segment{
			A: Point{X: q[0], Y: q[1]},
			B: Point{X: q[2], Y: q[3]},
		})
	}

	for _, chain := range batch.Polylines {
		if len(chain) < 2 {
			continue
		}

		ls := make(orb.LineString, len(chain))
		for i, c := range chain {
			ls[i] = orb.Point{c[0], c[1]}
		}

		if tolerance > 0 {
			simplified := simplify.DouglasPeucker(tolerance).Simplify(ls)
			if result, ok := simplified.(orb.LineString); ok {
				ls = result
			}
		}

		for i := 0; i+1 < len(ls); i++ {
			segments = append(segments, Segment{
				A: Point{X: ls[i][0], Y: ls[i][1]},
				B: Point{X: ls[i+1][0], Y: ls[i+1][1]},
			})
		}
	}

	return segments
}
