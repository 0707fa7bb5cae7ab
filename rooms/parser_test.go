package rooms

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestParseBatchJSON(t *testing.T) {
	tests := []struct {
		name         string
		data         string
		wantErr      error
		wantSegments int
		wantPlan     string
	}{
		{
			name:         "segments only",
			data:         `{"plan":"floor1","segments":[[0,0,1,0],[1,0,1,1]]}`,
			wantSegments: 2,
			wantPlan:     "floor1",
		},
		{
			name:         "polylines only",
			data:         `{"polylines":[[[0,0],[1,0],[1,1]]]}`,
			wantSegments: 0,
		},
		{
			name:    "empty payload",
			data:    "",
			wantErr: ErrEmptyPayload,
		},
		{
			name:    "no geometry",
			data:    `{"plan":"floor1"}`,
			wantErr: ErrNoGeometry,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			batch, err := ParseBatchJSON([]byte(tt.data))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(batch.Segments) != tt.wantSegments {
				t.Errorf("segment count = %d, want %d", len(batch.Segments), tt.wantSegments)
			}
			if batch.Plan != tt.wantPlan {
				t.Errorf("plan = %q, want %q", batch.Plan, tt.wantPlan)
			}
		})
	}
}

func TestParseBatchJSON_InvalidJSON(t *testing.T) {
	if _, err := ParseBatchJSON([]byte("{not json")); err == nil {
		t.Error("expected error for malformed JSON")
	}
}

func TestParseBatchFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.json")
	content := `{"plan":"office","segments":[[0,0,10,0],[10,0,10,10],[10,10,0,10],[0,10,0,0]]}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	batch, err := ParseBatchFile(path)
	if err != nil {
		t.Fatalf("ParseBatchFile: %v", err)
	}
	if len(batch.Segments) != 4 {
		t.Errorf("segment count = %d, want 4", len(batch.Segments))
	}
}

func TestParseBatchFile_Missing(t *testing.T) {
	if _, err := ParseBatchFile(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestExpandBatch_Segments(t *testing.T) {
	batch := &SegmentBatch{
		Segments: [][4]float64{
			{0, 0, 1, 0},
			{1, 0, 1, 1},
		},
	}

	segments := ExpandBatch(batch, 0)
	if len(segments) != 2 {
		t.Fatalf("segment count = %d, want 2", len(segments))
	}
	if segments[0].A != (Point{0, 0}) || segments[0].B != (Point{1, 0}) {
		t.Errorf("segment 0 = %+v", segments[0])
	}
}

func TestExpandBatch_Polylines(t *testing.T) {
	batch := &SegmentBatch{
		Polylines: [][][2]float64{
			{{0, 0}, {1, 0}, {1, 1}, {0, 1}},
			{{5, 5}}, // too short, skipped
		},
	}

	segments := ExpandBatch(batch, 0)
	if len(segments) != 3 {
		t.Fatalf("segment count = %d, want 3", len(segments))
	}
	if segments[2].A != (Point{1, 1}) || segments[2].B != (Point{0, 1}) {
		t.Errorf("segment 2 = %+v", segments[2])
	}
}

func TestExpandBatch_SimplifiesCollinearRuns(t *testing.T) {
	// A straight run sampled at every unit collapses to a single segment
	// once Douglas-Peucker is applied.
	chain := make([][2]float64, 0, 11)
	for i := 0; i <= 10; i++ {
		chain = append(chain, [2]float64{float64(i), 0})
	}
	batch := &SegmentBatch{Polylines: [][][2]float64{chain}}

	segments := ExpandBatch(batch, 0.01)
	if len(segments) != 1 {
		t.Fatalf("segment count = %d, want 1", len(segments))
	}
	if math.Abs(segments[0].B.X-10) > 1e-12 {
		t.Errorf("simplified endpoint = %+v, want x=10", segments[0].B)
	}
}

func TestExpandBatch_Nil(t *testing.T) {
	if got := ExpandBatch(nil, 0); got != nil {
		t.Errorf("ExpandBatch(nil) = %v, want nil", got)
	}
}
