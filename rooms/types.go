package rooms

import "math"

// Point is a 2D coordinate in world units.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Segment is an undirected wall centerline between two endpoints,
// as supplied by the caller.
type Segment struct {
	A Point `json:"a"`
	B Point `json:"b"`
}

// Distance returns the euclidean distance between p and q.
func Distance(p, q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// AlmostEqual reports whether p and q are within eps of each other.
func AlmostEqual(p, q Point, eps float64) bool {
	return Distance(p, q) <= eps
}

// Room is a closed polygonal region reconstructed from the wall graph.
// The polygon is counter-clockwise and has at least 3 vertices; the
// area is always positive.
type Room struct {
	Polygon  []Point `json:"polygon"`
	Area     float64 `json:"area"`
	Centroid Point   `json:"centroid"`
}

// RoomSet is the published result of one plan's extraction.
type RoomSet struct {
	Plan      string `json:"plan"`
	Rooms     []Room `json:"rooms"`
	Timestamp int64  `json:"timestamp"`
}

// SegmentBatch is the wire format for a batch of wall segments.
// Segments are flat [x1, y1, x2, y2] quads. Polylines are point chains
// that get simplified and expanded into consecutive segments on parse.
type SegmentBatch struct {
	Plan      string         `json:"plan,omitempty"`
	Units     string         `json:"units,omitempty"`
	Segments  [][4]float64   `json:"segments,omitempty"`
	Polylines [][][2]float64 `json:"polylines,omitempty"`
}

// PlanConfig defines one segment source from the config file.
type PlanConfig struct {
	ID    string `yaml:"id" json:"id"`
	Topic string `yaml:"topic" json:"topic"`
	Color string `yaml:"color,omitempty" json:"color,omitempty"`
}

// MQTTConfig holds MQTT connection settings.
type MQTTConfig struct {
	Broker        string `yaml:"broker" json:"broker"`
	PublishPrefix string `yaml:"publishPrefix" json:"publishPrefix"`
	ClientID      string `yaml:"clientId" json:"clientId"`
	Username      string `yaml:"username,omitempty" json:"username,omitempty"`
	Password      string `yaml:"password,omitempty" json:"password,omitempty"`
}

// Config represents the full configuration file.
type Config struct {
	MQTT              MQTTConfig   `yaml:"mqtt" json:"mqtt"`
	Plans             []PlanConfig `yaml:"plans" json:"plans"`
	SnapSize          float64      `yaml:"snapSize,omitempty" json:"snapSize,omitempty"`                   // Node snap grid in world units (default 1e-3)
	SimplifyTolerance float64      `yaml:"simplifyTolerance,omitempty" json:"simplifyTolerance,omitempty"` // RDP tolerance for polyline input (0 disables)
	GridSpacing       float64      `yaml:"gridSpacing,omitempty" json:"gridSpacing,omitempty"`             // Grid line spacing in world units for rendering
	RenderResolution  float64      `yaml:"renderResolution,omitempty" json:"renderResolution,omitempty"`   // Vector PNG DPI (default 300)
}

// GetPlanByID returns the plan config for the given ID
func (c *Config) GetPlanByID(id string) *PlanConfig {
	for i := range c.Plans {
		if c.Plans[i].ID == id {
			return &c.Plans[i]
		}
	}
	return nil
}

// GetPlanByTopic returns the plan config subscribed to the given topic
func (c *Config) GetPlanByTopic(topic string) *PlanConfig {
	for i := range c.Plans {
		if c.Plans[i].Topic == topic {
			return &c.Plans[i]
		}
	}
	return nil
}

// EffectiveSnapSize returns the configured snap size or the default
func (c *Config) EffectiveSnapSize() float64 {
	if c.SnapSize > 0 {
		return c.SnapSize
	}
	return DefaultSnapSize
}
