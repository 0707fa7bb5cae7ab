package rooms

import (
	"encoding/json"
	"testing"
)

func TestNewPublisher(t *testing.T) {
	publisher := NewPublisher(nil)
	if publisher == nil {
		t.Fatal("NewPublisher() returned nil")
	}

	if publisher.publishPrefix != "roomgraph" {
		t.Errorf("Default prefix = %s, want roomgraph", publisher.publishPrefix)
	}

	if publisher.qos != 0 {
		t.Errorf("Default QoS = %d, want 0", publisher.qos)
	}

	if !publisher.retain {
		t.Error("Default retain should be true")
	}

	if publisher.roomSets == nil {
		t.Error("Room set map should be initialized")
	}
}

func TestPublisher_PublishRooms(t *testing.T) {
	mockClient := NewMockClient()
	mockClient.SetConnected(true)

	publisher := NewPublisher(mockClient)

	g := NewGraph()
	g.Build(square(0, 0, 10))

	if err := publisher.PublishRooms("floor1", g.Rooms()); err != nil {
		t.Fatalf("PublishRooms: %v", err)
	}

	messages := mockClient.GetPublishedMessages()
	if len(messages) != 2 {
		t.Fatalf("published %d messages, want 2 (individual + combined)", len(messages))
	}

	if messages[0].Topic != "roomgraph/floor1/rooms" {
		t.Errorf("individual topic = %s", messages[0].Topic)
	}
	if messages[1].Topic != "roomgraph/floorplan" {
		t.Errorf("combined topic = %s", messages[1].Topic)
	}

	var set RoomSet
	if err := json.Unmarshal(messages[0].Payload, &set); err != nil {
		t.Fatalf("individual payload is not a RoomSet: %v", err)
	}
	if set.Plan != "floor1" || len(set.Rooms) != 1 {
		t.Errorf("published set = %+v", set)
	}
	if set.Timestamp == 0 {
		t.Error("timestamp not set")
	}
}

func TestPublisher_PublishRooms_NotConnected(t *testing.T) {
	mockClient := NewMockClient()

	publisher := NewPublisher(mockClient)
	if err := publisher.PublishRooms("floor1", nil); err == nil {
		t.Error("expected error when client is not connected")
	}
}

func TestPublisher_PublishRooms_NilClient(t *testing.T) {
	publisher := NewPublisher(nil)
	if err := publisher.PublishRooms("floor1", nil); err == nil {
		t.Error("expected error with nil client")
	}
}

func TestPublisher_PublishGeoJSON(t *testing.T) {
	mockClient := NewMockClient()
	mockClient.SetConnected(true)

	publisher := NewPublisher(mockClient)

	segments := square(0, 0, 5)
	g := NewGraph()
	g.Build(segments)

	if err := publisher.PublishGeoJSON("floor1", g.Rooms(), segments); err != nil {
		t.Fatalf("PublishGeoJSON: %v", err)
	}

	messages := mockClient.GetPublishedMessages()
	if len(messages) != 1 {
		t.Fatalf("published %d messages, want 1", len(messages))
	}
	if messages[0].Topic != "roomgraph/floor1/geojson" {
		t.Errorf("topic = %s", messages[0].Topic)
	}

	var check struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(messages[0].Payload, &check); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if check.Type != "FeatureCollection" {
		t.Errorf("payload type = %s, want FeatureCollection", check.Type)
	}
}

func TestPublisher_GetRoomSet(t *testing.T) {
	publisher := NewPublisher(nil)

	if _, ok := publisher.GetRoomSet("floor1"); ok {
		t.Error("GetRoomSet() should return false for unknown plan")
	}

	publisher.roomSets["floor1"] = &RoomSet{
		Plan:      "floor1",
		Rooms:     []Room{{Area: 12.5}},
		Timestamp: 1234567890,
	}

	set, ok := publisher.GetRoomSet("floor1")
	if !ok {
		t.Fatal("GetRoomSet() should return true for stored plan")
	}
	if set.Plan != "floor1" || len(set.Rooms) != 1 {
		t.Errorf("set = %+v", set)
	}
}

func TestPublisher_GetAllRoomSets(t *testing.T) {
	publisher := NewPublisher(nil)

	if sets := publisher.GetAllRoomSets(); len(sets) != 0 {
		t.Errorf("GetAllRoomSets() with empty state = %d sets, want 0", len(sets))
	}

	publisher.roomSets["floor1"] = &RoomSet{Plan: "floor1"}
	publisher.roomSets["floor2"] = &RoomSet{Plan: "floor2"}

	sets := publisher.GetAllRoomSets()
	if len(sets) != 2 {
		t.Fatalf("GetAllRoomSets() = %d sets, want 2", len(sets))
	}

	// Returned data must be a copy, not internal references
	sets["floor1"].Timestamp = 999
	if publisher.roomSets["floor1"].Timestamp == 999 {
		t.Error("GetAllRoomSets() should return a copy, not internal references")
	}
}

func TestPublisher_ClearRoomSet(t *testing.T) {
	publisher := NewPublisher(nil)
	publisher.roomSets["floor1"] = &RoomSet{Plan: "floor1"}

	publisher.ClearRoomSet("floor1")

	if _, ok := publisher.GetRoomSet("floor1"); ok {
		t.Error("room set should not exist after clearing")
	}
}

func TestPublisher_SetQoS(t *testing.T) {
	publisher := NewPublisher(nil)

	tests := []struct {
		name     string
		qos      byte
		expected byte
	}{
		{"QoS 0", 0, 0},
		{"QoS 1", 1, 1},
		{"QoS 2", 2, 2},
		{"Invalid QoS 3", 3, 2}, // Rejected, keeps previous value
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			publisher.SetQoS(tt.qos)
			if publisher.qos != tt.expected {
				t.Errorf("QoS = %d, want %d", publisher.qos, tt.expected)
			}
		})
	}
}

func TestPublisher_SetPublishPrefix(t *testing.T) {
	publisher := NewPublisher(nil)

	publisher.SetPublishPrefix("floorplans")
	if publisher.publishPrefix != "floorplans" {
		t.Errorf("prefix = %s, want floorplans", publisher.publishPrefix)
	}

	// Empty prefix keeps the current one
	publisher.SetPublishPrefix("")
	if publisher.publishPrefix != "floorplans" {
		t.Errorf("prefix = %s, empty override must be ignored", publisher.publishPrefix)
	}
}

func TestTotalArea(t *testing.T) {
	roomList := []Room{{Area: 10.5}, {Area: 4.5}}
	if got := totalArea(roomList); got != 15 {
		t.Errorf("totalArea = %v, want 15", got)
	}
	if got := totalArea(nil); got != 0 {
		t.Errorf("totalArea(nil) = %v, want 0", got)
	}
}
