package rooms

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Publisher manages publishing extracted room sets to MQTT
type Publisher struct {
	client        mqtt.Client
	publishPrefix string
	qos           byte
	retain        bool
	roomSets      map[string]*RoomSet
	mu            sync.RWMutex
}

// NewPublisher creates a new room set publisher
// If client is nil, publishing is disabled (for testing)
func NewPublisher(client mqtt.Client) *Publisher {
	prefix := os.Getenv("MQTT_PUBLISH_PREFIX")
	if prefix == "" {
		prefix = "roomgraph"
	}

	return &Publisher{
		client:        client,
		publishPrefix: prefix,
		qos:           0,    // Room sets are recomputed on every batch, fire and forget
		retain:        true, // Retain for the latest floorplan
		roomSets:      make(map[string]*RoomSet),
	}
}

// SetPublishPrefix overrides the topic prefix (config beats the default)
func (p *Publisher) SetPublishPrefix(prefix string) {
	if prefix != "" {
		p.publishPrefix = prefix
	}
}

// PublishRooms publishes a plan's extracted rooms to MQTT.
// Publishes to both the plan topic and the combined floorplan topic
func (p *Publisher) PublishRooms(planID string, roomList []Room) error {
	if p.client == nil || !p.client.IsConnected() {
		return fmt.Errorf("MQTT client not connected")
	}

	set := &RoomSet{
		Plan:      planID,
		Rooms:     roomList,
		Timestamp: time.Now().Unix(),
	}

	// Store room set for combined message
	p.mu.Lock()
	p.roomSets[planID] = set
	p.mu.Unlock()

	// Publish to individual topic: roomgraph/{planID}/rooms
	if err := p.publishIndividual(set); err != nil {
		log.Printf("Error publishing rooms for %s: %v", planID, err)
		return err
	}

	// Publish to combined topic: roomgraph/floorplan
	if err := p.publishCombined(); err != nil {
		log.Printf("Error publishing combined floorplan: %v", err)
		return err
	}

	return nil
}

// publishIndividual publishes a single plan's room set to its topic
func (p *Publisher) publishIndividual(set *RoomSet) error {
	topic := fmt.Sprintf("%s/%s/rooms", p.publishPrefix, set.Plan)

	payload, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("marshaling room set: %w", err)
	}

	token := p.client.Publish(topic, p.qos, p.retain, payload)
	if token.WaitTimeout(2*time.Second) && token.Error() != nil {
		return fmt.Errorf("publishing to %s: %w", topic, token.Error())
	}

	log.Printf("Published %d rooms for %s (total area %.2f m2)",
		len(set.Rooms), set.Plan, totalArea(set.Rooms))
	return nil
}

// publishCombined publishes all plans' room sets to the combined topic
func (p *Publisher) publishCombined() error {
	p.mu.RLock()
	sets := make([]*RoomSet, 0, len(p.roomSets))
	for _, set := range p.roomSets {
		sets = append(sets, set)
	}
	p.mu.RUnlock()

	if len(sets) == 0 {
		return nil
	}

	topic := fmt.Sprintf("%s/floorplan", p.publishPrefix)

	message := map[string]interface{}{
		"plans":     sets,
		"timestamp": time.Now().Unix(),
	}

	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshaling combined floorplan: %w", err)
	}

	token := p.client.Publish(topic, p.qos, p.retain, payload)
	if token.WaitTimeout(2*time.Second) && token.Error() != nil {
		return fmt.Errorf("publishing to %s: %w", topic, token.Error())
	}

	return nil
}

// PublishGeoJSON publishes a plan's rooms and walls as a GeoJSON
// FeatureCollection for map frontends
func (p *Publisher) PublishGeoJSON(planID string, roomList []Room, segments []Segment) error {
	if p.client == nil || !p.client.IsConnected() {
		return fmt.Errorf("MQTT client not connected")
	}

	fc := ToFeatureCollection(roomList, segments, planID)
	payload, err := json.Marshal(fc)
	if err != nil {
		return fmt.Errorf("marshaling GeoJSON: %w", err)
	}

	topic := fmt.Sprintf("%s/%s/geojson", p.publishPrefix, planID)
	token := p.client.Publish(topic, p.qos, p.retain, payload)
	if token.WaitTimeout(2*time.Second) && token.Error() != nil {
		return fmt.Errorf("publishing to %s: %w", topic, token.Error())
	}

	return nil
}

// GetRoomSet returns the last published room set for a plan
func (p *Publisher) GetRoomSet(planID string) (*RoomSet, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	set, ok := p.roomSets[planID]
	return set, ok
}

// GetAllRoomSets returns all known room sets
func (p *Publisher) GetAllRoomSets() map[string]*RoomSet {
	p.mu.RLock()
	defer p.mu.RUnlock()

	// Return a copy to avoid race conditions
	sets := make(map[string]*RoomSet, len(p.roomSets))
	for id, set := range p.roomSets {
		setCopy := *set
		sets[id] = &setCopy
	}
	return sets
}

// ClearRoomSet removes a plan's room set (e.g., when its source goes away)
func (p *Publisher) ClearRoomSet(planID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.roomSets, planID)
}

// SetQoS sets the Quality of Service level for publishing (0, 1, or 2)
func (p *Publisher) SetQoS(qos byte) {
	if qos <= 2 {
		p.qos = qos
	}
}

// SetRetain sets whether published messages should be retained by the broker
func (p *Publisher) SetRetain(retain bool) {
	p.retain = retain
}

func totalArea(roomList []Room) float64 {
	var sum float64
	for _, r := range roomList {
		sum += r.Area
	}
	return sum
}
