package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kwv/roomgraph/rooms"
)

// App encapsulates the application state and dependencies
type App struct {
	Config       *rooms.Config
	StateTracker *rooms.StateTracker
	MQTTClient   *rooms.MQTTClient
	Publisher    *rooms.Publisher

	// CLI Flags (effectively dependencies)
	ConfigFile        string
	FloorplanCache    string
	InitConfig        bool
	ExtractFile       string
	OutputFile        string
	OutputFormat      string
	SnapSize          float64
	SimplifyTolerance float64
	GridSpacing       float64
	HttpPort          int
	MqttMode          bool
	HttpMode          bool
}

// NewApp creates a new App instance
func NewApp() *App {
	return &App{
		StateTracker: rooms.NewStateTracker(),
	}
}

// ApplyOptions applies CLI options to the App instance
func (a *App) ApplyOptions(opts AppOptions) {
	a.ConfigFile = opts.ConfigFile
	a.FloorplanCache = opts.FloorplanCache
	a.InitConfig = opts.InitConfig
	a.ExtractFile = opts.ExtractFile
	a.OutputFile = opts.OutputFile
	a.OutputFormat = opts.OutputFormat
	a.SnapSize = opts.SnapSize
	a.SimplifyTolerance = opts.SimplifyTolerance
	a.GridSpacing = opts.GridSpacing
	a.HttpPort = opts.HttpPort
	a.MqttMode = opts.MqttMode
	a.HttpMode = opts.HttpMode
}

// RunInitConfig writes a starter config file to the configured path.
// Refuses to overwrite an existing file.
func (a *App) RunInitConfig() error {
	if _, err := os.Stat(a.ConfigFile); err == nil {
		return fmt.Errorf("config file already exists: %s", a.ConfigFile)
	}

	config := &rooms.Config{
		MQTT: rooms.MQTTConfig{
			Broker:        "mqtt://localhost:1883",
			PublishPrefix: "roomgraph",
			ClientID:      "roomgraph",
		},
		Plans: []rooms.PlanConfig{
			{ID: "floor1", Topic: "cad/floor1/segments", Color: "#3498db"},
		},
		GridSpacing: 1.0,
	}

	if err := rooms.SaveConfig(a.ConfigFile, config); err != nil {
		return fmt.Errorf("write starter config: %w", err)
	}

	fmt.Printf("Created: %s\n", a.ConfigFile)
	fmt.Println("Edit the broker and plan topics, then run with --mqtt and/or --http")
	return nil
}

// RunExtract reads a segment batch file, reconstructs rooms, and writes
// the result in the requested format
func (a *App) RunExtract() error {
	batch, err := rooms.ParseBatchFile(a.ExtractFile)
	if err != nil {
		return fmt.Errorf("parse %s: %w", a.ExtractFile, err)
	}

	segments := rooms.ExpandBatch(batch, a.SimplifyTolerance)
	fmt.Printf("Loaded %d segments from %s\n", len(segments), a.ExtractFile)

	graph := rooms.NewGraphWithSnap(a.SnapSize)
	graph.Build(segments)
	roomList := graph.Rooms()

	fmt.Printf("Extracted %d room(s)\n", len(roomList))
	for i, room := range roomList {
		fmt.Printf("  %d: area=%.2f centroid=(%.2f, %.2f) vertices=%d\n",
			i+1, room.Area, room.Centroid.X, room.Centroid.Y, len(room.Polygon))
	}
	if malformed := graph.MalformedWalks(); malformed > 0 {
		fmt.Printf("Discarded %d malformed walk(s)\n", malformed)
	}

	switch a.OutputFormat {
	case "json":
		set := rooms.RoomSet{
			Plan:      batch.Plan,
			Rooms:     roomList,
			Timestamp: time.Now().Unix(),
		}
		data, err := json.MarshalIndent(set, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal rooms: %w", err)
		}
		if err := os.WriteFile(a.OutputFile, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", a.OutputFile, err)
		}

	case "geojson":
		fc := rooms.ToFeatureCollection(roomList, segments, batch.Plan)
		data, err := rooms.MarshalGeoJSON(fc)
		if err != nil {
			return fmt.Errorf("marshal geojson: %w", err)
		}
		if err := os.WriteFile(a.OutputFile, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", a.OutputFile, err)
		}

	case "svg":
		renderer := rooms.NewVectorRenderer(segments, roomList)
		if a.GridSpacing > 0 {
			renderer.GridSpacing = a.GridSpacing
		}
		f, err := os.Create(a.OutputFile)
		if err != nil {
			return fmt.Errorf("create %s: %w", a.OutputFile, err)
		}
		defer func() { _ = f.Close() }()
		if err := renderer.RenderToSVG(f); err != nil {
			return fmt.Errorf("render svg: %w", err)
		}

	case "png":
		renderer := rooms.NewRasterRenderer(segments, roomList)
		if err := renderer.SavePNG(a.OutputFile); err != nil {
			return fmt.Errorf("render png: %w", err)
		}

	default:
		return fmt.Errorf("invalid format: %s (must be svg, png, json, or geojson)", a.OutputFormat)
	}

	fmt.Printf("Created: %s\n", a.OutputFile)
	return nil
}

// RunService starts the combined MQTT and/or HTTP service
func (a *App) RunService() {
	fmt.Println("Starting roomgraph service...")

	// 1. Load config.yaml (required)
	config, err := rooms.LoadConfig(a.ConfigFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v (looked at %s)", err, a.ConfigFile)
	}
	a.Config = config
	log.Printf("Loaded config from %s", a.ConfigFile)

	// CLI flags override config tuning when set
	if a.SnapSize > 0 {
		config.SnapSize = a.SnapSize
	}
	if a.SimplifyTolerance > 0 {
		config.SimplifyTolerance = a.SimplifyTolerance
	}
	if a.GridSpacing > 0 && config.GridSpacing == 0 {
		config.GridSpacing = a.GridSpacing
	}

	// 2. State tracker with floorplan cache so a restart keeps the last
	// extraction
	a.StateTracker = rooms.NewStateTrackerWithCache(a.FloorplanCache)
	if a.StateTracker.HasPlans() {
		log.Printf("Restored floorplan state from %s", a.FloorplanCache)
	}

	// Set colors from config
	for _, plan := range config.Plans {
		if plan.Color != "" {
			a.StateTracker.SetColor(plan.ID, plan.Color)
		}
	}

	// 3. Start MQTT if enabled
	if a.MqttMode {
		messageHandler := func(planID string, rawPayload []byte, batch *rooms.SegmentBatch, err error) {
			if err != nil {
				log.Printf("Error receiving segment batch for %s: %v (%d bytes)", planID, err, len(rawPayload))
				return
			}

			segments := rooms.ExpandBatch(batch, config.SimplifyTolerance)
			if len(segments) == 0 {
				log.Printf("%s: batch contained no segments", planID)
				return
			}

			graph := rooms.NewGraphWithSnap(config.EffectiveSnapSize())
			graph.Build(segments)
			roomList := graph.Rooms()

			log.Printf("%s: %d segments -> %d room(s), %d malformed walk(s)",
				planID, len(segments), len(roomList), graph.MalformedWalks())

			a.StateTracker.UpdatePlan(planID, segments, roomList, graph.MalformedWalks())

			if a.Publisher != nil {
				if err := a.Publisher.PublishRooms(planID, roomList); err != nil {
					log.Printf("Error publishing rooms for %s: %v", planID, err)
				}
				if err := a.Publisher.PublishGeoJSON(planID, roomList, segments); err != nil {
					log.Printf("Error publishing GeoJSON for %s: %v", planID, err)
				}
			}
		}

		mqttClient, err := rooms.InitMQTT(config, messageHandler)
		if err != nil {
			log.Fatalf("Failed to initialize MQTT: %v", err)
		}
		a.MQTTClient = mqttClient

		if mqttClient == nil {
			log.Fatal("MQTT broker not configured in config.yaml")
		}

		a.Publisher = rooms.NewPublisher(mqttClient.GetClient())
		a.Publisher.SetPublishPrefix(config.MQTT.PublishPrefix)
		fmt.Println("MQTT room publisher initialized")
	}

	// 4. Start HTTP server if enabled
	if a.HttpMode {
		httpServer := newHTTPServer(a.StateTracker, a.Config)
		go func() {
			addr := fmt.Sprintf("0.0.0.0:%d", a.HttpPort)
			log.Printf("[HTTP] Starting server on %s", addr)
			if err := http.ListenAndServe(addr, httpServer); err != nil {
				log.Fatalf("[HTTP] Server error: %v", err)
			}
		}()
	}

	// 5. Print service info
	fmt.Println("\nService Running")
	fmt.Println("===============")

	if a.MqttMode {
		fmt.Println("\nMQTT:")
		fmt.Println("  Subscribed topics:")
		for _, plan := range config.Plans {
			fmt.Printf("    - %s (%s)\n", plan.Topic, plan.ID)
		}
		publishPrefix := config.MQTT.PublishPrefix
		if publishPrefix == "" {
			publishPrefix = "roomgraph"
		}
		fmt.Printf("  Publishing rooms to: %s/{planID}/rooms\n", publishPrefix)
		fmt.Printf("  Combined floorplan: %s/floorplan\n", publishPrefix)
	}

	if a.HttpMode {
		fmt.Printf("\nHTTP endpoints (port %d):\n", a.HttpPort)
		fmt.Println("  GET /health         - Health check")
		fmt.Println("  GET /rooms.json     - Per-plan extraction state")
		fmt.Println("  GET /rooms.geojson  - Combined floorplan as GeoJSON")
		fmt.Println("  GET /floorplan.svg  - Combined floorplan as SVG")
		fmt.Println("  GET /floorplan.png  - Combined floorplan as PNG")
	}

	fmt.Println("\nPress Ctrl+C to stop")

	// 6. Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan

	fmt.Println("\nShutting down service...")
	if a.MQTTClient != nil {
		a.MQTTClient.Disconnect()
	}
	fmt.Println("Service stopped")
}
