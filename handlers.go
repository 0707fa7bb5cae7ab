package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/tdewolff/canvas"

	"github.com/kwv/roomgraph/rooms"
)

// newHTTPServer creates the HTTP handler serving floorplan state and
// rendered output
func newHTTPServer(stateTracker *rooms.StateTracker, config *rooms.Config) http.Handler {
	mux := http.NewServeMux()

	gridSpacing := 1.0
	resolution := 300.0
	if config != nil {
		if config.GridSpacing > 0 {
			gridSpacing = config.GridSpacing
		}
		if config.RenderResolution > 0 {
			resolution = config.RenderResolution
		}
	}

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		response := map[string]interface{}{
			"status":    "ok",
			"timestamp": time.Now().Unix(),
			"hasPlans":  stateTracker.HasPlans(),
		}
		if err := json.NewEncoder(w).Encode(response); err != nil {
			log.Printf("[HTTP] Error encoding health response: %v", err)
		}
	})

	// Raw per-plan state as JSON
	mux.HandleFunc("/rooms.json", func(w http.ResponseWriter, r *http.Request) {
		if !stateTracker.HasPlans() {
			http.Error(w, "No plan data available yet", http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		if err := json.NewEncoder(w).Encode(stateTracker.GetAllPlans()); err != nil {
			log.Printf("[HTTP] Error encoding plan state: %v", err)
		}
	})

	// Combined floorplan as a GeoJSON FeatureCollection
	mux.HandleFunc("/rooms.geojson", func(w http.ResponseWriter, r *http.Request) {
		if !stateTracker.HasPlans() {
			http.Error(w, "No plan data available yet", http.StatusServiceUnavailable)
			return
		}

		segments, roomList := stateTracker.CombinedFloorplan()
		fc := rooms.ToFeatureCollection(roomList, segments, "")
		data, err := rooms.MarshalGeoJSON(fc)
		if err != nil {
			log.Printf("[HTTP] Error marshaling GeoJSON: %v", err)
			http.Error(w, "Failed to generate GeoJSON", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/geo+json")
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		if _, err := w.Write(data); err != nil {
			log.Printf("[HTTP] Error writing GeoJSON: %v", err)
		}
	})

	// Combined floorplan as SVG
	mux.HandleFunc("/floorplan.svg", func(w http.ResponseWriter, r *http.Request) {
		if !stateTracker.HasPlans() {
			http.Error(w, "No plan data available yet", http.StatusServiceUnavailable)
			return
		}

		_, roomList := stateTracker.CombinedFloorplan()
		renderer := rooms.NewVectorRenderer(nil, roomList)
		renderer.Layers = stateTracker.CombinedLayers()
		renderer.GridSpacing = gridSpacing

		w.Header().Set("Content-Type", "image/svg+xml")
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		if err := renderer.RenderToSVG(w); err != nil {
			log.Printf("[HTTP] Error rendering SVG: %v", err)
		}
	})

	// Combined floorplan as a rasterized PNG
	mux.HandleFunc("/floorplan.png", func(w http.ResponseWriter, r *http.Request) {
		if !stateTracker.HasPlans() {
			http.Error(w, "No plan data available yet", http.StatusServiceUnavailable)
			return
		}

		_, roomList := stateTracker.CombinedFloorplan()
		renderer := rooms.NewVectorRenderer(nil, roomList)
		renderer.Layers = stateTracker.CombinedLayers()
		renderer.GridSpacing = gridSpacing
		renderer.Resolution = canvas.DPI(resolution)

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		if err := renderer.RenderToPNG(w); err != nil {
			log.Printf("[HTTP] Error rendering PNG: %v", err)
		}
	})

	// Default page embeds the SVG floorplan
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}

		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<!DOCTYPE html>
<html>
<head>
    <title>roomgraph</title>
    <style>
        body { font-family: sans-serif; margin: 2em; background: #fafafa; }
        img { max-width: 100%; border: 1px solid #ccc; background: white; }
        .links a { margin-right: 1em; }
    </style>
</head>
<body>
    <h1>roomgraph floorplan</h1>
    <img src="/floorplan.svg" alt="Floorplan">
    <p class="links">
        <a href="/rooms.json">rooms.json</a>
        <a href="/rooms.geojson">rooms.geojson</a>
        <a href="/floorplan.png">floorplan.png</a>
        <a href="/health">health</a>
    </p>
</body>
</html>`)
	})

	// Wrap with request logging
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("[HTTP] %s %s from %s", r.Method, r.URL.Path, r.RemoteAddr)
		mux.ServeHTTP(w, r)
	})
}
