package main

import (
	"flag"
	"fmt"
	"io"
	"os"
)

// Version is set at build time via -ldflags
var Version = "dev"

// AppOptions carries parsed CLI flags into the application.
type AppOptions struct {
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

// appRunner is the subset of App used by run, split out so flag
// dispatch can be tested without starting services.
type appRunner interface {
	ApplyOptions(opts AppOptions)
	RunInitConfig() error
	RunExtract() error
	RunService()
}

func main() {
	app := NewApp()
	if err := run(os.Args[1:], os.Stdout, app); err != nil {
		if err != flag.ErrHelp {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// run parses flags and dispatches to the requested mode
func run(args []string, out io.Writer, app appRunner) error {
	fs := flag.NewFlagSet("roomgraph", flag.ContinueOnError)
	fs.SetOutput(out)

	var opts AppOptions
	fs.StringVar(&opts.ConfigFile, "config", "config.yaml", "Path to configuration file")
	fs.StringVar(&opts.FloorplanCache, "floorplan-cache", ".floorplan-cache.json", "Path to floorplan state cache file")
	fs.BoolVar(&opts.InitConfig, "init-config", false, "Write a starter config file to the --config path and exit")
	fs.StringVar(&opts.ExtractFile, "extract", "", "Extract rooms from a segment batch JSON file and exit")
	fs.StringVar(&opts.OutputFile, "output", "floorplan.svg", "Output file for --extract mode")
	fs.StringVar(&opts.OutputFormat, "format", "svg", "Output format for --extract mode: svg, png, json, or geojson")
	fs.Float64Var(&opts.SnapSize, "snap-size", 0, "Node merge distance in world units (0 = default)")
	fs.Float64Var(&opts.SimplifyTolerance, "simplify-tolerance", 0, "Polyline simplification tolerance in world units (0 disables)")
	fs.Float64Var(&opts.GridSpacing, "grid-spacing", 1.0, "Grid line spacing in world units for rendered output")
	fs.IntVar(&opts.HttpPort, "http-port", 8080, "HTTP server port (default 8080)")
	fs.BoolVar(&opts.MqttMode, "mqtt", false, "Run MQTT service mode for live segment feeds")
	fs.BoolVar(&opts.HttpMode, "http", false, "Enable HTTP server for serving floorplan output")

	if err := fs.Parse(args); err != nil {
		return err
	}

	fmt.Fprintf(out, "roomgraph version: %s\n", Version)

	app.ApplyOptions(opts)

	if opts.InitConfig {
		return app.RunInitConfig()
	}

	if opts.ExtractFile != "" {
		return app.RunExtract()
	}

	if opts.MqttMode || opts.HttpMode {
		app.RunService()
		return nil
	}

	fmt.Fprintln(out, "roomgraph service starting...")
	fmt.Fprintln(out, "Use --extract=FILE to extract rooms from a segment batch and exit")
	fmt.Fprintln(out, "Use --mqtt to run MQTT service mode")
	fmt.Fprintln(out, "Use --http to run HTTP server mode")
	fmt.Fprintln(out, "Use --mqtt --http to run both MQTT and HTTP together")
	fmt.Fprintln(out, "\nConfiguration:")
	fmt.Fprintln(out, "  config.yaml - MQTT settings, plans, and extraction tuning")
	fmt.Fprintln(out, "  .floorplan-cache.json - Last extracted floorplan state (cached)")
	return nil
}
