package main

import (
	"bytes"
	"strings"
	"testing"
)

type mockApp struct {
	opts   AppOptions
	called map[string]bool
}

func newMockApp() *mockApp {
	return &mockApp{
		called: make(map[string]bool),
	}
}

func (m *mockApp) ApplyOptions(opts AppOptions) { m.opts = opts }
func (m *mockApp) RunInitConfig() error         { m.called["RunInitConfig"] = true; return nil }
func (m *mockApp) RunExtract() error            { m.called["RunExtract"] = true; return nil }
func (m *mockApp) RunService()                  { m.called["RunService"] = true }

func TestRun_Flags(t *testing.T) {
	tests := []struct {
		name           string
		args           []string
		expectedCalled string
		verifyOpts     func(*testing.T, AppOptions)
	}{
		{
			name:           "Extract",
			args:           []string{"--extract", "batch.json", "--output", "out.svg"},
			expectedCalled: "RunExtract",
			verifyOpts: func(t *testing.T, opts AppOptions) {
				if opts.ExtractFile != "batch.json" {
					t.Errorf("expected ExtractFile batch.json, got %s", opts.ExtractFile)
				}
				if opts.OutputFile != "out.svg" {
					t.Errorf("expected OutputFile out.svg, got %s", opts.OutputFile)
				}
			},
		},
		{
			name:           "ExtractGeoJSON",
			args:           []string{"--extract", "batch.json", "--format", "geojson", "--snap-size", "0.01"},
			expectedCalled: "RunExtract",
			verifyOpts: func(t *testing.T, opts AppOptions) {
				if opts.OutputFormat != "geojson" {
					t.Errorf("expected OutputFormat geojson, got %s", opts.OutputFormat)
				}
				if opts.SnapSize != 0.01 {
					t.Errorf("expected SnapSize 0.01, got %f", opts.SnapSize)
				}
			},
		},
		{
			name:           "InitConfig",
			args:           []string{"--init-config", "--config", "fresh.yaml"},
			expectedCalled: "RunInitConfig",
			verifyOpts: func(t *testing.T, opts AppOptions) {
				if !opts.InitConfig {
					t.Error("expected InitConfig true")
				}
				if opts.ConfigFile != "fresh.yaml" {
					t.Errorf("expected ConfigFile fresh.yaml, got %s", opts.ConfigFile)
				}
			},
		},
		{
			name:           "MqttMode",
			args:           []string{"--mqtt", "--http-port", "9090"},
			expectedCalled: "RunService",
			verifyOpts: func(t *testing.T, opts AppOptions) {
				if !opts.MqttMode {
					t.Error("expected MqttMode true")
				}
				if opts.HttpPort != 9090 {
					t.Errorf("expected HttpPort 9090, got %d", opts.HttpPort)
				}
			},
		},
		{
			name:           "HttpMode",
			args:           []string{"--http", "--config", "custom.yaml", "--grid-spacing", "0.5"},
			expectedCalled: "RunService",
			verifyOpts: func(t *testing.T, opts AppOptions) {
				if !opts.HttpMode {
					t.Error("expected HttpMode true")
				}
				if opts.ConfigFile != "custom.yaml" {
					t.Errorf("expected ConfigFile custom.yaml, got %s", opts.ConfigFile)
				}
				if opts.GridSpacing != 0.5 {
					t.Errorf("expected GridSpacing 0.5, got %f", opts.GridSpacing)
				}
			},
		},
		{
			name:           "BothModes",
			args:           []string{"--mqtt", "--http", "--floorplan-cache", "state.json"},
			expectedCalled: "RunService",
			verifyOpts: func(t *testing.T, opts AppOptions) {
				if !opts.MqttMode || !opts.HttpMode {
					t.Error("expected both MqttMode and HttpMode true")
				}
				if opts.FloorplanCache != "state.json" {
					t.Errorf("expected FloorplanCache state.json, got %s", opts.FloorplanCache)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newMockApp()
			var out bytes.Buffer
			err := run(tt.args, &out, app)
			if err != nil {
				t.Fatalf("run failed: %v", err)
			}

			if !app.called[tt.expectedCalled] {
				t.Errorf("expected %s to be called", tt.expectedCalled)
			}

			if tt.verifyOpts != nil {
				tt.verifyOpts(t, app.opts)
			}
		})
	}
}

func TestRun_Help(t *testing.T) {
	app := newMockApp()
	var out bytes.Buffer
	err := run([]string{"--help"}, &out, app)
	if err == nil {
		t.Error("expected error from --help, got nil")
	}
	if !strings.Contains(out.String(), "Usage of roomgraph") {
		t.Errorf("expected usage info in output, got: %s", out.String())
	}
}

func TestRun_Default(t *testing.T) {
	app := newMockApp()
	var out bytes.Buffer
	err := run([]string{}, &out, app)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	expectedPrefix := "roomgraph version: " + Version
	if !strings.Contains(out.String(), expectedPrefix) {
		t.Errorf("expected output to contain version, got: %s", out.String())
	}

	if !strings.Contains(out.String(), "roomgraph service starting...") {
		t.Errorf("expected output to contain service starting message, got: %s", out.String())
	}

	if len(app.called) != 0 {
		t.Errorf("no mode should run by default, called: %v", app.called)
	}
}

func TestMain_Execute(t *testing.T) {
	// Smoke test to ensure version is set
	if Version == "" {
		t.Error("expected Version to be set")
	}
}
