package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const fixture = "../../../pkg/kicad/schematic/testdata/root.kicad_sch"

// run executes the root command with args and returns stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	// Reset flags to prevent accumulation between tests
	verbose = false
	configPath = ""
	jsonOutput = false
	tieBreak = ""
	showMetrics = false

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCommandsE2E(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		wantErr     bool
		wantContain []string
	}{
		{
			name:        "nets",
			args:        []string{"nets", fixture},
			wantContain: []string{"Nets: 2", "GND", "/sub/EN", "NAME"},
		},
		{
			name:        "net",
			args:        []string{"net", fixture, "GND"},
			wantContain: []string{"Net: GND", "power_pin", "R1 pin 2", "R2 pin 2", "in /sub/"},
		},
		{
			name:        "hierarchical net",
			args:        []string{"net", fixture, "/sub/EN"},
			wantContain: []string{"Net: /sub/EN", "sheet_pin", `"EN"`, "hierarchical_label", "R1 pin 1"},
		},
		{
			name:        "buses",
			args:        []string{"buses", fixture},
			wantContain: []string{"Buses: 0"},
		},
		{
			name:        "report",
			args:        []string{"report", fixture},
			wantContain: []string{"Conflicts: 0", "Unresolved bus members: 0", "Unconnected: 0", "Diagnostics: 0"},
		},
		{
			name:        "report with metrics",
			args:        []string{"report", "--metrics", fixture},
			wantContain: []string{"Metrics:", "schnet_nets 2", "schnet_rebuild_duration_seconds"},
		},
		{
			name:        "tie-break override",
			args:        []string{"nets", "--tie-break", "lexical", fixture},
			wantContain: []string{"Nets: 2"},
		},
		{
			name:        "info",
			args:        []string{"info", fixture},
			wantContain: []string{"Version: 20231120", "Files: 2", "/sub/", "R: R1, R2"},
		},
		{
			name:        "component info",
			args:        []string{"info", fixture, "R2"},
			wantContain: []string{"Component: R2", "Sheet: /sub/", "Value: 4k7", "1 (~): passive -> /sub/EN", "2 (~): passive -> GND"},
		},
		{
			name:    "unknown component",
			args:    []string{"info", fixture, "U9"},
			wantErr: true,
		},
		{
			name:    "unknown net",
			args:    []string{"net", fixture, "NOPE"},
			wantErr: true,
		},
		{
			name:    "invalid tie-break",
			args:    []string{"nets", "--tie-break", "random", fixture},
			wantErr: true,
		},
		{
			name:    "missing file",
			args:    []string{"nets", "missing.kicad_sch"},
			wantErr: true,
		},
		{
			name:    "missing argument",
			args:    []string{"net", fixture},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := run(t, tt.args...)

			// Check error expectation
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error but got none")
				}
				return
			}

			if err != nil {
				t.Errorf("Unexpected error: %v\nOutput: %s", err, output)
				return
			}

			// Check output contains expected strings
			for _, want := range tt.wantContain {
				if !strings.Contains(output, want) {
					t.Errorf("Output missing expected string: %q\nGot:\n%s", want, output)
				}
			}
		})
	}
}

func TestNetsJSON(t *testing.T) {
	output, err := run(t, "nets", "--json", fixture)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	var nets []netSummary
	if err := json.Unmarshal([]byte(output), &nets); err != nil {
		t.Fatalf("Invalid JSON: %v\n%s", err, output)
	}
	byName := make(map[string]netSummary)
	for _, n := range nets {
		byName[n.Name] = n
	}
	gnd, ok := byName["GND"]
	if !ok {
		t.Fatalf("Expected GND in %v", nets)
	}
	if len(gnd.Sheets) != 2 {
		t.Errorf("Expected GND in 2 sheets, got %v", gnd.Sheets)
	}
}

func TestNetJSONMarksDriver(t *testing.T) {
	output, err := run(t, "net", "--json", fixture, "GND")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	var detail netDetail
	if err := json.Unmarshal([]byte(output), &detail); err != nil {
		t.Fatalf("Invalid JSON: %v\n%s", err, output)
	}
	drivers := 0
	for _, sg := range detail.Subgraphs {
		for _, it := range sg.Items {
			if it.Driver {
				drivers++
				if it.Kind != "power_pin" {
					t.Errorf("Expected power pin driver, got %s", it.Kind)
				}
			}
		}
	}
	if drivers == 0 {
		t.Error("Expected a driver item")
	}
}

func TestReportJSON(t *testing.T) {
	output, err := run(t, "report", "--json", fixture)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	var report map[string]any
	if err := json.Unmarshal([]byte(output), &report); err != nil {
		t.Fatalf("Invalid JSON: %v\n%s", err, output)
	}
	if report["full"] != true {
		t.Errorf("Expected full rebuild, got %v", report["full"])
	}
	if report["generation"] != float64(1) {
		t.Errorf("Expected generation 1, got %v", report["generation"])
	}
}

func TestConfigFlag(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	if err := os.WriteFile(good, []byte("workers: 2\ntie_break: position\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := run(t, "nets", "--config", good, fixture); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("workers: 1000\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := run(t, "nets", "--config", bad, fixture); err == nil {
		t.Error("Expected error for invalid config")
	}
}
