package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/schnet/pkg/connectivity"
	"github.com/OpenTraceLab/schnet/pkg/kicad/schematic"
)

// session is a loaded and resolved project.
type session struct {
	project  *schematic.Project
	graph    *connectivity.Graph
	report   *connectivity.RebuildReport
	registry *prometheus.Registry
}

func load(cmd *cobra.Command, filename string) (*session, error) {
	logger := newLogger(cmd)

	cfg := connectivity.DefaultConfig()
	if configPath != "" {
		c, err := connectivity.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = c
	}
	if tieBreak != "" {
		cfg.TieBreak = tieBreak
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	project, err := schematic.LoadProject(filename, schematic.WithProjectLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("error loading schematic: %w", err)
	}

	reg := prometheus.NewRegistry()
	g, err := connectivity.New(project, cfg,
		connectivity.WithLogger(logger),
		connectivity.WithMetrics(connectivity.NewMetrics(reg)),
	)
	if err != nil {
		return nil, err
	}
	report, err := g.Rebuild(cmd.Context())
	if err != nil {
		return nil, err
	}
	logger.Debug("connectivity resolved", "report", report.String())

	return &session{project: project, graph: g, report: report, registry: reg}, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func sheetNames(paths []connectivity.SheetPath) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = p.String()
	}
	return out
}
