// Package connectivity resolves the electrical connectivity of a
// hierarchical schematic: which wires, pins and labels form one net, what
// each net and bus is called, and how names cross sheet boundaries.
//
// # Overview
//
// A rebuild runs these phases:
//  1. Enumerate every sheet instance and its items from a Source
//  2. Cluster each sheet's items into subgraphs by touching geometry
//     (union-find over quantised points, one sheet per worker)
//  3. Pick a driver per subgraph by priority:
//     - power pin
//     - global label
//     - hierarchical label or sheet pin
//     - local label
//     - bus alias
//     - component pin (auto-named net)
//  4. Link bus members to the same-named nets of their sheet
//  5. Merge subgraphs across sheets through sheet pins and global names,
//     then re-select drivers and check for naming conflicts
//
// # Usage
//
//	cfg := connectivity.DefaultConfig()
//	g, err := connectivity.New(src, cfg, connectivity.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//
//	report, err := g.Rebuild(ctx)
//	for _, c := range report.Conflicts {
//		fmt.Println(c)
//	}
//
//	net, err := g.GetNet("CLK")
//
// After an edit, report the changed items and refresh. Only the sheets
// holding them are re-clustered:
//
//	g.MarkDirty("wire-17")
//	report, err = g.Refresh(ctx)
//
// # Bus notation
//
// Labels of the form PREFIX[a..b]SUFFIX declare a vector of nets
// PREFIXaSUFFIX to PREFIXbSUFFIX. Labels of the form PREFIX{A B[0..1]}
// declare a group whose members are named PREFIX.A, PREFIX.B0 and so on.
// Anything else, including malformed bus text, names a single net.
//
// # Lifecycle
//
// A Graph starts EMPTY, is BUILDING during Rebuild and RESOLVED after it.
// MarkDirty moves a resolved graph to PARTIALLY_DIRTY. Queries fail with
// a *StaleGraphError outside RESOLVED. A failed or cancelled rebuild keeps
// the previous snapshot.
package connectivity
