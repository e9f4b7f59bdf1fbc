package connectivity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NamingConflict records a subgraph whose top-priority drivers disagree.
// The subgraph is still named by Chosen.
type NamingConflict struct {
	Subgraph SubgraphID `json:"subgraph"`
	Priority Priority   `json:"-"`
	Names    []string   `json:"names"`
	Chosen   string     `json:"chosen"`
	Sheets   []string   `json:"sheets"`
	Items    []ItemID   `json:"items"`
}

func (c NamingConflict) String() string {
	return fmt.Sprintf("subgraph %d: %s labels %v disagree, using %q", c.Subgraph, c.Priority, c.Names, c.Chosen)
}

// UnresolvedBusMember is a declared bus member with no backing net.
type UnresolvedBusMember struct {
	Bus      string     `json:"bus"`
	Member   string     `json:"member"`
	Index    int        `json:"index"`
	Subgraph SubgraphID `json:"subgraph"`
	Sheet    string     `json:"sheet"`
}

// UnconnectedItem is a sheet pin without a matching hierarchical label in
// the child, or a hierarchical label without a sheet pin in the parent.
// Scope is the child sheet the pairing was expected in.
type UnconnectedItem struct {
	Item     ItemID     `json:"item"`
	ItemKind ItemKind   `json:"-"`
	Text     string     `json:"text"`
	Scope    string     `json:"scope"`
	Subgraph SubgraphID `json:"subgraph"`
	Kind     Kind       `json:"kind"`
}

// Diagnostic is an advisory attached to an item, such as malformed bus
// syntax that was read as a plain net name.
type Diagnostic struct {
	Item    ItemID `json:"item"`
	Sheet   string `json:"sheet"`
	Text    string `json:"text"`
	Problem string `json:"problem"`
}

// RebuildReport summarises one rebuild.
type RebuildReport struct {
	ID         uuid.UUID     `json:"id"`
	Generation uint32        `json:"generation"`
	Full       bool          `json:"full"`
	Duration   time.Duration `json:"duration"`

	SheetsClustered int `json:"sheets_clustered"`
	SheetsReused    int `json:"sheets_reused"`

	SubgraphsCreated int `json:"subgraphs_created"`
	SubgraphsMerged  int `json:"subgraphs_merged"`

	Conflicts            []NamingConflict      `json:"conflicts"`
	UnresolvedBusMembers []UnresolvedBusMember `json:"unresolved_bus_members"`
	Unconnected          []UnconnectedItem     `json:"unconnected"`
	Diagnostics          []Diagnostic          `json:"diagnostics"`
}

// Mode is "full" or "incremental".
func (r *RebuildReport) Mode() string {
	if r.Full {
		return "full"
	}
	return "incremental"
}

func (r *RebuildReport) String() string {
	return fmt.Sprintf("rebuild %s gen %d (%s): %d subgraphs, %d merged, %d conflicts, %d unresolved members, %d unconnected",
		r.ID, r.Generation, r.Mode(), r.SubgraphsCreated, r.SubgraphsMerged,
		len(r.Conflicts), len(r.UnresolvedBusMembers), len(r.Unconnected))
}
