package connectivity

import (
	"reflect"
	"testing"
)

const testQuantum = 0.0001

func TestClusterSharedEndpoint(t *testing.T) {
	its := items(
		wire("w1", 0, 0, 10, 0),
		wire("w2", 10, 0, 10, 10),
		local("l1", "CLK", 0, 0),
		wire("w3", 50, 50, 60, 50),
	)
	res := clusterItems(its, testQuantum)

	if len(res.clusters) != 2 {
		t.Fatalf("expected 2 clusters, got %d: %v", len(res.clusters), res.clusters)
	}
	if !reflect.DeepEqual(res.clusters[0], []int{0, 1, 2}) {
		t.Errorf("expected first cluster [0 1 2], got %v", res.clusters[0])
	}
	if !reflect.DeepEqual(res.clusters[1], []int{3}) {
		t.Errorf("expected dangling wire alone, got %v", res.clusters[1])
	}
}

func TestClusterCrossingNeedsJunction(t *testing.T) {
	crossing := items(
		wire("h", 0, 5, 10, 5),
		wire("v", 5, 0, 5, 10),
	)
	res := clusterItems(crossing, testQuantum)
	if len(res.clusters) != 2 {
		t.Errorf("crossing wires should not connect, got %v", res.clusters)
	}

	joined := items(
		wire("h", 0, 5, 10, 5),
		wire("v", 5, 0, 5, 10),
		junction("j", 5, 5),
	)
	res = clusterItems(joined, testQuantum)
	if len(res.clusters) != 1 {
		t.Errorf("junction should connect crossing wires, got %v", res.clusters)
	}
}

func TestClusterTJoin(t *testing.T) {
	its := items(
		wire("main", 0, 0, 20, 0),
		wire("stub", 10, 0, 10, 10),
		pin("p", "R1", "1", 10, 10),
	)
	res := clusterItems(its, testQuantum)
	if len(res.clusters) != 1 {
		t.Errorf("expected wire ending mid-segment to connect, got %v", res.clusters)
	}
}

func TestClusterLabelMidWire(t *testing.T) {
	its := items(
		wire("w", 0, 0, 20, 0),
		local("l", "SDA", 7.5, 0),
		wire("diag", 100, 100, 110, 110),
		local("d", "SCL", 105, 105),
	)
	res := clusterItems(its, testQuantum)
	if len(res.clusters) != 2 {
		t.Fatalf("expected 2 clusters, got %v", res.clusters)
	}
	if clusterOf(res, 0) != clusterOf(res, 1) {
		t.Error("label on wire interior should join the wire")
	}
	if clusterOf(res, 2) != clusterOf(res, 3) {
		t.Error("label on diagonal wire should join the wire")
	}
}

func TestClusterZeroLengthWire(t *testing.T) {
	its := items(
		wire("zero", 20, 20, 20, 20),
		pin("p", "U1", "3", 20, 20),
		wire("lone", 30, 30, 30, 30),
	)
	res := clusterItems(its, testQuantum)
	if len(res.clusters) != 2 {
		t.Fatalf("expected 2 clusters, got %v", res.clusters)
	}
	if !reflect.DeepEqual(res.clusters[0], []int{0, 1}) {
		t.Errorf("expected zero-length wire to join the pin, got %v", res.clusters[0])
	}
	if !reflect.DeepEqual(res.clusters[1], []int{2}) {
		t.Errorf("expected lone zero-length wire as singleton, got %v", res.clusters[1])
	}
}

func TestClusterQuantisation(t *testing.T) {
	its := items(
		wire("a", 0, 0, 10, 0),
		wire("b", 10.00001, 0, 10, 10),
	)
	res := clusterItems(its, testQuantum)
	if len(res.clusters) != 1 {
		t.Errorf("expected endpoints within one quantum to coincide, got %v", res.clusters)
	}
}

func TestClusterBusLayer(t *testing.T) {
	its := items(
		busWire("bus", 0, 0, 20, 0),
		wire("w", 0, 0, 0, 10),
		local("bl", "D[0..3]", 5, 0),
		local("wl", "X", 0, 10),
	)
	res := clusterItems(its, testQuantum)
	if len(res.clusters) != 2 {
		t.Fatalf("expected bus and wire apart, got %v", res.clusters)
	}
	if clusterOf(res, 0) != clusterOf(res, 2) {
		t.Error("label on bus should join the bus")
	}
	if clusterOf(res, 1) != clusterOf(res, 3) {
		t.Error("label on wire should join the wire")
	}
	if clusterOf(res, 0) == clusterOf(res, 1) {
		t.Error("wire touching a bus end must not join the bus")
	}
}

func TestClusterJunctionOnBus(t *testing.T) {
	its := items(
		busWire("bus", 0, 0, 20, 0),
		busWire("branch", 10, 0, 10, 10),
		wire("w", 10, -10, 10, 0),
		junction("j", 10, 0),
	)
	res := clusterItems(its, testQuantum)
	if clusterOf(res, 0) != clusterOf(res, 1) {
		t.Error("junction should join the bus branch")
	}
	if clusterOf(res, 0) != clusterOf(res, 3) {
		t.Error("junction on a bus should attach to the bus layer")
	}
	if clusterOf(res, 2) == clusterOf(res, 0) {
		t.Error("junction must not short a wire onto a bus")
	}
}

func TestClusterBusEntry(t *testing.T) {
	its := items(
		busWire("bus", 0, 0, 20, 0),
		busEntry("e", 5, 0, 7.54, 2.54),
		wire("w", 7.54, 2.54, 20, 2.54),
	)
	res := clusterItems(its, testQuantum)
	if len(res.clusters) != 2 {
		t.Fatalf("expected 2 clusters, got %v", res.clusters)
	}
	if clusterOf(res, 1) != clusterOf(res, 2) {
		t.Error("bus entry should belong to its wire")
	}
	if clusterOf(res, 0) == clusterOf(res, 1) {
		t.Error("bus entry must not merge the wire into the bus")
	}
	if bus, ok := res.busLinks[1]; !ok || bus != 0 {
		t.Errorf("expected entry linked to bus item 0, got %v", res.busLinks)
	}
}

func TestClusterDeterministicOrder(t *testing.T) {
	its := items(
		wire("a", 0, 0, 1, 0),
		wire("b", 50, 0, 51, 0),
		wire("c", 1, 0, 2, 0),
		wire("d", 51, 0, 52, 0),
	)
	want := [][]int{{0, 2}, {1, 3}}
	for i := 0; i < 5; i++ {
		res := clusterItems(its, testQuantum)
		if !reflect.DeepEqual(res.clusters, want) {
			t.Fatalf("run %d: expected %v, got %v", i, want, res.clusters)
		}
	}
}
