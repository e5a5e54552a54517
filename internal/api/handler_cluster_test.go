package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/ryanbastic/go-cardsheet/internal/cluster"
	"github.com/ryanbastic/go-cardsheet/internal/sheet"
)

// seedLayer places cards at (0,0), (1,0), (1,1) and (5,5) on s1/base.
func seedLayer(t *testing.T, server http.Handler) {
	t.Helper()
	for i, p := range [][2]int{{0, 0}, {1, 0}, {1, 1}, {5, 5}} {
		w := doJSON(t, server, http.MethodPost, "/v1/sheets/s1/layers/base/cards", map[string]any{
			"kind":   "note",
			"row_id": string(rune('a' + i)),
			"x":      p[0],
			"y":      p[1],
		})
		if w.Code != http.StatusCreated {
			t.Fatalf("seed %v: got %d\nbody: %s", p, w.Code, w.Body.String())
		}
	}
}

func TestCardCluster(t *testing.T) {
	server, _ := newTestServer(t)
	seedLayer(t, server)

	w := doJSON(t, server, http.MethodGet, "/v1/sheets/s1/layers/base/clusters/1/1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d\nbody: %s", w.Code, w.Body.String())
	}
	var members []sheet.Placement
	if err := json.NewDecoder(w.Body).Decode(&members); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := []sheet.Position{{X: 1, Y: 1}, {X: 1, Y: 0}, {X: 0, Y: 0}}
	if len(members) != len(want) {
		t.Fatalf("members: got %+v", members)
	}
	for i, m := range members {
		if m.Position != want[i] {
			t.Errorf("member %d: got %v, want %v", i, m.Position, want[i])
		}
	}

	w = doJSON(t, server, http.MethodGet, "/v1/sheets/s1/layers/base/clusters/9/9", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("empty seed: got %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestListClusters(t *testing.T) {
	server, _ := newTestServer(t)
	seedLayer(t, server)

	w := doJSON(t, server, http.MethodGet, "/v1/sheets/s1/layers/base/clusters", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var clusters []cluster.Cluster
	if err := json.NewDecoder(w.Body).Decode(&clusters); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(clusters) != 2 {
		t.Fatalf("clusters: got %d, want 2", len(clusters))
	}
	if clusters[0].Key != (sheet.Position{X: 0, Y: 0}) || len(clusters[0].Members) != 3 {
		t.Errorf("first cluster: got %+v", clusters[0])
	}
}

func TestBoundingBoxes(t *testing.T) {
	server, _ := newTestServer(t)
	seedLayer(t, server)

	tests := []struct {
		query string
		want  BoundingBoxResponse
	}{
		{"", BoundingBoxResponse{Key: sheet.Position{X: 0, Y: 0}, TopLeft: sheet.Position{X: -1, Y: -1}, BottomRight: sheet.Position{X: 2, Y: 2}}},
		{"?padding=0", BoundingBoxResponse{Key: sheet.Position{X: 0, Y: 0}, TopLeft: sheet.Position{X: 0, Y: 0}, BottomRight: sheet.Position{X: 1, Y: 1}}},
		{"?padding=3", BoundingBoxResponse{Key: sheet.Position{X: 0, Y: 0}, TopLeft: sheet.Position{X: -3, Y: -3}, BottomRight: sheet.Position{X: 4, Y: 4}}},
	}
	for _, tt := range tests {
		w := doJSON(t, server, http.MethodGet, "/v1/sheets/s1/layers/base/bounding-boxes"+tt.query, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("%q: status %d\nbody: %s", tt.query, w.Code, w.Body.String())
		}
		var boxes []BoundingBoxResponse
		if err := json.NewDecoder(w.Body).Decode(&boxes); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(boxes) != 2 {
			t.Fatalf("%q: got %d boxes, want 2", tt.query, len(boxes))
		}
		if boxes[0] != tt.want {
			t.Errorf("%q: got %+v, want %+v", tt.query, boxes[0], tt.want)
		}
		if boxes[1].Key != (sheet.Position{X: 5, Y: 5}) {
			t.Errorf("%q: second key got %v, want (5,5)", tt.query, boxes[1].Key)
		}
	}
}

func TestClusterQueries_RejectOutOfRange(t *testing.T) {
	server, _ := newTestServer(t)
	seedLayer(t, server)

	for _, path := range []string{
		"/v1/sheets/s1/layers/base/clusters/2147483648/0",
		"/v1/sheets/s1/layers/base/clusters/0/-2147483649",
		"/v1/sheets/s1/layers/base/bounding-boxes?padding=-2",
		"/v1/sheets/s1/layers/base/bounding-boxes?padding=2147483648",
	} {
		w := doJSON(t, server, http.MethodGet, path, nil)
		if w.Code != http.StatusUnprocessableEntity {
			t.Errorf("%s: got %d, want %d\nbody: %s", path, w.Code, http.StatusUnprocessableEntity, w.Body.String())
		}
	}
}

func TestClusterBoard(t *testing.T) {
	server, _ := newTestServer(t)
	seedLayer(t, server)

	w := doJSON(t, server, http.MethodGet, "/v1/clusters", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var all []cluster.LayerClusters
	if err := json.NewDecoder(w.Body).Decode(&all); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("layers: got %d, want 2", len(all))
	}
	if all[0].Layer != "base" || len(all[0].Clusters) != 2 {
		t.Errorf("base: got %+v", all[0])
	}
	if all[1].Layer != "top" || len(all[1].Clusters) != 0 {
		t.Errorf("top: got %+v", all[1])
	}
}
