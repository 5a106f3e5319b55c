package dag

import (
	"errors"
	"testing"
)

func TestNodeID(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "api-gateway", "pkg:fedgraph/api-gateway@local"},
		{"spaces", "my service", "pkg:fedgraph/my-service@local"},
		{"underscores", "my_service", "pkg:fedgraph/my-service@local"},
		{"mixed case", "MyService", "pkg:fedgraph/myservice@local"},
		{"surrounding whitespace", "  billing schema  ", "pkg:fedgraph/billing-schema@local"},
		{"punctuation runs", "data & metrics!!", "pkg:fedgraph/data-metrics@local"},
		{"digits", "v2 endpoint", "pkg:fedgraph/v2-endpoint@local"},
		{"separator collapse", "a---b", "pkg:fedgraph/a-b@local"},
		{"nothing left", "!!!", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NodeID(tt.in); got != tt.want {
				t.Errorf("NodeID(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNodeID_Deterministic(t *testing.T) {
	first := NodeID("Payment Service")
	for i := 0; i < 10; i++ {
		if got := NodeID("Payment Service"); got != first {
			t.Fatalf("NodeID not deterministic: %q != %q", got, first)
		}
	}
}

func TestNodeID_CollisionsSurfaceOnAdd(t *testing.T) {
	// Distinct names that sanitize to the same identifier collide at add
	// time, not at generation time.
	g := New(nil)
	a, err := NewNode(NodeTypeService, "my service", nil)
	if err != nil {
		t.Fatalf("NewNode: %v", err)
	}
	b, err := NewNode(NodeTypeService, "my_service", nil)
	if err != nil {
		t.Fatalf("NewNode: %v", err)
	}
	if a.ID != b.ID {
		t.Fatalf("expected colliding IDs, got %q and %q", a.ID, b.ID)
	}
	if err := g.AddNode(a); err != nil {
		t.Fatalf("AddNode(a) = %v", err)
	}
	if err := g.AddNode(b); !errors.Is(err, ErrDuplicateNode) {
		t.Errorf("AddNode(b) = %v, want ErrDuplicateNode", err)
	}
}
