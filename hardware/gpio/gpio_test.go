package gpio

import "testing"

func TestEdgeMatches(t *testing.T) {
	tests := []struct {
		watch Edge
		got   Edge
		match bool
	}{
		{BothEdges, RisingEdge, true},
		{BothEdges, FallingEdge, true},
		{BothEdges, NoEdge, false},
		{RisingEdge, RisingEdge, true},
		{RisingEdge, FallingEdge, false},
		{FallingEdge, FallingEdge, true},
		{FallingEdge, RisingEdge, false},
		{NoEdge, RisingEdge, false},
	}

	for _, tt := range tests {
		if m := tt.watch.Matches(tt.got); m != tt.match {
			t.Errorf("%s.Matches(%s) = %v, expected %v", tt.watch, tt.got, m, tt.match)
		}
	}
}

func TestEdgeBetween(t *testing.T) {
	tests := []struct {
		prev, next Level
		edge       Edge
	}{
		{Low, High, RisingEdge},
		{High, Low, FallingEdge},
		{Low, Low, NoEdge},
		{High, High, NoEdge},
	}

	for _, tt := range tests {
		if e := edgeBetween(tt.prev, tt.next); e != tt.edge {
			t.Errorf("edgeBetween(%v, %v) = %s, expected %s", tt.prev, tt.next, e, tt.edge)
		}
	}
}
