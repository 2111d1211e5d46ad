package sampler

import "testing"

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		in       string
		expected Strategy
		err      bool
	}{
		{"edge", StrategyEdge, false},
		{"counter", StrategyCounter, false},
		{"pio", StrategyEdge, true},
		{"", StrategyEdge, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			s, err := ParseStrategy(tt.in)
			if (err != nil) != tt.err {
				t.Fatalf("unexpected error: %v", err)
			}
			if s != tt.expected {
				t.Errorf("expected=%v, got=%v", tt.expected, s)
			}
			if err == nil && s.String() != tt.in {
				t.Errorf("expected=%q, got=%q", tt.in, s.String())
			}
		})
	}
}
