package version

import "testing"

func TestCanonical(t *testing.T) {
	tests := []struct{ in, want string }{
		{"25.11", "v25.11.0"},
		{"v25.11", "v25.11.0"},
		{"7.4.2", "v7.4.2"},
		{" 25 ", "v25.0.0"},
		{"25.11.0-rc1", "v25.11.0-rc1"},
		{"25.11-rc1", ""},
		{"", ""},
		{"latest", ""},
		{"7.4.2.0", ""},
	}
	for _, tt := range tests {
		if got := Canonical(tt.in); got != tt.want {
			t.Errorf("Canonical(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAtLeast(t *testing.T) {
	tests := []struct {
		v, min string
		want   bool
	}{
		{"25.11", "25.08", true},
		{"25.11", "25.11", true},
		{"25.05", "25.08", false},
		{"26.0", "25.11", true},
		{"25.11", "bogus", false},
		{"bogus", "25.11", false},
	}
	for _, tt := range tests {
		if got := AtLeast(tt.v, tt.min); got != tt.want {
			t.Errorf("AtLeast(%q, %q) = %v, want %v", tt.v, tt.min, got, tt.want)
		}
	}
}
