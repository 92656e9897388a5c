package store

import "testing"

func TestValidID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"3f2a1b4c-5d6e-4f70-8a9b-0c1d2e3f4a5b", true},
		{"3F2A1B4C-5D6E-4F70-8A9B-0C1D2E3F4A5B", true},
		{"", false},
		{"not-a-uuid", false},
		{"3f2a1b4c5d6e4f708a9b0c1d2e3f4a5b", false},
		{"3f2a1b4c-5d6e-4f70-8a9b-0c1d2e3f4a5b'; DROP TABLE documents;--", false},
	}
	for _, tt := range tests {
		if got := ValidID(tt.id); got != tt.want {
			t.Errorf("ValidID(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}
