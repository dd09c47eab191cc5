package pagination

import "testing"

func TestNew(t *testing.T) {
	tests := []struct {
		name         string
		page, limit  string
		defaultLimit int
		want         Params
	}{
		{"defaults", "", "", 20, Params{Page: 1, Limit: 20, Offset: 0}},
		{"explicit", "3", "10", 20, Params{Page: 3, Limit: 10, Offset: 20}},
		{"custom default", "2", "", 50, Params{Page: 2, Limit: 50, Offset: 50}},
		{"garbage", "abc", "-4", 20, Params{Page: 1, Limit: 20, Offset: 0}},
		{"clamped", "1", "1000", 20, Params{Page: 1, Limit: MaxLimit, Offset: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := New(tt.page, tt.limit, tt.defaultLimit); got != tt.want {
				t.Errorf("New(%q, %q, %d) = %+v, want %+v", tt.page, tt.limit, tt.defaultLimit, got, tt.want)
			}
		})
	}
}
