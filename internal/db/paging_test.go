package db

import "testing"

func TestListParamsClamp(t *testing.T) {
	tests := []struct {
		name string
		in   ListParams
		want ListParams
	}{
		{"defaults", ListParams{}, ListParams{Limit: 50, Offset: 0}},
		{"negative limit", ListParams{Limit: -1}, ListParams{Limit: 50}},
		{"above max", ListParams{Limit: 500}, ListParams{Limit: 100}},
		{"negative offset", ListParams{Limit: 10, Offset: -5}, ListParams{Limit: 10, Offset: 0}},
		{"in range", ListParams{Limit: 25, Offset: 75}, ListParams{Limit: 25, Offset: 75}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.Clamp(50, 100); got != tt.want {
				t.Errorf("Clamp() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
