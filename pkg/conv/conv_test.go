package conv

import "testing"

func TestConfigGetInt64(t *testing.T) {
	params := map[string]any{
		"int":     7,
		"int64":   int64(8),
		"float64": 9.6,
		"string":  "10",
	}
	cases := []struct {
		name string
		key  string
		want int64
	}{
		{"int value", "int", 7},
		{"int64 value", "int64", 8},
		{"float64 truncates", "float64", 9},
		{"wrong type falls back", "string", 3},
		{"missing key falls back", "absent", 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ConfigGetInt64(params, tc.key, 3); got != tc.want {
				t.Errorf("ConfigGetInt64(%q) = %d, want %d", tc.key, got, tc.want)
			}
		})
	}
	if got := ConfigGetInt64(nil, "any", 3); got != 3 {
		t.Errorf("nil map = %d, want default 3", got)
	}
}

func TestConfigGetFloat64(t *testing.T) {
	params := map[string]any{
		"float64": 0.75,
		"int":     2,
		"bool":    true,
	}
	cases := []struct {
		name string
		key  string
		want float64
	}{
		{"float64 value", "float64", 0.75},
		{"int widens", "int", 2},
		{"wrong type falls back", "bool", 0.5},
		{"missing key falls back", "absent", 0.5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ConfigGetFloat64(params, tc.key, 0.5); got != tc.want {
				t.Errorf("ConfigGetFloat64(%q) = %v, want %v", tc.key, got, tc.want)
			}
		})
	}
}
