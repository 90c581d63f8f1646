package authcore

import "testing"

func TestParseDurationSeconds(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"900", 900},
		{"15m", 900},
		{"15M", 900},
		{" 2h ", 7200},
		{"7d", 604800},
		{"30s", 30},
		{"0", 0},
		{"", 0},
		{"15 minutes", 0},
		{"1.5h", 0},
		{"-5m", 0},
		{"10w", 0},
		{"m", 0},
		{"99999999999999999999", 0},
		{"999999999999d", 0},
	}
	for _, tt := range tests {
		if got := ParseDurationSeconds(tt.in); got != tt.want {
			t.Errorf("ParseDurationSeconds(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func FuzzParseDurationSeconds(f *testing.F) {
	for _, seed := range []string{"15m", "7d", "900", "", "abc", "9223372036s"} {
		f.Add(seed)
	}
	f.Fuzz(func(t *testing.T, s string) {
		if got := ParseDurationSeconds(s); got < 0 {
			t.Fatalf("negative result %d for %q", got, s)
		}
	})
}
