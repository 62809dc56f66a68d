package identity

import (
	"testing"
	"time"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 12, 0, 0, 0, time.UTC)
}

func TestDeriveAge(t *testing.T) {
	tests := []struct {
		name string
		dob  string
		now  time.Time
		want int // -1 means nil
	}{
		{"year only", "1990", date(2024, 6, 1), 34},
		{"full date birthday passed", "1990-05-15", date(2024, 6, 1), 34},
		{"full date birthday not yet", "1990-05-15", date(2024, 1, 1), 33},
		{"birthday today", "1990-05-15", date(2024, 5, 15), 34},
		{"birthday tomorrow", "1990-05-15", date(2024, 5, 14), 33},
		{"age zero", "2024-01-01", date(2024, 6, 1), 0},
		{"age 120 kept", "1904", date(2024, 6, 1), 120},
		{"over 120 discarded", "1903", date(2024, 6, 1), -1},
		{"future year discarded", "2999", date(2024, 6, 1), -1},
		{"future date discarded", "2999-01-01", date(2024, 6, 1), -1},
		{"unknown text", "unknown", date(2024, 6, 1), -1},
		{"empty string", "", date(2024, 6, 1), -1},
		{"two digits", "99", date(2024, 6, 1), -1},
		{"wrong separator", "1990/05/15", date(2024, 6, 1), -1},
		{"right shape bad date", "1990-13-45", date(2024, 6, 1), -1},
		{"year with letter", "19x0", date(2024, 6, 1), -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := deriveAge(tt.dob, tt.now)
			if tt.want == -1 {
				if got != nil {
					t.Errorf("deriveAge(%q) = %d, want nil", tt.dob, *got)
				}
				return
			}
			if got == nil {
				t.Fatalf("deriveAge(%q) = nil, want %d", tt.dob, tt.want)
			}
			if *got != tt.want {
				t.Errorf("deriveAge(%q) = %d, want %d", tt.dob, *got, tt.want)
			}
		})
	}
}

func TestDeriveAgeIsPure(t *testing.T) {
	now := date(2024, 6, 1)
	for i := 0; i < 3; i++ {
		got := deriveAge("1990-05-15", now)
		if got == nil || *got != 34 {
			t.Fatalf("run %d: deriveAge returned %v, want 34", i, got)
		}
	}
}
