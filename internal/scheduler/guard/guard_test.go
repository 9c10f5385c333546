package guard

import (
	"testing"

	alertdomain "github.com/summitgrid/corebank/internal/alert/domain"
)

func TestCrossings(t *testing.T) {
	cases := []struct {
		name        string
		percentUsed float64
		warn        float64
		critical    float64
		want        []Crossing
	}{
		{"below both", 50, 75, 90, nil},
		{"at warn", 75, 75, 90, []Crossing{{75, alertdomain.StateWarning}}},
		{"between tiers", 80, 75, 90, []Crossing{{75, alertdomain.StateWarning}}},
		{"at critical", 90, 75, 90, []Crossing{
			{75, alertdomain.StateWarning},
			{90, alertdomain.StateCritical},
		}},
		{"over the grant", 150, 75, 90, []Crossing{
			{75, alertdomain.StateWarning},
			{90, alertdomain.StateCritical},
		}},
		{"warn disabled", 99, 0, 90, []Crossing{{90, alertdomain.StateCritical}}},
		{"critical disabled", 99, 75, 0, []Crossing{{75, alertdomain.StateWarning}}},
		{"tiers collapsed", 95, 90, 90, []Crossing{{90, alertdomain.StateCritical}}},
		{"zero usage", 0, 75, 90, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Crossings(tc.percentUsed, tc.warn, tc.critical)
			if len(got) != len(tc.want) {
				t.Fatalf("expected %d crossings, got %d (%v)", len(tc.want), len(got), got)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("crossing %d: expected %+v, got %+v", i, tc.want[i], got[i])
				}
			}
		})
	}
}
