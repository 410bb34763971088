package discussion

import "testing"

func TestContainsIdentifier(t *testing.T) {
	cases := []struct {
		name string
		text string
		want bool
	}{
		{"record number", "case MRN4521889 noted with fever", true},
		{"lowercase record number", "case mrn4521889 noted with fever", true},
		{"mixed case token", "chart ref Mrn4521x9z on file", true},
		{"long plain word", "patient was unresponsive on arrival", true},
		{"iso date", "onset was on 1998-04-12", true},
		{"phone number", "call me at 9876543210", true},
		{"patient id phrase", "see Patient ID in the chart", true},
		{"consultation id phrase", "the consultation id is here", true},
		{"visit id spaced", "check visit  id for details", true},
		{"clean clinical text", "45-year-old with chest pain on mild effort, no fever", false},
		{"short code ok", "gave ORS and fluids", false},
		{"short digits ok", "bp was 120/80 and pulse 72", false},
		{"empty", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ContainsIdentifier(tc.text); got != tc.want {
				t.Errorf("ContainsIdentifier(%q) = %v, want %v", tc.text, got, tc.want)
			}
		})
	}
}
