package phone

import "testing"

func TestNormalizeE164(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"   ", ""},
		{"(212) 555-0175", "+12125550175"},
		{"+31 20 624 1111", "+31206241111"},
		// Unparseable input comes back trimmed, not rejected.
		{" not-a-number ", "not-a-number"},
	}

	for _, tc := range tests {
		if got := NormalizeE164(tc.input); got != tc.want {
			t.Errorf("NormalizeE164(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}
