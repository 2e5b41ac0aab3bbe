package format

import "testing"

func TestEscapeMD(t *testing.T) {
	cases := map[string]string{
		"plain":         "plain",
		"a_b*c[d":       `a\_b\*c\[d`,
		"ticks `here`":  "ticks \\`here\\`",
		"Pro (30 days)": "Pro (30 days)",
	}
	for in, want := range cases {
		if got := EscapeMD(in); got != want {
			t.Errorf("EscapeMD(%q) = %q, want %q", in, got, want)
		}
	}
}
