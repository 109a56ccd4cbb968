package normalize

import "testing"

func TestNormalizeActiveLanguage(t *testing.T) {
	n := New([]string{"hi"})
	got := n.Normalize("बुखार।सिरदर्द,दर्द", "hi")
	want := "बुखार । सिरदर्द , दर्द"
	if got != want {
		t.Errorf("Normalize = %q, want %q", got, want)
	}
}

func TestNormalizePassThrough(t *testing.T) {
	n := New([]string{"hi"})
	in := "Hello,world!How are you?"
	if got := n.Normalize(in, "es"); got != in {
		t.Errorf("Normalize = %q, want unchanged", got)
	}
}

func TestSpaceSymbols(t *testing.T) {
	cases := []struct{ in, want string }{
		{"a,b", "a , b"},
		{"a ,  b", "a , b"},
		{"  padded  ", "padded"},
		{"no symbols here", "no symbols here"},
		{"", ""},
		{"(fever)", "( fever )"},
	}
	for _, tc := range cases {
		if got := SpaceSymbols(tc.in); got != tc.want {
			t.Errorf("SpaceSymbols(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
