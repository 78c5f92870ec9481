package category

import "testing"

func TestParse(t *testing.T) {
	t.Parallel()

	cases := map[string]Category{
		"fix":      Fix,
		" Feature": Feature,
		"DOCS":     Docs,
		"perf":     Refactor,
		"ci":       Chore,
		"other":    Other,
		"":         Other,
		"banana":   Other,
	}
	for in, want := range cases {
		if got := Parse(in); got != want {
			t.Fatalf("Parse(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestAllOrderAndValidity(t *testing.T) {
	t.Parallel()

	all := All()
	if len(all) != 8 {
		t.Fatalf("len(All) = %d, want 8", len(all))
	}
	if all[0] != Fix || all[7] != Other {
		t.Fatalf("unexpected order %v", all)
	}
	for _, c := range all {
		if !c.Valid() {
			t.Fatalf("%q should be valid", c)
		}
	}
	if Category("perf").Valid() {
		t.Fatal("perf must never be a final category")
	}
}

func TestDecidedIsACopy(t *testing.T) {
	t.Parallel()

	d := Decided()
	d[0] = Other
	if Decided()[0] != Fix {
		t.Fatal("Decided must return a copy")
	}
}
