package protocol

import "testing"

func TestFold(t *testing.T) {
	tests := map[string]string{
		"#Test":      "#test",
		"Nick[Away]": "nick{away}",
		"A\\B~":      "a|b^",
		"already":    "already",
		"":           "",
	}
	for in, want := range tests {
		if got := Fold(in); got != want {
			t.Errorf("Fold(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestEqualFold(t *testing.T) {
	if !EqualFold("#TEST", "#test") {
		t.Error("#TEST and #test should be equal")
	}
	if !EqualFold("[foo]\\~", "{FOO}|^") {
		t.Error("RFC 1459 specials should fold")
	}
	if EqualFold("nick", "nick_") {
		t.Error("different lengths should not be equal")
	}
	if EqualFold("a", "b") {
		t.Error("a and b should not be equal")
	}
}
