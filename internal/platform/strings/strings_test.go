package strings

import (
	"reflect"
	"testing"
)

func TestIfEmpty(t *testing.T) {
	def := []string{"GET", "POST"}
	if got := IfEmpty(nil, def); !reflect.DeepEqual(got, def) {
		t.Fatalf("nil input = %v", got)
	}
	if got := IfEmpty([]string{}, def); !reflect.DeepEqual(got, def) {
		t.Fatalf("empty input = %v", got)
	}
	if got := IfEmpty([]string{"DELETE"}, def); !reflect.DeepEqual(got, []string{"DELETE"}) {
		t.Fatalf("set input = %v", got)
	}
}

func TestMustString(t *testing.T) {
	if got := MustString("meta", "name"); got != "meta" {
		t.Fatalf("MustString = %q", got)
	}
	defer func() {
		if r := recover(); r != "name is required" {
			t.Fatalf("panic = %v", r)
		}
	}()
	MustString(" \t", "name")
}
