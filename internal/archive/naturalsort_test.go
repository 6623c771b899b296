package archive

import (
	"reflect"
	"testing"
)

func TestNaturalCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"a", "a", 0},
		{"a", "b", -1},
		{"task2", "task10", -1},
		{"task10", "task2", 1},
		{"task002", "task2", 0},
		{"p1b", "p2", -1},
		{"p2", "p10", -1},
		{"P1", "p1", 0},
		{"A", "b", -1},
		{"1", "a", -1},
		{"task", "task1", -1},
		{"t1.in", "t1.out", -1},
		{"case9.in", "case10.in", -1},
	}
	for _, tt := range tests {
		if got := NaturalCompare(tt.a, tt.b); got != tt.want {
			t.Errorf("NaturalCompare(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestSortNatural(t *testing.T) {
	names := []string{"t10.in", "t2.in", "t1.in", "extra", "t1.out"}
	SortNatural(names)
	want := []string{"extra", "t1.in", "t1.out", "t2.in", "t10.in"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("SortNatural = %v, want %v", names, want)
	}
}

func TestPairedInputName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		ok   bool
	}{
		{"t1.out", "t1.in", true},
		{"t1.ans", "t1.in", true},
		{"sol.out.txt", "sol.in.txt", true},
		{"a.out.ans", "a.in.ans", true},
		{"out.txt", "", false},
		{"t1.in", "", false},
		{"plain", "", false},
		{"t1.output", "", false},
	}
	for _, tt := range tests {
		in, ok := PairedInputName(tt.name)
		if ok != tt.ok || in != tt.in {
			t.Errorf("PairedInputName(%q) = (%q, %v), want (%q, %v)", tt.name, in, ok, tt.in, tt.ok)
		}
	}
}
