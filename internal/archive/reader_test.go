package archive

import (
	"archive/zip"
	"bytes"
	"testing"
)

func buildZip(t *testing.T, entries map[string]string, order []string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, name := range order {
		f, err := w.Create(name)
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		if _, err := f.Write([]byte(entries[name])); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func TestParse(t *testing.T) {
	entries := map[string]string{
		"alpha/t1.in":   "1",
		"alpha/t1.out":  "one",
		"alpha/t2.in":   "2",
		"alpha/t2.out":  "two",
		"alpha/t10.in":  "10",
		"alpha/t10.ans": "ten",
		"beta/case.in":  "x",
		"beta/case.out": "y",
		"beta/notes":    "ignored",
	}
	orders := [][]string{
		{
			"alpha/t1.in", "alpha/t1.out", "alpha/t2.in", "alpha/t2.out",
			"alpha/t10.in", "alpha/t10.ans", "beta/case.in", "beta/case.out", "beta/notes",
		},
		{
			"beta/notes", "alpha/t10.ans", "beta/case.out", "alpha/t2.out",
			"alpha/t1.out", "beta/case.in", "alpha/t10.in", "alpha/t2.in", "alpha/t1.in",
		},
	}

	for _, order := range orders {
		plan, err := Parse(buildZip(t, entries, order))
		if err != nil {
			t.Fatalf("Parse: %v", err)
		}
		if len(plan.Missing) != 0 {
			t.Fatalf("unexpected missing pairs: %v", plan.Missing)
		}
		if len(plan.Tasks) != 2 {
			t.Fatalf("got %d tasks, want 2", len(plan.Tasks))
		}
		if plan.Tasks[0].Name != "alpha" || plan.Tasks[1].Name != "beta" {
			t.Fatalf("task order = %s, %s", plan.Tasks[0].Name, plan.Tasks[1].Name)
		}

		alpha := plan.Tasks[0]
		if len(alpha.Cases) != 3 {
			t.Fatalf("alpha got %d cases, want 3", len(alpha.Cases))
		}
		wantOutputs := []string{"alpha/t1.out", "alpha/t2.out", "alpha/t10.ans"}
		for i, want := range wantOutputs {
			if alpha.Cases[i].OutputName != want {
				t.Errorf("alpha case %d output = %s, want %s", i, alpha.Cases[i].OutputName, want)
			}
		}
		if got := string(alpha.Cases[2].Input); got != "10" {
			t.Errorf("alpha case 2 input = %q, want %q", got, "10")
		}
		if got := string(alpha.Cases[2].Output); got != "ten" {
			t.Errorf("alpha case 2 output = %q, want %q", got, "ten")
		}

		beta := plan.Tasks[1]
		if len(beta.Cases) != 1 || beta.Cases[0].InputName != "beta/case.in" {
			t.Fatalf("beta cases = %+v", beta.Cases)
		}
	}
}

func TestParseMissingInput(t *testing.T) {
	entries := map[string]string{
		"alpha/t1.in":  "1",
		"alpha/t1.out": "one",
		"alpha/t2.out": "orphan",
	}
	plan, err := Parse(buildZip(t, entries, []string{"alpha/t1.in", "alpha/t1.out", "alpha/t2.out"}))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(plan.Missing) != 1 {
		t.Fatalf("got %d missing pairs, want 1", len(plan.Missing))
	}
	missing := plan.Missing[0]
	if missing.Output != "alpha/t2.out" || missing.Input != "alpha/t2.in" {
		t.Errorf("missing pair = %+v", missing)
	}
	if len(plan.Tasks) != 1 || len(plan.Tasks[0].Cases) != 1 {
		t.Fatalf("tasks = %+v", plan.Tasks)
	}
}

func TestParseDirectoryOnlyTask(t *testing.T) {
	entries := map[string]string{
		"alpha/t1.in":  "1",
		"alpha/t1.out": "one",
		"empty/":       "",
	}
	plan, err := Parse(buildZip(t, entries, []string{"alpha/t1.in", "alpha/t1.out", "empty/"}))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(plan.Tasks) != 2 {
		t.Fatalf("got %d tasks, want 2", len(plan.Tasks))
	}
	if plan.Tasks[1].Name != "empty" || len(plan.Tasks[1].Cases) != 0 {
		t.Errorf("task = %+v", plan.Tasks[1])
	}
}

func TestParseMalformed(t *testing.T) {
	if _, err := Parse([]byte("not a zip archive")); err == nil {
		t.Fatal("expected error for malformed archive")
	}
}
