package submission

import (
	"errors"
	"sort"
	"testing"
)

type worker struct {
	ID       string
	Employee string
	Hours    float64
}

func byEmployee(w worker) (string, bool) { return w.Employee, w.Employee != "" }

type recorder struct {
	deactivated []string
	updated     map[string]float64
	inserted    []worker
	failOn      string
}

func (r *recorder) ops() Ops[worker] {
	r.updated = map[string]float64{}
	return Ops[worker]{
		Deactivate: func(old worker) error {
			if r.failOn == "deactivate" {
				return errors.New("boom")
			}
			r.deactivated = append(r.deactivated, old.Employee)
			return nil
		},
		Update: func(old, new worker) error {
			if r.failOn == "update" {
				return errors.New("boom")
			}
			r.updated[old.ID] = new.Hours
			return nil
		},
		Insert: func(new worker) error {
			if r.failOn == "insert" {
				return errors.New("boom")
			}
			r.inserted = append(r.inserted, new)
			return nil
		},
	}
}

func TestDiff_TimeCardEditScenario(t *testing.T) {
	original := []worker{
		{ID: "row-a", Employee: "A", Hours: 8.0},
		{ID: "row-b", Employee: "B", Hours: 8.0},
	}
	next := []worker{
		{Employee: "A", Hours: 6.0},
		{Employee: "C", Hours: 8.0},
	}

	rec := &recorder{}
	res, err := Apply(Diff(original, next, byEmployee), rec.ops())
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}

	if res != (Result{Deactivated: 1, Updated: 1, Inserted: 1}) {
		t.Errorf("result = %+v, expected one of each operation", res)
	}
	if len(rec.deactivated) != 1 || rec.deactivated[0] != "B" {
		t.Errorf("deactivated = %v, expected [B]", rec.deactivated)
	}
	if h, ok := rec.updated["row-a"]; !ok || h != 6.0 {
		t.Errorf("row-a update = %v (present %v), expected 6.0", h, ok)
	}
	if len(rec.inserted) != 1 || rec.inserted[0].Employee != "C" || rec.inserted[0].Hours != 8.0 {
		t.Errorf("inserted = %+v, expected C at 8.0", rec.inserted)
	}
}

func TestDiff_SetProperties(t *testing.T) {
	tests := []struct {
		name     string
		original []string
		next     []string
	}{
		{"disjoint", []string{"A", "B"}, []string{"C", "D"}},
		{"identical", []string{"A", "B"}, []string{"A", "B"}},
		{"empty original", nil, []string{"A"}},
		{"empty next", []string{"A", "B"}, nil},
		{"overlap", []string{"A", "B", "C"}, []string{"B", "C", "D", "E"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var orig, next []worker
			for _, e := range tt.original {
				orig = append(orig, worker{ID: "row-" + e, Employee: e, Hours: 8})
			}
			for _, e := range tt.next {
				next = append(next, worker{Employee: e, Hours: 7.5})
			}

			plan := Diff(orig, next, byEmployee)

			assertSet(t, "removed", employees(plan.Removed), minus(tt.original, tt.next))
			assertSet(t, "added", employees(plan.Added), minus(tt.next, tt.original))

			var kept []string
			for _, p := range plan.Kept {
				if p.Old.Employee != p.New.Employee {
					t.Errorf("kept pair mismatched: %+v", p)
				}
				if p.New.Hours != 7.5 {
					t.Errorf("kept pair should carry new hours, got %v", p.New.Hours)
				}
				kept = append(kept, p.Old.Employee)
			}
			assertSet(t, "kept", kept, minus(tt.original, minus(tt.original, tt.next)))
		})
	}
}

func TestDiff_DuplicateSelectionProducesOneRow(t *testing.T) {
	original := []worker{{ID: "row-a", Employee: "A", Hours: 8}}
	next := []worker{
		{Employee: "A", Hours: 6},
		{Employee: "C", Hours: 8},
		{Employee: "A", Hours: 5.5},
		{Employee: "C", Hours: 4},
	}

	plan := Diff(original, next, byEmployee)
	if len(plan.Kept) != 1 || plan.Kept[0].New.Hours != 5.5 {
		t.Errorf("kept = %+v, expected A once with last value 5.5", plan.Kept)
	}
	if len(plan.Added) != 1 || plan.Added[0].Hours != 4 {
		t.Errorf("added = %+v, expected C once with last value 4", plan.Added)
	}
	if len(plan.Removed) != 0 {
		t.Errorf("removed = %+v, expected none", plan.Removed)
	}
}

func TestDiff_RowsWithoutKeyAreAlwaysAdded(t *testing.T) {
	original := []worker{{ID: "row-a", Employee: "A"}}
	next := []worker{{Employee: ""}, {Employee: ""}, {Employee: "A"}}

	plan := Diff(original, next, byEmployee)
	if len(plan.Added) != 2 {
		t.Errorf("added = %d, expected 2 keyless rows", len(plan.Added))
	}
	if len(plan.Kept) != 1 {
		t.Errorf("kept = %d, expected 1", len(plan.Kept))
	}
}

func TestDiff_DuplicateStoredRowsAreRemoved(t *testing.T) {
	original := []worker{
		{ID: "row-a1", Employee: "A"},
		{ID: "row-a2", Employee: "A"},
	}
	plan := Diff(original, []worker{{Employee: "A", Hours: 8}}, byEmployee)
	if len(plan.Kept) != 1 || plan.Kept[0].Old.ID != "row-a1" {
		t.Errorf("kept = %+v, expected first stored row", plan.Kept)
	}
	if len(plan.Removed) != 1 || plan.Removed[0].ID != "row-a2" {
		t.Errorf("removed = %+v, expected stale duplicate", plan.Removed)
	}
}

func TestApply_SkipsEqualPairs(t *testing.T) {
	original := []worker{{ID: "row-a", Employee: "A", Hours: 8}}
	next := []worker{{Employee: "A", Hours: 8}}

	rec := &recorder{}
	ops := rec.ops()
	ops.Equal = func(old, new worker) bool { return old.Hours == new.Hours }

	res, err := Apply(Diff(original, next, byEmployee), ops)
	if err != nil {
		t.Fatal(err)
	}
	if res.Updated != 0 || len(rec.updated) != 0 {
		t.Errorf("expected no update for unchanged hours, got %+v", res)
	}
}

func TestApply_StopsAtFirstError(t *testing.T) {
	original := []worker{{ID: "row-b", Employee: "B"}}
	next := []worker{{Employee: "C"}}

	rec := &recorder{failOn: "deactivate"}
	res, err := Apply(Diff(original, next, byEmployee), rec.ops())
	if err == nil {
		t.Fatal("expected error")
	}
	if res.Inserted != 0 || len(rec.inserted) != 0 {
		t.Errorf("insert ran after failed deactivate: %+v", res)
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", ModeCreate, false},
		{"create", ModeCreate, false},
		{"EDIT", ModeEdit, false},
		{" duplicate ", ModeDuplicate, false},
		{"delete", "", true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMode(%q) err = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseMode(%q) = %q, expected %q", tt.in, got, tt.want)
		}
	}
}

func employees(ws []worker) []string {
	out := make([]string, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.Employee)
	}
	return out
}

func minus(a, b []string) []string {
	drop := map[string]bool{}
	for _, s := range b {
		drop[s] = true
	}
	var out []string
	for _, s := range a {
		if !drop[s] {
			out = append(out, s)
		}
	}
	return out
}

func assertSet(t *testing.T, label string, got, want []string) {
	t.Helper()
	sort.Strings(got)
	sort.Strings(want)
	if len(got) != len(want) {
		t.Errorf("%s = %v, expected %v", label, got, want)
		return
	}
	for i := range got {
		if got[i] != want[i] {
			t.Errorf("%s = %v, expected %v", label, got, want)
			return
		}
	}
}
