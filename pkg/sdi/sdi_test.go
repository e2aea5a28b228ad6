package sdi

import (
	"testing"

	"gitlab.com/tinyland/lab/oasis/pkg/fault"
	"gitlab.com/tinyland/lab/oasis/pkg/gfx"
)

func mk(t *testing.T, r *Registry, name string, z int) {
	t.Helper()
	if _, err := r.Create(name, Template{W: 10, H: 10, Z: z, Visible: true, Alpha: 1}); err != nil {
		t.Fatalf("Create(%s): %v", name, err)
	}
}

func order(r *Registry) []string {
	objs := r.InZOrder()
	names := make([]string, len(objs))
	for i, o := range objs {
		names[i] = o.Name
	}
	return names
}

func TestCreateDuplicate(t *testing.T) {
	r := NewRegistry()
	mk(t, r, "a", 0)
	if _, err := r.Create("a", Template{}); err == nil {
		t.Fatal("duplicate Create succeeded")
	} else if fault.KindOf(err) != fault.Duplicate {
		t.Errorf("duplicate Create kind = %v, want Duplicate", fault.KindOf(err))
	}
}

func TestDestroyRemovesAllReferences(t *testing.T) {
	r := NewRegistry()
	mk(t, r, "a", 0)
	if err := r.Destroy("a"); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	if _, err := r.Get("a"); err == nil {
		t.Error("Get after Destroy succeeded")
	}
	if r.Has("a") {
		t.Error("Has after Destroy is true")
	}
	for _, o := range r.InZOrder() {
		if o.Name == "a" {
			t.Error("InZOrder still yields destroyed object")
		}
	}
	if err := r.Destroy("a"); err == nil {
		t.Error("second Destroy succeeded")
	}
}

func TestZOrderTiesBreakByInsertion(t *testing.T) {
	r := NewRegistry()
	mk(t, r, "first", 5)
	mk(t, r, "second", 5)
	mk(t, r, "below", 1)
	got := order(r)
	want := []string{"below", "first", "second"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("InZOrder = %v, want %v", got, want)
		}
	}
}

func TestZOrderDeterministic(t *testing.T) {
	build := func() *Registry {
		r := NewRegistry()
		mk(t, r, "x", 2)
		mk(t, r, "y", 2)
		mk(t, r, "z", -1)
		return r
	}
	a, b := order(build()), order(build())
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("two identical registries ordered differently: %v vs %v", a, b)
		}
	}
}

func TestBringToFront(t *testing.T) {
	r := NewRegistry()
	mk(t, r, "a", 0)
	mk(t, r, "b", 3)
	mk(t, r, "c", 7)
	if err := r.BringToFront("a"); err != nil {
		t.Fatalf("BringToFront: %v", err)
	}
	got := order(r)
	if got[len(got)-1] != "a" {
		t.Errorf("after BringToFront, last = %q, want a (order %v)", got[len(got)-1], got)
	}
}

func TestUpdatePartial(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Create("a", Template{X: 1, Y: 2, Fill: gfx.MustParse("#f00"), Visible: true, Alpha: 1}); err != nil {
		t.Fatal(err)
	}
	if err := r.Update("a", Patch{SetPos: true, X: 9, Y: 9}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	o, _ := r.Get("a")
	if o.X != 9 || o.Y != 9 {
		t.Errorf("position not patched: %d,%d", o.X, o.Y)
	}
	if o.Fill != gfx.MustParse("#f00") {
		t.Errorf("fill changed by position patch: %v", o.Fill)
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	r := NewRegistry()
	mk(t, r, "a", 0)
	snap := r.Snapshot()
	snap[0].X = 99
	snap[0].Text = "garbled"
	o, _ := r.Get("a")
	if o.X == 99 || o.Text == "garbled" {
		t.Error("mutating snapshot leaked into registry")
	}
}

func TestDestroyPrefix(t *testing.T) {
	r := NewRegistry()
	mk(t, r, "skin.a", 0)
	mk(t, r, "skin.b", 0)
	mk(t, r, "term.c", 0)
	if n := r.DestroyPrefix("skin."); n != 2 {
		t.Errorf("DestroyPrefix = %d, want 2", n)
	}
	if r.Has("skin.a") || r.Has("skin.b") {
		t.Error("prefixed objects survived DestroyPrefix")
	}
	if !r.Has("term.c") {
		t.Error("unrelated object destroyed")
	}
}
