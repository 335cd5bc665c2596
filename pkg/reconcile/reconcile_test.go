package reconcile

import (
	"slices"
	"testing"
)

type handle struct {
	key     int
	value   string
	updates int
	freed   bool
}

type recorder struct {
	entered []int
	exited  []int
}

func (r *recorder) ops() Ops[int, string, *handle] {
	return Ops[int, string, *handle]{
		Enter: func(k int, v string) (*handle, bool) {
			r.entered = append(r.entered, k)
			return &handle{key: k, value: v}, true
		},
		Update: func(k int, v string, h *handle) {
			h.value = v
			h.updates++
		},
		Exit: func(k int, h *handle) {
			r.exited = append(r.exited, k)
			h.freed = true
		},
	}
}

func TestSync(t *testing.T) {
	var k Keyed[int, *handle]
	rec := &recorder{}

	st := Sync(&k, map[int]string{1: "a", 2: "b", 3: "c"}, rec.ops())
	if st != (Stats{Created: 3}) {
		t.Fatalf("first pass = %+v, want 3 created", st)
	}
	if !slices.Equal(rec.entered, []int{1, 2, 3}) {
		t.Errorf("entered = %v, want [1 2 3]", rec.entered)
	}

	h2, _ := k.Get(2)

	st = Sync(&k, map[int]string{2: "bb", 3: "c", 4: "d"}, rec.ops())
	if st != (Stats{Created: 1, Retained: 2, Removed: 1}) {
		t.Fatalf("second pass = %+v", st)
	}
	if !slices.Equal(rec.exited, []int{1}) {
		t.Errorf("exited = %v, want [1]", rec.exited)
	}

	got, ok := k.Get(2)
	if !ok || got != h2 {
		t.Fatal("retained key must keep its handle")
	}
	if got.value != "bb" || got.updates != 1 {
		t.Errorf("handle 2 = %+v, want updated value bb", got)
	}
	if !slices.Equal(k.Keys(), []int{2, 3, 4}) {
		t.Errorf("Keys() = %v, want [2 3 4]", k.Keys())
	}
}

func TestSyncIdempotent(t *testing.T) {
	var k Keyed[int, *handle]
	rec := &recorder{}
	items := map[int]string{7: "x", 9: "y"}

	Sync(&k, items, rec.ops())
	for i := 0; i < 3; i++ {
		st := Sync(&k, items, rec.ops())
		if st.Changed() {
			t.Fatalf("pass %d changed: %+v", i, st)
		}
		if st.Retained != 2 {
			t.Fatalf("pass %d retained = %d, want 2", i, st.Retained)
		}
	}
	if len(rec.entered) != 2 {
		t.Errorf("entered %d times, want 2", len(rec.entered))
	}
}

func TestSyncSkipped(t *testing.T) {
	var k Keyed[int, *handle]
	allow := false
	ops := Ops[int, string, *handle]{
		Enter: func(key int, v string) (*handle, bool) {
			if !allow {
				return nil, false
			}
			return &handle{key: key}, true
		},
	}

	st := Sync(&k, map[int]string{1: "a"}, ops)
	if st != (Stats{Skipped: 1}) || k.Len() != 0 {
		t.Fatalf("skipped pass = %+v, len %d", st, k.Len())
	}

	allow = true
	st = Sync(&k, map[int]string{1: "a"}, ops)
	if st != (Stats{Created: 1}) || k.Len() != 1 {
		t.Fatalf("retry pass = %+v, len %d", st, k.Len())
	}
}

func TestReset(t *testing.T) {
	var k Keyed[int, *handle]
	rec := &recorder{}
	Sync(&k, map[int]string{1: "a", 2: "b"}, rec.ops())

	var freed []int
	k.Reset(func(key int, h *handle) { freed = append(freed, key) })
	if !slices.Equal(freed, []int{1, 2}) {
		t.Errorf("freed = %v, want [1 2]", freed)
	}
	if k.Len() != 0 {
		t.Errorf("Len() = %d after Reset, want 0", k.Len())
	}

	st := Sync(&k, map[int]string{1: "a"}, rec.ops())
	if st.Created != 1 {
		t.Errorf("after Reset created = %d, want 1", st.Created)
	}
}

func TestStatsAdd(t *testing.T) {
	a := Stats{Created: 1, Retained: 2, Removed: 3, Skipped: 4}
	b := Stats{Created: 10, Retained: 20, Removed: 30, Skipped: 40}
	if got := a.Add(b); got != (Stats{Created: 11, Retained: 22, Removed: 33, Skipped: 44}) {
		t.Errorf("Add() = %+v", got)
	}
	if (Stats{Retained: 5}).Changed() {
		t.Error("retain-only stats should not report Changed")
	}
}
