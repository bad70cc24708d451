package orderedset

import "testing"

func TestSetPutKeepsAscendingOrder(t *testing.T) {
	s := New[string, int]()
	s.Put("c", 3)
	s.Put("a", 1)
	s.Put("b", 2)

	got := s.Keys()
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("keys[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestSetPutOverwritesExistingKey(t *testing.T) {
	s := New[string, int]()
	s.Put("a", 1)
	s.Put("a", 2)

	if s.Len() != 1 {
		t.Fatalf("expected 1 member after overwrite, got %d", s.Len())
	}
	v, ok := s.Get("a")
	if !ok || v != 2 {
		t.Errorf("got %v, %v, want 2, true", v, ok)
	}
}

func TestSetRemove(t *testing.T) {
	s := New[string, int]()
	s.Put("a", 1)
	s.Put("b", 2)
	s.Remove("a")

	if s.Has("a") {
		t.Errorf("expected a to be removed")
	}
	if s.Len() != 1 {
		t.Fatalf("expected 1 member, got %d", s.Len())
	}
	s.Remove("does-not-exist")
	if s.Len() != 1 {
		t.Errorf("removing a missing key should be a no-op")
	}
}

func TestSetEachVisitsInOrder(t *testing.T) {
	s := New[int, string]()
	s.Put(3, "c")
	s.Put(1, "a")
	s.Put(2, "b")

	var visited []int
	s.Each(func(k int, v string) { visited = append(visited, k) })

	want := []int{1, 2, 3}
	for i := range want {
		if visited[i] != want[i] {
			t.Errorf("visited[%d] = %d, want %d", i, visited[i], want[i])
		}
	}
}

func TestSetSnapshotIsIndependentOfFutureMutation(t *testing.T) {
	s := New[int, string]()
	s.Put(1, "a")
	snap := s.Snapshot()

	s.Put(2, "b")
	if len(snap) != 1 {
		t.Errorf("snapshot should be unaffected by later Put, got %v", snap)
	}
}
