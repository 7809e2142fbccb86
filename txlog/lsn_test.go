package txlog

import "testing"

func TestAllocatorMonotonic(t *testing.T) {
	a := NewAllocator()
	var prev uint64
	for i := 0; i < 1000; i++ {
		lsn := a.Next()
		if lsn <= prev {
			t.Fatalf("lsn not strictly increasing: prev=%d lsn=%d", prev, lsn)
		}
		prev = lsn
	}
}

func TestAllocatorFromSeed(t *testing.T) {
	a := NewAllocatorFrom(1 << 40)
	lsn := a.Next()
	if lsn <= (1 << 40) {
		t.Fatalf("expected lsn greater than seed, got %d", lsn)
	}
}

func TestAllocatorConcurrent(t *testing.T) {
	a := NewAllocator()
	seen := make(chan uint64, 2000)
	done := make(chan struct{})
	for g := 0; g < 20; g++ {
		go func() {
			for i := 0; i < 100; i++ {
				seen <- a.Next()
			}
			done <- struct{}{}
		}()
	}
	for g := 0; g < 20; g++ {
		<-done
	}
	close(seen)

	set := map[uint64]bool{}
	for lsn := range seen {
		if set[lsn] {
			t.Fatalf("duplicate lsn allocated: %d", lsn)
		}
		set[lsn] = true
	}
	if len(set) != 2000 {
		t.Fatalf("expected 2000 distinct lsns, got %d", len(set))
	}
}
