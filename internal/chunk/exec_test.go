package chunk

import (
	"sync"
	"testing"
)

func TestExecRunCoversRangeOnce(t *testing.T) {
	for _, workers := range []int{1, 2, 3, 7, 16} {
		t.Run("", func(t *testing.T) {
			ex := Fork(workers)
			const n = 1000
			visits := make([]int32, n)
			var mu sync.Mutex
			ex.Run(n, func(lo, hi int) {
				mu.Lock()
				defer mu.Unlock()
				for i := lo; i < hi; i++ {
					visits[i]++
				}
			})
			for i, v := range visits {
				if v != 1 {
					t.Fatalf("workers=%d: index %d visited %d times", workers, i, v)
				}
			}
		})
	}
}

func TestExecRunEmptyRange(t *testing.T) {
	called := false
	Fork(4).Run(0, func(lo, hi int) { called = true })
	if called {
		t.Fatal("fn called for empty range")
	}
}

func TestExecNestedRunsInline(t *testing.T) {
	ex := Fork(8).Nested()
	if !ex.InParallel() {
		t.Fatal("Nested context not marked InParallel")
	}
	calls := 0
	ex.Run(100, func(lo, hi int) {
		calls++
		if lo != 0 || hi != 100 {
			t.Errorf("nested run got [%d,%d), want [0,100)", lo, hi)
		}
	})
	if calls != 1 {
		t.Fatalf("nested run called fn %d times, want 1", calls)
	}
}

func TestExecSmallRangeRunsInline(t *testing.T) {
	ex := Fork(8)
	calls := 0
	ex.Run(3, func(lo, hi int) {
		calls++
		if lo != 0 || hi != 3 {
			t.Errorf("got [%d,%d), want [0,3)", lo, hi)
		}
	})
	if calls != 1 {
		t.Fatalf("fn called %d times for n < workers, want 1", calls)
	}
}

func TestExecWorkersDefaults(t *testing.T) {
	if got := Serial().Workers(); got != 1 {
		t.Errorf("Serial().Workers() = %d, want 1", got)
	}
	if got := Fork(0).Workers(); got < 1 {
		t.Errorf("Fork(0).Workers() = %d, want >= 1", got)
	}
	if got := Fork(5).Workers(); got != 5 {
		t.Errorf("Fork(5).Workers() = %d, want 5", got)
	}
}
