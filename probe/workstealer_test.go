package probe

import "testing"

func TestWorkStealerCoversEveryRowExactlyOnce(t *testing.T) {
	const total = 10000
	ws := NewWorkStealer(total, 4)
	seen := make([]bool, total)
	for {
		start, end, ok := ws.Steal()
		if !ok {
			break
		}
		for i := start; i < end; i++ {
			if seen[i] {
				t.Fatalf("row %d claimed twice", i)
			}
			seen[i] = true
		}
	}
	for i, s := range seen {
		if !s {
			t.Fatalf("row %d never claimed", i)
		}
	}
}

func TestWorkStealerConcurrentStealsDontOverlap(t *testing.T) {
	const total = 50000
	const workers = 8
	ws := NewWorkStealer(total, workers)
	claimed := make(chan [2]int, total)
	done := make(chan struct{})
	for w := 0; w < workers; w++ {
		go func() {
			for {
				start, end, ok := ws.Steal()
				if !ok {
					break
				}
				claimed <- [2]int{start, end}
			}
			done <- struct{}{}
		}()
	}
	for w := 0; w < workers; w++ {
		<-done
	}
	close(claimed)

	seen := make([]bool, total)
	for r := range claimed {
		for i := r[0]; i < r[1]; i++ {
			if seen[i] {
				t.Fatalf("row %d claimed twice", i)
			}
			seen[i] = true
		}
	}
	for i, s := range seen {
		if !s {
			t.Fatalf("row %d never claimed", i)
		}
	}
}

func TestWorkStealerConfigRespectsMinBlockSize(t *testing.T) {
	ws := NewWorkStealerConfig(10, 4, 1000, 4)
	start, end, ok := ws.Steal()
	if !ok {
		t.Fatal("expected at least one steal")
	}
	if end-start < 10 {
		t.Fatalf("block size %d smaller than total rows 10 despite minBlockSize=1000", end-start)
	}
}

func TestWorkStealerExhaustedReturnsFalse(t *testing.T) {
	ws := NewWorkStealer(5, 1)
	_, _, ok := ws.Steal()
	if !ok {
		t.Fatal("expected first steal to succeed")
	}
	_, _, ok = ws.Steal()
	if ok {
		t.Fatal("expected second steal over a 5-row stealer to be exhausted")
	}
}
