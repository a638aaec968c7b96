package broadcast

import "testing"

func TestRegistryRegisterDeregister(t *testing.T) {
	r := NewRegistry()
	if r.Count() != 0 {
		t.Fatalf("Count = %d, want 0", r.Count())
	}

	w1, w2 := NewWaker(), NewWaker()
	r.Register(1, w1)
	r.Register(2, w2)
	if r.Count() != 2 {
		t.Fatalf("Count = %d, want 2", r.Count())
	}

	r.Deregister(1)
	if r.Count() != 1 {
		t.Fatalf("Count = %d, want 1", r.Count())
	}
}

func TestRegistryWakeAllSignalsEveryWaker(t *testing.T) {
	r := NewRegistry()
	wakers := make([]*Waker, 5)
	for i := range wakers {
		wakers[i] = NewWaker()
		r.Register(uint64(i), wakers[i])
	}

	r.WakeAll()

	for i, w := range wakers {
		select {
		case <-w.ch:
		default:
			t.Fatalf("waker %d was not signaled", i)
		}
	}
}

func TestRegistryWakeAllSkipsDeregistered(t *testing.T) {
	r := NewRegistry()
	w := NewWaker()
	r.Register(1, w)
	r.Deregister(1)

	r.WakeAll()
	select {
	case <-w.ch:
		t.Fatal("deregistered waker was signaled by WakeAll")
	default:
	}

	// Signaling after deregistration must not panic or use-after-free;
	// the waker is still a valid, independently-owned value.
	w.Wake()
	r.WakeAll()
}
