package dispatch_test

import (
	"sync/atomic"
	"testing"

	"github.com/sass-contrib/embedded-host-go/dispatch"
)

func TestNotifyFansOutToAllObservers(t *testing.T) {
	d := dispatch.New[int]()
	var a, b int64
	d.Add(func(v int) { atomic.AddInt64(&a, int64(v)) })
	d.Add(func(v int) { atomic.AddInt64(&b, int64(v)) })

	d.Notify(3)
	d.Notify(4)

	if atomic.LoadInt64(&a) != 7 || atomic.LoadInt64(&b) != 7 {
		t.Fatalf("a=%d b=%d, want 7 each", a, b)
	}
}

func TestRemoveStopsNotifications(t *testing.T) {
	d := dispatch.New[int]()
	var calls int64
	id := d.Add(func(int) { atomic.AddInt64(&calls, 1) })
	d.Notify(1)
	d.Remove(id)
	d.Notify(1)

	if atomic.LoadInt64(&calls) != 1 {
		t.Fatalf("calls=%d, want 1", calls)
	}
}

func TestRemoveAllClearsObservers(t *testing.T) {
	d := dispatch.New[int]()
	d.Add(func(int) {})
	d.Add(func(int) {})
	d.RemoveAll()
	if d.Len() != 0 {
		t.Fatalf("len=%d, want 0", d.Len())
	}
}
