package cos

import "sync"

// StopCh is a broadcast-once close signal, the same shape aistore's
// transport package hands to its collector/streaming goroutines
// (transport/collect.go) so a single Close is safe to call from any
// goroutine and a closed channel is safe to select on from many.
type StopCh struct {
	once sync.Once
	ch   chan struct{}
}

func NewStopCh() *StopCh { return &StopCh{ch: make(chan struct{})} }

func (s *StopCh) Close() { s.once.Do(func() { close(s.ch) }) }

func (s *StopCh) Listen() <-chan struct{} { return s.ch }

func (s *StopCh) IsClosed() bool {
	select {
	case <-s.ch:
		return true
	default:
		return false
	}
}
