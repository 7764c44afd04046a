//go:build !linux

package critical

type Realtime struct {
	Pinned
}

func NewRealtime(priority int) (*Realtime, error) {
	return nil, ErrUnsupported
}

func (r *Realtime) Close() error { return nil }
