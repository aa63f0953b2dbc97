package kraken

import (
	"fmt"
	"sync"
	"time"
)

// nonceCounter issues the nonce for private requests: a 10-digit zero-padded
// unix timestamp followed by a 9-digit zero-padded nanosecond remainder,
// 19 ASCII digits total. Emitted values are strictly increasing for the
// lifetime of the counter, even when the clock stalls or steps backwards.
type nonceCounter struct {
	last uint64

	m sync.Mutex
}

func (n *nonceCounter) next() string {
	n.m.Lock()
	defer n.m.Unlock()

	now := time.Now()
	// sec*1e9+nsec carries the same 19 digits as concatenating the two
	// zero-padded fields, and every 19-digit value fits a uint64.
	v := uint64(now.Unix())*1000000000 + uint64(now.Nanosecond())
	if v <= n.last {
		v = n.last + 1
	}
	n.last = v
	return fmt.Sprintf("%019d", v)
}
