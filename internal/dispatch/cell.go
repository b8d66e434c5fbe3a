package dispatch

import (
	"sync/atomic"

	"golang-ussd-gateway/internal/domain"
)

type resultKind string

const (
	kindSuccess   resultKind = "success"
	kindFailure   resultKind = "failure"
	kindTimeout   resultKind = "timeout"
	kindError     resultKind = "error"
	kindCancelled resultKind = "cancelled"
)

type result struct {
	outcome domain.Outcome
	kind    resultKind
}

// outcomeCell accepts the first claimed result and ignores the rest.
type outcomeCell struct {
	claimed atomic.Bool
	done    chan struct{}
	res     result
}

func newOutcomeCell() *outcomeCell {
	return &outcomeCell{done: make(chan struct{})}
}

// claim stores r if nothing has been stored yet and reports whether it won.
func (c *outcomeCell) claim(r result) bool {
	if !c.claimed.CompareAndSwap(false, true) {
		return false
	}
	c.res = r
	close(c.done)
	return true
}

// wait blocks until some writer has won the claim and returns its result.
func (c *outcomeCell) wait() result {
	<-c.done
	return c.res
}
