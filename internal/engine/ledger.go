package engine

import (
	"fmt"
	"sync"

	"github.com/roach88/objgen/internal/graph"
)

// DerivationLedger records which rule applications each node has resolved
// during one enumeration.
//
// The round structure guarantees every (node, application) pair is
// resolved at most once: a tuple is only formed when its first "desired"
// position holds an object that was new in the previous round. The ledger
// checks that guarantee at run time when WithDerivationCheck is set, and
// fails fast with DUPLICATE_DERIVATION if it is ever broken.
//
// Keys include whether the generator returned rule-application ids, so
// the ledger also tells which pass resolved an application.
type DerivationLedger struct {
	mu      sync.Mutex
	history map[string]bool // "node:pass:app id"
}

// NewDerivationLedger creates an empty ledger.
func NewDerivationLedger() *DerivationLedger {
	return &DerivationLedger{history: make(map[string]bool)}
}

// Record marks app as resolved for node. It returns false if the pair was
// already recorded.
func (l *DerivationLedger) Record(node graph.NodeID, ids bool, appID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := fmt.Sprintf("%d:%t:%s", node, ids, appID)
	if l.history[key] {
		return false
	}
	l.history[key] = true
	return true
}

// Size returns the number of recorded derivations.
func (l *DerivationLedger) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.history)
}
