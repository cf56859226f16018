package world

import (
	"github.com/roach88/objgen/internal/ir"
	"github.com/roach88/objgen/internal/lazy"
)

// ObjectSet is the satisfier set of one rule application. Its objects are
// exchangeable unless a caller distinguishes some of them.
type ObjectSet struct {
	objects []ir.Object
}

// NewObjectSet returns a set over objs in the given order.
func NewObjectSet(objs ...ir.Object) ObjectSet {
	return ObjectSet{objects: append([]ir.Object(nil), objs...)}
}

// Len returns the number of objects.
func (s ObjectSet) Len() int { return len(s.objects) }

// Objects returns a copy of the objects.
func (s ObjectSet) Objects() []ir.Object {
	return append([]ir.Object(nil), s.objects...)
}

// Generator yields the objects of the set. Objects for which distinguished
// returns true come first, in set order; the rest follow. A nil
// distinguished treats every object as exchangeable.
//
// SkipIndistinguishable on the returned generator drops the remaining
// exchangeable objects once one of them has been yielded.
func (s ObjectSet) Generator(distinguished func(ir.Value) bool) lazy.Generator[ir.Value] {
	g := &setGen{}
	for _, o := range s.objects {
		if distinguished != nil && distinguished(o) {
			g.items = append(g.items, o)
		}
	}
	g.firstPlain = len(g.items)
	for _, o := range s.objects {
		if distinguished == nil || !distinguished(o) {
			g.items = append(g.items, o)
		}
	}
	return g
}

type setGen struct {
	items      []ir.Value
	firstPlain int
	pos        int
}

func (g *setGen) Next() (ir.Value, lazy.State) {
	if g.pos >= len(g.items) {
		return nil, lazy.Exhausted
	}
	v := g.items[g.pos]
	g.pos++
	return v, lazy.Ready
}

func (g *setGen) SkipIndistinguishable() int {
	if g.pos <= g.firstPlain || g.pos >= len(g.items) {
		return 0
	}
	n := len(g.items) - g.pos
	g.pos = len(g.items)
	return n
}
