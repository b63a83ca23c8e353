package engine

import "github.com/vsariola/groove"

type evalOp int

const (
	opVisit evalOp = iota
	opCollect
)

type evalEntry struct {
	op  evalOp
	uid groove.Uid
	acc groove.StereoSample // sum before the effect was entered
}

// Evaluator computes one frame of a patch graph. It walks the graph from
// the root towards the sources with an explicit stack, so deep chains do
// not grow the goroutine stack, and the stack is reused between frames.
type Evaluator struct {
	stack []evalEntry
	done  map[groove.Uid]bool
	last  map[groove.Uid]groove.StereoSample
}

func NewEvaluator() *Evaluator {
	return &Evaluator{
		done: make(map[groove.Uid]bool),
		last: make(map[groove.Uid]groove.StereoSample),
	}
}

// Evaluate returns the output of root for the current frame. Every entity
// reached from the root is advanced at most once per call; an entity that
// feeds several effects contributes the same frame to each. An effect with
// nothing patched into it contributes silence.
func (e *Evaluator) Evaluate(clock *groove.Clock, root groove.Uid, graph *PatchGraph, store *Store) groove.StereoSample {
	clear(e.done)
	e.stack = append(e.stack[:0], evalEntry{op: opVisit, uid: root})
	sum := groove.Silence
	for len(e.stack) > 0 {
		top := e.stack[len(e.stack)-1]
		e.stack = e.stack[:len(e.stack)-1]
		switch top.op {
		case opVisit:
			if e.done[top.uid] {
				sum = sum.Add(e.last[top.uid])
				continue
			}
			ent, ok := store.Get(top.uid)
			if !ok {
				continue
			}
			if inst, ok := ent.(groove.Instrument); ok {
				v := inst.Generate(clock)
				e.done[top.uid] = true
				e.last[top.uid] = v
				sum = sum.Add(v)
				continue
			}
			if _, ok := ent.(groove.Effect); !ok {
				continue
			}
			srcs := graph.Sources(top.uid)
			if len(srcs) == 0 {
				e.done[top.uid] = true
				e.last[top.uid] = groove.Silence
				continue
			}
			e.stack = append(e.stack, evalEntry{op: opCollect, uid: top.uid, acc: sum})
			sum = groove.Silence
			for i := len(srcs) - 1; i >= 0; i-- {
				if srcs[i] != top.uid {
					e.stack = append(e.stack, evalEntry{op: opVisit, uid: srcs[i]})
				}
			}
		case opCollect:
			ent, _ := store.Get(top.uid)
			v := ent.(groove.Effect).Transform(clock, sum)
			e.done[top.uid] = true
			e.last[top.uid] = v
			sum = top.acc.Add(v)
		}
	}
	return sum
}

// Last returns the most recent output of uid, for metering.
func (e *Evaluator) Last(uid groove.Uid) groove.StereoSample {
	return e.last[uid]
}

// Forget drops the cached output of a removed entity.
func (e *Evaluator) Forget(uid groove.Uid) {
	delete(e.last, uid)
	delete(e.done, uid)
}
