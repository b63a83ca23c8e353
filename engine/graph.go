package engine

import (
	"slices"

	"github.com/vsariola/groove"
)

// PatchGraph holds the audio cables as a sink-to-sources adjacency map.
type PatchGraph struct {
	sources map[groove.Uid][]groove.Uid
}

func NewPatchGraph() *PatchGraph {
	return &PatchGraph{sources: make(map[groove.Uid][]groove.Uid)}
}

// Patch feeds the output of out into in. Patching the same cable twice is
// a no-op. A cable that would close a loop is rejected with
// groove.ErrCycle.
func (g *PatchGraph) Patch(out, in groove.Uid) error {
	if slices.Contains(g.sources[in], out) {
		return nil
	}
	if out == in || g.isUpstream(in, out) {
		return groove.ErrCycle
	}
	g.sources[in] = append(g.sources[in], out)
	return nil
}

func (g *PatchGraph) Unpatch(out, in groove.Uid) {
	srcs := g.sources[in]
	if i := slices.Index(srcs, out); i >= 0 {
		srcs = slices.Delete(srcs, i, i+1)
	}
	if len(srcs) == 0 {
		delete(g.sources, in)
	} else {
		g.sources[in] = srcs
	}
}

// Sources returns the Uids patched into in. The slice must not be
// modified.
func (g *PatchGraph) Sources(in groove.Uid) []groove.Uid {
	return g.sources[in]
}

// Sinks returns the Uids that have at least one source, in ascending order.
func (g *PatchGraph) Sinks() []groove.Uid {
	ret := make([]groove.Uid, 0, len(g.sources))
	for uid := range g.sources {
		ret = append(ret, uid)
	}
	slices.Sort(ret)
	return ret
}

// Remove deletes every cable to or from uid.
func (g *PatchGraph) Remove(uid groove.Uid) {
	delete(g.sources, uid)
	for in := range g.sources {
		g.Unpatch(uid, in)
	}
}

func (g *PatchGraph) Clear() {
	clear(g.sources)
}

// isUpstream reports whether target feeds, directly or indirectly, into
// from.
func (g *PatchGraph) isUpstream(target, from groove.Uid) bool {
	visited := map[groove.Uid]bool{from: true}
	stack := []groove.Uid{from}
	for len(stack) > 0 {
		uid := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, src := range g.sources[uid] {
			if src == target {
				return true
			}
			if !visited[src] {
				visited[src] = true
				stack = append(stack, src)
			}
		}
	}
	return false
}
