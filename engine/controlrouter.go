package engine

import "github.com/vsariola/groove"

// ControlLink targets one parameter of one entity.
type ControlLink struct {
	Target groove.Uid
	Param  int
}

// ControlRouter fans the values emitted by a controller out to the linked
// parameters. A pair linked twice receives the value twice.
type ControlRouter struct {
	links map[groove.Uid][]ControlLink
}

func NewControlRouter() *ControlRouter {
	return &ControlRouter{links: make(map[groove.Uid][]ControlLink)}
}

func (r *ControlRouter) Link(source, target groove.Uid, param int) {
	r.links[source] = append(r.links[source], ControlLink{Target: target, Param: param})
}

// Unlink removes every link from source to the parameter.
func (r *ControlRouter) Unlink(source, target groove.Uid, param int) {
	links := r.links[source][:0]
	for _, l := range r.links[source] {
		if l.Target != target || l.Param != param {
			links = append(links, l)
		}
	}
	if len(links) == 0 {
		delete(r.links, source)
		return
	}
	r.links[source] = links
}

// Links returns the links of source. The slice must not be modified.
func (r *ControlRouter) Links(source groove.Uid) []ControlLink {
	return r.links[source]
}

// Route hands value to set once per link of source. A source without links
// is a no-op.
func (r *ControlRouter) Route(source groove.Uid, value float64, set func(target groove.Uid, param int, value float64)) {
	for _, l := range r.links[source] {
		set(l.Target, l.Param, value)
	}
}

// Forget removes every link from or to uid.
func (r *ControlRouter) Forget(uid groove.Uid) {
	delete(r.links, uid)
	for source, links := range r.links {
		kept := links[:0]
		for _, l := range links {
			if l.Target != uid {
				kept = append(kept, l)
			}
		}
		if len(kept) == 0 {
			delete(r.links, source)
		} else {
			r.links[source] = kept
		}
	}
}
