package view

import "golang.org/x/net/html"

// registry maps rendered nodes to the views that own them. It does not own
// either side: entries are dropped when a view is destroyed.
type registry struct {
	views map[*html.Node]ContentView
}

func newRegistry() *registry {
	return &registry{views: make(map[*html.Node]ContentView)}
}

func (r *registry) get(n *html.Node) ContentView {
	if r == nil || n == nil {
		return nil
	}
	return r.views[n]
}

func (r *registry) set(n *html.Node, v ContentView) {
	if r == nil || n == nil {
		return
	}
	r.views[n] = v
}

// remove drops the entry for n if it still points at v.
func (r *registry) remove(n *html.Node, v ContentView) {
	if r == nil {
		return
	}
	if cur, ok := r.views[n]; ok && cur == v {
		delete(r.views, n)
	}
}

// nearest walks up from n to the first node owned by a view.
func (r *registry) nearest(n *html.Node) ContentView {
	for ; n != nil; n = n.Parent {
		if v := r.get(n); v != nil {
			return v
		}
	}
	return nil
}

func (r *registry) len() int {
	if r == nil {
		return 0
	}
	return len(r.views)
}
