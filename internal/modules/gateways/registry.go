package gateways

import "sort"

// Registry resolves the :gateway path segment to a configured adapter.
// Unknown names mean the route does not exist for us.
type Registry struct {
	byName map[string]Gateway
}

func NewRegistry(gws ...Gateway) *Registry {
	r := &Registry{byName: make(map[string]Gateway, len(gws))}
	for _, gw := range gws {
		r.byName[gw.Name()] = gw
	}
	return r
}

func (r *Registry) Lookup(name string) (Gateway, bool) {
	gw, ok := r.byName[name]
	return gw, ok
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
