package payment

import (
	"fmt"
	"strings"
)

// Registry resolves gateways by provider name. Checkout uses the default one;
// webhooks and reconciliation use whichever provider created the session.
type Registry struct {
	gateways    map[string]Gateway
	defaultName string
}

func NewRegistry(defaultName string, gateways ...Gateway) *Registry {
	r := &Registry{
		gateways:    make(map[string]Gateway, len(gateways)),
		defaultName: strings.ToLower(defaultName),
	}
	for _, g := range gateways {
		if g != nil {
			r.gateways[strings.ToLower(g.Name())] = g
		}
	}
	return r
}

func (r *Registry) Get(name string) (Gateway, bool) {
	g, ok := r.gateways[strings.ToLower(name)]
	return g, ok
}

func (r *Registry) Default() (Gateway, error) {
	g, ok := r.gateways[r.defaultName]
	if !ok {
		return nil, fmt.Errorf("%w: no gateway registered for %q", ErrNotConfigured, r.defaultName)
	}
	return g, nil
}
