package client

import (
	"context"

	"github.com/tsarna/hermes/pkg/hermes/topic"
)

// Router is a Handler that forwards each topic to the handler registered
// for its family, or to Default.
type Router struct {
	routes  map[topic.Family]Handler
	Default Handler
}

func NewRouter() *Router {
	return &Router{routes: make(map[topic.Family]Handler)}
}

// Handle registers h for family f, replacing any previous handler.
func (r *Router) Handle(f topic.Family, h Handler) *Router {
	r.routes[f] = h
	return r
}

func (r *Router) HandleFunc(f topic.Family, h func(ctx context.Context, t topic.Topic, payload any) error) *Router {
	return r.Handle(f, HandlerFunc(h))
}

// Families returns the families with a registered handler, in declaration
// order.
func (r *Router) Families() []topic.Family {
	var families []topic.Family
	for _, f := range topic.Families {
		if _, ok := r.routes[f]; ok {
			families = append(families, f)
		}
	}
	return families
}

func (r *Router) HandleTopic(ctx context.Context, t topic.Topic, payload any) error {
	if h, ok := r.routes[t.Family()]; ok {
		return h.HandleTopic(ctx, t, payload)
	}
	if r.Default != nil {
		return r.Default.HandleTopic(ctx, t, payload)
	}
	return nil
}
