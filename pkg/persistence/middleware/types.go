package middleware

import "github.com/aretw0/contentgraph/pkg/ports"

// Middleware allows wrapping a Registrar to add behavior.
type Middleware func(ports.Registrar) ports.Registrar

// Chain applies middlewares so that the first one sees each descriptor first.
func Chain(next ports.Registrar, mws ...Middleware) ports.Registrar {
	for i := len(mws) - 1; i >= 0; i-- {
		next = mws[i](next)
	}
	return next
}
