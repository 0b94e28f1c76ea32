// Package resilience holds the explicit fallback chains used when a value can
// be produced in more than one way, and the classification of network
// failures.
package resilience

import (
	"context"
)

// Strategy is one named way of producing a value.
type Strategy[T any] struct {
	Name string
	Run  func(ctx context.Context) (T, error)
}

// Result is the uniform outcome of a chain. Strategy names the strategy that
// produced Value; it is empty when the chain was exhausted.
type Result[T any] struct {
	Value     T
	Strategy  string
	Attempted []string
	Err       error
}

// Exhausted reports whether no strategy produced an accepted value.
func (r Result[T]) Exhausted() bool {
	return r.Strategy == ""
}

// Fallback tries its strategies in order and stops at the first accepted
// value. Each strategy runs at most once.
type Fallback[T any] struct {
	Strategies []Strategy[T]

	// Accept reports whether a value returned without error is usable. A nil
	// Accept takes any such value.
	Accept func(T) bool

	// Handover reports whether an error lets the next strategy run. A nil
	// Handover hands over on every error. When it returns false the chain
	// stops and the error is returned.
	Handover func(error) bool

	// OnFallback is called before a later strategy runs.
	OnFallback func(from, to string, err error)
}

// Run executes the chain. The value and error of the last strategy tried are
// kept in the result when the chain is exhausted.
func (f Fallback[T]) Run(ctx context.Context) Result[T] {
	var res Result[T]

	for i, s := range f.Strategies {
		if i > 0 {
			if err := ctx.Err(); err != nil {
				res.Err = err
				return res
			}
			if f.OnFallback != nil {
				f.OnFallback(f.Strategies[i-1].Name, s.Name, res.Err)
			}
		}

		res.Attempted = append(res.Attempted, s.Name)
		v, err := s.Run(ctx)
		res.Value, res.Err = v, err

		if err == nil {
			if f.Accept == nil || f.Accept(v) {
				res.Strategy = s.Name
				return res
			}
			continue
		}

		if f.Handover != nil && !f.Handover(err) {
			return res
		}
	}

	return res
}
