package lut

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Func is a scalar activation sampled into a table.
type Func func(x float64) float64

// Sigmoid is the logistic function. When exp(-x) overflows it saturates to the
// asymptote on the side of x instead of producing a non-finite intermediate.
func Sigmoid(x float64) float64 {
	e := math.Exp(-x)
	if math.IsInf(e, 1) {
		return 0
	}
	if e == 0 {
		return 1
	}
	return 1 / (1 + e)
}

// Tanh saturates to -1 and +1.
func Tanh(x float64) float64 {
	switch {
	case math.IsInf(x, -1):
		return -1
	case math.IsInf(x, 1):
		return 1
	}
	return math.Tanh(x)
}

var activations = map[string]Func{
	"sigmoid":  Sigmoid,
	"logistic": Sigmoid,
	"tanh":     Tanh,
}

// Lookup returns a registered activation by name.
func Lookup(name string) (Func, error) {
	fn, ok := activations[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %s)", ErrUnknownActivation, name, strings.Join(Names(), ", "))
	}
	return fn, nil
}

// Names lists registered activation names in sorted order.
func Names() []string {
	out := make([]string, 0, len(activations))
	for name := range activations {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
