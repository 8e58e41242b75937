// Package params turns a trained network's weights and biases into per-neuron
// memory-init files and aggregate C headers.
package params

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
)

var ErrMalformedDocument = errors.New("params: malformed document")

// Document holds the parameters in traversal order: layer, neuron, weight.
// Biases are layer, neuron, [bias].
type Document struct {
	Weights [][][]float64 `json:"weights"`
	Biases  [][][]float64 `json:"biases"`
}

// Source loads a parameter document.
type Source interface {
	Load(ctx context.Context) (*Document, error)
}

// FileSource reads a JSON document from disk.
type FileSource struct {
	Path string
}

func (s FileSource) Load(ctx context.Context) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	doc, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.Path, err)
	}
	return doc, nil
}

// Decode parses and validates a JSON document.
func Decode(r io.Reader) (*Document, error) {
	var raw struct {
		Weights *[][][]float64 `json:"weights"`
		Biases  *[][][]float64 `json:"biases"`
	}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	if raw.Weights == nil {
		return nil, fmt.Errorf("%w: missing \"weights\"", ErrMalformedDocument)
	}
	if raw.Biases == nil {
		return nil, fmt.Errorf("%w: missing \"biases\"", ErrMalformedDocument)
	}
	doc := &Document{Weights: *raw.Weights, Biases: *raw.Biases}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return doc, nil
}

// Validate checks the document's shape. Layers in messages are numbered from 1
// and neurons from 0, matching the emitted file names.
func (d *Document) Validate() error {
	if len(d.Weights) != len(d.Biases) {
		return fmt.Errorf("%w: %d weight layers but %d bias layers", ErrMalformedDocument, len(d.Weights), len(d.Biases))
	}
	fanIn := -1
	for l, layer := range d.Weights {
		if len(layer) == 0 {
			return fmt.Errorf("%w: layer %d: no neurons", ErrMalformedDocument, l+1)
		}
		if len(layer) != len(d.Biases[l]) {
			return fmt.Errorf("%w: layer %d: %d neurons but %d biases", ErrMalformedDocument, l+1, len(layer), len(d.Biases[l]))
		}
		width := len(layer[0])
		if fanIn >= 0 && width != fanIn {
			return fmt.Errorf("%w: layer %d: fan-in %d does not match previous layer width %d", ErrMalformedDocument, l+1, width, fanIn)
		}
		for n, neuron := range layer {
			if len(neuron) != width {
				return fmt.Errorf("%w: layer %d neuron %d: %d weights, expected %d", ErrMalformedDocument, l+1, n, len(neuron), width)
			}
			if len(d.Biases[l][n]) != 1 {
				return fmt.Errorf("%w: layer %d neuron %d: bias must hold exactly one value, got %d", ErrMalformedDocument, l+1, n, len(d.Biases[l][n]))
			}
		}
		fanIn = len(layer)
	}
	return nil
}

// Neurons is the total neuron count across layers.
func (d *Document) Neurons() int {
	n := 0
	for _, layer := range d.Weights {
		n += len(layer)
	}
	return n
}

// NumWeights is the total weight count across layers.
func (d *Document) NumWeights() int {
	n := 0
	for _, layer := range d.Weights {
		for _, neuron := range layer {
			n += len(neuron)
		}
	}
	return n
}
