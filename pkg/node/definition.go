package node

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrOutputMismatch is returned when a worker output does not match the
// data outputs declared by its definition
var ErrOutputMismatch = errors.New("worker outputs do not match declared sockets")

// Sockets groups the ordered inputs and outputs of a definition
type Sockets struct {
	Inputs  []Socket
	Outputs []Socket
}

// Definition describes a component. It is created once at plugin
// registration time and is read-only afterwards.
type Definition struct {
	name        string
	category    string
	description string
	inputs      []Socket
	outputs     []Socket
}

// NewDefinition creates a definition. Direction fields on the sockets are
// forced to match the list they were declared in.
// It panics on an empty name or a duplicate socket key within one direction.
func NewDefinition(name string, sockets Sockets, category, description string) *Definition {
	if name == "" {
		panic("node: definition name is required")
	}

	d := &Definition{
		name:        name,
		category:    category,
		description: description,
		inputs:      normalize(name, sockets.Inputs, Input),
		outputs:     normalize(name, sockets.Outputs, Output),
	}
	return d
}

func normalize(name string, sockets []Socket, dir Direction) []Socket {
	out := make([]Socket, 0, len(sockets))
	seen := make(map[string]bool, len(sockets))
	for _, s := range sockets {
		if s.Key == "" {
			panic(fmt.Sprintf("node: definition %q declares an %s socket without key", name, dir))
		}
		if seen[s.Key] {
			panic(fmt.Sprintf("node: definition %q declares %s socket %q twice", name, dir, s.Key))
		}
		seen[s.Key] = true
		s.Direction = dir
		if s.Name == "" {
			s.Name = s.Key
		}
		out = append(out, s)
	}
	return out
}

func (d *Definition) Name() string        { return d.name }
func (d *Definition) Category() string    { return d.category }
func (d *Definition) Description() string { return d.description }

// Inputs returns a copy of the declared input sockets in order
func (d *Definition) Inputs() []Socket {
	return append([]Socket(nil), d.inputs...)
}

// Outputs returns a copy of the declared output sockets in order
func (d *Definition) Outputs() []Socket {
	return append([]Socket(nil), d.outputs...)
}

// Input looks up an input socket by key
func (d *Definition) Input(key string) (Socket, bool) {
	return find(d.inputs, key)
}

// Output looks up an output socket by key
func (d *Definition) Output(key string) (Socket, bool) {
	return find(d.outputs, key)
}

func find(sockets []Socket, key string) (Socket, bool) {
	for _, s := range sockets {
		if s.Key == key {
			return s, true
		}
	}
	return Socket{}, false
}

// DataOutputs returns the keys of the non-trigger outputs, which are exactly
// the keys a worker must return
func (d *Definition) DataOutputs() []string {
	keys := make([]string, 0, len(d.outputs))
	for _, s := range d.outputs {
		if !s.IsTrigger() {
			keys = append(keys, s.Key)
		}
	}
	return keys
}

// CheckOutputs verifies that out holds exactly the declared data outputs
func (d *Definition) CheckOutputs(out Outputs) error {
	declared := make(map[string]bool)
	var missing []string
	for _, key := range d.DataOutputs() {
		declared[key] = true
		if _, ok := out[key]; !ok {
			missing = append(missing, key)
		}
	}

	var extra []string
	for key := range out {
		if !declared[key] {
			extra = append(extra, key)
		}
	}

	if len(missing) == 0 && len(extra) == 0 {
		return nil
	}

	sort.Strings(extra)
	var parts []string
	if len(missing) > 0 {
		parts = append(parts, "missing "+strings.Join(missing, ", "))
	}
	if len(extra) > 0 {
		parts = append(parts, "unexpected "+strings.Join(extra, ", "))
	}
	return fmt.Errorf("%w: %s: %s", ErrOutputMismatch, d.name, strings.Join(parts, "; "))
}
