package orchestrator

import (
	"errors"
	"fmt"
	"sort"

	"github.com/aescanero/spellforge/internal/application/registry"
	"github.com/aescanero/spellforge/pkg/domain"
	"github.com/aescanero/spellforge/pkg/node"
)

// ErrValidation wraps every spell validation failure
var ErrValidation = errors.New("invalid spell")

// Validator validates spell structures against the component registry
type Validator struct {
	registry *registry.Registry
}

// NewValidator creates a new spell validator
func NewValidator(reg *registry.Registry) *Validator {
	return &Validator{registry: reg}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Validate validates a spell structure
func (v *Validator) Validate(s *domain.Spell) error {
	if s == nil {
		return invalid("spell is nil")
	}

	if s.ID == "" {
		return invalid("spell ID is required")
	}

	if s.Version == "" {
		return invalid("spell version is required")
	}

	if len(s.Nodes) == 0 {
		return invalid("spell must have at least one node")
	}

	defs := make(map[string]*node.Definition, len(s.Nodes))
	for nodeID, n := range s.Nodes {
		def, err := v.validateNode(nodeID, n)
		if err != nil {
			return fmt.Errorf("invalid node %s: %w", nodeID, err)
		}
		defs[nodeID] = def
	}

	linked := make(map[string]int)
	for i, c := range s.Connections {
		if err := v.validateConnection(c, defs, linked); err != nil {
			return fmt.Errorf("invalid connection %d: %w", i, err)
		}
	}

	if _, err := topologicalOrder(s); err != nil {
		return err
	}

	return nil
}

// validateNode validates a single node and returns its definition
func (v *Validator) validateNode(nodeID string, n domain.SpellNode) (*node.Definition, error) {
	if nodeID == "" {
		return nil, invalid("node ID is required")
	}

	if n.ID != "" && n.ID != nodeID {
		return nil, invalid("node ID %q does not match its key", n.ID)
	}

	if n.Component == "" {
		return nil, invalid("component is required")
	}

	c, err := v.registry.Component(n.Component)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	return c.Definition(), nil
}

// validateConnection checks both ends exist, directions and types line up,
// and single-link inputs are not linked twice
func (v *Validator) validateConnection(c domain.Connection, defs map[string]*node.Definition, linked map[string]int) error {
	fromDef, ok := defs[c.From]
	if !ok {
		return invalid("connection references non-existent source node: %s", c.From)
	}
	toDef, ok := defs[c.To]
	if !ok {
		return invalid("connection references non-existent target node: %s", c.To)
	}
	if c.From == c.To {
		return invalid("node %s cannot be connected to itself", c.From)
	}

	out, ok := fromDef.Output(c.FromOutput)
	if !ok {
		return invalid("component %q has no output %q", fromDef.Name(), c.FromOutput)
	}
	in, ok := toDef.Input(c.ToInput)
	if !ok {
		return invalid("component %q has no input %q", toDef.Name(), c.ToInput)
	}

	if !in.Accepts(out) {
		return invalid("cannot connect %s.%s (%s) to %s.%s (%s)",
			c.From, c.FromOutput, out.Type, c.To, c.ToInput, in.Type)
	}

	key := c.To + "." + c.ToInput
	linked[key]++
	if linked[key] > 1 && !in.Multi {
		return invalid("input %s accepts a single connection", key)
	}

	return nil
}

// topologicalOrder returns node IDs in dependency order. Ties are broken by
// node ID so the order is stable.
func topologicalOrder(s *domain.Spell) ([]string, error) {
	indegree := make(map[string]int, len(s.Nodes))
	downstream := make(map[string][]string, len(s.Nodes))
	seen := make(map[[2]string]bool)

	for id := range s.Nodes {
		indegree[id] = 0
	}
	for _, c := range s.Connections {
		edge := [2]string{c.From, c.To}
		if seen[edge] {
			continue
		}
		seen[edge] = true
		downstream[c.From] = append(downstream[c.From], c.To)
		indegree[c.To]++
	}

	var ready []string
	for id, d := range indegree {
		if d == 0 {
			ready = append(ready, id)
		}
	}
	sort.Strings(ready)

	order := make([]string, 0, len(s.Nodes))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)

		next := downstream[id]
		sort.Strings(next)
		for _, to := range next {
			indegree[to]--
			if indegree[to] == 0 {
				ready = append(ready, to)
			}
		}
		sort.Strings(ready)
	}

	if len(order) != len(s.Nodes) {
		return nil, invalid("spell contains a cycle")
	}

	return order, nil
}
