package orchestrator

import (
	"fmt"

	"github.com/aescanero/spellforge/internal/application/registry"
	"github.com/aescanero/spellforge/pkg/domain"
	"github.com/aescanero/spellforge/pkg/node"
)

// Plan is a compiled spell: built instances with their links and the
// dependency structure the runner walks
type Plan struct {
	Spell      *domain.Spell
	Instances  map[string]*node.Instance
	Components map[string]node.Component
	// Order is a stable topological order of node IDs
	Order []string

	upstream   map[string][]string
	downstream map[string][]string
}

// Compile builds every node of a validated spell and wires its connections
func Compile(s *domain.Spell, reg *registry.Registry) (*Plan, error) {
	order, err := topologicalOrder(s)
	if err != nil {
		return nil, err
	}

	p := &Plan{
		Spell:      s,
		Instances:  make(map[string]*node.Instance, len(s.Nodes)),
		Components: make(map[string]node.Component, len(s.Nodes)),
		Order:      order,
		upstream:   make(map[string][]string),
		downstream: make(map[string][]string),
	}

	for _, id := range order {
		sn := s.Nodes[id]
		c, err := reg.Component(sn.Component)
		if err != nil {
			return nil, fmt.Errorf("failed to compile node %s: %w", id, err)
		}
		p.Components[id] = c
		p.Instances[id] = c.Builder(node.NewInstance(id, c.Definition(), sn.Data))
	}

	edges := make(map[[2]string]bool)
	for _, conn := range s.Connections {
		from, to := p.Instances[conn.From], p.Instances[conn.To]
		if from == nil || to == nil {
			return nil, fmt.Errorf("%w: connection %s -> %s references unknown node", ErrValidation, conn.From, conn.To)
		}

		out := from.OutputPort(conn.FromOutput)
		in := to.InputPort(conn.ToInput)
		if out == nil || in == nil {
			return nil, fmt.Errorf("%w: connection %s.%s -> %s.%s references unknown socket",
				ErrValidation, conn.From, conn.FromOutput, conn.To, conn.ToInput)
		}

		out.Links = append(out.Links, node.Link{NodeID: conn.To, Key: conn.ToInput})
		in.Links = append(in.Links, node.Link{NodeID: conn.From, Key: conn.FromOutput})

		edge := [2]string{conn.From, conn.To}
		if !edges[edge] {
			edges[edge] = true
			p.upstream[conn.To] = append(p.upstream[conn.To], conn.From)
			p.downstream[conn.From] = append(p.downstream[conn.From], conn.To)
		}
	}

	return p, nil
}

// Upstream returns the IDs of the nodes id depends on
func (p *Plan) Upstream(id string) []string {
	return p.upstream[id]
}

// Downstream returns the IDs of the nodes that depend on id
func (p *Plan) Downstream(id string) []string {
	return p.downstream[id]
}

// ResolveInputs collects the values flowing into inst from completed nodes.
// Trigger links only order execution and contribute no value. Inputs
// accepting several links resolve to []any in link order.
func ResolveInputs(inst *node.Instance, outputs map[string]node.Outputs) node.Inputs {
	in := make(node.Inputs, len(inst.Inputs))
	for _, port := range inst.Inputs {
		if port.Socket.IsTrigger() || len(port.Links) == 0 {
			continue
		}

		if port.Socket.Multi {
			values := make([]any, 0, len(port.Links))
			for _, l := range port.Links {
				values = append(values, outputs[l.NodeID][l.Key])
			}
			in[port.Socket.Key] = values
			continue
		}

		l := port.Links[0]
		in[port.Socket.Key] = outputs[l.NodeID][l.Key]
	}
	return in
}
