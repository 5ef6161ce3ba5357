package node

// Link binds a port to a socket on another node
type Link struct {
	NodeID string `json:"node_id"`
	Key    string `json:"key"`
}

// Port is a socket attached to a concrete node, with its current wiring
type Port struct {
	Socket Socket `json:"socket"`
	Links  []Link `json:"links,omitempty"`
}

// Instance is a Definition placed in a spell graph
type Instance struct {
	ID         string
	Definition *Definition
	Data       map[string]any
	Inputs     []*Port
	Outputs    []*Port
}

// NewInstance creates an unbuilt instance of def. Ports are attached by Build.
func NewInstance(id string, def *Definition, data map[string]any) *Instance {
	if data == nil {
		data = make(map[string]any)
	}
	return &Instance{
		ID:         id,
		Definition: def,
		Data:       data,
	}
}

// Build attaches one port per declared input and output socket, in declared
// order, and returns inst for chaining. Calling it twice on the same instance
// attaches duplicate ports.
func Build(inst *Instance) *Instance {
	for _, s := range inst.Definition.inputs {
		inst.Inputs = append(inst.Inputs, &Port{Socket: s})
	}
	for _, s := range inst.Definition.outputs {
		inst.Outputs = append(inst.Outputs, &Port{Socket: s})
	}
	return inst
}

// InputPort returns the attached input port for key
func (i *Instance) InputPort(key string) *Port {
	return findPort(i.Inputs, key)
}

// OutputPort returns the attached output port for key
func (i *Instance) OutputPort(key string) *Port {
	return findPort(i.Outputs, key)
}

func findPort(ports []*Port, key string) *Port {
	for _, p := range ports {
		if p.Socket.Key == key {
			return p
		}
	}
	return nil
}

// DataString returns a string value from the node data, or "" when absent
func (i *Instance) DataString(key string) string {
	v, _ := i.Data[key].(string)
	return v
}
