package node

// SocketType tags the kind of value that travels through a socket
type SocketType string

const (
	SocketAny     SocketType = "any"
	SocketString  SocketType = "string"
	SocketNumber  SocketType = "number"
	SocketBoolean SocketType = "boolean"
	SocketObject  SocketType = "object"
	SocketTrigger SocketType = "trigger"
)

// Direction tells whether a socket receives or emits values
type Direction string

const (
	Input  Direction = "input"
	Output Direction = "output"
)

// Socket is a typed connection point declared by a Definition.
// Sockets are passed by value and never mutated after declaration.
type Socket struct {
	// Key identifies the socket within its direction, e.g. "output"
	Key string `json:"key"`
	// Name is the label shown to users, e.g. "String"
	Name      string     `json:"name"`
	Type      SocketType `json:"type"`
	Direction Direction  `json:"direction"`
	// Multi allows more than one link on an input socket
	Multi bool `json:"multi,omitempty"`
}

// IsTrigger reports whether the socket carries control flow only
func (s Socket) IsTrigger() bool {
	return s.Type == SocketTrigger
}

// Accepts reports whether a value leaving from can be linked into s.
// Trigger sockets only link to trigger sockets; "any" matches every data type.
func (s Socket) Accepts(from Socket) bool {
	if s.IsTrigger() || from.IsTrigger() {
		return s.IsTrigger() && from.IsTrigger()
	}
	if s.Type == SocketAny || from.Type == SocketAny {
		return true
	}
	return s.Type == from.Type
}

// In declares an input socket
func In(key, name string, typ SocketType) Socket {
	return Socket{Key: key, Name: name, Type: typ, Direction: Input}
}

// MultiIn declares an input socket that accepts several links
func MultiIn(key, name string, typ SocketType) Socket {
	return Socket{Key: key, Name: name, Type: typ, Direction: Input, Multi: true}
}

// Out declares an output socket
func Out(key, name string, typ SocketType) Socket {
	return Socket{Key: key, Name: name, Type: typ, Direction: Output}
}
