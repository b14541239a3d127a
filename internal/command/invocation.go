package command

// Invocation carries the values bound for one command run.  Defaults are
// applied before any token is bound; flags start out false.
type Invocation struct {
	meta     *MetaData
	registry *Registry
	values   map[string]interface{}
}

func newInvocation(md *MetaData, reg *Registry) *Invocation {
	inv := &Invocation{
		meta:     md,
		registry: reg,
		values:   make(map[string]interface{}, len(md.Options)+len(md.Arguments)),
	}
	for _, o := range md.Options {
		switch {
		case o.HasDefault:
			inv.values[o.Name] = o.Default
		case o.Kind == Bool:
			inv.values[o.Name] = false
		}
	}
	return inv
}

// NewInvocation builds an invocation for md with defaults applied and
// the given values bound on top.  It is meant for tests and for callers
// that run a command without a typed line.
func NewInvocation(md *MetaData, reg *Registry, values map[string]interface{}) *Invocation {
	inv := newInvocation(md, reg)
	for k, v := range values {
		inv.values[k] = v
	}
	return inv
}

// Command returns the metadata of the command being invoked.
func (inv *Invocation) Command() *MetaData { return inv.meta }

// Registry returns the registry the command was resolved from.
func (inv *Invocation) Registry() *Registry { return inv.registry }

// Has reports whether name has a value, bound or default.
func (inv *Invocation) Has(name string) bool {
	_, ok := inv.values[name]
	return ok
}

// Bool returns the value of a flag.
func (inv *Invocation) Bool(name string) bool {
	v, _ := inv.values[name].(bool)
	return v
}

// String returns a string value, or "" if unset.
func (inv *Invocation) String(name string) string {
	v, _ := inv.values[name].(string)
	return v
}

// Byte returns a byte value, or 0 if unset.
func (inv *Invocation) Byte(name string) uint8 {
	v, _ := inv.values[name].(uint8)
	return v
}

func (inv *Invocation) set(name string, v interface{}) { inv.values[name] = v }
