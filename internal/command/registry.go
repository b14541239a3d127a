package command

import (
	"fmt"
	"sort"

	"ehome/internal/errors"
)

// Registry maps command keys to metadata.  It is built once and is safe
// for concurrent lookups from any number of sessions.
type Registry struct {
	byKey map[string]*MetaData
	keys  []string // sorted
}

// NewRegistry validates descs and builds the registry.  Any invalid
// descriptor fails the whole build with a *errors.DescriptorError.
func NewRegistry(descs ...Descriptor) (*Registry, error) {
	r := &Registry{byKey: make(map[string]*MetaData, len(descs))}
	for _, d := range descs {
		md, err := compile(d)
		if err != nil {
			return nil, err
		}
		key := md.Key()
		if _, dup := r.byKey[key]; dup {
			return nil, &errors.DescriptorError{Command: key, Message: "registered twice"}
		}
		r.byKey[key] = md
		r.keys = append(r.keys, key)
	}
	sort.Strings(r.keys)
	return r, nil
}

func compile(d Descriptor) (*MetaData, error) {
	key := d.Key()
	fail := func(format string, args ...interface{}) error {
		return &errors.DescriptorError{Command: key, Message: fmt.Sprintf(format, args...)}
	}

	if d.Name == "" {
		return nil, fail("name is required")
	}
	if d.New == nil {
		return nil, fail("factory is required")
	}
	if len(d.Arguments) > 1 {
		return nil, fail("declares %d arguments, at most one is supported", len(d.Arguments))
	}

	md := &MetaData{
		Group:       d.Group,
		Name:        d.Name,
		Description: d.Description,
		New:         d.New,
	}

	seen := make(map[string]bool, len(d.Options))
	for _, o := range d.Options {
		if o.Name == "" {
			return nil, fail("option without a name")
		}
		if seen[o.Name] {
			return nil, fail("duplicate option --%s", o.Name)
		}
		seen[o.Name] = true

		conv, err := converterFor(o.Kind)
		if err != nil {
			return nil, fail("option --%s: %v", o.Name, err)
		}
		om := OptionMetaData{
			Name:         o.Name,
			Description:  o.Description,
			Kind:         o.Kind,
			AcceptsValue: o.Kind != Bool,
			Multiple:     o.Multiple,
			Convert:      conv,
		}
		if o.Default != "" {
			if o.Kind == Bool {
				return nil, fail("flag --%s cannot declare a default value", o.Name)
			}
			v, err := conv(o.Default)
			if err != nil {
				return nil, fail("option --%s: bad default %q: %v", o.Name, o.Default, err)
			}
			om.Default, om.HasDefault = v, true
		}
		md.Options = append(md.Options, om)
	}

	for _, a := range d.Arguments {
		conv, err := converterFor(a.Kind)
		if err != nil {
			return nil, fail("argument %s: %v", a.Name, err)
		}
		if a.Name == "" {
			return nil, fail("argument without a name")
		}
		if seen[a.Name] {
			return nil, fail("argument %s shadows an option", a.Name)
		}
		md.Arguments = append(md.Arguments, ArgumentMetaData{
			Name:        a.Name,
			Description: a.Description,
			Kind:        a.Kind,
			Convert:     conv,
		})
	}
	return md, nil
}

// Lookup returns the command registered under key.
func (r *Registry) Lookup(key string) (*MetaData, bool) {
	md, ok := r.byKey[key]
	return md, ok
}

// Keys returns all command keys in sorted order.
func (r *Registry) Keys() []string {
	return append([]string(nil), r.keys...)
}

// List returns all commands ordered by key.
func (r *Registry) List() []*MetaData {
	out := make([]*MetaData, len(r.keys))
	for i, k := range r.keys {
		out[i] = r.byKey[k]
	}
	return out
}

// Len returns the number of registered commands.
func (r *Registry) Len() int { return len(r.keys) }
