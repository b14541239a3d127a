// Package command holds the command registry of the shell and the
// dispatcher that turns a submitted line into a command run.
//
// Commands are declared with a Descriptor.  The registry validates every
// descriptor once at startup and derives the metadata the dispatcher
// binds tokens with, so nothing is inspected at run time.
package command

import (
	"context"
	"fmt"
	"strconv"
)

// Command is one executable command instance, built fresh for every
// submitted line.
type Command interface {
	Execute(ctx context.Context, user string, c Communicator) Result
}

// Func adapts a plain function to Command.
type Func func(ctx context.Context, user string, c Communicator) Result

// Execute calls f.
func (f Func) Execute(ctx context.Context, user string, c Communicator) Result {
	return f(ctx, user, c)
}

// Factory builds a command from the values bound for one invocation.
type Factory func(inv *Invocation) Command

// ValueKind is the declared type of an option or argument value.
type ValueKind int

const (
	Bool ValueKind = iota + 1
	String
	Byte
)

func (k ValueKind) String() string {
	switch k {
	case Bool:
		return "bool"
	case String:
		return "string"
	case Byte:
		return "byte"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Converter turns a raw token into a typed value.
type Converter func(raw string) (interface{}, error)

// converterFor infers the converter from the declared kind.
func converterFor(k ValueKind) (Converter, error) {
	switch k {
	case Bool:
		return func(raw string) (interface{}, error) { return strconv.ParseBool(raw) }, nil
	case String:
		return func(raw string) (interface{}, error) { return raw, nil }, nil
	case Byte:
		return func(raw string) (interface{}, error) {
			v, err := strconv.ParseUint(raw, 10, 8)
			if err != nil {
				return nil, err
			}
			return uint8(v), nil
		}, nil
	default:
		return nil, fmt.Errorf("unsupported value type %s", k)
	}
}

// Option declares a --name option.
type Option struct {
	Name        string
	Description string
	Kind        ValueKind
	Default     string // raw default, converted at startup
	Multiple    bool
}

// Argument declares the positional argument.
type Argument struct {
	Name        string
	Description string
	Kind        ValueKind
}

// Descriptor is the static declaration of a command.
type Descriptor struct {
	Group       string
	Name        string
	Description string
	Options     []Option
	Arguments   []Argument // at most one
	New         Factory
}

// Key returns group:name, or the bare name when there is no group.
func (d Descriptor) Key() string { return Key(d.Group, d.Name) }

// Key builds a command key.
func Key(group, name string) string {
	if group == "" {
		return name
	}
	return group + ":" + name
}

// OptionMetaData is a validated option.
type OptionMetaData struct {
	Name         string
	Description  string
	Kind         ValueKind
	AcceptsValue bool // false only for boolean flags
	Default      interface{}
	HasDefault   bool
	Multiple     bool
	Convert      Converter
}

// ArgumentMetaData is a validated positional argument.
type ArgumentMetaData struct {
	Name        string
	Description string
	Kind        ValueKind
	Convert     Converter
}

// MetaData describes one registered command.  It is immutable once the
// registry is built.
type MetaData struct {
	Group       string
	Name        string
	Description string
	Options     []OptionMetaData
	Arguments   []ArgumentMetaData
	New         Factory
}

// Key returns the lookup key of the command.
func (m *MetaData) Key() string { return Key(m.Group, m.Name) }

// Option finds a declared option by name.
func (m *MetaData) Option(name string) (*OptionMetaData, bool) {
	for i := range m.Options {
		if m.Options[i].Name == name {
			return &m.Options[i], true
		}
	}
	return nil, false
}
