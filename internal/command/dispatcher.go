package command

import (
	"context"
	"fmt"
	"strings"

	"ehome/internal/errors"
	"ehome/util"
)

// Dispatcher resolves submitted lines against a Registry and runs them.
type Dispatcher struct {
	registry *Registry
	logger   *util.Logger
}

// NewDispatcher returns a Dispatcher over reg.
func NewDispatcher(reg *Registry, logger *util.Logger) *Dispatcher {
	return &Dispatcher{registry: reg, logger: logger}
}

// Registry returns the registry commands are resolved from.
func (d *Dispatcher) Registry() *Registry { return d.registry }

// Execute tokenizes line on whitespace, binds options and the argument,
// and runs the command.  It never panics: a panicking command becomes a
// Fatal result.
func (d *Dispatcher) Execute(ctx context.Context, line, user string, c Communicator) (res Result) {
	tokens := strings.Fields(line)
	if len(tokens) == 0 {
		return Result{Outcome: Blank}
	}
	d.logger.Info("executing command: %s", line)

	md, ok := d.registry.Lookup(tokens[0])
	if !ok {
		d.logger.Info("command was not found: %s", tokens[0])
		err := fmt.Errorf("%w: %s", errors.ErrCommandNotFound, tokens[0])
		return Result{Outcome: UserError, Message: err.Error(), Err: err}
	}

	inv, err := d.bind(md, tokens[1:])
	if err != nil {
		d.logger.Debug("could not bind %s: %v", md.Key(), err)
		return Reject(err)
	}

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("command %s panicked: %v", md.Key(), r)
			res = Crash(fmt.Errorf("%v", r))
		}
	}()

	res = md.New(inv).Execute(ctx, user, c)
	switch res.Outcome {
	case Fatal:
		d.logger.Error("unhandled error while executing %s: %v", md.Key(), res.Err)
	case Disconnect:
		d.logger.Info("command requested disconnect")
	}
	return res
}

// bind consumes tokens left to right.  Options that take a value and
// surplus positional tokens are not supported and fail closed.
func (d *Dispatcher) bind(md *MetaData, tokens []string) (*Invocation, error) {
	inv := newInvocation(md, d.registry)
	args := 0
	for _, tok := range tokens {
		if strings.HasPrefix(tok, "--") {
			name := strings.TrimPrefix(tok, "--")
			opt, ok := md.Option(name)
			if !ok {
				return nil, &errors.UnknownOptionError{Name: name}
			}
			if opt.AcceptsValue {
				return nil, errors.NotImplemented("options with values")
			}
			v, err := opt.Convert("true")
			if err != nil {
				return nil, &errors.ConversionError{Name: "--" + name, Value: "true", Err: err}
			}
			inv.set(opt.Name, v)
			continue
		}

		if args >= len(md.Arguments) {
			return nil, errors.NotImplemented("more than one argument")
		}
		arg := md.Arguments[args]
		v, err := arg.Convert(tok)
		if err != nil {
			return nil, &errors.ConversionError{Name: arg.Name, Value: tok, Err: err}
		}
		inv.set(arg.Name, v)
		args++
	}
	return inv, nil
}
