package command

import "fmt"

// Outcome tags how a command line ended.
type Outcome int

const (
	// Blank means the line had no tokens and nothing ran.
	Blank Outcome = iota
	// OK means the command completed.
	OK
	// UserError is a problem with what was typed or a failure the
	// command reports with a message.  The session stays open.
	UserError
	// Disconnect asks for the session to end with exit status 0.
	Disconnect
	// Fatal is an unexpected failure inside the command.  It is reported
	// generically and the session stays open.
	Fatal
)

func (o Outcome) String() string {
	switch o {
	case Blank:
		return "blank"
	case OK:
		return "ok"
	case UserError:
		return "user-error"
	case Disconnect:
		return "disconnect"
	case Fatal:
		return "fatal"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result is what executing a command line produced.
type Result struct {
	Outcome Outcome
	Message string // user-facing text for UserError
	Err     error  // cause for UserError and Fatal
}

// Succeeded reports whether the result counts as a success for the
// prompt colour.  Disconnect and Blank never change it.
func (r Result) Succeeded() bool { return r.Outcome == OK }

// Done returns the OK result.
func Done() Result { return Result{Outcome: OK} }

// Failf returns a UserError result with a formatted message.
func Failf(format string, args ...interface{}) Result {
	return Result{Outcome: UserError, Message: fmt.Sprintf(format, args...)}
}

// Reject turns err into a UserError result whose message is err's text.
func Reject(err error) Result {
	return Result{Outcome: UserError, Message: err.Error(), Err: err}
}

// Quit returns the Disconnect result.
func Quit() Result { return Result{Outcome: Disconnect} }

// Crash returns a Fatal result for err.
func Crash(err error) Result { return Result{Outcome: Fatal, Err: err} }
