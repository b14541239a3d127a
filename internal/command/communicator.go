package command

import "io"

// Communicator is the output side of a session as a command sees it.
// Calls chain; the first write error sticks and later calls do nothing,
// so a command checks Err once at the end, if at all.
type Communicator interface {
	Write(s string) Communicator
	NewLine() Communicator
	Err() error
}

// StreamCommunicator writes straight to an io.Writer.
type StreamCommunicator struct {
	w   io.Writer
	n   int64
	err error
}

// NewCommunicator returns a Communicator over w.
func NewCommunicator(w io.Writer) *StreamCommunicator {
	return &StreamCommunicator{w: w}
}

// Write sends s unless an earlier write failed.
func (c *StreamCommunicator) Write(s string) Communicator {
	if c.err != nil || s == "" {
		return c
	}
	n, err := io.WriteString(c.w, s)
	c.n += int64(n)
	c.err = err
	return c
}

// NewLine sends CR LF.
func (c *StreamCommunicator) NewLine() Communicator { return c.Write("\r\n") }

// Err returns the first write error.
func (c *StreamCommunicator) Err() error { return c.err }

// Written returns how many bytes reached the writer.
func (c *StreamCommunicator) Written() int64 { return c.n }
