package design

import "fmt"

// TemplateDecodeError reports a malformed or unparseable template document.
// Node is the zero-based index of the offending node, or -1 when the error is
// not tied to a node.
type TemplateDecodeError struct {
	Node int
	Err  error
}

func (e *TemplateDecodeError) Error() string {
	if e.Node < 0 {
		return fmt.Sprintf("failed to decode template: %v", e.Err)
	}
	return fmt.Sprintf("failed to decode template node %d: %v", e.Node, e.Err)
}

func (e *TemplateDecodeError) Unwrap() error { return e.Err }

func decodeErr(node int, format string, args ...any) error {
	return &TemplateDecodeError{Node: node, Err: fmt.Errorf(format, args...)}
}
