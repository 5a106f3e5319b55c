package errors

import (
	"errors"

	"github.com/fedgraph/fedgraph/pkg/dag"
	"github.com/fedgraph/fedgraph/pkg/graph"
)

// FromDAG converts an engine or codec error into a coded Error for the CLI
// and API surfaces. The library packages deliberately return plain sentinel
// errors; this is where they pick up machine-readable codes. A nil error
// maps to nil, and an error that already carries a code passes through
// unchanged.
func FromDAG(err error) error {
	if err == nil {
		return nil
	}
	if GetCode(err) != "" {
		return err
	}

	code := ErrCodeInternal
	switch {
	case errors.Is(err, graph.ErrCorruptDocument):
		code = ErrCodeCorruptGraph
	case errors.Is(err, dag.ErrInvalidNode):
		code = ErrCodeInvalidNode
	case errors.Is(err, dag.ErrInvalidEdge):
		code = ErrCodeInvalidEdge
	case errors.Is(err, dag.ErrDuplicateNode):
		code = ErrCodeDuplicateNode
	case errors.Is(err, dag.ErrDuplicateEdge):
		code = ErrCodeDuplicateEdge
	case errors.Is(err, dag.ErrNodeNotFound):
		code = ErrCodeNodeNotFound
	case errors.Is(err, dag.ErrEdgeNotFound):
		code = ErrCodeEdgeNotFound
	case errors.Is(err, dag.ErrCycle):
		code = ErrCodeCycleDetected
	}
	return Wrap(code, err, "%s", UserMessage(err))
}
