package contract

import "errors"

var (
	ErrUnknownAgent   = errors.New("unknown agent")
	ErrAgentExecution = errors.New("agent execution failed")
	ErrEmptyMessage   = errors.New("message is empty")
)
