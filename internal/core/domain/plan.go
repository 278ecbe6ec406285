package domain

import (
	"fmt"
	"strings"
)

// StepKind identifies what a plan step does
type StepKind int

const (
	// StepQuery runs a query through the query executor
	StepQuery StepKind = iota
	// StepInstance runs an instance manager command
	StepInstance
	// StepRemoveFile deletes a database file if it exists
	StepRemoveFile
)

// InstanceOp is a sqllocaldb operation
type InstanceOp string

const (
	InstanceCreate InstanceOp = "create"
	InstanceStop   InstanceOp = "stop"
	InstanceDelete InstanceOp = "delete"
	InstanceStart  InstanceOp = "start"
)

// FailurePolicy decides what a non-zero exit code of a step means.
type FailurePolicy int

const (
	// Tolerate ignores the exit code.
	Tolerate FailurePolicy = iota
	// Record keeps the exit code as the command result and continues.
	Record
	// Require aborts the whole invocation unless the exit code is 0.
	Require
)

// String returns the string representation of the policy
func (p FailurePolicy) String() string {
	switch p {
	case Tolerate:
		return "tolerate"
	case Record:
		return "record"
	case Require:
		return "require"
	default:
		return "unknown"
	}
}

// Step is one side effect of a localdb action.
type Step struct {
	Kind   StepKind
	Policy FailurePolicy

	// StepQuery
	Server   string
	Query    string
	Template string // name of the template Query was rendered from

	// StepInstance
	Op       InstanceOp
	Instance string
	Version  string

	// StepRemoveFile
	Path string
}

// Destructive reports whether the step can lose data.
func (s Step) Destructive() bool {
	switch s.Kind {
	case StepRemoveFile:
		return true
	case StepInstance:
		return s.Op == InstanceDelete
	case StepQuery:
		return s.Template == DropDatabase.Name
	}
	return false
}

func (s Step) String() string {
	switch s.Kind {
	case StepQuery:
		return fmt.Sprintf("query %s: %s", s.Server, s.Query)
	case StepInstance:
		if s.Version != "" {
			return fmt.Sprintf("instance %s %s (version %s)", s.Op, s.Instance, s.Version)
		}
		return fmt.Sprintf("instance %s %s", s.Op, s.Instance)
	case StepRemoveFile:
		return "remove " + s.Path
	}
	return "unknown step"
}

// Plan is the ordered list of steps an action performs.
type Plan struct {
	Action Action
	Steps  []Step
}

// Empty reports whether the plan has nothing to do
func (p Plan) Empty() bool {
	return len(p.Steps) == 0
}

// Destructive reports whether any step can lose data.
func (p Plan) Destructive() bool {
	for _, s := range p.Steps {
		if s.Destructive() {
			return true
		}
	}
	return false
}

// Queries returns the SQL text of every query step in order.
func (p Plan) Queries() []string {
	var out []string
	for _, s := range p.Steps {
		if s.Kind == StepQuery {
			out = append(out, s.Query)
		}
	}
	return out
}

// String renders one step per line.
func (p Plan) String() string {
	lines := make([]string, 0, len(p.Steps))
	for i, s := range p.Steps {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, s))
	}
	return strings.Join(lines, "\n")
}
