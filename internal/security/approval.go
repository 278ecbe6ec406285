// Package security provides the approval system for LocalDB operations.
// Destructive plans (dropping databases, deleting instances, removing files)
// can be confirmed interactively or shown in dry-run mode before anything runs.
package security

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// ApprovalLevel defines the risk level of an operation
type ApprovalLevel int

const (
	// ReadOnly operations don't require confirmation
	ReadOnly ApprovalLevel = iota
	// Modification operations require simple y/n confirmation
	Modification
	// Destructive operations require confirmation + typing a word
	Destructive
)

// String returns the string representation of the approval level
func (a ApprovalLevel) String() string {
	switch a {
	case ReadOnly:
		return "ReadOnly"
	case Modification:
		return "Modification"
	case Destructive:
		return "Destructive"
	default:
		return "Unknown"
	}
}

// ApprovalRequest represents a request for user approval
type ApprovalRequest struct {
	Operation     string        // Description of the operation
	Steps         string        // Rendered plan, one step per line
	Level         ApprovalLevel // Risk level
	ImpactSummary string        // Summary of the impact
}

// Approver defines the interface for approval handling
type Approver interface {
	RequestApproval(req ApprovalRequest) (bool, error)
}

var (
	bold   = color.New(color.Bold)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed)
	cyan   = color.New(color.FgCyan)
	blue   = color.New(color.FgBlue)
)

// ConfirmWord must be typed to approve a destructive operation
const ConfirmWord = "CONFIRM"

// InteractiveApprover implements approval via terminal interaction
type InteractiveApprover struct {
	reader *bufio.Reader
	out    io.Writer
}

// NewInteractiveApprover creates a new interactive approver reading answers from in
func NewInteractiveApprover(in io.Reader, out io.Writer) *InteractiveApprover {
	return &InteractiveApprover{
		reader: bufio.NewReader(in),
		out:    out,
	}
}

// RequestApproval prompts the user for confirmation based on the operation level
func (a *InteractiveApprover) RequestApproval(req ApprovalRequest) (bool, error) {
	switch req.Level {
	case ReadOnly:
		// No confirmation needed for read-only operations
		return true, nil

	case Modification:
		return a.requestSimpleConfirmation(req)

	case Destructive:
		return a.requestStrictConfirmation(req)

	default:
		return false, fmt.Errorf("unknown approval level: %d", req.Level)
	}
}

// requestSimpleConfirmation asks for y/n confirmation
func (a *InteractiveApprover) requestSimpleConfirmation(req ApprovalRequest) (bool, error) {
	displayOperationDetails(a.out, req, "Steps to execute:")

	yellow.Fprint(a.out, "\n⚠ This operation will modify the LocalDB instance.\n")
	fmt.Fprint(a.out, "Do you want to proceed? [y/N]: ")

	response, err := a.readLine()
	if err != nil {
		return false, err
	}

	response = strings.ToLower(response)
	return response == "y" || response == "yes", nil
}

// requestStrictConfirmation asks for confirmation + typing a specific word
func (a *InteractiveApprover) requestStrictConfirmation(req ApprovalRequest) (bool, error) {
	displayOperationDetails(a.out, req, "Steps to execute:")

	red.Fprint(a.out, "\n⛔ WARNING: This is a DESTRUCTIVE operation!\n")
	red.Fprint(a.out, "This action cannot be undone.\n\n")

	fmt.Fprintf(a.out, "Type '%s' to proceed: ", ConfirmWord)

	response, err := a.readLine()
	if err != nil {
		return false, err
	}

	if response != ConfirmWord {
		red.Fprintln(a.out, "\nOperation cancelled. Confirmation word did not match.")
		return false, nil
	}

	return true, nil
}

// readLine accepts a final answer without a newline
func (a *InteractiveApprover) readLine() (string, error) {
	response, err := a.reader.ReadString('\n')
	if err != nil && (err != io.EOF || response == "") {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	return strings.TrimSpace(response), nil
}

// displayOperationDetails shows the operation information to the user
func displayOperationDetails(w io.Writer, req ApprovalRequest, stepsTitle string) {
	fmt.Fprintln(w, "\n"+strings.Repeat("─", 60))
	fmt.Fprintf(w, "%s %s\n", bold.Sprint("Operation:"), req.Operation)
	fmt.Fprintf(w, "%s %s\n", bold.Sprint("Risk Level:"), req.Level)

	if req.ImpactSummary != "" {
		fmt.Fprintf(w, "%s %s\n", bold.Sprint("Impact:"), req.ImpactSummary)
	}

	if req.Steps != "" {
		fmt.Fprintln(w, "\n"+bold.Sprint(stepsTitle))
		cyan.Fprintln(w, req.Steps)
	}

	fmt.Fprintln(w, strings.Repeat("─", 60))
}

// AutoApprover always approves operations (for testing or automation)
type AutoApprover struct {
	approve bool
}

// NewAutoApprover creates an auto-approver with the specified behavior
func NewAutoApprover(approve bool) *AutoApprover {
	return &AutoApprover{approve: approve}
}

// RequestApproval returns the configured approval decision
func (a *AutoApprover) RequestApproval(req ApprovalRequest) (bool, error) {
	return a.approve, nil
}

// DryRunApprover displays what would happen but never approves
type DryRunApprover struct {
	out io.Writer
}

// NewDryRunApprover creates a new dry-run approver
func NewDryRunApprover(out io.Writer) *DryRunApprover {
	return &DryRunApprover{out: out}
}

// RequestApproval displays the operation but always returns false
func (a *DryRunApprover) RequestApproval(req ApprovalRequest) (bool, error) {
	fmt.Fprintln(a.out, "\n"+blue.Sprint("[DRY-RUN MODE]")+" The following operation would be executed:")
	displayOperationDetails(a.out, req, "Steps that would execute:")
	blue.Fprintln(a.out, "No changes were made (dry-run mode).")

	return false, nil
}

// IsDryRun reports whether approver is a dry-run approver, whose refusals are not failures.
func IsDryRun(approver Approver) bool {
	_, ok := approver.(*DryRunApprover)
	return ok
}
