package a2a

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Code identifies a failure kind in the orchestration error taxonomy.
type Code string

const (
	// CodeRecursionDepth signals that a chain exceeded its maximum nesting depth.
	CodeRecursionDepth Code = "RECURSION_DEPTH_EXCEEDED"
	// CodeToolTimeout signals that a single tool invocation ran past its deadline.
	CodeToolTimeout Code = "TOOL_TIMEOUT"
	// CodeChainTimeout signals that a chain's wall-clock budget was exhausted.
	CodeChainTimeout Code = "CHAIN_TIMEOUT"
	// CodeToolNotFound signals an invocation of an unregistered tool name.
	CodeToolNotFound Code = "TOOL_NOT_FOUND"
	// CodeNotAllowed signals a permission violation between caller and callee.
	CodeNotAllowed Code = "INVOCATION_NOT_ALLOWED"
	// CodeInvocation wraps a failure raised by a tool handler itself.
	CodeInvocation Code = "TOOL_INVOCATION_ERROR"
	// CodeOrchestration covers coordination failures such as concurrency rejections.
	CodeOrchestration Code = "ORCHESTRATION_ERROR"
	// CodeStrategy signals a malformed or unknown execution plan strategy.
	CodeStrategy Code = "EXECUTION_STRATEGY_ERROR"
)

// Fault is the common envelope shared by every failure kind. It is a tagged
// value, not a class hierarchy: the Code field distinguishes kinds while the
// envelope stays uniform so callers can catch and serialize all of them the
// same way.
type Fault struct {
	Name      string                 `json:"name"`
	Code      Code                   `json:"code"`
	Message   string                 `json:"message"`
	Context   map[string]interface{} `json:"context,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

// Error implements the error interface.
func (f *Fault) Error() string {
	return fmt.Sprintf("%s [%s]: %s", f.Name, f.Code, f.Message)
}

// Unwrap exposes the underlying cause, if any.
func (f *Fault) Unwrap() error {
	return f.cause
}

// JSON serializes the fault envelope. The result never includes stack
// information, only the structured fields.
func (f *Fault) JSON() ([]byte, error) {
	return json.Marshal(f)
}

func newFault(name string, code Code, message string, fctx map[string]interface{}) *Fault {
	return &Fault{
		Name:      name,
		Code:      code,
		Message:   message,
		Context:   fctx,
		Timestamp: time.Now().UTC(),
	}
}

// NewRecursionDepthError reports a chain that nested deeper than allowed.
func NewRecursionDepthError(toolName string, currentDepth, maxDepth int) *Fault {
	return newFault(
		"RecursionDepthError",
		CodeRecursionDepth,
		fmt.Sprintf("tool %q would exceed recursion depth: %d > %d", toolName, currentDepth, maxDepth),
		map[string]interface{}{
			"toolName":     toolName,
			"currentDepth": currentDepth,
			"maxDepth":     maxDepth,
		},
	)
}

// NewToolTimeoutError reports a single invocation that ran past its deadline.
func NewToolTimeoutError(toolName string, timeout time.Duration) *Fault {
	return newFault(
		"ToolTimeoutError",
		CodeToolTimeout,
		fmt.Sprintf("tool %q timed out after %v", toolName, timeout),
		map[string]interface{}{
			"toolName":  toolName,
			"timeoutMs": timeout.Milliseconds(),
		},
	)
}

// NewChainTimeoutError reports a chain whose wall-clock budget is spent.
func NewChainTimeoutError(correlationID string, chainTimeout, elapsed time.Duration) *Fault {
	return newFault(
		"ChainTimeoutError",
		CodeChainTimeout,
		fmt.Sprintf("chain %s exceeded timeout: elapsed %dms > limit %dms",
			correlationID, elapsed.Milliseconds(), chainTimeout.Milliseconds()),
		map[string]interface{}{
			"correlationId":  correlationID,
			"chainTimeoutMs": chainTimeout.Milliseconds(),
			"elapsedMs":      elapsed.Milliseconds(),
		},
	)
}

// NewToolNotFoundError reports an invocation of an unregistered tool.
func NewToolNotFoundError(toolName string) *Fault {
	return newFault(
		"ToolNotFoundError",
		CodeToolNotFound,
		fmt.Sprintf("tool not found: %s", toolName),
		map[string]interface{}{"toolName": toolName},
	)
}

// NewNotAllowedError reports a caller invoking a tool outside its allow set.
func NewNotAllowedError(parentTool, toolName string) *Fault {
	return newFault(
		"ToolInvocationNotAllowedError",
		CodeNotAllowed,
		fmt.Sprintf("tool %q is not allowed to invoke %q", parentTool, toolName),
		map[string]interface{}{
			"parentTool": parentTool,
			"toolName":   toolName,
		},
	)
}

// NewInvocationError wraps a failure produced by a tool handler. The original
// error is preserved as the cause and its message carried verbatim.
func NewInvocationError(toolName string, cause error) *Fault {
	f := newFault(
		"ToolInvocationError",
		CodeInvocation,
		fmt.Sprintf("tool %q failed: %v", toolName, cause),
		map[string]interface{}{"toolName": toolName},
	)
	f.cause = cause
	return f
}

// NewOrchestrationError reports a coordination failure that is not attributable
// to a single handler, e.g. an immediate concurrency-ceiling rejection.
func NewOrchestrationError(message string, fctx map[string]interface{}) *Fault {
	return newFault("OrchestrationError", CodeOrchestration, message, fctx)
}

// NewStrategyError reports an unknown or malformed plan strategy.
func NewStrategyError(strategy string) *Fault {
	return newFault(
		"ExecutionStrategyError",
		CodeStrategy,
		fmt.Sprintf("unknown execution strategy: %s", strategy),
		map[string]interface{}{"strategy": strategy},
	)
}

// NewOnErrorPolicyError reports an unknown plan onError policy. It shares the
// strategy code since both are malformed-plan inputs.
func NewOnErrorPolicyError(policy string) *Fault {
	return newFault(
		"ExecutionStrategyError",
		CodeStrategy,
		fmt.Sprintf("unknown onError policy: %s", policy),
		map[string]interface{}{"onError": policy},
	)
}

// CodeOf returns the taxonomy code carried by err, or "" when err is not a
// Fault.
func CodeOf(err error) Code {
	var f *Fault
	if errors.As(err, &f) {
		return f.Code
	}
	return ""
}

// HasCode reports whether err carries the given taxonomy code.
func HasCode(err error, code Code) bool {
	return CodeOf(err) == code
}

// AsFault extracts the Fault envelope from err, if present.
func AsFault(err error) (*Fault, bool) {
	var f *Fault
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}
