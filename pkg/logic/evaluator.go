// Package logic implements the IF, AND and NOT node behaviors. The
// evaluator is state-free: evaluation outcomes are always expressed as a
// channel, configuration errors as an error.
package logic

import (
	"errors"
	"fmt"
	"strings"

	"github.com/stellivo/areaflow/pkg/models"
)

// ErrNoIncomingNodes is returned when AND or NOT is evaluated without any
// incoming node execution.
var ErrNoIncomingNodes = errors.New("logic node requires at least one incoming node")

// IncomingNode is the latest recorded execution of a node connected into a
// logic node. A node that never executed carries ChannelUnknown.
type IncomingNode struct {
	Status  models.ExecutionStatus
	Output  map[string]any
	Channel string
}

// Result is the outcome of evaluating a logic node.
type Result struct {
	Channel string
	Output  map[string]any
	Logs    string
}

// Evaluator evaluates logic node semantics.
type Evaluator struct{}

// If evaluates the condition against the input payload and routes to the
// "success" or "failed" channel. IF never transforms data: the output is
// always the unmodified input.
func (Evaluator) If(condition any, input map[string]any) (Result, error) {
	var logs strings.Builder

	logs.WriteString("Executing IF logic node\n")

	outcome := evaluateCondition(condition, input)
	fmt.Fprintf(&logs, "Condition evaluated to: %t\n", outcome)

	channel := models.ChannelFailed
	if outcome {
		channel = models.ChannelSuccess
	}

	fmt.Fprintf(&logs, "Routing to %q channel\n", channel)

	return Result{Channel: channel, Output: input, Logs: logs.String()}, nil
}

// And routes to "success" only when every incoming node's last execution
// produced the "success" channel; a node that never executed counts as
// failed. The output is the shallow merge of all incoming outputs, later
// nodes overwriting earlier ones on key collision.
func (Evaluator) And(incoming []IncomingNode) (Result, error) {
	if len(incoming) == 0 {
		return Result{}, fmt.Errorf("AND evaluation: %w", ErrNoIncomingNodes)
	}

	var logs strings.Builder

	logs.WriteString("Executing AND logic node\n")
	fmt.Fprintf(&logs, "Checking %d incoming node(s)\n", len(incoming))

	allSuccess := true
	merged := make(map[string]any)

	for i, node := range incoming {
		success := node.Channel == models.ChannelSuccess
		if node.Channel == "" || node.Channel == models.ChannelUnknown {
			fmt.Fprintf(&logs, "Node %d never executed, counted as failed\n", i+1)

			success = false
		} else {
			fmt.Fprintf(&logs, "Node %d channel: %s\n", i+1, node.Channel)
		}

		if !success {
			allSuccess = false
		}

		for k, v := range node.Output {
			merged[k] = v
		}
	}

	fmt.Fprintf(&logs, "All nodes successful: %t\n", allSuccess)

	channel := models.ChannelFailed
	if allSuccess {
		channel = models.ChannelSuccess
	}

	return Result{Channel: channel, Output: merged, Logs: logs.String()}, nil
}

// Not negates the success of the first incoming node. The output is that
// node's output, falling back to the current input when the node produced
// none.
func (Evaluator) Not(incoming []IncomingNode, input map[string]any) (Result, error) {
	if len(incoming) == 0 {
		return Result{}, fmt.Errorf("NOT evaluation: %w", ErrNoIncomingNodes)
	}

	var logs strings.Builder

	logs.WriteString("Executing NOT logic node\n")

	first := incoming[0]
	success := first.Channel == models.ChannelSuccess

	fmt.Fprintf(&logs, "First incoming node channel: %s\n", first.Channel)
	fmt.Fprintf(&logs, "Negated result: %t\n", !success)

	channel := models.ChannelSuccess
	if success {
		channel = models.ChannelFailed
	}

	output := first.Output
	if output == nil {
		output = input
	}

	return Result{Channel: channel, Output: output, Logs: logs.String()}, nil
}
