// Package completion defines the metered capability invoked by the chat
// endpoint. The gateway only decides whether a call may run; what the call
// does is behind this interface.
package completion

import (
	"context"
	"fmt"
	"strings"
)

// Request is a single completion invocation.
type Request struct {
	Prompt string `json:"prompt"`
}

// Response is the completion output returned to the caller.
type Response struct {
	Text string `json:"text"`
}

// Client executes a completion request. Implementations are expected to
// honor ctx cancellation.
type Client interface {
	Complete(ctx context.Context, req Request) (Response, error)
}

// Echo is a development client that reflects the prompt back. It stands in
// for a real model backend in local and test environments.
type Echo struct{}

func NewEcho() *Echo {
	return &Echo{}
}

func (e *Echo) Complete(ctx context.Context, req Request) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, fmt.Errorf("completion canceled: %w", err)
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return Response{Text: ""}, nil
	}
	return Response{Text: "echo: " + req.Prompt}, nil
}
