package testutil

import (
	"context"
	"sync"

	"github.com/roach88/roboplan/internal/synth"
)

// Reply is one scripted Completer result.
type Reply struct {
	Text string
	Err  error
}

// ScriptedCompleter replays canned text-generation replies in order. Once
// the script is exhausted the last reply repeats, so a single reply serves
// any number of calls.
//
// Thread-safety: safe for concurrent use via internal mutex.
type ScriptedCompleter struct {
	mu       sync.Mutex
	replies  []Reply
	calls    int
	requests [][]synth.Message
}

var _ synth.Completer = (*ScriptedCompleter)(nil)

// NewScriptedCompleter creates a completer. With no replies every call
// returns an empty string.
func NewScriptedCompleter(replies ...Reply) *ScriptedCompleter {
	return &ScriptedCompleter{replies: replies}
}

// Complete records the request and returns the next scripted reply.
func (c *ScriptedCompleter) Complete(ctx context.Context, messages []synth.Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests = append(c.requests, messages)
	c.calls++
	if len(c.replies) == 0 {
		return "", nil
	}
	i := min(c.calls, len(c.replies)) - 1
	return c.replies[i].Text, c.replies[i].Err
}

// Calls returns how many times Complete was called.
func (c *ScriptedCompleter) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// Requests returns the messages of every call, oldest first.
func (c *ScriptedCompleter) Requests() [][]synth.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]synth.Message, len(c.requests))
	copy(out, c.requests)
	return out
}
