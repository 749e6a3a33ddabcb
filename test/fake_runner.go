package test

import (
	"context"
	"slices"
	"sync"

	"github.com/kubev2v/asset-launcher/pkg/runner"
)

// RunFunc computes the result of a faked command.
type RunFunc func(argv []string) (runner.Result, error)

// Call is one command received by FakeRunner.
type Call struct {
	Argv          []string
	CaptureStderr bool
}

type rule struct {
	args []string
	fn   RunFunc
}

// FakeRunner implements runner.Runner. It records every call and answers with the
// most recently registered rule whose arguments appear contiguously in the argv.
// Commands matching no rule succeed with empty output.
type FakeRunner struct {
	mu    sync.Mutex
	calls []Call
	rules []rule
}

var _ runner.Runner = (*FakeRunner)(nil)

func NewFakeRunner() *FakeRunner {
	return &FakeRunner{}
}

// On answers result for commands containing args.
func (f *FakeRunner) On(result runner.Result, args ...string) *FakeRunner {
	return f.OnFunc(func([]string) (runner.Result, error) { return result, nil }, args...)
}

// OnError makes commands containing args fail to run.
func (f *FakeRunner) OnError(err error, args ...string) *FakeRunner {
	return f.OnFunc(func([]string) (runner.Result, error) { return runner.Result{}, err }, args...)
}

func (f *FakeRunner) OnFunc(fn RunFunc, args ...string) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules = append(f.rules, rule{args: args, fn: fn})
	return f
}

func (f *FakeRunner) Run(_ context.Context, argv []string, captureStderr bool) (runner.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, Call{Argv: slices.Clone(argv), CaptureStderr: captureStderr})
	var fn RunFunc
	for i := len(f.rules) - 1; i >= 0; i-- {
		if ContainsSequence(argv, f.rules[i].args) {
			fn = f.rules[i].fn
			break
		}
	}
	f.mu.Unlock()

	if fn == nil {
		return runner.Result{}, nil
	}
	return fn(argv)
}

func (f *FakeRunner) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

// CallsWith returns the calls whose argv contains args.
func (f *FakeRunner) CallsWith(args ...string) []Call {
	var matched []Call
	for _, c := range f.Calls() {
		if ContainsSequence(c.Argv, args) {
			matched = append(matched, c)
		}
	}
	return matched
}

func (f *FakeRunner) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

// ContainsSequence reports whether sub appears contiguously in argv.
func ContainsSequence(argv, sub []string) bool {
	if len(sub) == 0 {
		return true
	}
	for i := 0; i+len(sub) <= len(argv); i++ {
		if slices.Equal(argv[i:i+len(sub)], sub) {
			return true
		}
	}
	return false
}
