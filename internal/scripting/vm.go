// Package scripting runs user-written JavaScript campaigns: a script picks the
// next battle's seed, ghost, army and deck from inside dobattle(), the engine
// fights it and feeds the outcome back.
package scripting

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"
)

var (
	ErrNoDobattle    = errors.New("script must define a dobattle() function")
	ErrScriptTimeout = errors.New("script timed out")
	ErrScriptPanic   = errors.New("script crashed the runtime")
)

// LogEntry represents a single log message from the script.
type LogEntry struct {
	Time    time.Time `json:"time"`
	Message string    `json:"message"`
}

// VM wraps a goja runtime with sandbox restrictions and global function injection.
type VM struct {
	runtime *goja.Runtime
	mu      sync.Mutex

	logs    []LogEntry
	logsMu  sync.Mutex
	maxLogs int

	stopRequested bool

	initTimeout time.Duration
	callTimeout time.Duration
}

const (
	scriptInitTimeout = 2 * time.Second
	scriptCallTimeout = 1 * time.Second
)

// NewVM creates a sandboxed goja runtime. Math.random draws from rand so that
// a campaign replays identically for the same inputs.
func NewVM(rand func() float64) *VM {
	vm := &VM{
		runtime:     goja.New(),
		maxLogs:     500,
		initTimeout: scriptInitTimeout,
		callTimeout: scriptCallTimeout,
	}
	if rand != nil {
		vm.runtime.SetRandSource(rand)
	}
	vm.injectGlobalFunctions()
	return vm
}

// injectGlobalFunctions registers log, console.log and stop, and blocks
// globals that would escape the sandbox.
func (vm *VM) injectGlobalFunctions() {
	vm.runtime.Set("log", func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = arg.String()
		}
		vm.appendLog(strings.Join(parts, " "))
		return goja.Undefined()
	})

	console := vm.runtime.NewObject()
	console.Set("log", vm.runtime.Get("log"))
	vm.runtime.Set("console", console)

	vm.runtime.Set("stop", func(call goja.FunctionCall) goja.Value {
		vm.stopRequested = true
		vm.runtime.Set("running", false)
		return goja.Undefined()
	})

	vm.runtime.Set("require", goja.Undefined())
	vm.runtime.Set("fetch", goja.Undefined())
	vm.runtime.Set("XMLHttpRequest", goja.Undefined())
	vm.runtime.Set("eval", goja.Undefined())
	vm.runtime.Set("Function", goja.Undefined())
}

func (vm *VM) appendLog(msg string) {
	vm.logsMu.Lock()
	defer vm.logsMu.Unlock()
	if len(vm.logs) >= vm.maxLogs {
		vm.logs = vm.logs[1:]
	}
	vm.logs = append(vm.logs, LogEntry{Time: time.Now(), Message: msg})
}

// Execute runs the script source once to register dobattle() and set the
// opening inputs.
func (vm *VM) Execute(ctx context.Context, source string) error {
	return vm.runWithTimeout(ctx, vm.initTimeout, func() error {
		vm.mu.Lock()
		defer vm.mu.Unlock()
		if _, err := vm.runtime.RunString(source); err != nil {
			return fmt.Errorf("script execution error: %w", err)
		}
		return nil
	})
}

// HasDobattle reports whether the script defined a callable dobattle.
func (vm *VM) HasDobattle() bool {
	_, ok := goja.AssertFunction(vm.runtime.Get("dobattle"))
	return ok
}

// CallDobattle calls the user-defined dobattle() function.
func (vm *VM) CallDobattle(ctx context.Context) error {
	return vm.runWithTimeout(ctx, vm.callTimeout, func() error {
		vm.mu.Lock()
		defer vm.mu.Unlock()

		callable, ok := goja.AssertFunction(vm.runtime.Get("dobattle"))
		if !ok {
			return ErrNoDobattle
		}
		if _, err := callable(goja.Undefined()); err != nil {
			return fmt.Errorf("dobattle() error: %w", err)
		}
		return nil
	})
}

// IsStopRequested returns true if stop() was called from the script.
func (vm *VM) IsStopRequested() bool {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.stopRequested
}

// Set defines a global. It must not be called while a script is running.
func (vm *VM) Set(name string, value any) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.runtime.Set(name, value)
}

// SetVariables pushes the current variable state into the JS runtime.
func (vm *VM) SetVariables(vars *Variables) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	injectVariables(vm.runtime, vars)
}

// SyncVariables reads the battle inputs back from the JS runtime. Array and
// object getters run script code, so the read shares the call timeout. vars
// is only updated when the read completes.
func (vm *VM) SyncVariables(ctx context.Context, vars *Variables) error {
	next := *vars
	err := vm.runWithTimeout(ctx, vm.callTimeout, func() error {
		vm.mu.Lock()
		defer vm.mu.Unlock()

		var syncErr error
		if ex := vm.runtime.Try(func() {
			syncErr = syncFromVM(vm.runtime, &next)
		}); ex != nil {
			return fmt.Errorf("reading script variables: %w", ex)
		}
		return syncErr
	})
	if err != nil {
		return err
	}
	*vars = next
	return nil
}

// GetLogs returns a copy of the current log buffer.
func (vm *VM) GetLogs() []LogEntry {
	vm.logsMu.Lock()
	defer vm.logsMu.Unlock()
	out := make([]LogEntry, len(vm.logs))
	copy(out, vm.logs)
	return out
}

// runWithTimeout interrupts the runtime when the timeout expires or ctx ends.
// A panic inside fn is returned as ErrScriptPanic.
func (vm *VM) runWithTimeout(ctx context.Context, timeout time.Duration, fn func() error) error {
	done := make(chan error, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- fmt.Errorf("%w: %v", ErrScriptPanic, p)
			}
		}()
		done <- fn()
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var reason error
	select {
	case err := <-done:
		return err
	case <-timer.C:
		reason = ErrScriptTimeout
	case <-ctx.Done():
		reason = ctx.Err()
	}

	vm.runtime.Interrupt(reason.Error())
	select {
	case <-done:
	case <-time.After(200 * time.Millisecond):
	}
	return reason
}
