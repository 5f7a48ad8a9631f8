// Package engine evaluates polyscript, a small Lisp for building polygon
// meshes. It wraps zygomys in a sandboxed environment and produces a
// scene.Scene of named meshes from user source code.
package engine

import (
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chazu/polycsg/pkg/kernel"
	"github.com/chazu/polycsg/pkg/kernel/poly"
	"github.com/chazu/polycsg/pkg/scene"
	"github.com/chazu/polycsg/pkg/tessellate"
	zygo "github.com/glycerine/zygomys/zygo"
)

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error or a runtime error in user code.
type EvalError struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// Options configures an Engine.
type Options struct {
	// Kernel builds and combines solids. Shaper-only builtins (sphere,
	// cone, torus, extrude, revolve, scale on solids) fail on kernels
	// that do not implement kernel.Shaper.
	Kernel kernel.Kernel
	// Timeout bounds a single evaluation.
	Timeout time.Duration
	// Tessellate is used by the triangulate builtin. Its Polygon options
	// are the defaults that :policy and :epsilon override.
	Tessellate tessellate.Options
	// Logger receives triangulation fallbacks. Nil disables logging.
	Logger *log.Logger
}

// DefaultOptions returns the polygon kernel with EvalTimeout.
func DefaultOptions() Options {
	return Options{
		Kernel:     poly.New(),
		Timeout:    EvalTimeout,
		Tessellate: tessellate.DefaultOptions(),
	}
}

// Engine wraps the zygomys interpreter for polyscript evaluation.
// It is safe for concurrent use; each call to Evaluate creates a fresh
// sandboxed environment for determinism.
type Engine struct {
	opts       Options
	mu         sync.Mutex
	generation uint64
}

// NewEngine creates an Engine with DefaultOptions.
func NewEngine() *Engine {
	return NewEngineWithOptions(DefaultOptions())
}

// NewEngineWithOptions creates an Engine. A nil Kernel selects the polygon
// kernel and a non-positive Timeout selects EvalTimeout.
func NewEngineWithOptions(opts Options) *Engine {
	if opts.Kernel == nil {
		opts.Kernel = poly.New()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = EvalTimeout
	}
	if opts.Tessellate.Logger == nil {
		opts.Tessellate.Logger = opts.Logger
	}
	return &Engine{opts: opts}
}

// Evaluate takes polyscript source code and produces a new Scene.
// Each call creates a fresh zygomys sandbox for deterministic evaluation.
//
// Return semantics:
//   - On success: returns scene + nil errors + nil error
//   - On parse/eval failure: returns nil scene + eval errors + nil error
//   - On fatal failure (timeout, panic): returns nil + nil + error
func (e *Engine) Evaluate(source string) (*scene.Scene, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		sc, evalErrs, err := e.evaluate(source)
		if sc != nil {
			sc.Version = gen
		}
		ch <- evalResult{scene: sc, errors: evalErrs, err: err}
	}()

	return waitWithTimeout(ch, gen, &e.mu, &e.generation, e.opts.Timeout)
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func (e *Engine) evaluate(source string) (*scene.Scene, []EvalError, error) {
	// Empty source is a valid program that produces an empty scene.
	if strings.TrimSpace(source) == "" {
		return scene.New(), nil, nil
	}

	// Sandbox mode prevents user code from accessing the filesystem or syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	sc := scene.New()
	registerBuiltins(env, sc, e.opts)

	err := env.LoadString(preprocessSource(source))
	if err != nil {
		return nil, parseZygomysError(err), nil
	}

	_, err = env.Run()
	if err != nil {
		return nil, parseZygomysError(err), nil
	}

	return sc, nil, nil
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError values.
// It attempts to extract line number information from the error message.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	// zygomys formats parse errors as "Error on line N: <details>\n"
	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{
				Line:    line,
				Message: strings.TrimSpace(m[2]),
			}}
		}
	}

	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
