// Package executor is the execution boundary: it turns a resolved intent into
// streamed output, either through a built-in handler or by spawning the
// rendered command.
package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/kballard/go-shellquote"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DevSymphony/sysop/internal/router"
)

// ErrorPrefix marks failure chunks in the output stream.
const ErrorPrefix = "ERROR:"

// IsErrorChunk reports whether a streamed chunk is a failure chunk.
func IsErrorChunk(chunk string) bool {
	return strings.HasPrefix(strings.TrimSpace(chunk), ErrorPrefix)
}

func errorChunk(msg string) string {
	return ErrorPrefix + " " + msg
}

// Renderer produces the command line for an intent. *catalogue.Catalogue
// satisfies it.
type Renderer interface {
	Render(id, osTag string, params map[string]string) (string, error)
}

// ExitError is returned when the spawned command exits non-zero.
type ExitError struct {
	Command string
	Code    int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("command %q exited with code %d", e.Command, e.Code)
}

// Runner executes intents.
type Runner struct {
	renderer Renderer
	handlers *router.Registry
	osTag    string
	logger   *zap.Logger

	// Timeout bounds one execution. Zero disables it.
	Timeout time.Duration
	// WorkDir is the working directory of spawned commands.
	WorkDir string
	// Env is added to the inherited environment.
	Env map[string]string
}

// NewRunner creates a runner. handlers may be nil.
func NewRunner(renderer Renderer, handlers *router.Registry, osTag string, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if handlers == nil {
		handlers = router.NewRegistry()
	}
	return &Runner{
		renderer: renderer,
		handlers: handlers,
		osTag:    osTag,
		logger:   logger,
		Timeout:  5 * time.Minute,
		Env:      make(map[string]string),
	}
}

// OSTag returns the template variant this runner renders.
func (r *Runner) OSTag() string { return r.osTag }

// Execute runs intent with params and streams output chunks to out. Failures
// are reported both as an ERROR: chunk and as the returned error.
func (r *Runner) Execute(ctx context.Context, intent string, params map[string]string, out func(string)) error {
	if out == nil {
		out = func(string) {}
	}

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	if h, ok := r.handlers.Lookup(intent); ok {
		r.logger.Debug("running built-in handler", zap.String("intent", intent))
		if err := h.Handle(ctx, params, out); err != nil {
			out(errorChunk(err.Error()))
			return fmt.Errorf("failed to execute %s: %w", intent, err)
		}
		return nil
	}

	quoted, err := quoteParams(r.osTag, params)
	if err != nil {
		out(errorChunk(err.Error()))
		return err
	}
	line, err := r.renderer.Render(intent, r.osTag, quoted)
	if err != nil {
		out(errorChunk(err.Error()))
		return err
	}

	if err := r.spawn(ctx, line, out); err != nil {
		out(errorChunk(err.Error()))
		return err
	}
	return nil
}

// ErrUnsafeValue is returned when a parameter value cannot be passed to the
// Windows command interpreter literally.
var ErrUnsafeValue = errors.New("unsafe parameter value")

// quoteParams prepares user-supplied values for substitution. On POSIX each
// value is shell-quoted, so after splitting it stays one literal argument and
// operators inside it are never interpreted. cmd.exe has no reliable quoting,
// so values carrying its metacharacters are refused.
func quoteParams(osTag string, params map[string]string) (map[string]string, error) {
	if len(params) == 0 {
		return params, nil
	}
	quoted := make(map[string]string, len(params))
	for k, v := range params {
		switch {
		case v == "":
			quoted[k] = v
		case osTag == "win":
			if strings.ContainsAny(v, winMetachars) {
				return nil, fmt.Errorf("%w for '%s': %q", ErrUnsafeValue, k, v)
			}
			quoted[k] = v
		default:
			quoted[k] = shellquote.Join(v)
		}
	}
	return quoted, nil
}

const winMetachars = "&|<>^%\"\r\n"

// Argv splits a rendered line into the process argument vector for osTag.
// Lines using shell operators run through sh -c.
func Argv(osTag, line string) ([]string, error) {
	if osTag == "win" {
		return []string{"cmd", "/C", line}, nil
	}
	args, err := shellquote.Split(line)
	if err != nil {
		return nil, fmt.Errorf("failed to split command line: %w", err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("empty command line")
	}
	for _, a := range args {
		if shellOperators[a] {
			return []string{"sh", "-c", line}, nil
		}
	}
	return args, nil
}

var shellOperators = map[string]bool{
	"|": true, "||": true, "&&": true, ";": true,
	">": true, ">>": true, "<": true, "2>": true, "2>&1": true,
}

func (r *Runner) spawn(ctx context.Context, line string, out func(string)) error {
	argv, err := Argv(r.osTag, line)
	if err != nil {
		return err
	}
	r.logger.Info("executing command", zap.String("command", line))

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	if r.WorkDir != "" {
		cmd.Dir = r.WorkDir
	}
	if len(r.Env) > 0 {
		cmd.Env = append(os.Environ(), r.envSlice()...)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to open stdout: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to open stderr: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to execute %s: %w", argv[0], err)
	}

	var mu sync.Mutex
	emit := func(chunk string) {
		mu.Lock()
		defer mu.Unlock()
		out(chunk)
	}

	var eg errgroup.Group
	eg.Go(func() error { return pump(stdout, emit) })
	eg.Go(func() error {
		return pump(stderr, func(chunk string) { emit(errorChunk(chunk)) })
	})
	pumpErr := eg.Wait()
	waitErr := cmd.Wait()

	if ctx.Err() != nil {
		return fmt.Errorf("command %q aborted: %w", line, ctx.Err())
	}
	if waitErr != nil {
		var ee *exec.ExitError
		if errors.As(waitErr, &ee) {
			return &ExitError{Command: line, Code: ee.ExitCode()}
		}
		return fmt.Errorf("failed to execute %s: %w", argv[0], waitErr)
	}
	if pumpErr != nil {
		return fmt.Errorf("failed to read output: %w", pumpErr)
	}
	return nil
}

func pump(r io.Reader, emit func(string)) error {
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			emit(string(buf[:n]))
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			// the pipe is closed by Wait on cancellation
			if errors.Is(err, os.ErrClosed) {
				return nil
			}
			return err
		}
	}
}

func (r *Runner) envSlice() []string {
	result := make([]string, 0, len(r.Env))
	for k, v := range r.Env {
		result = append(result, fmt.Sprintf("%s=%s", k, v))
	}
	return result
}
