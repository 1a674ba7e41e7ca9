// Package runner executes external build tools with an explicit
// environment overlay and turns a non-zero exit into a pipeline failure.
package runner

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/goplus/leveldb-build/internal/deps"
	"github.com/goplus/leveldb-build/internal/env"
	"github.com/goplus/leveldb-build/internal/styles"
	"github.com/qiniu/x/log"
)

// Invocation is one external tool call.
type Invocation struct {
	Step string      // e.g. "leveldb/configure"
	Dir  string      // working directory, must exist
	Bin  string      // executable
	Args []string    // arguments, not shell-parsed
	Env  env.Overlay // applied over the inherited environment
}

func (inv *Invocation) String() string {
	return strings.TrimSpace(inv.Bin + " " + strings.Join(inv.Args, " "))
}

// Result is the captured outcome of a successful invocation.
type Result struct {
	Output []byte
}

// Runner runs one invocation to completion.
type Runner interface {
	Run(inv Invocation) (*Result, error)
}

// Func adapts an ordinary function to the Runner interface.
type Func func(inv Invocation) (*Result, error)

func (f Func) Run(inv Invocation) (*Result, error) {
	return f(inv)
}

// BuildStepFailed reports a tool that exited non-zero or could not start.
type BuildStepFailed struct {
	Step       string
	ExitStatus int // -1 if the process never started or was killed
	Output     []byte
	Err        error
}

// maxTail bounds how much captured output an error message carries.
const maxTail = 4096

func (e *BuildStepFailed) Error() string {
	var b strings.Builder
	if e.ExitStatus < 0 {
		fmt.Fprintf(&b, "build step %s failed: %v", e.Step, e.Err)
	} else {
		fmt.Fprintf(&b, "build step %s failed with exit status %d", e.Step, e.ExitStatus)
	}
	if tail := Tail(e.Output, maxTail); len(tail) > 0 {
		b.WriteString("\n--- output ---\n")
		b.Write(tail)
	}
	return b.String()
}

func (e *BuildStepFailed) Unwrap() error {
	return e.Err
}

// Tail returns at most n trailing bytes of out, starting at a line boundary
// when possible.
func Tail(out []byte, n int) []byte {
	out = bytes.TrimRight(out, "\n")
	if len(out) <= n {
		return out
	}
	out = out[len(out)-n:]
	if i := bytes.IndexByte(out, '\n'); i >= 0 {
		out = out[i+1:]
	}
	return out
}

// Exec runs invocations as child processes.
type Exec struct {
	// Verbose, if set, receives the tool output as it is produced.
	Verbose io.Writer
}

var _ Runner = (*Exec)(nil)

// Run starts the tool in inv.Dir and waits for it. A missing working
// directory is reported as *deps.MissingSourceError before anything runs.
func (x *Exec) Run(inv Invocation) (*Result, error) {
	if err := deps.CheckDir(inv.Dir); err != nil {
		return nil, err
	}
	log.Debugf("%s %s", styles.Tag(inv.Step), inv.String())
	for _, k := range inv.Env.Keys() {
		log.Debugf("%s   %s", styles.Tag(inv.Step), styles.Dim(k+"="+inv.Env[k]))
	}

	var buf bytes.Buffer
	var out io.Writer = &buf
	if x.Verbose != nil {
		out = io.MultiWriter(&buf, x.Verbose)
	}

	cmd := exec.Command(inv.Bin, inv.Args...)
	cmd.Dir = inv.Dir
	cmd.Stdout = out
	cmd.Stderr = out
	if len(inv.Env) > 0 {
		cmd.Env = inv.Env.Merge(os.Environ())
	}

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, &BuildStepFailed{
				Step:       inv.Step,
				ExitStatus: exitErr.ExitCode(),
				Output:     buf.Bytes(),
				Err:        err,
			}
		}
		return nil, &BuildStepFailed{Step: inv.Step, ExitStatus: -1, Output: buf.Bytes(), Err: err}
	}
	return &Result{Output: buf.Bytes()}, nil
}
