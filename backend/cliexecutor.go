package backend

import (
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
)

const (
	cliName         = "spotify"
	interpreterName = "php"
)

var _ CommandExecutor = (*CLIExecutor)(nil)

// CLIExecutor starts the external CLI as a detached subprocess for every
// dispatched command. Output is discarded and the process is reaped in
// the background.
type CLIExecutor struct {
	// Optional callback invoked when a command fails to start or exits non-zero.
	OnError func(args []string, err error)

	verbose atomic.Bool

	mu          sync.RWMutex
	interpreter string // empty to exec the CLI directly
	cliPath     string

	wg sync.WaitGroup
}

func NewCLIExecutor(interpreter, cliPath string) *CLIExecutor {
	return &CLIExecutor{interpreter: interpreter, cliPath: cliPath}
}

func (c *CLIExecutor) SetVerbose(v bool) {
	c.verbose.Store(v)
}

// SetCommand replaces the interpreter and CLI path used by later dispatches.
func (c *CLIExecutor) SetCommand(interpreter, cliPath string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.interpreter = interpreter
	c.cliPath = cliPath
}

// Command returns the argv prefix that dispatched arguments are appended to.
func (c *CLIExecutor) Command() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.interpreter == "" {
		return []string{c.cliPath}
	}
	return []string{c.interpreter, c.cliPath}
}

func (c *CLIExecutor) Dispatch(args ...string) {
	argv := append(c.Command(), args...)
	cmd := exec.Command(argv[0], argv[1:]...)
	// nil Stdout/Stderr are connected to the null device
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.Stdin = nil

	if err := cmd.Start(); err != nil {
		log.Printf("error: %v", err)
		c.reportError(args, err)
		return
	}
	if c.verbose.Load() {
		log.Printf("started %q (pid %d)", strings.Join(argv, " "), cmd.Process.Pid)
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := cmd.Wait(); err != nil {
			if c.verbose.Load() {
				log.Printf("%q exited: %v", strings.Join(args, " "), err)
			}
			c.reportError(args, err)
		}
	}()
}

// Wait blocks until every dispatched process has exited. Used by tests
// and on shutdown when the caller wants in-flight commands to finish.
func (c *CLIExecutor) Wait() {
	c.wg.Wait()
}

func (c *CLIExecutor) reportError(args []string, err error) {
	if c.OnError != nil {
		c.OnError(args, err)
	}
}

// ResolveCLIPath picks the CLI to invoke: the configured path if set,
// then $PROJECT_DIR/spotify, then spotify next to the bridge's parent
// directory (the layout of a project checkout with the bridge in bin/).
func ResolveCLIPath(configured string) string {
	if configured != "" {
		return expandHome(configured)
	}
	if dir := os.Getenv("PROJECT_DIR"); dir != "" {
		return filepath.Join(dir, cliName)
	}
	if exe, err := os.Executable(); err == nil {
		if resolved, err := filepath.EvalSymlinks(exe); err == nil {
			exe = resolved
		}
		return filepath.Join(filepath.Dir(filepath.Dir(exe)), cliName)
	}
	return cliName
}

// ResolveInterpreter picks the interpreter binary: the configured one if
// set, then $PHP_BIN if it exists, then php from PATH. When nothing is
// found the bare name is returned so the failure surfaces at dispatch.
func ResolveInterpreter(configured string) string {
	if configured != "" {
		return expandHome(configured)
	}
	if bin := os.Getenv("PHP_BIN"); bin != "" {
		if _, err := os.Stat(bin); err == nil {
			return bin
		}
	}
	if p, err := exec.LookPath(interpreterName); err == nil {
		return p
	} else if !errors.Is(err, exec.ErrNotFound) {
		log.Printf("looking up %s: %v", interpreterName, err)
	}
	return interpreterName
}

func expandHome(p string) string {
	if !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, p[2:])
}

func (c *CLIExecutor) String() string {
	return fmt.Sprintf("%v", c.Command())
}
