// Package toolchain drives the external compiler, assembler, linker,
// and strip binaries the pipeline depends on, plus the executable-search
// and linker-script-extraction helpers those invocations need.
package toolchain

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"

	"golang.org/x/sys/unix"

	"github.com/xyproto/dnload/internal/dnerr"
)

// DefaultCompilers, DefaultAssemblers, DefaultLinkers, and DefaultStrip
// are the fallback search lists consulted when the user does not supply
// an explicit tool path.
var (
	DefaultCompilers = []string{"g++", "g++-13", "g++-12", "clang++"}
	DefaultAssemblers = []string{"/usr/local/bin/as", "as"}
	DefaultLinkers    = []string{"/usr/local/bin/ld", "ld"}
	DefaultStrip      = []string{"/usr/local/bin/strip", "strip"}
)

// lookPathHook resolves a command name to an absolute path; overridden
// in tests to exercise SearchExecutable's dedup logic without touching
// the real PATH.
var lookPathHook = exec.LookPath

// CheckExecutable reports whether op names an invocable binary, probing
// via unix.Access rather than spawning a throwaway process.
func CheckExecutable(op string) bool {
	path, err := lookPathHook(op)
	if err != nil {
		return false
	}
	return unix.Access(path, unix.X_OK) == nil
}

// SearchExecutable tries each candidate in order, returning the first
// one that checks out. Candidates already tried (and failed) are never
// retried even if they reappear later in the list - an explicit tool
// flag that fails must not be probed again when the default list is
// consulted afterwards.
func SearchExecutable(candidates []string) string {
	checked := make(map[string]bool)
	for _, c := range candidates {
		if checked[c] {
			continue
		}
		checked[c] = true
		if CheckExecutable(c) {
			return c
		}
	}
	return ""
}

// RunCommand executes a command line, capturing stdout/stderr in full
// before returning. A nonzero exit status becomes a dnerr.ToolFailure
// carrying the captured stderr.
func RunCommand(args []string) (stdout string, stderr string, err error) {
	if len(args) == 0 {
		return "", "", dnerr.New(dnerr.Config, "empty command line")
	}
	cmd := exec.Command(args[0], args[1:]...)
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf
	runErr := cmd.Run()
	stdout, stderr = outBuf.String(), errBuf.String()
	if runErr != nil {
		return stdout, stderr, dnerr.ToolFailure(
			fmt.Sprintf("command failed: %s", shellJoin(args)), stderr)
	}
	return stdout, stderr, nil
}

// RunPipe runs command with the given arguments, feeding stdin on its
// standard input and capturing standard output in full. Used by
// internal/compress to pipe the output file through `xz` without an
// intermediate temp file.
func RunPipe(command string, args []string, stdin []byte) ([]byte, error) {
	full := append([]string{command}, args...)
	cmd := exec.Command(full[0], full[1:]...)
	cmd.Stdin = bytes.NewReader(stdin)
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf
	if err := cmd.Run(); err != nil {
		return nil, dnerr.ToolFailure(
			fmt.Sprintf("command failed: %s", shellJoin(full)), errBuf.String())
	}
	return outBuf.Bytes(), nil
}

func shellJoin(args []string) string {
	var b bytes.Buffer
	for i, a := range args {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(a)
	}
	return b.String()
}

// MakeExecutable sets the execute bits on a file if not already set.
func MakeExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return dnerr.New(dnerr.Tool, "stat %s: %v", path, err)
	}
	mode := info.Mode()
	if mode&0o100 != 0 {
		return nil
	}
	return os.Chmod(path, mode|0o111)
}
