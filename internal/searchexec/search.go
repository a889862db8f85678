// Package searchexec spawns and supervises an external fixed-string
// recursive search tool (grep by default) the way the teacher's
// testrunner drives `go test -json`: StdoutPipe + Start + a
// line-oriented decode loop + Wait, with stderr merged into the same
// pipe. Unlike the teacher, which never needs to kill the child
// mid-stream, this package also publishes the child's pid into a
// caller-supplied atomic slot so a concurrent cancel notification can
// SIGTERM it directly, and reaps the child unconditionally.
package searchexec

import (
	"bufio"
	"os/exec"
	"strconv"
	"strings"
	"sync/atomic"

	"golang.org/x/sys/unix"

	"github.com/slclangd/slclangd/internal/lexheur"
)

// Tool is the external search executable. Overridable for tests.
var Tool = "grep"

// Match is a single admitted grep hit, column already resolved.
type Match struct {
	Path   string
	Line   int
	Column int
	Text   string
}

// WorkspaceQuery searches recursively rooted at Root.
type WorkspaceQuery struct {
	Root       string
	Extensions []string // e.g. []string{"c", "cc", "h"}; a leading '.' is stripped
}

// FileListQuery searches an explicit set of files, non-recursively.
type FileListQuery struct {
	Files []string
}

// Request bundles one search invocation. Exactly one of Workspace or
// Files should be non-nil.
type Request struct {
	Needle     string
	MaxResults int
	Workspace  *WorkspaceQuery
	Files      *FileListQuery

	// ChildPID is published into by this package so a concurrent
	// $/cancelRequest handler can observe the running child's pid and
	// signal it; Cancelled is read before each output line is parsed.
	// Both may be nil, in which case the search simply cannot be
	// cancelled externally.
	Cancelled *atomic.Bool
	ChildPID  *atomic.Int32
}

func buildArgs(req Request) []string {
	if req.Workspace != nil {
		args := []string{"-r", "-n", "-I", "--color=never"}
		args = append(args, "--exclude-dir=build", "--exclude-dir=.git")
		for _, ext := range req.Workspace.Extensions {
			ext = strings.TrimPrefix(ext, ".")
			if ext == "" {
				continue
			}
			args = append(args, "--include=*."+ext)
		}
		args = append(args, "-F", "--", req.Needle, req.Workspace.Root)
		return args
	}
	args := []string{"-n", "-H", "-I", "--color=never", "-F", "--", req.Needle}
	args = append(args, req.Files.Files...)
	return args
}

// Run spawns the search tool, streams and parses its output, applies
// the column-admission filter, and enforces the result cap. It never
// returns an error: a failed spawn or a cancelled/short pipe both
// yield whatever partial (possibly empty) result was collected, per
// the "search is best-effort" design.
func Run(req Request) []Match {
	if req.MaxResults <= 0 || req.Needle == "" {
		return nil
	}
	if req.Workspace == nil && req.Files == nil {
		return nil
	}

	cmd := exec.Command(Tool, buildArgs(req)...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil
	}
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		return nil
	}
	if req.ChildPID != nil {
		if cmd.Process != nil {
			req.ChildPID.Store(int32(cmd.Process.Pid))
		}
	}
	defer func() {
		if req.ChildPID != nil {
			req.ChildPID.Store(0)
		}
	}()

	var out []Match
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 4<<20)

	for scanner.Scan() {
		if req.Cancelled != nil && req.Cancelled.Load() {
			break
		}
		path, lineNo, text, ok := parseRecord(scanner.Text())
		if !ok {
			continue
		}
		col := lexheur.FindColumn0(text, req.Needle)
		if col < 0 {
			continue
		}
		out = append(out, Match{Path: path, Line: lineNo, Column: col, Text: text})
		if len(out) >= req.MaxResults {
			if cmd.Process != nil {
				_ = unix.Kill(cmd.Process.Pid, unix.SIGTERM)
			}
			break
		}
	}

	_ = cmd.Wait()
	return out
}

// parseRecord splits a "path:line:text" record on the first two
// colons. Lines without two colons, or whose middle field is not a
// positive integer, are rejected.
func parseRecord(line string) (path string, lineNo int, text string, ok bool) {
	first := strings.IndexByte(line, ':')
	if first < 0 {
		return "", 0, "", false
	}
	rest := line[first+1:]
	second := strings.IndexByte(rest, ':')
	if second < 0 {
		return "", 0, "", false
	}
	path = line[:first]
	lineText := rest[:second]
	text = rest[second+1:]

	n, err := strconv.Atoi(lineText)
	if err != nil || n <= 0 {
		return "", 0, "", false
	}
	return path, n, text, true
}
