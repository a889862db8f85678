// Command slclangd is a drop-in LSP server for C/C++ that answers
// hover, definition, references, and workspace-symbol queries with a
// fixed-string recursive text search instead of a real semantic index.
// It speaks framed JSON-RPC 2.0 over stdin/stdout, as launched by an
// editor.
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/slclangd/slclangd/internal/cli"
	"github.com/slclangd/slclangd/internal/lspd"
)

const toolName = "super-lazy-clangd"

func main() {
	var (
		showVersion = flag.Bool("version", false, "print version information and exit")
		showHelp    = flag.Bool("help", false, "print this help message and exit")
		filesMode   = flag.Bool("files", false, "search only the files given as trailing arguments, instead of the initialize root")
		logFilePath = flag.String("log-file", "", "write trace logging here instead of stderr (enabled by CLANGD_TRACE/SLCLANGD_TRACE)")
	)
	flag.BoolVar(showHelp, "h", false, "print this help message and exit (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS] [--files FILE...]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "%s speaks LSP over stdio and answers code-intelligence queries\n", toolName)
		fmt.Fprintf(os.Stderr, "via fixed-string recursive search instead of a semantic index.\n\n")
		fmt.Fprintf(os.Stderr, "OPTIONS:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEXAMPLES:\n")
		fmt.Fprintf(os.Stderr, "  %s                          # serve the workspace given by 'initialize'\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --files a.c b.c c.h      # search only these files, never the workspace\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --log-file /tmp/lsp.log  # trace dispatched methods to a file\n", os.Args[0])
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}
	if *showVersion {
		cli.PrintVersion(toolName)
		os.Exit(0)
	}

	var logWriter io.Writer = os.Stderr
	if *logFilePath != "" {
		f, err := os.OpenFile(*logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			cli.ExitWithError("open log file: %v", err)
		}
		defer f.Close()
		logWriter = f
	}
	logger := slog.New(slog.NewTextHandler(logWriter, nil))

	var fixedFiles []string
	if *filesMode {
		fixedFiles = flag.Args()
	}

	srv := lspd.New(os.Stdin, os.Stdout, logger, fixedFiles)
	if err := srv.Run(); err != nil {
		logger.Error("session terminated", "error", err)
		os.Exit(1)
	}

	if srv.ShutdownReceived() {
		os.Exit(0)
	}
	os.Exit(1)
}
