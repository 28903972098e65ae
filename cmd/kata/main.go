// kata CLI - lexes, parses and resolves source files, reports diagnostics
// and writes constant pools
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tliron/commonlog"

	"github.com/chazu/kata/manifest"
	"github.com/chazu/kata/server"
	"github.com/chazu/kata/store"

	_ "github.com/tliron/commonlog/simple"
)

var log = commonlog.GetLogger("kata.cmd")

func main() {
	os.Exit(run())
}

func run() int {
	verbose := flag.Bool("v", false, "Verbose output (debug logging)")
	configPath := flag.String("config", "", "Path to kata.toml (default: search upward from the working directory)")
	showTokens := flag.Bool("tokens", false, "Print the token stream of each file")
	showAST := flag.Bool("ast", false, "Print the resolved program of each file")
	poolPath := flag.String("pool", "", "Write the constant pool (a directory when compiling several files)")
	storePath := flag.String("store", "", "Save compiled units to this SQLite database")
	werror := flag.Bool("Werror", false, "Treat warnings as errors")
	interactive := flag.Bool("i", false, "Start interactive REPL")
	lspMode := flag.Bool("lsp", false, "Start the language server on stdio")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: kata [options] [paths...]\n\n")
		fmt.Fprintf(os.Stderr, "Compiles source files from the given paths, or from the source dirs in kata.toml.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  kata                       # Compile the project's source dirs\n")
		fmt.Fprintf(os.Stderr, "  kata -ast main.js          # Print the resolved program\n")
		fmt.Fprintf(os.Stderr, "  kata -pool out.pool a.js   # Write the constant pool\n")
		fmt.Fprintf(os.Stderr, "  kata -store units.db src/  # Save every unit in src/\n")
		fmt.Fprintf(os.Stderr, "  kata -i                    # Start REPL\n")
		fmt.Fprintf(os.Stderr, "  kata -lsp                  # Start language server\n")
	}
	flag.Parse()

	m, err := loadManifest(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if *werror {
		m.Analysis.WarningsAsErrors = true
	}
	if *poolPath != "" {
		m.Output.Pool = *poolPath
	}
	if *storePath != "" {
		m.Output.Store = *storePath
	}

	verbosity := m.Log.Verbosity
	if *verbose {
		verbosity = 2
	}
	commonlog.Configure(verbosity, m.LogPath())
	log.Debugf("project %s in %s", m.Project.Name, m.Dir)

	ctx := context.Background()
	var st *store.Store
	if path := m.StorePath(); path != "" {
		st, err = store.Open(ctx, path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		defer st.Close()
	}

	if *lspMode {
		if err := server.NewLSP(m, st).Run(); err != nil {
			fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
			return 1
		}
		return 0
	}

	if *interactive {
		return runREPL(m)
	}

	paths := flag.Args()
	if len(paths) == 0 {
		paths = m.SourceDirPaths()
	}
	files, err := collectFiles(m, paths)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if len(files) == 0 {
		fmt.Fprintf(os.Stderr, "No source files found\n")
		return 1
	}

	b := &builder{
		manifest:   m,
		store:      st,
		showTokens: *showTokens,
		showAST:    *showAST,
		out:        os.Stdout,
		errOut:     os.Stderr,
	}
	failed, err := b.build(ctx, files)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if failed {
		return 1
	}
	return 0
}

// loadManifest loads the manifest named by configPath, or searches upward
// from the working directory, or falls back to the defaults.
func loadManifest(configPath string) (*manifest.Manifest, error) {
	if configPath != "" {
		if info, err := os.Stat(configPath); err == nil && info.IsDir() {
			return manifest.Load(configPath)
		}
		if filepath.Base(configPath) != manifest.FileName {
			return nil, fmt.Errorf("config file must be named %s: %s", manifest.FileName, configPath)
		}
		return manifest.Load(filepath.Dir(configPath))
	}

	m, err := manifest.FindAndLoad(".")
	if err != nil {
		return nil, err
	}
	if m == nil {
		return manifest.Default(".")
	}
	return m, nil
}
