package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chazu/kata/compiler"
	"github.com/chazu/kata/compiler/pool"
	"github.com/chazu/kata/manifest"
	"github.com/chazu/kata/store"
)

// builder compiles a set of files under one manifest.
type builder struct {
	manifest   *manifest.Manifest
	store      *store.Store
	showTokens bool
	showAST    bool
	out        io.Writer
	errOut     io.Writer
}

// build compiles every file, reporting diagnostics as it goes. It returns
// true when any unit fails under the manifest's rules; err is reserved for
// problems outside the sources (I/O, the store).
func (b *builder) build(ctx context.Context, files []string) (failed bool, err error) {
	poolPath := b.manifest.PoolPath()
	poolDir := poolPath != "" && len(files) > 1
	if poolDir {
		if err := os.MkdirAll(poolPath, 0755); err != nil {
			return false, fmt.Errorf("creating pool directory: %w", err)
		}
	}

	var nerrors, nwarnings int
	for _, path := range files {
		content, err := os.ReadFile(path)
		if err != nil {
			return false, err
		}
		source := string(content)
		name := b.displayName(path)

		if b.showTokens {
			b.printTokens(name, source)
		}

		unit := compiler.Compile(source, b.manifest.CompileOptions(name)...)
		log.Debugf("%s: %d errors, %d warnings", name, unit.Reporter.NumberOfErrors(), unit.Reporter.NumberOfWarnings())
		nerrors += unit.Reporter.NumberOfErrors()
		nwarnings += unit.Reporter.NumberOfWarnings()

		if len(unit.Reporter.Diagnostics()) > 0 {
			fmt.Fprintf(b.errOut, "%s:\n", name)
			if err := unit.Reporter.Report(b.errOut, source, b.manifest.Analysis.MaxErrors); err != nil {
				return false, err
			}
		}
		if b.manifest.Failed(unit) {
			failed = true
		}

		if b.showAST {
			for _, stmt := range unit.Program {
				fmt.Fprintln(b.out, compiler.Format(stmt))
			}
		}

		if poolPath != "" {
			dest := poolPath
			if poolDir {
				dest = filepath.Join(poolPath, strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))+".pool")
			}
			if err := writePool(dest, unit); err != nil {
				return false, err
			}
		}

		if b.store != nil {
			id, err := b.store.SaveUnit(ctx, unit)
			if err != nil {
				return false, err
			}
			log.Infof("stored %s as %s", name, id)
		}
	}

	fmt.Fprintf(b.errOut, "%d files, %d errors, %d warnings\n", len(files), nerrors, nwarnings)
	return failed, nil
}

func (b *builder) printTokens(name, source string) {
	fmt.Fprintf(b.out, "%s tokens:\n", name)
	for tok := range compiler.Tokens(source) {
		if tok.Type.IsTrivia() {
			continue
		}
		fmt.Fprintf(b.out, "  %s %s\n", tok.Pos, tok)
	}
}

// displayName returns path relative to the project directory when possible.
func (b *builder) displayName(path string) string {
	if rel, err := filepath.Rel(b.manifest.Dir, path); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return path
}

func writePool(path string, unit *compiler.Unit) error {
	p := pool.FromScope(unit.Scope)
	data, err := pool.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding pool for %s: %w", unit.Name, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing pool: %w", err)
	}
	hash, err := pool.Hash(p)
	if err != nil {
		return err
	}
	log.Infof("wrote %s (%d constants, sha256 %x)", path, p.Len(), hash[:8])
	return nil
}

// collectFiles expands paths into source files. Directories are walked
// recursively and filtered by the configured extensions; files named
// explicitly are always included.
func collectFiles(m *manifest.Manifest, paths []string) ([]string, error) {
	var files []string
	seen := make(map[string]bool)
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			files = append(files, p)
		}
	}

	for _, path := range paths {
		path = strings.TrimSuffix(path, "/...")
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("invalid path %q: %w", path, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("cannot access %q: %w", path, err)
		}
		if !info.IsDir() {
			add(abs)
			continue
		}
		err = filepath.WalkDir(abs, func(p string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if p != abs && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if m.IsSource(p) {
				add(p)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %q: %w", path, err)
		}
	}
	return files, nil
}
