package gdtools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/Gurvan/gdtools/config"
	"github.com/Gurvan/gdtools/format"
	"github.com/Gurvan/gdtools/lint"
)

// Discover expands the given paths into the list of .gd files to process.
// Directories are walked recursively; hidden directories are skipped
// unless listed explicitly; exclude globs are matched against paths
// relative to the config root.
func Discover(paths []string, cfg *config.Config) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			files = append(files, p)
		}
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			add(p)
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != p && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if !strings.HasSuffix(d.Name(), ".gd") {
				return nil
			}
			if excludedPath(cfg, path) {
				return nil
			}
			add(path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(files)
	return files, nil
}

func excludedPath(cfg *config.Config, path string) bool {
	if len(cfg.Exclude) == 0 {
		return false
	}
	rel := path
	if cfg.Root != "" {
		if abs, err := filepath.Abs(path); err == nil {
			if r, err := filepath.Rel(cfg.Root, abs); err == nil {
				rel = r
			}
		}
	}
	rel = filepath.ToSlash(rel)
	for _, glob := range cfg.Exclude {
		if ok, _ := filepath.Match(glob, rel); ok {
			return true
		}
		if ok, _ := filepath.Match(glob, filepath.Base(rel)); ok {
			return true
		}
	}
	return false
}

// FileDiagnostic binds a diagnostic to the file it was found in.
type FileDiagnostic struct {
	Path string
	lint.Diagnostic
}

// LintFiles lints every file with one task per file. Unreadable files are
// reported and skipped, counted in ioErrors; other files continue. The
// returned diagnostics are sorted by (path, line, column, rule id)
// independent of task completion order.
func LintFiles(ctx context.Context, files []string, cfg *config.Config, logger logrus.FieldLogger) (diags []FileDiagnostic, ioErrors int, err error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	var mu sync.Mutex
	for _, f := range files {
		f := f
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("internal error processing %s: %v", f, r)
				}
			}()
			if ctx.Err() != nil {
				return ctx.Err()
			}
			src, rerr := os.ReadFile(f)
			if rerr != nil {
				logger.Errorf("%s: %v", f, rerr)
				mu.Lock()
				ioErrors++
				mu.Unlock()
				return nil
			}
			found := LintSource(f, src, cfg)
			mu.Lock()
			for _, d := range found {
				diags = append(diags, FileDiagnostic{Path: f, Diagnostic: d})
			}
			mu.Unlock()
			return nil
		})
	}
	err = g.Wait()

	sort.SliceStable(diags, func(i, j int) bool {
		a, b := diags[i], diags[j]
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.Col != b.Col {
			return a.Col < b.Col
		}
		return a.Rule < b.Rule
	})
	return diags, ioErrors, err
}

type FormatMode int

const (
	ModeWrite FormatMode = iota
	ModeCheck
	ModeDiff
)

// FormatResult is the outcome of formatting one file.
type FormatResult struct {
	Path    string
	Changed bool
	Diff    string // filled in ModeDiff
	Err     error  // read error or format.ErrStructural
}

// FormatFiles formats every file with one task per file. In ModeWrite the
// worker writes changed files through a sibling temporary renamed on
// success, so an interrupt never leaves a partial write. Results come back
// sorted by path.
func FormatFiles(ctx context.Context, files []string, cfg *config.Config, mode FormatMode, logger logrus.FieldLogger) ([]FormatResult, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	results := make([]FormatResult, len(files))
	for i, f := range files {
		i, f := i, f
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("internal error processing %s: %v", f, r)
				}
			}()
			if ctx.Err() != nil {
				return ctx.Err()
			}
			res := FormatResult{Path: f}
			defer func() { results[i] = res }()

			src, rerr := os.ReadFile(f)
			if rerr != nil {
				logger.Errorf("%s: %v", f, rerr)
				res.Err = rerr
				return nil
			}
			out, ferr := FormatSource(f, src, cfg)
			if ferr != nil {
				logger.Errorf("%s: %v", f, ferr)
				res.Err = ferr
				return nil
			}
			res.Changed = !bytes.Equal(src, out)
			if !res.Changed {
				return nil
			}
			switch mode {
			case ModeWrite:
				if werr := writeAtomic(f, out); werr != nil {
					logger.Errorf("%s: %v", f, werr)
					res.Err = werr
				}
			case ModeDiff:
				res.Diff, _ = difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
					A:        difflib.SplitLines(string(src)),
					B:        difflib.SplitLines(string(out)),
					FromFile: f,
					ToFile:   f,
					Context:  3,
				})
			}
			return nil
		})
	}
	err := g.Wait()

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Path < results[j].Path
	})
	return results, err
}

// IsStructural reports whether a result failed because the file has
// structural errors, as opposed to being unreadable.
func (r FormatResult) IsStructural() bool {
	return errors.Is(r.Err, format.ErrStructural)
}

// writeAtomic writes through a temporary file in the same directory and
// renames it over the original.
func writeAtomic(path string, data []byte) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".gdformat-*")
	if err != nil {
		return err
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return err
	}
	if err := tmp.Chmod(info.Mode()); err != nil {
		tmp.Close()
		os.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return err
	}
	return os.Rename(name, path)
}
