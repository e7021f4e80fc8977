package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/pyrefactor/internal/discovery"
	"github.com/mvp-joe/pyrefactor/internal/engine"
	"github.com/mvp-joe/pyrefactor/internal/scope"
)

type scanFile struct {
	Path      string   `json:"path"`
	Addresses []string `json:"addresses,omitempty"`
	Error     string   `json:"error,omitempty"`
}

func newScanCmd(a *app) *cobra.Command {
	var quiet bool
	cmd := &cobra.Command{
		Use:   "scan [dir]",
		Short: "List the addressable callables of a source tree",
		Long: `Scan discovers the Python files under dir (default: the current
directory) using the paths.code and paths.ignore patterns of the
configuration, and lists every callable an address can name.

Files that do not parse are reported and skipped.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return a.runScan(cmd, dir, quiet)
		},
	}
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress progress output")
	return cmd
}

func (a *app) runScan(cmd *cobra.Command, dir string, quiet bool) error {
	ctx := cmd.Context()

	fd, err := discovery.FromConfig(dir, a.cfg)
	if err != nil {
		return fmt.Errorf("failed to compile path patterns: %w", err)
	}
	files, err := fd.Discover(ctx)
	if err != nil {
		return fmt.Errorf("failed to discover files: %w", err)
	}

	session, err := engine.New(a.cfg, a.logger)
	if err != nil {
		return err
	}
	defer session.Close()

	progress := newScanProgress(cmd.ErrOrStderr(), quiet || a.json())
	progress.OnDiscoveryComplete(len(files))

	results := make([]scanFile, 0, len(files))
	var scopes, failed int
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			rel = path
		}
		res := scanFile{Path: filepath.ToSlash(rel)}

		mod, err := session.Load(ctx, path)
		if err != nil {
			a.logger.Warn("skipping file", "path", path, "error", err)
			res.Error = err.Error()
			failed++
		} else {
			for _, loc := range scope.Addresses(mod) {
				res.Addresses = append(res.Addresses, loc.String())
			}
			scopes += len(res.Addresses)
		}
		results = append(results, res)
		progress.OnFileScanned()
	}
	progress.OnComplete(len(files), scopes, failed)

	w := cmd.OutOrStdout()
	if a.json() {
		return writeJSON(w, results)
	}
	for _, res := range results {
		if res.Error != "" {
			fmt.Fprintf(w, "%s: %s\n", res.Path, res.Error)
			continue
		}
		fmt.Fprintf(w, "%s\n", res.Path)
		for _, addr := range res.Addresses {
			fmt.Fprintf(w, "  %s\n", addr)
		}
	}
	return nil
}
