package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/pyrefactor/internal/config"
	"github.com/mvp-joe/pyrefactor/internal/engine"
	"github.com/mvp-joe/pyrefactor/internal/logging"
	"github.com/mvp-joe/pyrefactor/internal/syntax"
	"github.com/mvp-joe/pyrefactor/internal/target"
)

// app carries the global flags and the state built from them before a
// command runs.
type app struct {
	configFile string
	verbose    bool
	format     string

	cfg    *config.Config
	logger *slog.Logger
}

// NewRootCommand assembles the pyrefactor command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "pyrefactor",
		Short: "Static analysis for refactoring Python code",
		Long: `pyrefactor resolves callables in Python source by address and reports
what a refactoring needs to know about them: where names are defined and
used, how long they live, and what a line range needs to become a function
of its own.

Addresses look like:
  compute                      module-level function
  Order::print_owing           method
  Order::print_owing#L16-L17   line range inside a method`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	root.PersistentFlags().StringVar(&a.configFile, "config", "", "config file (default is .pyrefactor/config.yml)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "verbose output")
	root.PersistentFlags().StringVar(&a.format, "format", "", "output format: text or json")

	for _, build := range []func(*app) *cobra.Command{
		newLocateCmd,
		newAnalyzeCmd,
		newLifetimesCmd,
		newPlanCmd,
		newExtractCmd,
		newConsolidateCmd,
		newScanCmd,
		newVersionCmd,
	} {
		root.AddCommand(build(a))
	}
	return root
}

// Execute runs the root command and exits non-zero on failure.
// This is called by main.main().
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, FormatError(err))
		os.Exit(1)
	}
}

// setup loads configuration and builds the logger. Flags win over config.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	loader := config.NewLoader(wd)
	if a.configFile != "" {
		loader = config.NewFileLoader(wd, a.configFile)
	}
	cfg, err := loader.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cmd.Flags().Changed("format") {
		if a.format != config.FormatText && a.format != config.FormatJSON {
			return fmt.Errorf("invalid --format %q: must be %s or %s", a.format, config.FormatText, config.FormatJSON)
		}
		cfg.Output.Format = a.format
	}

	a.cfg = cfg
	a.logger = logging.NewLogger(cmd.ErrOrStderr(), logging.LevelFor(cfg.Log.Level, a.verbose))
	return nil
}

func (a *app) json() bool {
	return a.cfg.Output.Format == config.FormatJSON
}

// subject bundles what the per-address commands work on.
type subject struct {
	session *engine.Session
	module  *syntax.Module
	loc     target.Locator
	address string
}

// open parses address, starts a session and loads path. The caller closes
// the session.
func (a *app) open(ctx context.Context, path, address string) (*subject, error) {
	session, err := engine.New(a.cfg, a.logger)
	if err != nil {
		return nil, err
	}
	loc, err := session.Resolve(address)
	if err != nil {
		session.Close()
		return nil, &AddressError{Address: address, Err: err}
	}
	mod, err := session.Load(ctx, path)
	if err != nil {
		session.Close()
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return &subject{session: session, module: mod, loc: loc, address: address}, nil
}

// wrap attaches the subject's address to err.
func (s *subject) wrap(err error) error {
	if err == nil {
		return nil
	}
	return &AddressError{Address: s.address, Err: err}
}

// AddressError ties an error to the address it was reported for.
type AddressError struct {
	Address string
	Err     error
}

func (e *AddressError) Error() string { return e.Err.Error() }

func (e *AddressError) Unwrap() error { return e.Err }

// kinded is implemented by the analysis errors.
type kinded interface {
	error
	Kind() string
}

// FormatError renders err for the terminal. Analysis errors are printed as
// `<Kind>: <message> (address "<address>")`.
func FormatError(err error) string {
	var k kinded
	if !errors.As(err, &k) {
		return "Error: " + err.Error()
	}
	msg := fmt.Sprintf("%s: %s", k.Kind(), k.Error())
	var ae *AddressError
	if errors.As(err, &ae) {
		msg += fmt.Sprintf(" (address %q)", ae.Address)
	}
	return msg
}
