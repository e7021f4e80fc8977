package cli

import (
	"fmt"
	"unicode"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/pyrefactor/internal/extract"
	"github.com/mvp-joe/pyrefactor/internal/syntax"
)

type planResult struct {
	Address      string   `json:"address"`
	Parameters   []string `json:"parameters"`
	ReturnName   string   `json:"return_name,omitempty"`
	UsesReceiver bool     `json:"uses_receiver"`
	TailReturn   bool     `json:"tail_return"`
	Async        bool     `json:"async"`
}

func newPlanResult(address string, p *extract.Plan) planResult {
	return planResult{
		Address:      address,
		Parameters:   nonNil(p.Parameters),
		ReturnName:   p.ReturnName,
		UsesReceiver: p.UsesReceiver,
		TailReturn:   p.TailReturn,
		Async:        p.Async,
	}
}

func newPlanCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "plan <file> <address#Lstart-Lend>",
		Short: "Compute what a line range needs to become a function",
		Long: `Plan computes the parameters and the return value a line range would
need if it were extracted into a function of its own. The address must carry
a line range.

The range is rejected when it does not cover whole statements of one block,
when more than one name it assigns is read after it, or when it contains
control flow that cannot leave a function call (return before its end,
break/continue out of the range, yield).

Examples:
  pyrefactor plan orders.py Order::print_owing#L16
  pyrefactor plan orders.py compute#L37-L38 --format json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runPlan(cmd, args[0], args[1])
		},
	}
}

func (a *app) runPlan(cmd *cobra.Command, path, address string) error {
	s, err := a.open(cmd.Context(), path, address)
	if err != nil {
		return err
	}
	defer s.session.Close()

	p, err := s.session.Plan(s.module, s.loc)
	if err != nil {
		return s.wrap(err)
	}
	res := newPlanResult(s.loc.String(), p)

	w := cmd.OutOrStdout()
	if a.json() {
		return writeJSON(w, res)
	}
	printPlan(cmd, res)
	return nil
}

func printPlan(cmd *cobra.Command, res planResult) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Range:      %s\n", res.Address)
	fmt.Fprintf(w, "Parameters: %s\n", formatNames(res.Parameters))
	switch {
	case res.TailReturn:
		fmt.Fprintln(w, "Returns:    (the scope's return value)")
	case res.ReturnName != "":
		fmt.Fprintf(w, "Returns:    %s\n", res.ReturnName)
	default:
		fmt.Fprintln(w, "Returns:    -")
	}
	if res.UsesReceiver {
		fmt.Fprintln(w, "Receiver:   passed through")
	}
	if res.Async {
		fmt.Fprintln(w, "Async:      yes")
	}
}

type extractResult struct {
	Plan     planResult `json:"plan"`
	Function string     `json:"function"`
	Call     string     `json:"call"`
	Module   string     `json:"module"`
}

func newExtractCmd(a *app) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "extract <file> <address#Lstart-Lend>",
		Short: "Extract a line range into a new function",
		Long: `Extract moves a line range into a new function and replaces it with a
call. The new function becomes a method when the range uses the receiver,
and a module-level function otherwise.

The rewritten module is printed; the file is not modified.

Examples:
  pyrefactor extract orders.py Order::print_owing#L16-L17 --name report`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runExtract(cmd, args[0], args[1], name)
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "extracted", "name of the new function")
	return cmd
}

func (a *app) runExtract(cmd *cobra.Command, path, address, name string) error {
	if err := checkName(name); err != nil {
		return err
	}
	s, err := a.open(cmd.Context(), path, address)
	if err != nil {
		return err
	}
	defer s.session.Close()

	ex, err := s.session.Extract(s.module, s.loc, name)
	if err != nil {
		return s.wrap(err)
	}

	w := cmd.OutOrStdout()
	if a.json() {
		return writeJSON(w, extractResult{
			Plan:     newPlanResult(s.loc.String(), ex.Plan),
			Function: syntax.FormatStmt(ex.Function),
			Call:     syntax.FormatStmt(ex.Call),
			Module:   syntax.FormatStmts(ex.Module.Body, 0),
		})
	}
	fmt.Fprint(w, syntax.FormatStmts(ex.Module.Body, 0))
	return nil
}

type consolidateResult struct {
	Address   string `json:"address"`
	Guards    int    `json:"guards"`
	Predicate string `json:"predicate"`
	Guard     string `json:"guard"`
	Module    string `json:"module"`
}

func newConsolidateCmd(a *app) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "consolidate <file> <address>",
		Short: "Merge guard clauses that return the same value",
		Long: `Consolidate finds the first run of consecutive "if test: return value"
statements in a callable that all return the same value, moves their tests
into a predicate function joined with "or", and replaces the run with one
guard calling it.

The rewritten module is printed; the file is not modified.

Examples:
  pyrefactor consolidate payroll.py disability_amount --name is_not_eligible`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runConsolidate(cmd, args[0], args[1], name)
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "should_return_early", "name of the predicate function")
	return cmd
}

func (a *app) runConsolidate(cmd *cobra.Command, path, address, name string) error {
	if err := checkName(name); err != nil {
		return err
	}
	s, err := a.open(cmd.Context(), path, address)
	if err != nil {
		return err
	}
	defer s.session.Close()

	c, err := s.session.Consolidate(s.module, s.loc, name)
	if err != nil {
		return s.wrap(err)
	}

	w := cmd.OutOrStdout()
	if a.json() {
		return writeJSON(w, consolidateResult{
			Address:   s.loc.Scope().String(),
			Guards:    len(c.Run.Tests),
			Predicate: syntax.FormatStmt(c.Predicate),
			Guard:     syntax.FormatStmt(c.Guard),
			Module:    syntax.FormatStmts(c.Module.Body, 0),
		})
	}
	fmt.Fprint(w, syntax.FormatStmts(c.Module.Body, 0))
	return nil
}

// pythonKeywords are the hard keywords; soft keywords such as match and type
// are valid names.
var pythonKeywords = map[string]bool{
	"False": true, "None": true, "True": true, "and": true, "as": true,
	"assert": true, "async": true, "await": true, "break": true, "class": true,
	"continue": true, "def": true, "del": true, "elif": true, "else": true,
	"except": true, "finally": true, "for": true, "from": true, "global": true,
	"if": true, "import": true, "in": true, "is": true, "lambda": true,
	"nonlocal": true, "not": true, "or": true, "pass": true, "raise": true,
	"return": true, "try": true, "while": true, "with": true, "yield": true,
}

// checkName rejects a --name that cannot be used as a Python function name.
func checkName(name string) error {
	if name == "" || pythonKeywords[name] {
		return fmt.Errorf("invalid --name %q: not a Python identifier", name)
	}
	for i, r := range name {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return fmt.Errorf("invalid --name %q: not a Python identifier", name)
	}
	return nil
}
