package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

type locateResult struct {
	Address   string   `json:"address"`
	Name      string   `json:"name"`
	Container string   `json:"container,omitempty"`
	Receiver  string   `json:"receiver,omitempty"`
	Async     bool     `json:"async"`
	StartLine int      `json:"start_line"`
	EndLine   int      `json:"end_line"`
	Params    []string `json:"params"`
}

func newLocateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "locate <file> <address>",
		Short: "Resolve an address to a callable",
		Long: `Locate resolves an address to the callable it names and prints where
it is, what encloses it, and which parameters it declares.

Examples:
  pyrefactor locate orders.py Order::print_owing
  pyrefactor locate orders.py compute --format json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runLocate(cmd, args[0], args[1])
		},
	}
}

func (a *app) runLocate(cmd *cobra.Command, path, address string) error {
	s, err := a.open(cmd.Context(), path, address)
	if err != nil {
		return err
	}
	defer s.session.Close()

	analysis, err := s.session.Analysis(s.module, s.loc)
	if err != nil {
		return s.wrap(err)
	}
	info := analysis.Scope
	m, err := s.session.Match(s.module, s.loc)
	if err != nil {
		return s.wrap(err)
	}

	res := locateResult{
		Address:   s.loc.Scope().String(),
		Name:      info.Name,
		Container: info.Container,
		Receiver:  info.Receiver,
		Async:     m.Func.Async,
		StartLine: info.Start,
		EndLine:   info.End,
		Params:    nonNil(info.Params),
	}

	w := cmd.OutOrStdout()
	if a.json() {
		return writeJSON(w, res)
	}
	fmt.Fprintf(w, "Address:   %s\n", res.Address)
	fmt.Fprintf(w, "Lines:     %d-%d\n", res.StartLine, res.EndLine)
	if res.Container != "" {
		fmt.Fprintf(w, "Container: %s\n", res.Container)
	}
	if res.Receiver != "" {
		fmt.Fprintf(w, "Receiver:  %s\n", res.Receiver)
	}
	if res.Async {
		fmt.Fprintln(w, "Async:     yes")
	}
	fmt.Fprintf(w, "Params:    %s\n", formatNames(res.Params))
	return nil
}
