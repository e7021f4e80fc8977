package cli

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/dominikbraun/graph"
	"github.com/spf13/cobra"
)

type recordResult struct {
	Name        string `json:"name"`
	Parameter   bool   `json:"parameter"`
	Definitions []int  `json:"definitions"`
	Uses        []int  `json:"uses"`
}

type analyzeResult struct {
	Address string         `json:"address"`
	Records []recordResult `json:"records"`
	Free    []string       `json:"free"`
}

func newAnalyzeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <file> <address>",
		Short: "Show where each name of a callable is defined and used",
		Long: `Analyze prints the definition and use lines of every name bound in the
callable the address names, parameters first. Free names are read in the
callable but bound elsewhere.

A line range on the address is ignored.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runAnalyze(cmd, args[0], args[1])
		},
	}
}

func (a *app) runAnalyze(cmd *cobra.Command, path, address string) error {
	s, err := a.open(cmd.Context(), path, address)
	if err != nil {
		return err
	}
	defer s.session.Close()

	analysis, err := s.session.Analysis(s.module, s.loc)
	if err != nil {
		return s.wrap(err)
	}

	res := analyzeResult{Address: s.loc.Scope().String(), Free: nonNil(analysis.Free)}
	for _, r := range analysis.Records() {
		res.Records = append(res.Records, recordResult{
			Name:        r.Name,
			Parameter:   r.IsParameter,
			Definitions: nonNil(r.DefinitionLines()),
			Uses:        nonNil(r.UseLines()),
		})
	}
	res.Records = nonNil(res.Records)

	w := cmd.OutOrStdout()
	if a.json() {
		return writeJSON(w, res)
	}
	fmt.Fprintf(w, "%s\n", res.Address)
	for _, r := range res.Records {
		kind := "local"
		if r.Parameter {
			kind = "param"
		}
		fmt.Fprintf(w, "  %-20s %-5s  defined: %-12s used: %s\n", r.Name, kind, formatLines(r.Definitions), formatLines(r.Uses))
	}
	if len(res.Free) > 0 {
		fmt.Fprintf(w, "  free: %s\n", formatNames(res.Free))
	}
	return nil
}

type lifetimeResult struct {
	Name            string `json:"name"`
	FirstDefinition int    `json:"first_definition"`
	LastUse         int    `json:"last_use"`
	Dead            bool   `json:"dead"`
}

type lifetimesResult struct {
	Address   string           `json:"address"`
	Lifetimes []lifetimeResult `json:"lifetimes"`
	Overlaps  [][2]string      `json:"overlaps"`
}

func newLifetimesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "lifetimes <file> <address>",
		Short: "Show how long each name of a callable lives",
		Long: `Lifetimes prints, for every name defined in the callable, the line of
its first definition and of its last use, followed by the pairs of names
whose lifetimes overlap. Names that overlap with nothing can be reused.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runLifetimes(cmd, args[0], args[1])
		},
	}
}

func (a *app) runLifetimes(cmd *cobra.Command, path, address string) error {
	s, err := a.open(cmd.Context(), path, address)
	if err != nil {
		return err
	}
	defer s.session.Close()

	lifetimes, err := s.session.Lifetimes(s.module, s.loc)
	if err != nil {
		return s.wrap(err)
	}
	g, err := lifetimes.InterferenceGraph()
	if err != nil {
		return fmt.Errorf("failed to build interference graph: %w", err)
	}

	all := lifetimes.All()
	order := make(map[string]int, len(all))
	for i, lt := range all {
		order[lt.Name] = i
	}
	overlaps, err := overlapPairs(g, order)
	if err != nil {
		return err
	}

	res := lifetimesResult{Address: s.loc.Scope().String(), Overlaps: overlaps}
	for _, lt := range all {
		res.Lifetimes = append(res.Lifetimes, lifetimeResult{
			Name:            lt.Name,
			FirstDefinition: lt.FirstDefinition,
			LastUse:         lt.LastUse,
			Dead:            lt.Dead(),
		})
	}
	res.Lifetimes = nonNil(res.Lifetimes)

	w := cmd.OutOrStdout()
	if a.json() {
		return writeJSON(w, res)
	}
	fmt.Fprintf(w, "%s\n", res.Address)
	for _, lt := range res.Lifetimes {
		if lt.Dead {
			fmt.Fprintf(w, "  %-20s %d (never read)\n", lt.Name, lt.FirstDefinition)
			continue
		}
		fmt.Fprintf(w, "  %-20s %d-%d\n", lt.Name, lt.FirstDefinition, lt.LastUse)
	}
	if len(res.Overlaps) > 0 {
		fmt.Fprintln(w, "  overlapping:")
		for _, pair := range res.Overlaps {
			fmt.Fprintf(w, "    %s, %s\n", pair[0], pair[1])
		}
	}
	return nil
}

// overlapPairs lists the edges of the interference graph, each pair and the
// list itself in lifetime order.
func overlapPairs(g graph.Graph[string, string], order map[string]int) ([][2]string, error) {
	edges, err := g.Edges()
	if err != nil {
		return nil, fmt.Errorf("failed to list overlaps: %w", err)
	}
	seen := make(map[[2]string]bool, len(edges))
	pairs := make([][2]string, 0, len(edges))
	for _, e := range edges {
		pair := [2]string{e.Source, e.Target}
		if order[pair[0]] > order[pair[1]] {
			pair[0], pair[1] = pair[1], pair[0]
		}
		if seen[pair] {
			continue
		}
		seen[pair] = true
		pairs = append(pairs, pair)
	}
	slices.SortFunc(pairs, func(x, y [2]string) int {
		return cmp.Or(cmp.Compare(order[x[0]], order[y[0]]), cmp.Compare(order[x[1]], order[y[1]]))
	})
	return pairs, nil
}
