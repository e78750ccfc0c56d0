package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/hexapus/gamecore/cli"
	"github.com/hexapus/gamecore/sim"
)

// summary renders one row per scenario under a banner.
func summary(results []sim.Result) string {
	alive := 0

	for _, r := range results {
		if r.State != "" && r.Alive {
			alive++
		}
	}

	var b strings.Builder

	b.WriteString(cli.Banner(fmt.Sprintf("playersim: %d entities, %d alive", len(results), alive),
		cli.DefaultWidth, cli.AlignCenter))
	b.WriteString("\n")

	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0) //nolint:mnd
	fmt.Fprintln(tw, "ENTITY\tSTATE\tHEALTH\tTICKS\tPATH")

	for _, r := range results {
		if r.State == "" {
			fmt.Fprintf(tw, "%s\tfailed\t-\t-\t-\n", r.Name)

			continue
		}

		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n", r.Name, r.State, r.Health, r.Ticks, strings.Join(r.Path(), " -> "))
	}

	_ = tw.Flush()

	b.WriteString(cli.Divider(cli.DefaultWidth))

	return b.String()
}
