package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/robert-malhotra/go-npy/npy"
	"github.com/robert-malhotra/go-npy/npz"
)

type memberJSON struct {
	Name  string `json:"name"`
	Descr string `json:"descr"`
	Shape []int  `json:"shape"`
	Count int    `json:"count"`
}

func listCmd() *cli.Command {
	var asJSON bool

	return &cli.Command{
		Name:      "list",
		Usage:     "List the members of an .npz archive",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "emit JSON", Destination: &asJSON},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return fmt.Errorf("expected one file argument")
			}
			a, err := npz.OpenFile(cmd.Args().First())
			if err != nil {
				return err
			}
			defer a.Close()

			var members []memberJSON
			for _, key := range a.Keys() {
				m, err := a.Open(key)
				if err != nil {
					return err
				}
				descr, err := npy.DescrString(m.Dtype())
				if err != nil {
					descr = m.Dtype().String()
				}
				members = append(members, memberJSON{
					Name:  key,
					Descr: descr,
					Shape: m.Shape(),
					Count: m.Len(),
				})
				m.Close()
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(members)
			}

			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tDESCR\tSHAPE\tCOUNT")
			for _, m := range members {
				fmt.Fprintf(tw, "%s\t%s\t%v\t%d\n", m.Name, m.Descr, m.Shape, m.Count)
			}
			return tw.Flush()
		},
	}
}
