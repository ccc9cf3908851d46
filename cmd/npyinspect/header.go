package main

import (
	"context"
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/robert-malhotra/go-npy/npy"
)

type headerJSON struct {
	Descr       string `json:"descr"`
	Shape       []int  `json:"shape"`
	ColumnMajor bool   `json:"fortran_order"`
	Count       int    `json:"count"`
	ItemSize    int    `json:"item_size"`
}

func headerCmd() *cli.Command {
	var (
		member string
		asJSON bool
	)

	return &cli.Command{
		Name:      "header",
		Usage:     "Print the header of an array",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "member", Aliases: []string{"m"}, Usage: "archive member name", Destination: &member},
			&cli.BoolFlag{Name: "json", Usage: "emit JSON", Destination: &asJSON},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return fmt.Errorf("expected one file argument")
			}
			rd, closer, err := openArray(cmd.Args().First(), member)
			if err != nil {
				return err
			}
			defer closer.Close()

			descr, err := npy.DescrString(rd.Dtype())
			if err != nil {
				descr = rd.Dtype().String()
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(headerJSON{
					Descr:       descr,
					Shape:       rd.Shape(),
					ColumnMajor: rd.ColumnMajor(),
					Count:       rd.Len(),
					ItemSize:    rd.Dtype().ItemSize(),
				})
			}

			fmt.Printf("descr:         %s\n", descr)
			fmt.Printf("shape:         %v\n", rd.Shape())
			fmt.Printf("fortran_order: %v\n", rd.ColumnMajor())
			fmt.Printf("count:         %d\n", rd.Len())
			fmt.Printf("item size:     %d\n", rd.Dtype().ItemSize())
			return nil
		},
	}
}
