package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"reflect"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/robert-malhotra/go-npy/npy"
)

func dumpCmd() *cli.Command {
	var (
		member string
		asJSON bool
		limit  int
	)

	return &cli.Command{
		Name:      "dump",
		Usage:     "Print array elements in storage order",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "member", Aliases: []string{"m"}, Usage: "archive member name", Destination: &member},
			&cli.BoolFlag{Name: "json", Usage: "emit JSON", Destination: &asJSON},
			&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Usage: "stop after N elements (0 = all)", Value: 10, Destination: &limit},
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

			elemType, err := goTypeFor(rd.Dtype())
			if err != nil {
				return err
			}

			var collected []any
			for i := 0; limit == 0 || i < limit; i++ {
				dst := reflect.New(elemType)
				if err := rd.Next(dst.Interface()); err == io.EOF {
					break
				} else if err != nil {
					return err
				}
				if asJSON {
					collected = append(collected, dst.Elem().Interface())
				} else {
					fmt.Printf("%d: %v\n", i, dst.Elem().Interface())
				}
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(collected)
			}
			if limit != 0 && rd.Len() > limit {
				fmt.Printf("... %d more\n", rd.Len()-limit)
			}
			return nil
		},
	}
}

// goTypeFor builds a Go type each element can decode into. Record fields
// map positionally, so the synthesized field names carry no meaning.
func goTypeFor(dt npy.Dtype) (reflect.Type, error) {
	switch dt.Kind {
	case npy.Bool:
		return reflect.TypeOf(false), nil
	case npy.Int:
		switch dt.Size {
		case 1:
			return reflect.TypeOf(int8(0)), nil
		case 2:
			return reflect.TypeOf(int16(0)), nil
		case 4:
			return reflect.TypeOf(int32(0)), nil
		case 8:
			return reflect.TypeOf(int64(0)), nil
		}
	case npy.Uint:
		switch dt.Size {
		case 1:
			return reflect.TypeOf(uint8(0)), nil
		case 2:
			return reflect.TypeOf(uint16(0)), nil
		case 4:
			return reflect.TypeOf(uint32(0)), nil
		case 8:
			return reflect.TypeOf(uint64(0)), nil
		}
	case npy.Float:
		switch dt.Size {
		case 2, 4:
			return reflect.TypeOf(float32(0)), nil
		case 8:
			return reflect.TypeOf(float64(0)), nil
		}
	case npy.Complex:
		switch dt.Size {
		case 8:
			return reflect.TypeOf(complex64(0)), nil
		case 16:
			return reflect.TypeOf(complex128(0)), nil
		}
	case npy.Bytes, npy.Unicode:
		return reflect.TypeOf(""), nil
	case npy.Struct:
		fields := make([]reflect.StructField, len(dt.Fields))
		for i, f := range dt.Fields {
			ft, err := goTypeFor(f.Type)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", f.Name, err)
			}
			for j := len(f.Shape) - 1; j >= 0; j-- {
				ft = reflect.ArrayOf(f.Shape[j], ft)
			}
			fields[i] = reflect.StructField{
				Name: fmt.Sprintf("F%d", i),
				Type: ft,
			}
		}
		return reflect.StructOf(fields), nil
	}
	return nil, fmt.Errorf("cannot display %v elements", dt)
}
