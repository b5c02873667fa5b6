package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/born-ml/interp/internal/serialization"
)

func newInspectCmd() *cobra.Command {
	var skipChecksum bool
	cmd := &cobra.Command{
		Use:   "inspect FILE",
		Short: "List the tensors of a Context snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := serialization.OpenWithOptions(args[0], serialization.ReaderOptions{
				SkipChecksumValidation: skipChecksum,
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			meta := snap.Metadata()
			keys := make([]string, 0, len(meta))
			for k := range meta {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(out, "%s: %s\n", k, meta[k])
			}
			fmt.Fprintln(out)

			var data [][]string
			for _, t := range snap.Header().Tensors {
				var n string
				switch t.DType {
				case serialization.DTypeF32:
					x, err := snap.Float32(t.Name)
					if err != nil {
						return err
					}
					n = norm(x.Data())
				case serialization.DTypeI64:
					x, err := snap.Int64(t.Name)
					if err != nil {
						return err
					}
					n = norm(x.Data())
				default:
					n = "-"
				}
				data = append(data, []string{t.Name, t.DType, fmt.Sprint(t.Shape), fmt.Sprint(t.Size), n})
			}
			renderTable(out, []string{"NAME", "DTYPE", "SHAPE", "BYTES", "NORM"}, data)
			return nil
		},
	}
	cmd.Flags().BoolVar(&skipChecksum, "skip-checksum", false, "Do not verify the data checksum")
	return cmd
}
