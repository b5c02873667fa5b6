package main

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/born-ml/interp/internal/demo"
	"github.com/born-ml/interp/internal/interp"
	"github.com/born-ml/interp/internal/serialization"
	"github.com/born-ml/interp/internal/tensor"
)

type demoOptions struct {
	train    bool
	backward bool
	showIR   bool
	snapshot string
	steps    int
	lr       float32
}

func newDemoCmd() *cobra.Command {
	var opts demoOptions
	cmd := &cobra.Command{
		Use:       "demo " + strings.Join(demo.Names(), "|"),
		Short:     "Run a bundled instruction stream",
		Args:      cobra.ExactArgs(1),
		ValidArgs: demo.Names(),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(cmd, args[0], opts)
		},
	}
	cmd.Flags().BoolVar(&opts.train, "train", false, "Run the forward pass in training mode")
	cmd.Flags().BoolVar(&opts.backward, "backward", false, "Run the backward pass and print gradient norms")
	cmd.Flags().BoolVar(&opts.showIR, "ir", false, "Print the instruction stream")
	cmd.Flags().StringVar(&opts.snapshot, "snapshot", "", "Write weights and gradients to a SafeTensors `file`")
	cmd.Flags().IntVar(&opts.steps, "steps", 0, "Run this many SGD steps and print the loss after each")
	cmd.Flags().Float32Var(&opts.lr, "lr", 0.01, "SGD learning rate for --steps")
	return cmd
}

func runDemo(cmd *cobra.Command, name string, opts demoOptions) error {
	d, err := demo.Build(name)
	if err != nil {
		return err
	}
	if opts.steps > 0 && !d.HasLoss() {
		return fmt.Errorf("demo %s has no loss to train", name)
	}
	out := cmd.OutOrStdout()

	if opts.showIR {
		fmt.Fprintln(out, d.Fn)
	}

	ctx := interp.NewContext()
	d.Init(ctx)
	ip := interp.New()

	ip.Forward(ctx, d.Fn, opts.train)
	fmt.Fprintf(out, "%s =\n%s\n", d.Head, tensor.Dump(ctx.Weight(d.Head)))
	if d.HasLoss() {
		fmt.Fprintf(out, "loss = %.6g\n", d.Loss(ctx))
	}

	if opts.steps > 0 {
		var data [][]string
		for step := 1; step <= opts.steps; step++ {
			ctx.ZeroGradients()
			ip.Backward(ctx, d.Fn)
			d.Step(ctx, opts.lr)
			ip.Forward(ctx, d.Fn, opts.train)
			data = append(data, []string{strconv.Itoa(step), strconv.FormatFloat(d.Loss(ctx), 'g', 6, 64)})
		}
		renderTable(out, []string{"STEP", "LOSS"}, data)
	}

	if opts.backward {
		ctx.ZeroGradients()
		d.SeedGradient(ctx)
		ip.Backward(ctx, d.Fn)

		var data [][]string
		for _, v := range slices.Concat(d.Inputs, d.Params) {
			if g := ctx.Grad(v); g != nil {
				data = append(data, []string{v.Name, v.Shape.String(), norm(ctx.Weight(v).Data()), norm(g.Data())})
			}
		}
		renderTable(out, []string{"VALUE", "SHAPE", "|W|", "|GRAD|"}, data)
	}

	if opts.snapshot != "" {
		meta := map[string]string{
			serialization.MetaFunction: d.Fn.Name,
			"train":                    strconv.FormatBool(opts.train),
		}
		if err := serialization.WriteSnapshot(opts.snapshot, ctx, meta); err != nil {
			return fmt.Errorf("write snapshot: %w", err)
		}
		fmt.Fprintf(out, "wrote %s\n", opts.snapshot)
	}
	return nil
}
