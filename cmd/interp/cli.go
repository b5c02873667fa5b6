package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"

	"github.com/born-ml/interp/internal/envconfig"
	"github.com/born-ml/interp/internal/ir"
	"github.com/born-ml/interp/internal/logutil"
)

const version = "v0.1.0-dev"

// appendEnvDocs adds the configuration variables to a command's usage.
func appendEnvDocs(cmd *cobra.Command) {
	vars := envconfig.AsMap()
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)

	envUsage := `
Environment Variables:
`
	for _, name := range names {
		envUsage += fmt.Sprintf("      %-24s   %s\n", name, vars[name].Description)
	}
	cmd.SetUsageTemplate(cmd.UsageTemplate() + envUsage)
}

// NewCLI builds the root command.
func NewCLI() *cobra.Command {
	cobra.EnableCommandSorting = false

	rootCmd := &cobra.Command{
		Use:           "interp",
		Short:         "Reference interpreter for neural network instruction streams",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRun: func(*cobra.Command, []string) {
			slog.SetDefault(logutil.NewLogger(os.Stderr, envconfig.LogLevel()))
		},
	}

	demoCmd := newDemoCmd()
	appendEnvDocs(demoCmd)

	rootCmd.AddCommand(
		demoCmd,
		newInspectCmd(),
		newKindsCmd(),
		newEnvCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "interp version %s\n", version)
		},
	}
}

func newKindsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "kinds",
		Short: "List instruction kinds and their operands",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			var data [][]string
			for _, k := range ir.Kinds() {
				backward := "accumulate"
				if k.OverwritesGradients() {
					backward = "overwrite"
				}
				data = append(data, []string{k.String(), k.Signature(), backward})
			}
			renderTable(cmd.OutOrStdout(), []string{"KIND", "OPERANDS", "BACKWARD"}, data)
		},
	}
}

func newEnvCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "Show configuration variables and their current values",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			vars := envconfig.AsMap()
			names := make([]string, 0, len(vars))
			for name := range vars {
				names = append(names, name)
			}
			sort.Strings(names)

			var data [][]string
			for _, name := range names {
				v := vars[name]
				data = append(data, []string{name, fmt.Sprintf("%v", v.Value), v.Description})
			}
			renderTable(cmd.OutOrStdout(), []string{"NAME", "VALUE", "DESCRIPTION"}, data)
		},
	}
}

func renderTable(w io.Writer, header []string, data [][]string) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.AppendBulk(data)
	table.Render()
}

// norm returns the L2 norm of data.
func norm[T float32 | int64](data []T) string {
	xs := make([]float64, len(data))
	for i, x := range data {
		xs[i] = float64(x)
	}
	return strconv.FormatFloat(floats.Norm(xs, 2), 'g', 6, 64)
}
