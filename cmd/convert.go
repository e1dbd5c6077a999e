package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ByLCY/quire/layout"
)

func newConvertCmd() *cobra.Command {
	var precision int

	cmd := &cobra.Command{
		Use:   "convert <value> <from> <to>",
		Short: "Convert a length between mm, cm, in, pt and px",
		Example: `  quire convert 0.125 in mm
  quire convert 12 pt mm --precision 2`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("value %q is not a number", args[0])
			}
			from, err := layout.ParseUnit(args[1])
			if err != nil {
				return err
			}
			to, err := layout.ParseUnit(args[2])
			if err != nil {
				return err
			}
			out, err := layout.Convert(v, from, to)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", strconv.FormatFloat(out, 'f', precision, 64), to)
			return nil
		},
	}

	cmd.Flags().IntVarP(&precision, "precision", "p", 4, "Digits after the decimal point")

	return cmd
}
