package cmd

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ByLCY/quire/impose"
)

// planSheet 是一张拼版页；页码从 1 开始，单页时省略 right。
type planSheet struct {
	Sheet int  `yaml:"sheet"`
	Left  int  `yaml:"left"`
	Right *int `yaml:"right,omitempty"`
}

type planOutput struct {
	Scheme string      `yaml:"scheme"`
	Pages  int         `yaml:"pages"`
	Sheets []planSheet `yaml:"sheets"`
}

func newPlanCmd() *cobra.Command {
	var scheme string

	cmd := &cobra.Command{
		Use:   "plan <pages>",
		Short: "Print the imposition order for a page count",
		Long: `Plan prints, as YAML, which pages share each sheet under an imposition scheme.

Reader spreads keep the covers on their own sheets and pair the interior in
reading order. Saddle-stitch pairs pages the way a folded signature needs them
and requires a multiple of 4 pages.`,
		Example: `  quire plan 8 --scheme saddle
  quire plan 6 --scheme reader`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("page count %q is not an integer", args[0])
			}
			s, err := impose.ParseScheme(scheme)
			if err != nil {
				return err
			}
			return writePlan(cmd.OutOrStdout(), s, n)
		},
	}

	cmd.Flags().StringVarP(&scheme, "scheme", "s", "saddle", "Imposition scheme: saddle or reader")

	return cmd
}

func buildPlan(scheme impose.Scheme, n int) (planOutput, error) {
	spreads, err := impose.Plan(n, scheme)
	if err != nil {
		return planOutput{}, err
	}
	out := planOutput{Scheme: scheme.String(), Pages: n, Sheets: make([]planSheet, 0, len(spreads))}
	for i, sp := range spreads {
		sheet := planSheet{Sheet: i + 1, Left: sp.Left + 1}
		if !sp.Solo() {
			right := sp.Right + 1
			sheet.Right = &right
		}
		out.Sheets = append(out.Sheets, sheet)
	}
	return out, nil
}

// writePlan 以 YAML 文档输出拼版顺序。
func writePlan(w io.Writer, scheme impose.Scheme, n int) error {
	plan, err := buildPlan(scheme, n)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(plan)
	if err != nil {
		return fmt.Errorf("failed to marshal plan: %w", err)
	}
	if _, err := io.WriteString(w, "---\n"); err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
