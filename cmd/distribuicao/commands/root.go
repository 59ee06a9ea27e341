package commands

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the distribuicao command tree.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "distribuicao",
		Short: "Distribute cases among reviewers",
		Long: `Distribute the open cases of the office among the available reviewers,
honouring routing rules, whitelists and continuity with the previous run.

Examples:
  distribuicao run --numero 12 --processos processos.xlsx --disponibilidade disponibilidade.xlsx
  distribuicao run --numero 12 --processos p.csv --disponibilidade d.csv --anterior principal.xlsx --out saida/`,
		SilenceUsage: true,
	}
	cmd.AddCommand(NewRunCmd())
	cmd.AddCommand(NewVersionCmd())
	return cmd
}

func Execute() error {
	return NewRootCmd().Execute()
}
