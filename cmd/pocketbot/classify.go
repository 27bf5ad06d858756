package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"pocketbot/internal/catalog"
	"pocketbot/internal/classifier"
	"pocketbot/internal/config"
)

func classifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify <text>",
		Short: "Show how a message would be classified",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			cat, err := catalog.LoadFile(cfg.ClassifierConfigFile)
			if err != nil {
				return err
			}
			tr := classifier.New(cat).Explain(strings.Join(args, " "))

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "input:    %s\n", tr.Input)
			fmt.Fprintf(out, "type:     %s\n", tr.Result.Type)
			fmt.Fprintf(out, "category: %s (%s)\n", tr.Result.CategoryName, tr.Result.CategoryID)
			if tr.ForcedType != "" {
				fmt.Fprintf(out, "forced:   %s by %s %q\n", tr.ForcedType, tr.ForcedBy, tr.ForcedTerm)
			}
			if tr.Term != "" {
				fmt.Fprintf(out, "rule:     %s %q\n", tr.Rule, tr.Term)
			} else {
				fmt.Fprintf(out, "rule:     %s\n", tr.Rule)
			}
			return nil
		},
	}
}
