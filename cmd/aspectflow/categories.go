package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/crimson-sun/aspectflow/internal/config"
)

func newCategoriesCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List the active dictionary's categories and keywords",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dict, err := buildDictionary(cfg)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "# %d categories, %s mode\n", dict.Len(), dict.Mode())
			for _, c := range dict.Categories() {
				fmt.Fprintf(w, "%s: %s\n", c.Name, strings.Join(c.Keywords, ", "))
			}
			return nil
		},
	}
}
