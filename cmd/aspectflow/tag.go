package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/crimson-sun/aspectflow/internal/config"
)

func newTagCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "tag TEXT...",
		Short: "Print the categories matched by each argument",
		Example: `  aspectflow tag "我從回憶裡得到靈感" "今天天氣很好"
  aspectflow tag --preset learning "老師給我很多建議"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dict, err := buildDictionary(cfg)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, text := range args {
				tags := dict.Tag(text)
				line := "-"
				if len(tags) > 0 {
					line = strings.Join(tags, ", ")
				}
				fmt.Fprintf(w, "%s\t%s\n", text, line)
			}
			return nil
		},
	}
}
