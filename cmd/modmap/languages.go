package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/modmap/modmap/internal/lang"
)

var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "List supported languages and their file extensions",
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range lang.Names() {
			l := lang.Languages[name]
			exts := append([]string(nil), l.Extensions...)
			sort.Strings(exts)
			fmt.Fprintf(cmd.OutOrStdout(), "%-12s %s\n", name, strings.Join(exts, " "))
		}
	},
}

func init() {
	rootCmd.AddCommand(languagesCmd)
}
