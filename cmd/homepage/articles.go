package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harrisjose/homepage/internal/database"
	"github.com/harrisjose/homepage/internal/feed"
)

var articlesAll bool

var articlesCmd = &cobra.Command{
	Use:   "articles",
	Short: "List published articles, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		bundle, err := loadBundle()
		if err != nil {
			return err
		}

		articles := feed.Recent(bundle.Articles())
		if articlesAll {
			articles = feed.Select(bundle.Articles(), 0)
		}

		if len(articles) == 0 {
			fmt.Println("No published articles.")
			return nil
		}

		for _, a := range articles {
			fmt.Printf("%s  %s\n", database.FormatDisplayDate(a.Date), a.Title)
			fmt.Printf("    %s  (%s)", a.Path, a.ReadingTime)
			if len(a.Tags) > 0 {
				fmt.Printf("  [%s]", strings.Join(a.Tags, ", "))
			}
			fmt.Println()
		}
		return nil
	},
}

func init() {
	articlesCmd.Flags().BoolVarP(&articlesAll, "all", "a", false, "List every published article instead of the most recent")
}
