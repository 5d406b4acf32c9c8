package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aluiziolira/go-scrape-products/slug"
)

func newSlugCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "slug <text...>",
		Short:       "Print the URL slug of a title",
		Args:        cobra.MinimumNArgs(1),
		Annotations: map[string]string{"skip-config": "true"},
		RunE: func(_ *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(a.stdout, slug.Make(strings.Join(args, " ")))
			return err
		},
	}
}
