package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/intervue-ai/intervue/pkg/similarity"
)

func newScoreCmd() *cobra.Command {
	var roleA, descA, roleB, descB string

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score the similarity of two job postings",
		Example: `  intervue score --role-a "Senior Backend Developer" --desc-a "Go, PostgreSQL" \
    --role-b "Backend Engineer" --desc-b "Python, Django REST"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := similarity.New()
			fa := s.Extract(roleA, descA)
			fb := s.Extract(roleB, descB)
			bd := s.Compare(roleA, descA, roleB, descB)

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "\tA\tB")
			fmt.Fprintf(w, "ROLE TYPES\t%s\t%s\n", list(fa.RoleTypes), list(fb.RoleTypes))
			fmt.Fprintf(w, "LEVEL\t%s\t%s\n", fa.Level, fb.Level)
			fmt.Fprintf(w, "DOMAINS\t%s\t%s\n", list(fa.Domains), list(fb.Domains))
			fmt.Fprintf(w, "KEYWORDS\t%s\t%s\n", list(fa.Keywords), list(fb.Keywords))
			if err := w.Flush(); err != nil {
				return err
			}

			fmt.Printf("\nRole:   %6.2f\nLevel:  %6.2f\nDomain: %6.2f\nTotal:  %6.2f  (%s)\n",
				bd.Role, bd.Level, bd.Domain, bd.Total, similarity.Reason(bd.Total))
			return nil
		},
	}

	cmd.Flags().StringVar(&roleA, "role-a", "", "first job role")
	cmd.Flags().StringVar(&descA, "desc-a", "", "first job description")
	cmd.Flags().StringVar(&roleB, "role-b", "", "second job role")
	cmd.Flags().StringVar(&descB, "desc-b", "", "second job description")
	_ = cmd.MarkFlagRequired("role-a")
	_ = cmd.MarkFlagRequired("role-b")
	return cmd
}

func list(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ",")
}
