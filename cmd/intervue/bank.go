package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/intervue-ai/intervue/pkg/config"
	"github.com/intervue-ai/intervue/pkg/rapidfire"
)

func newBankCmd() *cobra.Command {
	var configPath, bankPath string

	cmd := &cobra.Command{
		Use:   "bank",
		Short: "Inspect the offline rapid fire question bank",
	}

	load := func(cmd *cobra.Command) (*config.Config, *rapidfire.Bank, error) {
		cfg, err := loadConfig(cmd, configPath)
		if err != nil {
			return nil, nil, err
		}
		path := bankPath
		if path == "" {
			path = cfg.RapidFire.QuestionBank
		}
		b, err := rapidfire.Load(path)
		return cfg, b, err
	}

	rolesCmd := &cobra.Command{
		Use:   "roles",
		Short: "List roles in the question bank",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, b, err := load(cmd)
			if err != nil {
				return err
			}
			roles := b.Roles()
			if len(roles) == 0 {
				fmt.Println("Question bank is empty.")
				return nil
			}
			for _, r := range roles {
				fmt.Println(r)
			}
			return nil
		},
	}

	var count int
	sampleCmd := &cobra.Command{
		Use:   "sample ROLE",
		Short: "Draw a rapid fire round for a role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, b, err := load(cmd)
			if err != nil {
				return err
			}
			if count <= 0 {
				count = cfg.RapidFire.NumQuestions
			}

			role := args[0]
			fmt.Printf("Role: %s (bank key %q)\n\n", role, b.Match(role))
			qs := b.Select(role, count, cfg.RapidFire.TimePerQuestion)
			if len(qs) == 0 {
				fmt.Println("No questions available.")
				return nil
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "#\tDIFFICULTY\tTIME\tQUESTION")
			for _, q := range qs {
				fmt.Fprintf(w, "%d\t%s\t%ds\t%s\n", q.Number, q.Difficulty, q.TimeLimit, q.Question)
			}
			return w.Flush()
		},
	}
	sampleCmd.Flags().IntVarP(&count, "num", "n", 0, "number of questions (default from config)")

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "intervue.yaml", "path to config file")
	cmd.PersistentFlags().StringVar(&bankPath, "bank", "", "question bank file (overrides config)")
	cmd.AddCommand(rolesCmd, sampleCmd)
	return cmd
}
