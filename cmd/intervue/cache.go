package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/intervue-ai/intervue/pkg/models"
)

func newCacheCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Exercise the response cache",
	}

	var threshold float64
	simulateCmd := &cobra.Command{
		Use:   "simulate FILE",
		Short: "Replay job postings through a fresh cache and report hit rates",
		Long: `Each non-empty line of FILE is "role|description|difficulty". Lines that
miss the cache are treated as generated and saved, as the server would.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("threshold") {
				cfg.Cache.SimilarityThreshold = threshold
			}

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open postings: %w", err)
			}
			defer f.Close()

			c := newCache(cfg.Cache)
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "#\tROLE\tDIFFICULTY\tSEEN\tSTRATEGY")

			n := 0
			sc := bufio.NewScanner(f)
			for sc.Scan() {
				line := strings.TrimSpace(sc.Text())
				if line == "" || strings.HasPrefix(line, "#") {
					continue
				}
				role, desc, diff := parsePosting(line)
				n++

				seen := "no"
				if c.Contains(role, desc) {
					seen = "yes"
				}
				_, strategy := c.SmartResponse(role, desc, diff)
				if !strategy.Hit() {
					qs := []models.Question{{Question: "Tell us about your experience as a " + role + ".", Difficulty: diff}}
					if _, err := c.SaveQuestions(qs, role, desc, diff); err != nil {
						return err
					}
					c.RecordAPICall()
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", n, role, diff, seen, strategy)
			}
			if err := sc.Err(); err != nil {
				return fmt.Errorf("read postings: %w", err)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			fmt.Println()
			fmt.Println(c.Status())
			return nil
		},
	}
	simulateCmd.Flags().Float64Var(&threshold, "threshold", 0, "similarity threshold (default from config)")

	var addr string
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear the cache of a running server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				cfg, err := loadConfig(cmd, configPath)
				if err != nil {
					return err
				}
				addr = serverURL(cfg.Listen)
			}

			req, err := http.NewRequestWithContext(cmd.Context(), http.MethodDelete, strings.TrimRight(addr, "/")+"/cache", nil)
			if err != nil {
				return err
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}
			defer resp.Body.Close()

			var body struct {
				Detail    string `json:"detail"`
				Questions int    `json:"questions_cleared"`
				Analyses  int    `json:"analyses_cleared"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				return fmt.Errorf("decode response: %w", err)
			}
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("clear cache: %s: %s", resp.Status, body.Detail)
			}
			fmt.Printf("Cleared %d question sets and %d analyses.\n", body.Questions, body.Analyses)
			return nil
		},
	}
	clearCmd.Flags().StringVar(&addr, "addr", "", "server URL (default derived from listen)")

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "intervue.yaml", "path to config file")
	cmd.AddCommand(simulateCmd, clearCmd)
	return cmd
}

// serverURL turns a listen address into a URL a local client can reach.
func serverURL(listen string) string {
	if strings.HasPrefix(listen, ":") {
		return "http://localhost" + listen
	}
	return "http://" + listen
}

// parsePosting splits "role|description|difficulty". Missing fields are empty,
// except difficulty which defaults to Medium.
func parsePosting(line string) (role, desc, diff string) {
	parts := strings.SplitN(line, "|", 3)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	role = parts[0]
	if len(parts) > 1 {
		desc = parts[1]
	}
	diff = "Medium"
	if len(parts) > 2 && parts[2] != "" {
		diff = parts[2]
	}
	return role, desc, diff
}
