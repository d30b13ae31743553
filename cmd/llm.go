package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/latihan/internal/llm"
	"github.com/abhisek/latihan/internal/question"
	"github.com/abhisek/latihan/internal/store"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect the LLM call log",
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent LLM calls",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		purpose, _ := cmd.Flags().GetString("purpose")
		since, _ := cmd.Flags().GetDuration("since")
		token, _ := cmd.Flags().GetString("token")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		opts := store.QueryOpts{Limit: limit, Purpose: purpose}
		if token != "" {
			opts.Token = question.NormalizeToken(token)
		}
		if since > 0 {
			opts.From = time.Now().Add(-since)
		}
		calls, err := s.LLMCalls().List(cmd.Context(), opts)
		if err != nil {
			return fmt.Errorf("query calls: %w", err)
		}

		if len(calls) == 0 {
			fmt.Println("No LLM calls found.")
			return nil
		}

		fmt.Printf("%-5s  %-19s  %-12s  %-10s  %-28s  %-6s  %-6s  %-7s  %s\n",
			"ID", "Timestamp", "Purpose", "Token", "Model", "In", "Out", "Ms", "OK")
		fmt.Println(strings.Repeat("─", 112))

		for _, c := range calls {
			ok := "✓"
			if !c.Success {
				ok = "✗"
			}
			fmt.Printf("%-5d  %-19s  %-12s  %-10s  %-28s  %-6d  %-6d  %-7d  %s\n",
				c.ID,
				c.Timestamp.Local().Format("2006-01-02 15:04:05"),
				truncate(c.Purpose, 12),
				truncate(c.QuizToken, 10),
				truncate(c.Model, 28),
				c.InputTokens,
				c.OutputTokens,
				c.LatencyMs,
				ok,
			)
		}
		return nil
	},
}

var llmViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "View the full request/response of an LLM call",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid ID %q: %w", args[0], err)
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		c, err := s.LLMCalls().Get(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("get call: %w", err)
		}
		if c == nil {
			return fmt.Errorf("call %d not found", id)
		}

		sep := strings.Repeat("─", 60)

		fmt.Printf("ID:        %d\n", c.ID)
		fmt.Printf("Time:      %s\n", c.Timestamp.Local().Format("2006-01-02 15:04:05"))
		fmt.Printf("Provider:  %s\n", c.Provider)
		fmt.Printf("Model:     %s\n", c.Model)
		fmt.Printf("Purpose:   %s\n", c.Purpose)
		if c.QuizToken != "" {
			fmt.Printf("Token:     %s\n", c.QuizToken)
		}
		fmt.Printf("Tokens:    %d in / %d out\n", c.InputTokens, c.OutputTokens)
		fmt.Printf("Latency:   %dms\n", c.LatencyMs)
		fmt.Printf("Success:   %v\n", c.Success)
		if c.ErrorMessage != "" {
			fmt.Printf("Error:     %s\n", c.ErrorMessage)
		}

		for _, part := range []struct{ title, body string }{
			{"REQUEST", c.RequestBody},
			{"RESPONSE", c.ResponseBody},
		} {
			fmt.Println()
			fmt.Println(sep)
			fmt.Println(part.title)
			fmt.Println(sep)
			if part.body != "" {
				fmt.Println(part.body)
			} else {
				fmt.Println("(not captured)")
			}
		}
		return nil
	},
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregated LLM token usage and estimated cost",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		stats, err := s.LLMCalls().UsageByPurpose(ctx)
		if err != nil {
			return fmt.Errorf("query usage: %w", err)
		}

		if len(stats) == 0 {
			fmt.Println("No LLM usage recorded yet.")
			return nil
		}

		fmt.Println("Usage by Purpose")
		fmt.Println(strings.Repeat("─", 80))
		fmt.Printf("%-14s  %6s  %6s  %10s  %10s  %10s  %8s\n",
			"Purpose", "Calls", "Failed", "Input", "Output", "Total", "Avg Ms")
		fmt.Println(strings.Repeat("─", 80))

		var totalCalls, totalFailed, totalIn, totalOut int
		for _, st := range stats {
			total := st.InputTokens + st.OutputTokens
			fmt.Printf("%-14s  %6d  %6d  %10d  %10d  %10d  %8d\n",
				truncate(st.Key, 14), st.Calls, st.Failures, st.InputTokens, st.OutputTokens, total, st.AvgLatencyMs)
			totalCalls += st.Calls
			totalFailed += st.Failures
			totalIn += st.InputTokens
			totalOut += st.OutputTokens
		}

		fmt.Println(strings.Repeat("─", 80))
		fmt.Printf("%-14s  %6d  %6d  %10d  %10d  %10d\n",
			"TOTAL", totalCalls, totalFailed, totalIn, totalOut, totalIn+totalOut)

		modelUsage, err := s.LLMCalls().UsageByModel(ctx)
		if err != nil {
			return fmt.Errorf("query model usage: %w", err)
		}
		if len(modelUsage) == 0 {
			return nil
		}

		fmt.Println()
		fmt.Println("Estimated Cost (USD)")
		fmt.Println(strings.Repeat("─", 80))
		fmt.Printf("%-32s  %6s  %10s  %10s  %10s\n",
			"Model", "Calls", "Input", "Output", "Cost")
		fmt.Println(strings.Repeat("─", 80))

		var totalCost float64
		var unknownModels []string
		for _, mu := range modelUsage {
			cost := llm.LookupCost(mu.Key)
			if cost == nil {
				unknownModels = append(unknownModels, mu.Key)
				fmt.Printf("%-32s  %6d  %10d  %10d  %10s\n",
					truncate(mu.Key, 32), mu.Calls, mu.InputTokens, mu.OutputTokens, "?")
				continue
			}
			c := cost.Cost(mu.InputTokens, mu.OutputTokens)
			totalCost += c
			fmt.Printf("%-32s  %6d  %10d  %10d  %10s\n",
				truncate(mu.Key, 32), mu.Calls, mu.InputTokens, mu.OutputTokens, formatCost(c))
		}

		fmt.Println(strings.Repeat("─", 80))
		label := "TOTAL"
		if len(unknownModels) > 0 {
			label = "TOTAL (partial)"
		}
		fmt.Printf("%-32s  %6s  %10s  %10s  %10s\n",
			label, "", "", "", formatCost(totalCost))

		if len(unknownModels) > 0 {
			fmt.Printf("\nPricing unavailable for: %s\n", strings.Join(unknownModels, ", "))
		}
		return nil
	},
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}

func init() {
	llmListCmd.Flags().IntP("limit", "n", 20, "Number of calls to show")
	llmListCmd.Flags().StringP("purpose", "p", "", "Filter by purpose (generate, repair, feedback, material, explanation)")
	llmListCmd.Flags().StringP("token", "t", "", "Filter by quiz token")
	llmListCmd.Flags().Duration("since", 0, "Only calls newer than this (e.g. 24h)")

	llmCmd.AddCommand(llmListCmd)
	llmCmd.AddCommand(llmViewCmd)
	llmCmd.AddCommand(llmStatsCmd)
}
