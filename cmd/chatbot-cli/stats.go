package main

import (
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/toktokhan/chatbot-engine/internal/intent"
)

func newStatsCmd() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show question-type statistics for recent conversations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ui := NewUI(outputJSON, noColor)
			defer ui.Close()

			a, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if days <= 0 {
				days = cfg.Chatbot.StatsDays
			}
			stats, err := a.Stats.QuestionTypeStats(ctx, days)
			if err != nil {
				return err
			}
			if outputJSON {
				return ui.JSON(stats)
			}

			categories := make([]intent.Category, 0, len(stats.Counts))
			for c := range stats.Counts {
				categories = append(categories, c)
			}
			sort.Slice(categories, func(i, j int) bool {
				return stats.Counts[categories[i]] > stats.Counts[categories[j]] ||
					(stats.Counts[categories[i]] == stats.Counts[categories[j]] && categories[i] < categories[j])
			})

			rows := make([][]string, 0, len(categories))
			for _, c := range categories {
				rows = append(rows, []string{string(c), strconv.Itoa(stats.Counts[c])})
			}
			ui.Section("최근 " + strconv.Itoa(stats.Days) + "일 질문 유형")
			ui.Table([]string{"유형", "건수"}, rows)
			ui.KeyValue("전체", stats.Total)
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 0, "window in days (default: chatbot.stats_days)")
	return cmd
}
