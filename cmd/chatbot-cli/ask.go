package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func newAskCmd() *cobra.Command {
	var (
		sessionID string
		timeout   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask the chatbot a question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.Join(args, " ")
			ui := NewUI(outputJSON, noColor)
			defer ui.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			a, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if a.Chatbot == nil {
				return errors.New("llm.api_key is not configured")
			}

			s := ui.NewSpinner("답변을 생성하는 중...")
			s.Start()
			result, err := a.Chatbot.ProcessQuestion(ctx, question, sessionID)
			s.Stop()
			if err != nil {
				return fmt.Errorf("process question: %w", err)
			}

			if outputJSON {
				return ui.JSON(result)
			}

			ui.Section("답변")
			fmt.Println(result.Answer)
			if len(result.RelatedContent) > 0 {
				ui.Section("관련 콘텐츠")
				for _, rc := range result.RelatedContent {
					ui.KeyValue(rc.Title, rc.URL)
				}
			}
			fmt.Println()
			ui.Info("유형: %s, 응답 시간: %s, 로그: %s",
				result.Category, FormatDuration(time.Duration(result.ElapsedMs)*time.Millisecond), result.LogID)
			return nil
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "session id to attach the conversation to")
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall timeout")
	return cmd
}
