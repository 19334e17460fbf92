package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/toktokhan/chatbot-engine/internal/ingest"
)

func newSeedCmd() *cobra.Command {
	var (
		file       string
		clearFirst bool
		embed      bool
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load categories, company contents, projects and blog posts from a YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ui := NewUI(outputJSON, noColor)
			defer ui.Close()

			data, err := ingest.LoadSeedFile(file)
			if err != nil {
				return err
			}

			a, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if clearFirst {
				ui.Warning("기존 지식 데이터를 삭제합니다")
				purged, err := a.Indexer.Purge(ctx)
				if err != nil {
					return fmt.Errorf("purge vectors: %w", err)
				}
				if purged > 0 {
					ui.Info("벡터 %d건 삭제", purged)
				}
			}

			bar := ui.NewCountBar("seeding")
			report, err := a.Seeder.Seed(ctx, data, clearFirst, func(done, total int, key string) {
				bar.ChangeMax(total)
				_ = bar.Set(done)
			})
			_ = bar.Finish()
			if err != nil {
				return fmt.Errorf("seed: %w", err)
			}

			var embedded *ingest.EmbedReport
			if embed {
				embedded, err = a.Indexer.EmbedAll(ctx, nil)
				if err != nil {
					return fmt.Errorf("embed: %w", err)
				}
			}

			if outputJSON {
				return ui.JSON(map[string]interface{}{"seed": report, "embed": embedded})
			}

			ui.Success("시드 데이터 로드 완료")
			ui.KeyValue("카테고리", report.Categories)
			ui.KeyValue("회사 정보", report.CompanyContents)
			ui.KeyValue("프로젝트", report.Projects)
			ui.KeyValue("블로그", report.BlogPosts)
			if embedded != nil {
				ui.Success("임베딩 %d건 생성 (%s)", embedded.Total(), FormatDuration(embedded.Duration))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "configs/seed.sample.yaml", "seed YAML file")
	cmd.Flags().BoolVar(&clearFirst, "clear", false, "delete existing knowledge before loading")
	cmd.Flags().BoolVar(&embed, "embed", false, "rebuild embeddings after loading")
	return cmd
}
