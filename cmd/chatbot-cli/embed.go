package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"

	"github.com/toktokhan/chatbot-engine/internal/storage"
)

func newEmbedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "embed",
		Short: "Rebuild embeddings for every active record",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ui := NewUI(outputJSON, noColor)

			a, err := bootstrap(ctx)
			if err != nil {
				ui.Close()
				return err
			}
			defer a.Close()

			ui.Step("임베딩 모델: %s", a.Store.EmbeddingModel())

			var bar *mpb.Bar
			report, err := a.Indexer.EmbedAll(ctx, func(done, total int, key string) {
				if bar == nil {
					bar = ui.ProgressBar("embedding", int64(total))
				}
				if bar != nil {
					bar.SetCurrent(int64(done))
				}
			})
			if bar != nil && err != nil {
				bar.Abort(false)
			}
			ui.Close()
			if err != nil {
				return fmt.Errorf("embed: %w", err)
			}

			if outputJSON {
				return ui.JSON(report)
			}
			ui.Success("임베딩 %d건 생성 (%s)", report.Total(), FormatDuration(report.Duration))
			ui.KeyValue("회사 정보", report.CompanyContents)
			ui.KeyValue("프로젝트", report.Projects)
			ui.KeyValue("블로그", report.BlogPosts)
			return nil
		},
	}
}

func newEmbedOneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "embed-one <company|project|blog> <id>",
		Short: "Refresh the embedding of a single record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ui := NewUI(outputJSON, noColor)
			defer ui.Close()

			id, err := uuid.Parse(args[1])
			if err != nil {
				return fmt.Errorf("invalid id %q: %w", args[1], err)
			}

			a, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			contentType := resolveContentType(args[0])
			if err := a.Indexer.UpdateSingle(ctx, id, contentType); err != nil {
				return err
			}
			ui.Success("%s %s 임베딩 갱신 완료", contentType, id)
			return nil
		},
	}
}

// contentTypeAliases maps the short command-line names to stored content types.
var contentTypeAliases = map[string]storage.ContentType{
	"company": storage.ContentTypeCompany,
	"project": storage.ContentTypeProject,
	"blog":    storage.ContentTypeBlog,
}

// resolveContentType accepts a short alias or a full content type.
func resolveContentType(name string) string {
	if ct, ok := contentTypeAliases[name]; ok {
		return string(ct)
	}
	return name
}
