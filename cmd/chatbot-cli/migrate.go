package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/toktokhan/chatbot-engine/internal/app"
	"github.com/toktokhan/chatbot-engine/internal/storage"
)

func newMigrateCmd() *cobra.Command {
	var down bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ui := NewUI(outputJSON, noColor)
			defer ui.Close()

			dbCfg := *cfg
			dbCfg.Database.AutoMigrate = false
			db, err := app.OpenDatabase(cmd.Context(), &dbCfg, logger)
			if err != nil {
				return err
			}
			defer db.Close()

			driver := cfg.Database.Driver
			if down {
				if err := storage.MigrateDown(db, driver); err != nil {
					return err
				}
				ui.Success("%s 마이그레이션 롤백 완료", driver)
				return nil
			}

			version, err := storage.Migrate(db, driver)
			if err != nil {
				return err
			}
			ui.Success("%s 스키마 버전 %d", driver, version)
			return nil
		},
	}

	cmd.Flags().BoolVar(&down, "down", false, "roll back every migration")
	return cmd
}

var version = "dev"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("chatbot-cli %s (%s %s/%s)\n", version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
}
