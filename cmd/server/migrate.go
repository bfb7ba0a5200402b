package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"uni-timetable/backend/pkg/database"
)

func newMigrateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "数据库迁移",
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "执行全部未应用的迁移",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := database.NewDB(cmd.Context(), &a.cfg.Database, a.cfg.Log.Level, a.logger)
			if err != nil {
				return fmt.Errorf("数据库连接失败: %w", err)
			}
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			defer sqlDB.Close()
			return database.RunMigrations(sqlDB, a.logger)
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "回滚迁移",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if steps <= 0 {
				return fmt.Errorf("--steps 必须为正数")
			}
			db, err := database.NewDB(cmd.Context(), &a.cfg.Database, a.cfg.Log.Level, a.logger)
			if err != nil {
				return fmt.Errorf("数据库连接失败: %w", err)
			}
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			defer sqlDB.Close()
			return database.RollbackMigrations(sqlDB, steps, a.logger)
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "回滚步数")

	cmd.AddCommand(up, down)
	return cmd
}
