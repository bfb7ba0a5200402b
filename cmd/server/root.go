package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"uni-timetable/backend/config"
	applogger "uni-timetable/backend/pkg/logger"
)

// app 各子命令共享的配置与日志
type app struct {
	configPath string
	cfg        *config.Config
	logger     *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "timetable",
		Short:         "课表排课服务",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
		// 未指定子命令时启动 HTTP 服务
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context())
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "配置文件路径（默认查找 ./config/config.yaml）")

	root.AddCommand(
		newServeCmd(a),
		newMigrateCmd(a),
		newTokenCmd(a),
	)
	return root
}

// init 加载配置并初始化日志
func (a *app) init() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("加载配置失败: %w", err)
	}
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		return fmt.Errorf("初始化日志失败: %w", err)
	}
	a.cfg, a.logger = cfg, logger
	return nil
}
