package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"uni-timetable/backend/pkg/jwt"
)

// newTokenCmd 签发访问令牌，用于运维调试与集成测试
func newTokenCmd(a *app) *cobra.Command {
	var userID, role string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "签发访问令牌",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if role != jwt.RoleAdmin && role != jwt.RoleProfessor {
				return fmt.Errorf("未知角色 %q，可选 %s / %s", role, jwt.RoleAdmin, jwt.RoleProfessor)
			}
			token, err := jwt.NewManager(&a.cfg.Auth).GenerateAccessToken(userID, role)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "用户 ID（教师令牌填教师 ID）")
	cmd.Flags().StringVar(&role, "role", jwt.RoleProfessor, "角色：admin 或 professor")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
