package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uni-timetable/backend/config"
	"uni-timetable/backend/pkg/jwt"
)

const testSecret = "cmd-test-secret-0123456"

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "auth:\n  jwt_secret: \"" + testSecret + "\"\nlog:\n  level: error\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestTokenCmd(t *testing.T) {
	path := writeConfig(t)

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"--config", path, "token", "--user", "admin-1", "--role", "admin"})
	require.NoError(t, root.Execute())

	mgr := jwt.NewManager(&config.AuthConfig{JWTSecret: testSecret})
	claims, err := mgr.ParseToken(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, "admin-1", claims.UserID)
	assert.Equal(t, jwt.RoleAdmin, claims.Role)
}

func TestTokenCmd_UnknownRole(t *testing.T) {
	path := writeConfig(t)

	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"--config", path, "token", "--user", "u1", "--role", "leader"})
	assert.Error(t, root.Execute())
}

func TestMigrateDown_RejectsNonPositiveSteps(t *testing.T) {
	path := writeConfig(t)

	root := newRootCmd()
	root.SetArgs([]string{"--config", path, "migrate", "down", "--steps", "0"})
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--steps")
}
