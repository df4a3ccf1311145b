package service

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jimyag/jrds/internal/jrds/repository"
)

// setupTestDB 创建测试用的临时数据库
func setupTestDB(t *testing.T) *repository.Repository {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	repo, err := repository.New(dbPath)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = repo.Close()
	})
	return repo
}
