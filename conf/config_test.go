package conf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCfgDefaults(t *testing.T) {
	// 指向一个没有my.ini的目录，应当得到默认配置
	cfg, err := NewCfg().Load(&CommandLineArgs{})
	require.NoError(t, err)

	assert.Equal(t, "data", cfg.DataDir)
	assert.Equal(t, int64(4194304), cfg.PageCacheSize)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestCfgLoadIni(t *testing.T) {
	dir := t.TempDir()
	ini := `
[xbase]
data_dir        = /tmp/xbase-data
page_cache_size = 1048576

[logs]
log_level = debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "my.ini"), []byte(ini), 0644))

	cfg, err := NewCfg().Load(&CommandLineArgs{ConfigPath: dir})
	require.NoError(t, err)

	assert.Equal(t, "/tmp/xbase-data", cfg.DataDir)
	assert.Equal(t, int64(1048576), cfg.PageCacheSize)
	assert.Equal(t, "debug", cfg.LogLevel)
	// 未覆盖的项保持默认
	assert.Equal(t, "logs/error.log", cfg.LogError)
}

func TestCfgMissingExplicitConfig(t *testing.T) {
	_, err := NewCfg().Load(&CommandLineArgs{ConfigPath: filepath.Join(t.TempDir(), "nope.ini")})
	assert.Error(t, err)
}
