package logger

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func capture(t *testing.T, verbose bool) *bytes.Buffer {
	t.Helper()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(verbose)
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetVerbose(false)
	})
	return &buf
}

func TestQuietMode_WarnStillPrints(t *testing.T) {
	buf := capture(t, false)

	Debug("檢索 %d 筆", 3)
	Info("載入完成")
	Section("檢索")
	Warn("儲存歷史失敗: %v", "disk full")

	out := buf.String()
	assert.NotContains(t, out, "[DEBUG]")
	assert.NotContains(t, out, "[INFO]")
	assert.NotContains(t, out, "===")
	assert.Contains(t, out, "[WARN] 儲存歷史失敗: disk full\n")
}

func TestVerboseMode_AllLevelsPrint(t *testing.T) {
	buf := capture(t, true)

	Debug("檢索 %d 筆", 3)
	Info("載入完成")
	Section("檢索")
	Warn("儲存歷史失敗")

	out := buf.String()
	assert.Contains(t, out, "[DEBUG] 檢索 3 筆\n")
	assert.Contains(t, out, "[INFO] 載入完成\n")
	assert.Contains(t, out, "=== 檢索 ===")
	assert.Contains(t, out, "[WARN] 儲存歷史失敗\n")
}

func TestIsVerbose(t *testing.T) {
	capture(t, true)
	assert.True(t, IsVerbose())

	SetVerbose(false)
	assert.False(t, IsVerbose())
}
