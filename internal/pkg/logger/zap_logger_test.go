package logger

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZapLoggerWritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	l := NewZapLogger(path, true)

	l.Info("MULTISITE", "Default site created", map[string]interface{}{"site_id": 1000000})
	l.Debug("MULTISITE", "not written to file", nil)
	_ = l.Sync()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []map[string]interface{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		lines = append(lines, entry)
	}

	require.Len(t, lines, 1)
	assert.Equal(t, "INFO", lines[0]["level"])
	assert.Equal(t, "Default site created", lines[0]["message"])
	assert.Equal(t, "MULTISITE", lines[0]["module"])
}

func TestNopLogger(t *testing.T) {
	var l ILogger = NewNopLogger()
	l.Error("MULTISITE", "ignored", map[string]interface{}{"error": "boom"})
	assert.NoError(t, l.Sync())
}
