package transfer

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testReport() *Report {
	return &Report{
		URL:            "https://www.dropbox.com/scl/fi/abc/18-AK.zip?rlkey=xyz&dl=1",
		Password:       "a1b2c3d4e5f6",
		ExpirationDate: "2024-07-15T00:00:00",
		Size:           52428800,
		Source:         "/home/user/projects/18-AK",
		DropboxPath:    "/Uploads/18-AK.zip",
	}
}

func TestReport_WriteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, testReport().Write(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var loaded Report
	require.NoError(t, json.Unmarshal(data, &loaded))
	assert.Equal(t, *testReport(), loaded)
}

func TestReport_FieldNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, testReport().Write(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))

	for _, key := range []string{"url", "password", "expiration_date", "size", "source", "dropbox_path"} {
		assert.Contains(t, raw, key)
	}
	assert.Len(t, raw, 6)
}

func TestReport_StringIsIndented(t *testing.T) {
	s := testReport().String()

	assert.Contains(t, s, "\n    \"url\"")
	assert.Contains(t, s, `"password": "a1b2c3d4e5f6"`)
}
