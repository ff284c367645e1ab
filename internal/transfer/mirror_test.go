package transfer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jkoski/dropship-go/internal/dropbox"
)

// fakeToken satisfies dropbox.TokenSource with a fixed bearer token.
type fakeToken string

func (f fakeToken) Token() (string, error) { return string(f), nil }

func newFakeClient(t *testing.T, baseURL string) *dropbox.Client {
	t.Helper()
	return dropbox.NewClient(baseURL, baseURL, http.DefaultClient, fakeToken("test-token"), discardLogger())
}

func fileEntry(name, pathLower string, size int) string {
	return fmt.Sprintf(`{".tag": "file", "id": "id:%s", "name": %q, "path_lower": %q, "path_display": %q, "size": %d}`,
		name, name, pathLower, pathLower, size)
}

func folderEntry(name, pathLower string) string {
	return fmt.Sprintf(`{".tag": "folder", "id": "id:%s", "name": %q, "path_lower": %q, "path_display": %q}`,
		name, name, pathLower, pathLower)
}

func TestMirror_NestedTree(t *testing.T) {
	listings := map[string]string{
		"/shared": fmt.Sprintf(`{"entries": [%s, %s], "cursor": "c1", "has_more": false}`,
			fileEntry("readme.txt", "/shared/readme.txt", 11),
			folderEntry("nested", "/shared/nested")),
		"/shared/nested": fmt.Sprintf(`{"entries": [%s], "cursor": "c2", "has_more": false}`,
			fileEntry("deep.bin", "/shared/nested/deep.bin", 9)),
	}
	contents := map[string]string{
		"/shared/readme.txt":      "top content",
		"/shared/nested/deep.bin": "deep data",
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/2/files/list_folder":
			var arg struct {
				Path string `json:"path"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&arg))

			body, ok := listings[arg.Path]
			require.True(t, ok, "unexpected listing for %s", arg.Path)
			fmt.Fprint(w, body)
		case "/2/files/download":
			var arg struct {
				Path string `json:"path"`
			}
			require.NoError(t, json.Unmarshal([]byte(r.Header.Get("Dropbox-API-Arg")), &arg))

			content, ok := contents[arg.Path]
			require.True(t, ok, "unexpected download for %s", arg.Path)
			fmt.Fprint(w, content)
		default:
			t.Errorf("unexpected endpoint %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	localDir := filepath.Join(t.TempDir(), "mirror")

	files, folders, err := Mirror(context.Background(), newFakeClient(t, srv.URL), "/shared", localDir, discardLogger())
	require.NoError(t, err)
	assert.Equal(t, 2, files)
	assert.Equal(t, 1, folders)

	top, err := os.ReadFile(filepath.Join(localDir, "readme.txt"))
	require.NoError(t, err)
	assert.Equal(t, "top content", string(top))

	deep, err := os.ReadFile(filepath.Join(localDir, "nested", "deep.bin"))
	require.NoError(t, err)
	assert.Equal(t, "deep data", string(deep))
}

func TestMirror_MissingRemoteFolder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
		fmt.Fprint(w, `{"error_summary": "path/not_found/.."}`)
	}))
	defer srv.Close()

	_, _, err := Mirror(context.Background(), newFakeClient(t, srv.URL), "/missing", t.TempDir(), discardLogger())
	require.Error(t, err)
	assert.ErrorIs(t, err, dropbox.ErrNotFound)
}

func TestMirror_EmptyFolder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"entries": [], "cursor": "c", "has_more": false}`)
	}))
	defer srv.Close()

	localDir := filepath.Join(t.TempDir(), "empty")

	files, folders, err := Mirror(context.Background(), newFakeClient(t, srv.URL), "/empty", localDir, discardLogger())
	require.NoError(t, err)
	assert.Zero(t, files)
	assert.Zero(t, folders)

	// The local root is still created.
	info, err := os.Stat(localDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
