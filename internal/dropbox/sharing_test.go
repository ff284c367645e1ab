package dropbox

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateSharedLink_Settings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/2/sharing/create_shared_link_with_settings", r.URL.Path)

		var arg createSharedLinkArg
		require.NoError(t, json.NewDecoder(r.Body).Decode(&arg))

		assert.Equal(t, "/Uploads/18-AK.zip", arg.Path)
		assert.True(t, arg.Settings.RequirePassword)
		assert.Equal(t, "s3cret", arg.Settings.LinkPassword)
		assert.True(t, arg.Settings.AllowDownload)
		assert.Equal(t, "public", arg.Settings.Audience)
		assert.Equal(t, "2024-07-15T00:00:00Z", arg.Settings.Expires)

		fmt.Fprint(w, `{"url": "https://www.dropbox.com/scl/fi/abc/18-AK.zip?rlkey=xyz&dl=0"}`)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	url, err := client.CreateSharedLink(context.Background(), "/Uploads/18-AK.zip", SharedLinkSettings{
		RequirePassword: true,
		LinkPassword:    "s3cret",
		AllowDownload:   true,
		Expires:         time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, "https://www.dropbox.com/scl/fi/abc/18-AK.zip?rlkey=xyz&dl=0", url)
}

func TestCreateSharedLink_NoExpiration(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var raw map[string]json.RawMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))

		var settings map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(raw["settings"], &settings))

		// Absence means the link never expires — the field must be omitted,
		// not sent as an empty string.
		assert.NotContains(t, settings, "expires")

		fmt.Fprint(w, `{"url": "https://www.dropbox.com/s/x?dl=0"}`)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	_, err := client.CreateSharedLink(context.Background(), "/f", SharedLinkSettings{
		RequirePassword: true,
		LinkPassword:    "p",
		AllowDownload:   true,
	})
	require.NoError(t, err)
}

func TestForceDownloadURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			"dl=0 rewritten",
			"https://www.dropbox.com/scl/fi/0l2yq2/18-AK.zip?rlkey=97yz7amq&dl=0",
			"https://www.dropbox.com/scl/fi/0l2yq2/18-AK.zip?rlkey=97yz7amq&dl=1",
		},
		{
			"already dl=1 unchanged",
			"https://www.dropbox.com/scl/fi/0l2yq2/18-AK.zip?rlkey=97yz7amq&dl=1",
			"https://www.dropbox.com/scl/fi/0l2yq2/18-AK.zip?rlkey=97yz7amq&dl=1",
		},
		{
			"no dl parameter unchanged",
			"https://www.dropbox.com/scl/fi/0l2yq2/18-AK.zip?rlkey=97yz7amq",
			"https://www.dropbox.com/scl/fi/0l2yq2/18-AK.zip?rlkey=97yz7amq",
		},
		{
			"no query at all unchanged",
			"https://www.dropbox.com/scl/fi/0l2yq2/18-AK.zip",
			"https://www.dropbox.com/scl/fi/0l2yq2/18-AK.zip",
		},
		{
			"dl first, order preserved",
			"https://www.dropbox.com/s/x/f.zip?dl=0&rlkey=abc",
			"https://www.dropbox.com/s/x/f.zip?dl=1&rlkey=abc",
		},
		{
			"other dl-like values untouched",
			"https://www.dropbox.com/s/x/f.zip?rlkey=dl%3D0&dl=0",
			"https://www.dropbox.com/s/x/f.zip?rlkey=dl%3D0&dl=1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ForceDownloadURL(tt.in))
		})
	}
}

func TestForceDownloadURL_Idempotent(t *testing.T) {
	in := "https://www.dropbox.com/scl/fi/a/b.zip?rlkey=abc&dl=0"

	once := ForceDownloadURL(in)
	twice := ForceDownloadURL(once)

	assert.Equal(t, once, twice)
}
