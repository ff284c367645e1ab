package dropbox

import (
	"fmt"
	"time"
)

// EntryKind tags the two folder-listing entry variants. The Dropbox API
// distinguishes them with a ".tag" discriminator; callers switch on Kind and
// must treat any other value as a decoding failure, never a silent skip.
type EntryKind int

const (
	EntryKindFile EntryKind = iota
	EntryKindFolder
)

// Entry is a normalized folder-listing entry (file or folder).
type Entry struct {
	Kind           EntryKind
	ID             string
	Name           string
	PathLower      string
	PathDisplay    string
	Size           int64     // files only
	ServerModified time.Time // files only
	ContentHash    string    // files only
}

// Account describes the authenticated user, including the namespace ID of
// the team root when the account belongs to a team.
type Account struct {
	AccountID       string
	DisplayName     string
	Email           string
	RootNamespaceID string
}

// Credentials is the outcome of an interactive login: everything the
// credential store persists. Only RefreshToken is required for reuse — the
// access token is re-derived on demand.
type Credentials struct {
	AccessToken  string
	RefreshToken string
	AccountID    string
	Scope        string
	Expiry       time.Time
}

// entryResponse mirrors the Dropbox API metadata JSON for listing entries.
// Unexported — callers use Entry via toEntry() normalization.
type entryResponse struct {
	Tag            string `json:".tag"` //nolint:tagliatelle // Dropbox discriminator key
	ID             string `json:"id"`
	Name           string `json:"name"`
	PathLower      string `json:"path_lower"`
	PathDisplay    string `json:"path_display"`
	Size           int64  `json:"size"`
	ServerModified string `json:"server_modified"`
	ContentHash    string `json:"content_hash"`
}

// toEntry normalizes an API entry. Unknown tags (e.g. "deleted", which
// list_folder does not emit without include_deleted) are an error so new
// variants cannot slip through the switch at the call site.
func (e *entryResponse) toEntry() (Entry, error) {
	entry := Entry{
		ID:          e.ID,
		Name:        e.Name,
		PathLower:   e.PathLower,
		PathDisplay: e.PathDisplay,
	}

	switch e.Tag {
	case "file":
		entry.Kind = EntryKindFile
		entry.Size = e.Size
		entry.ContentHash = e.ContentHash

		if e.ServerModified != "" {
			t, err := time.Parse(time.RFC3339, e.ServerModified)
			if err != nil {
				return Entry{}, fmt.Errorf("dropbox: invalid server_modified %q for %s: %w", e.ServerModified, e.PathDisplay, err)
			}

			entry.ServerModified = t
		}
	case "folder":
		entry.Kind = EntryKindFolder
	default:
		return Entry{}, fmt.Errorf("dropbox: unknown entry tag %q for %s", e.Tag, e.PathDisplay)
	}

	return entry, nil
}

// fileMetadataResponse mirrors the FileMetadata JSON returned by upload and
// upload_session/finish.
type fileMetadataResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	PathLower   string `json:"path_lower"`
	PathDisplay string `json:"path_display"`
	Size        int64  `json:"size"`
	ContentHash string `json:"content_hash"`
}
