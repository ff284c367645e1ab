package transfer

import (
	"encoding/json"
	"fmt"
	"os"
)

// Report is the JSON record produced by a zip-mode upload, consumed
// downstream to craft the notification email for interested parties.
type Report struct {
	URL            string `json:"url"`
	Password       string `json:"password"`
	ExpirationDate string `json:"expiration_date"` // ISO-8601, second precision
	Size           int64  `json:"size"`            // bytes of the uploaded zip
	Source         string `json:"source"`          // absolute local source path
	DropboxPath    string `json:"dropbox_path"`
}

// String renders the report as indented JSON for logging.
func (r *Report) String() string {
	data, err := json.MarshalIndent(r, "", "    ")
	if err != nil {
		return fmt.Sprintf("transfer: unrenderable report: %v", err)
	}

	return string(data)
}

// Write saves the report as indented JSON at path.
func (r *Report) Write(path string) error {
	data, err := json.MarshalIndent(r, "", "    ")
	if err != nil {
		return fmt.Errorf("transfer: encoding report: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("transfer: writing report %s: %w", path, err)
	}

	return nil
}
