package dropbox

import (
	"context"
	"fmt"
	"io"
	"log/slog"
)

type listFolderArg struct {
	Path string `json:"path"`
}

type listFolderContinueArg struct {
	Cursor string `json:"cursor"`
}

type listFolderResponse struct {
	Entries []entryResponse `json:"entries"`
	Cursor  string          `json:"cursor"`
	HasMore bool            `json:"has_more"`
}

type downloadArg struct {
	Path string `json:"path"`
}

// ListFolder returns all immediate entries of a remote folder, following
// continuation cursors until has_more is false and concatenating the pages
// before returning. Entries are normalized into the two-variant Entry type;
// an unknown variant fails the whole listing.
func (c *Client) ListFolder(ctx context.Context, path string) ([]Entry, error) {
	c.logger.Info("listing folder",
		slog.String("path", path),
	)

	var page listFolderResponse
	if err := c.rpc(ctx, "/2/files/list_folder", listFolderArg{Path: path}, &page); err != nil {
		return nil, err
	}

	entries, err := appendEntries(nil, page.Entries)
	if err != nil {
		return nil, err
	}

	pages := 1

	for page.HasMore {
		cursor := page.Cursor

		page = listFolderResponse{}
		if err := c.rpc(ctx, "/2/files/list_folder/continue", listFolderContinueArg{Cursor: cursor}, &page); err != nil {
			return nil, err
		}

		entries, err = appendEntries(entries, page.Entries)
		if err != nil {
			return nil, err
		}

		pages++
	}

	c.logger.Info("listed folder",
		slog.String("path", path),
		slog.Int("pages", pages),
		slog.Int("total_entries", len(entries)),
	)

	return entries, nil
}

// appendEntries normalizes and appends a page of raw entries.
func appendEntries(entries []Entry, raw []entryResponse) ([]Entry, error) {
	for i := range raw {
		entry, err := raw[i].toEntry()
		if err != nil {
			return nil, err
		}

		entries = append(entries, entry)
	}

	return entries, nil
}

// Download streams the content of a remote file to w, returning the number
// of bytes written.
func (c *Client) Download(ctx context.Context, path string, w io.Writer) (int64, error) {
	c.logger.Info("downloading file",
		slog.String("path", path),
	)

	body, err := c.download(ctx, "/2/files/download", downloadArg{Path: path})
	if err != nil {
		return 0, err
	}
	defer body.Close()

	n, err := io.Copy(w, body)
	if err != nil {
		c.logger.Error("streaming download content failed",
			slog.String("path", path),
			slog.String("error", err.Error()),
			slog.Int64("bytes_before_error", n),
		)

		return n, fmt.Errorf("dropbox: streaming %s content: %w", path, err)
	}

	c.logger.Debug("download complete",
		slog.String("path", path),
		slog.Int64("bytes_written", n),
	)

	return n, nil
}
