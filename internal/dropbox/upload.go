package dropbox

import (
	"context"
	"errors"
	"io"
	"log/slog"
)

// ChunkSize is the session upload chunk size (4 MiB). Files at or below this
// size go through the single-call path; larger files open an upload session
// and transfer one chunk per call.
const ChunkSize = 4 * 1024 * 1024

// commitInfo binds the target path and write mode for an upload. It is built
// once per upload and passed unchanged to the committing call. Mode is
// always "add" — a name collision either fails or, with autorename, gets a
// disambiguating suffix server-side.
type commitInfo struct {
	Path       string `json:"path"`
	Mode       string `json:"mode"`
	Autorename bool   `json:"autorename"`
}

type sessionStartResponse struct {
	SessionID string `json:"session_id"`
}

// sessionCursor addresses the next write position within an upload session.
// Offset must exactly equal the bytes already durably appended server-side;
// the API rejects any drift as a sequencing error (ErrBadOffset).
type sessionCursor struct {
	SessionID string `json:"session_id"`
	Offset    int64  `json:"offset"`
}

type sessionAppendArg struct {
	Cursor sessionCursor `json:"cursor"`
}

type sessionFinishArg struct {
	Cursor sessionCursor `json:"cursor"`
	Commit commitInfo    `json:"commit"`
}

// Upload transfers size bytes from r to path, returning the actual remote
// path reported by the API (which differs from path when autorename fires).
//
// Files of at most ChunkSize are sent in one files/upload call. Larger files
// use the session protocol: upload_session/start carries the first chunk,
// append_v2 each full intermediate chunk, and finish both uploads the tail
// (at most ChunkSize bytes) and commits the file in a single call. Chunks
// are read in file order and never reordered or resent. Any API error aborts
// the whole upload — the remote session is abandoned and a retry must start
// from a fresh session.
func (c *Client) Upload(ctx context.Context, r io.Reader, size int64, path string, autorename bool) (string, error) {
	commit := commitInfo{Path: path, Mode: "add", Autorename: autorename}

	c.logger.Info("uploading file",
		slog.String("path", path),
		slog.Int64("size", size),
		slog.Bool("autorename", autorename),
	)

	if size <= ChunkSize {
		return c.uploadSingle(ctx, r, size, commit)
	}

	return c.uploadSession(ctx, r, size, commit)
}

// uploadSingle performs the one-call path for small files.
func (c *Client) uploadSingle(ctx context.Context, r io.Reader, size int64, commit commitInfo) (string, error) {
	c.logger.Debug("sending all data at once")

	var md fileMetadataResponse
	if err := c.content(ctx, "/2/files/upload", commit, io.LimitReader(r, size), size, &md); err != nil {
		return "", err
	}

	c.logger.Info("upload complete",
		slog.String("actual_path", md.PathDisplay),
	)

	return md.PathDisplay, nil
}

// uploadSession drives the chunked state machine. offset tracks bytes
// already committed server-side; the loop terminates exactly once, via the
// finish branch, when the remaining bytes fit in a single chunk.
func (c *Client) uploadSession(ctx context.Context, r io.Reader, size int64, commit commitInfo) (string, error) {
	c.logger.Debug("starting upload session")

	var start sessionStartResponse
	if err := c.content(ctx, "/2/files/upload_session/start", struct{}{}, io.LimitReader(r, ChunkSize), ChunkSize, &start); err != nil {
		return "", err
	}

	offset := int64(ChunkSize)

	for offset < size {
		cursor := sessionCursor{SessionID: start.SessionID, Offset: offset}
		remaining := size - offset

		if remaining <= ChunkSize {
			c.logger.Debug("finishing upload session",
				slog.Int64("offset", offset),
				slog.Int64("tail_bytes", remaining),
			)

			var md fileMetadataResponse

			arg := sessionFinishArg{Cursor: cursor, Commit: commit}
			if err := c.content(ctx, "/2/files/upload_session/finish", arg, io.LimitReader(r, remaining), remaining, &md); err != nil {
				return "", err
			}

			c.logger.Info("upload complete",
				slog.String("actual_path", md.PathDisplay),
			)

			return md.PathDisplay, nil
		}

		c.logger.Debug("appending chunk",
			slog.Int64("offset", offset),
			slog.Int64("total", size),
			slog.Float64("percent", float64(offset)/float64(size)*100),
		)

		arg := sessionAppendArg{Cursor: cursor}
		if err := c.content(ctx, "/2/files/upload_session/append_v2", arg, io.LimitReader(r, ChunkSize), ChunkSize, nil); err != nil {
			return "", err
		}

		offset += ChunkSize
	}

	// Unreachable: size > ChunkSize guarantees at least one loop iteration,
	// and every final iteration returns through the finish branch.
	return "", errors.New("dropbox: upload session ended without finish")
}
