package transfer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jkoski/dropship-go/internal/dropbox"
)

// dirPerms is used for directories created under the local mirror root.
const dirPerms = 0o755

// Mirror recursively downloads a remote folder into localDir, creating local
// directories as needed, and returns the number of files and folders
// transferred. Listing follows continuation pages to completion before any
// entry is processed; transfers are sequential and synchronous.
func Mirror(ctx context.Context, client *dropbox.Client, remotePath, localDir string, logger *slog.Logger) (files, folders int, err error) {
	if err := os.MkdirAll(localDir, dirPerms); err != nil {
		return 0, 0, fmt.Errorf("transfer: creating %s: %w", localDir, err)
	}

	entries, err := client.ListFolder(ctx, remotePath)
	if err != nil {
		return 0, 0, err
	}

	for _, entry := range entries {
		switch entry.Kind {
		case dropbox.EntryKindFile:
			localPath := filepath.Join(localDir, entry.Name)

			logger.Info("downloading file",
				slog.String("local_path", localPath),
			)

			if err := downloadTo(ctx, client, entry.PathLower, localPath); err != nil {
				return files, folders, err
			}

			files++
		case dropbox.EntryKindFolder:
			subDir := filepath.Join(localDir, entry.Name)

			logger.Info("creating folder",
				slog.String("local_path", subDir),
			)

			subFiles, subFolders, err := Mirror(ctx, client, entry.PathLower, subDir, logger)
			files += subFiles
			folders += 1 + subFolders

			if err != nil {
				return files, folders, err
			}
		default:
			return files, folders, fmt.Errorf("transfer: unhandled entry kind %d for %s", entry.Kind, entry.PathDisplay)
		}
	}

	return files, folders, nil
}

// downloadTo streams one remote file into a freshly created local file.
func downloadTo(ctx context.Context, client *dropbox.Client, remotePath, localPath string) error {
	f, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("transfer: creating %s: %w", localPath, err)
	}

	if _, err := client.Download(ctx, remotePath, f); err != nil {
		f.Close()
		return err
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("transfer: closing %s: %w", localPath, err)
	}

	return nil
}
