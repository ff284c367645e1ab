package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jkoski/dropship-go/internal/archive"
	"github.com/jkoski/dropship-go/internal/dropbox"
	"github.com/jkoski/dropship-go/internal/transfer"
)

// putFlags are the upload command's flag values.
type putFlags struct {
	zip            bool
	password       string
	expirationDays int
	zipFilePath    string
	output         string
	root           string
	autoRename     bool
}

func newPutCmd() *cobra.Command {
	var flags putFlags

	cmd := &cobra.Command{
		Use:   "put <source> <destination>",
		Short: "Upload one file to Dropbox",
		Long: `Upload a single file to the given Dropbox destination path.

With --zip, the source is a directory: it is zipped first, the zip is
uploaded, a password-gated expiring shared link is created, and a JSON
report with the link and password is produced for downstream use.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPut(cmd, args, flags)
		},
	}

	cmd.Flags().BoolVarP(&flags.zip, "zip", "z", false, "zip the source directory and upload the zip")
	cmd.Flags().StringVarP(&flags.password, "password", "p", "", "password for the shared link (zip mode generates one when absent)")
	cmd.Flags().IntVar(&flags.expirationDays, "expiration-days", 14, "days until the shared link expires (zip mode)")
	cmd.Flags().StringVar(&flags.zipFilePath, "zip-file-path", "", "full output path for the zip, including the file name")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "where to write the JSON report (zip mode)")
	cmd.Flags().StringVar(&flags.root, "root", "team", "namespace root to resolve paths under (team or user)")
	cmd.Flags().BoolVar(&flags.autoRename, "auto-rename", false, "let Dropbox auto-rename the file on a name collision")

	return cmd
}

func runPut(cmd *cobra.Command, args []string, flags putFlags) error {
	logger := buildLogger()
	source, destination := args[0], args[1]

	useTeamRoot, err := parseRootChoice(flags.root)
	if err != nil {
		return err
	}

	// Local validation fails fast, before any network activity.
	if _, err := os.Stat(source); err != nil {
		return fmt.Errorf("source %s does not exist", source)
	}

	if destination == "" {
		return fmt.Errorf("must specify destination")
	}

	req := transfer.Request{
		Source:      source,
		Destination: destination,
		Autorename:  flags.autoRename,
		UseTeamRoot: useTeamRoot,
		Password:    flags.password,
	}

	if flags.zip {
		if err := prepareZip(&req, source, flags, logger); err != nil {
			return err
		}
	}

	ctx := cmd.Context()

	client, err := newAPIClient(ctx, true, logger)
	if err != nil {
		return err
	}

	uploader := &transfer.Uploader{
		Client:  client,
		History: openHistory(ctx, logger),
		Logger:  logger,
	}
	if uploader.History != nil {
		defer uploader.History.Close()
	}

	result, err := uploader.Run(ctx, req)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Uploaded to %s\n", result.DropboxPath)

	if flags.zip {
		return writeReport(cmd, flags.output, source, req, result, logger)
	}

	if result.URL != "" {
		fmt.Fprintln(cmd.OutOrStdout(), result.URL)
	}

	return nil
}

// prepareZip creates the zip, swaps it in as the upload source, and fills in
// the password and expiration a shareable zip run needs.
func prepareZip(req *transfer.Request, source string, flags putFlags, logger *slog.Logger) error {
	zipPath, err := resolveZipPath(source, flags.zipFilePath)
	if err != nil {
		return err
	}

	logger.Info("zipping source",
		slog.String("source", source),
		slog.String("zip", zipPath),
	)

	if err := archive.ZipDir(source, zipPath, logger); err != nil {
		return err
	}

	info, err := os.Stat(zipPath)
	if err != nil {
		return fmt.Errorf("sizing zip: %w", err)
	}

	logger.Info("zip created",
		slog.String("zip", zipPath),
		slog.String("size", humanize.Bytes(uint64(info.Size()))),
	)

	// The zip becomes the upload source; we are only uploading one file.
	req.Source = zipPath

	if req.Password == "" {
		password, err := transfer.GeneratePassword()
		if err != nil {
			return err
		}

		req.Password = password
	}

	logger.Info("link password set",
		slog.String("password", req.Password),
	)

	req.Expiration = time.Now().AddDate(0, 0, flags.expirationDays)

	logger.Info("link expiration set",
		slog.String("expires", humanize.Time(req.Expiration)),
	)

	return nil
}

// resolveZipPath picks the zip output location: the explicit flag when
// given, otherwise ./<source-stem>.zip, falling back to the working
// directory's name when the source path has no usable stem.
func resolveZipPath(source, explicit string) (string, error) {
	if explicit != "" {
		return filepath.Abs(explicit)
	}

	stem := strings.TrimSuffix(filepath.Base(filepath.Clean(source)), filepath.Ext(source))
	if stem == "" || stem == "." || stem == string(filepath.Separator) {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("resolving working directory: %w", err)
		}

		stem = filepath.Base(wd)
	}

	return filepath.Abs(stem + ".zip")
}

// writeReport assembles and emits the zip-mode JSON report. The shared link
// is rewritten to force a download instead of an in-browser preview.
func writeReport(cmd *cobra.Command, outputPath, originalSource string, req transfer.Request, result *transfer.Result, logger *slog.Logger) error {
	info, err := os.Stat(req.Source)
	if err != nil {
		return fmt.Errorf("sizing uploaded zip: %w", err)
	}

	absSource, err := filepath.Abs(originalSource)
	if err != nil {
		return fmt.Errorf("resolving source path: %w", err)
	}

	report := &transfer.Report{
		URL:            dropbox.ForceDownloadURL(result.URL),
		Password:       req.Password,
		ExpirationDate: req.Expiration.Format("2006-01-02T15:04:05"),
		Size:           info.Size(),
		Source:         absSource,
		DropboxPath:    result.DropboxPath,
	}

	if outputPath != "" {
		if err := report.Write(outputPath); err != nil {
			return err
		}

		logger.Info("report written",
			slog.String("path", outputPath),
		)
	}

	fmt.Fprintln(cmd.OutOrStdout(), report.String())

	return nil
}

// openHistory opens the transfer ledger, returning nil (and logging) when it
// cannot be opened — history is advisory and never blocks an upload.
func openHistory(ctx context.Context, logger *slog.Logger) *transfer.History {
	history, err := transfer.OpenHistory(ctx, cfg.HistoryPath, logger)
	if err != nil {
		logger.Warn("transfer history unavailable",
			slog.String("path", cfg.HistoryPath),
			slog.String("error", err.Error()),
		)

		return nil
	}

	return history
}
