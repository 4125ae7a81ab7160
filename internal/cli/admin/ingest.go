package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cloo-solutions/admitbot/internal/service"
)

// IngestCmd returns the ingest command
func IngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest <url-or-path>...",
		Short: "Ingest documents into the knowledge stores",
		Long: `Ingest one or more documents directly, without going through the API.

Each argument is an http(s) URL or a local file. The public id defaults
to the file name without extension. Use --manifest to read a JSON array
of {public_id, url, file_name, file_type} objects instead.`,
		RunE: runIngest,
	}

	cmd.Flags().String("public-id", "", "Public id (single argument only)")
	cmd.Flags().String("type", "", "File type: md, txt, html, pdf, xlsx or link (default: from extension)")
	cmd.Flags().String("manifest", "", "JSON manifest of files to ingest")
	cmd.Flags().Int("concurrency", service.DefaultIngestConcurrency, "Files ingested in parallel")

	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	inputs, err := ingestInputs(cmd, args)
	if err != nil {
		return err
	}

	cfg, log, shutdown, err := bootstrap()
	if err != nil {
		return err
	}
	defer shutdown()

	a, err := BuildApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	if n, _ := cmd.Flags().GetInt("concurrency"); n > 0 {
		a.files.SetConcurrency(n)
	}

	failed := 0
	for _, res := range a.files.IngestFiles(ctx, inputs) {
		if res.Err != nil {
			failed++
			fmt.Fprintf(cmd.ErrOrStderr(), "FAIL %s: %v\n", res.PublicID, res.Err)
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "OK   %s (%d chunks)\n", res.PublicID, res.Record.ChunkCount)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(inputs))
	}
	return nil
}

func ingestInputs(cmd *cobra.Command, args []string) ([]service.IngestFileInput, error) {
	if manifest, _ := cmd.Flags().GetString("manifest"); manifest != "" {
		return readManifest(manifest)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("at least one url or path is required")
	}

	publicID, _ := cmd.Flags().GetString("public-id")
	if publicID != "" && len(args) > 1 {
		return nil, fmt.Errorf("--public-id can only be used with a single argument")
	}
	fileType, _ := cmd.Flags().GetString("type")

	inputs := make([]service.IngestFileInput, 0, len(args))
	for _, arg := range args {
		in := service.IngestFileInput{
			PublicID: publicID,
			URL:      arg,
			FileName: filepath.Base(arg),
			FileType: fileType,
		}
		if in.PublicID == "" {
			in.PublicID = strings.TrimSuffix(in.FileName, filepath.Ext(in.FileName))
		}
		inputs = append(inputs, in)
	}
	return inputs, nil
}

type manifestEntry struct {
	PublicID string `json:"public_id"`
	URL      string `json:"url"`
	FileName string `json:"file_name"`
	FileType string `json:"file_type"`
}

func readManifest(path string) ([]service.IngestFileInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	var entries []manifestEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	inputs := make([]service.IngestFileInput, len(entries))
	for i, e := range entries {
		inputs[i] = service.IngestFileInput(e)
	}
	return inputs, nil
}
