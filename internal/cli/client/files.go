package client

import (
	"fmt"
	"net/url"
	"path"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

type ingestResult struct {
	PublicID   string `json:"public_id"`
	Status     string `json:"status"`
	ChunkCount int    `json:"chunk_count,omitempty"`
	Error      string `json:"error,omitempty"`
}

type fileEntry struct {
	PublicID    string `json:"public_id"`
	URL         string `json:"url"`
	FileName    string `json:"file_name"`
	FileType    string `json:"file_type"`
	ChunkCount  int    `json:"chunk_count"`
	DownloadURL string `json:"download_url,omitempty"`
	CreatedAt   string `json:"created_at"`
}

type filesPage struct {
	Files   []fileEntry `json:"files"`
	Cursor  string      `json:"cursor,omitempty"`
	HasMore bool        `json:"has_more"`
}

type deleteReport struct {
	PublicID  string   `json:"public_id"`
	Documents int      `json:"documents"`
	Chunks    int      `json:"chunks"`
	Pending   []string `json:"pending,omitempty"`
}

// FilesCmd returns the files command
func FilesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "files",
		Short: "Manage knowledge files (admin token required)",
	}

	add := &cobra.Command{
		Use:   "add <url>...",
		Short: "Ingest files by URL",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runFilesAdd,
	}
	add.Flags().String("public-id", "", "Public id (single URL only)")
	add.Flags().String("type", "", "File type: md, txt, html, pdf, xlsx or link (default: from extension)")

	list := &cobra.Command{
		Use:   "list",
		Short: "List ingested files",
		RunE:  runFilesList,
	}
	list.Flags().Int("limit", 20, "Files per page")
	list.Flags().String("cursor", "", "Cursor from a previous page")

	rm := &cobra.Command{
		Use:     "rm <public-id>",
		Aliases: []string{"delete"},
		Short:   "Delete a file from the knowledge stores",
		Args:    cobra.ExactArgs(1),
		RunE:    runFilesRemove,
	}

	cmd.AddCommand(add, list, rm)
	return cmd
}

// fileRequest builds the ingest payload for one URL.
func fileRequest(rawURL, publicID, fileType string) map[string]string {
	name := path.Base(rawURL)
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		name = path.Base(u.Path)
	}
	if fileType == "" {
		fileType = strings.TrimPrefix(path.Ext(name), ".")
		if fileType == "" {
			fileType = "link"
		}
	}
	if publicID == "" {
		publicID = strings.TrimSuffix(name, path.Ext(name))
	}
	return map[string]string{
		"public_id": publicID,
		"url":       rawURL,
		"file_name": name,
		"file_type": fileType,
	}
}

func runFilesAdd(cmd *cobra.Command, args []string) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}
	publicID, _ := cmd.Flags().GetString("public-id")
	if publicID != "" && len(args) > 1 {
		return fmt.Errorf("--public-id can only be used with a single URL")
	}
	fileType, _ := cmd.Flags().GetString("type")

	body := make([]map[string]string, len(args))
	for i, arg := range args {
		body[i] = fileRequest(arg, publicID, fileType)
	}

	var results []ingestResult
	if err := api.Post(cmd.Context(), "/files", body, &results); err != nil {
		return err
	}
	if jsonOutput(cmd) {
		return printJSON(cmd.OutOrStdout(), results)
	}
	failed := 0
	for _, r := range results {
		if r.Status != "ingested" {
			failed++
			fmt.Fprintf(cmd.OutOrStdout(), "FAIL %s: %s\n", r.PublicID, r.Error)
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "OK   %s (%d chunks)\n", r.PublicID, r.ChunkCount)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(results))
	}
	return nil
}

func runFilesList(cmd *cobra.Command, args []string) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}
	limit, _ := cmd.Flags().GetInt("limit")
	cursor, _ := cmd.Flags().GetString("cursor")
	q := url.Values{}
	q.Set("limit", fmt.Sprint(limit))
	if cursor != "" {
		q.Set("cursor", cursor)
	}

	var page filesPage
	if err := api.Get(cmd.Context(), "/files?"+q.Encode(), &page); err != nil {
		return err
	}
	if jsonOutput(cmd) {
		return printJSON(cmd.OutOrStdout(), page)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PUBLIC ID\tTYPE\tCHUNKS\tNAME\tCREATED")
	for _, f := range page.Files {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", f.PublicID, f.FileType, f.ChunkCount, f.FileName, f.CreatedAt)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if page.HasMore {
		fmt.Fprintf(cmd.OutOrStdout(), "\nmore: --cursor %s\n", page.Cursor)
	}
	return nil
}

func runFilesRemove(cmd *cobra.Command, args []string) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}
	var report deleteReport
	if err := api.Delete(cmd.Context(), "/files/"+url.PathEscape(args[0]), &report); err != nil {
		return err
	}
	if jsonOutput(cmd) {
		return printJSON(cmd.OutOrStdout(), report)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "deleted %s (%d chunks)\n", report.PublicID, report.Chunks)
	return nil
}
