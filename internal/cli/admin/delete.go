package admin

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// DeleteCmd returns the delete command
func DeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <public-id>...",
		Short: "Delete documents from both knowledge stores",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runDelete,
	}
}

func runDelete(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

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

	var firstErr error
	for _, publicID := range args {
		report, err := a.files.Delete(ctx, publicID)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "FAIL %s: %v\n", publicID, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "OK   %s (%d documents, %d chunks)\n", publicID, report.Documents, report.Chunks)
		if len(report.Pending) > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "     %d documents queued for cleanup\n", len(report.Pending))
		}
	}
	return firstErr
}
