package client

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// ChatCmd returns the chat command
func ChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat [query]",
		Short: "Ask the admissions assistant",
		Long: `Ask a single question, or start an interactive session when no
query is given. The room id comes from --room, then the saved config;
a new one is generated and saved otherwise.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runChat,
	}
	cmd.Flags().String("room", "", "Conversation room id")
	cmd.Flags().Bool("new", false, "Start a fresh room")
	return cmd
}

func runChat(cmd *cobra.Command, args []string) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}
	roomID, err := resolveRoom(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if len(args) == 1 {
		return ask(ctx, cmd, api, roomID, args[0])
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "room %s - empty line or Ctrl-D to quit\n", roomID)
	return repl(ctx, cmd, api, roomID, cmd.InOrStdin())
}

func repl(ctx context.Context, cmd *cobra.Command, api *APIClient, roomID string, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(cmd.ErrOrStderr(), "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			return nil
		}
		if err := ask(ctx, cmd, api, roomID, line); err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), err)
		}
	}
}

func ask(ctx context.Context, cmd *cobra.Command, api *APIClient, roomID, query string) error {
	reply, err := api.Chat(ctx, roomID, query)
	if err != nil {
		return err
	}
	if jsonOutput(cmd) {
		return printJSON(cmd.OutOrStdout(), reply)
	}
	fmt.Fprintln(cmd.OutOrStdout(), reply.Response)
	return nil
}

func resolveRoom(cmd *cobra.Command) (string, error) {
	if room, _ := cmd.Flags().GetString("room"); room != "" {
		return room, nil
	}

	cfg, err := LoadGlobalConfig()
	if err != nil {
		return "", err
	}
	if fresh, _ := cmd.Flags().GetBool("new"); !fresh && cfg.RoomID != "" {
		return cfg.RoomID, nil
	}

	cfg.RoomID = uuid.NewString()
	if err := SaveGlobalConfig(cfg); err != nil {
		return "", err
	}
	return cfg.RoomID, nil
}
