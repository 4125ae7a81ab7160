package client

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

type turn struct {
	ID          string `json:"id"`
	Query       string `json:"query"`
	Answer      string `json:"answer"`
	IsOutDomain bool   `json:"is_outdomain"`
	Route       string `json:"route"`
	CreatedAt   string `json:"created_at"`
}

type historyPage struct {
	RoomID  string `json:"room_id"`
	Turns   []turn `json:"turns"`
	Cursor  string `json:"cursor,omitempty"`
	HasMore bool   `json:"has_more"`
}

// HistoryCmd returns the history command
func HistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show or clear a room's conversation",
		RunE:  runHistory,
	}
	cmd.PersistentFlags().String("room", "", "Conversation room id (default: saved room)")
	cmd.Flags().Int("limit", 20, "Turns to show")
	cmd.Flags().String("cursor", "", "Cursor from a previous page")

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete the room's history",
		RunE:  runHistoryClear,
	})
	return cmd
}

func historyRoom(cmd *cobra.Command) (string, error) {
	if room, _ := cmd.Flags().GetString("room"); room != "" {
		return room, nil
	}
	cfg, err := LoadGlobalConfig()
	if err != nil {
		return "", err
	}
	if cfg.RoomID == "" {
		return "", fmt.Errorf("no room: pass --room or start one with 'admit chat'")
	}
	return cfg.RoomID, nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}
	roomID, err := historyRoom(cmd)
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

	var page historyPage
	if err := api.Get(cmd.Context(), "/chat/"+url.PathEscape(roomID)+"?"+q.Encode(), &page); err != nil {
		return err
	}
	if jsonOutput(cmd) {
		return printJSON(cmd.OutOrStdout(), page)
	}

	out := cmd.OutOrStdout()
	for i := len(page.Turns) - 1; i >= 0; i-- {
		t := page.Turns[i]
		fmt.Fprintf(out, "[%s] %s\n  > %s\n  < %s\n", t.CreatedAt, t.Route, t.Query, t.Answer)
	}
	if page.HasMore {
		fmt.Fprintf(out, "\nmore: --cursor %s\n", page.Cursor)
	}
	return nil
}

func runHistoryClear(cmd *cobra.Command, args []string) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}
	roomID, err := historyRoom(cmd)
	if err != nil {
		return err
	}
	if err := api.Delete(cmd.Context(), "/chat/"+url.PathEscape(roomID), nil); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "cleared %s\n", roomID)
	return nil
}
