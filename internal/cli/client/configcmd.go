package client

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ConfigCmd returns the config command
func ConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change saved client settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadGlobalConfig()
			if err != nil {
				return err
			}
			masked := *cfg
			if masked.AdminToken != "" {
				masked.AdminToken = "********"
			}
			return printJSON(cmd.OutOrStdout(), masked)
		},
	}

	set := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set api_url, admin_token or room_id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadGlobalConfig()
			if err != nil {
				return err
			}
			if err := setConfigValue(cfg, args[0], args[1]); err != nil {
				return err
			}
			return SaveGlobalConfig(cfg)
		},
	}

	cmd.AddCommand(set)
	return cmd
}

func setConfigValue(cfg *GlobalConfig, key, value string) error {
	switch key {
	case "api_url":
		cfg.APIURL = value
	case "admin_token":
		cfg.AdminToken = value
	case "room_id":
		cfg.RoomID = value
	default:
		return fmt.Errorf("unknown key %q (want api_url, admin_token or room_id)", key)
	}
	return nil
}
