package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"watchmate/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the watchmate configuration file",
	}
	cmd.AddCommand(newConfigShowCommand(ctx))
	cmd.AddCommand(newConfigInitCommand())
	cmd.AddCommand(newConfigValidateCommand(ctx))
	cmd.AddCommand(newConfigSetUserCommand(ctx))
	return cmd
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "config file:       %s\n", ctx.configPath)
			fmt.Fprintf(out, "username:          %s\n", orUnset(cfg.Profile.Username))
			fmt.Fprintf(out, "selected friends:  %s\n", orUnset(strings.Join(cfg.Profile.SelectedFriends, ", ")))
			fmt.Fprintf(out, "letterboxd:        %s\n", cfg.Letterboxd.BaseURL)
			fmt.Fprintf(out, "page delay:        %d-%dms\n", cfg.Letterboxd.PageDelayMinMS, cfg.Letterboxd.PageDelayMaxMS)
			fmt.Fprintf(out, "large threshold:   %d (limit %d)\n", cfg.Letterboxd.LargeThreshold, cfg.Letterboxd.LargeLimit)
			fmt.Fprintf(out, "cache:             %s\n", cfg.Cache.Path)
			fmt.Fprintf(out, "tmdb key:          %s\n", maskKey(cfg.TMDB.APIKey))
			fmt.Fprintf(out, "ntfy topic:        %s\n", orUnset(cfg.Notifications.NtfyTopic))
			fmt.Fprintf(out, "logging:           %s/%s\n", cfg.Logging.Format, cfg.Logging.Level)
			return nil
		},
	}
}

func newConfigInitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:         "init [path]",
		Short:       "Write a commented sample configuration file",
		Args:        cobra.MaximumNArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) > 0 {
				path = args[0]
			}
			if path == "" {
				var err error
				path, err = config.DefaultConfigPath()
				if err != nil {
					return err
				}
			}
			if err := config.CreateSample(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	return cmd
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load and validate the configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is valid\n", ctx.configPath)
			return nil
		},
	}
}

func newConfigSetUserCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "set-user <username>",
		Short: "Save the Letterboxd username to the configuration file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			cfg.Profile.Username = strings.TrimSpace(args[0])
			cfg.Profile.Remember = true
			if err := cfg.Save(ctx.configPath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "username %s saved to %s\n", cfg.Profile.Username, ctx.configPath)
			return nil
		},
	}
}

func orUnset(value string) string {
	if strings.TrimSpace(value) == "" {
		return "(unset)"
	}
	return value
}

func maskKey(key string) string {
	if key == "" {
		return "(unset)"
	}
	if len(key) <= 4 {
		return "****"
	}
	return key[:4] + strings.Repeat("*", len(key)-4)
}
