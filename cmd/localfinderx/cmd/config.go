package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Ryan-gw-park/local-file-search/configs"
	"github.com/Ryan-gw-park/local-file-search/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage user configuration",
		Long: `Manage the user/global configuration file.

User configuration applies to every data directory indexed on this
machine (embedder provider, logging level, performance tuning).

Precedence (lowest to highest):
  1. Hardcoded defaults
  2. User config (~/.config/localfinderx/config.yaml)
  3. Data-dir config (.localfinderx.yaml)
  4. Environment variables (LOCALFINDERX_*)`,
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigPathCmd())
	cmd.AddCommand(newConfigBackupCmd())
	cmd.AddCommand(newConfigRestoreCmd())
	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the user configuration file from a template",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigInit(cmd, force)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing user configuration")
	return cmd
}

func runConfigInit(cmd *cobra.Command, force bool) error {
	out := cmd.OutOrStdout()
	path := config.GetUserConfigPath()

	if config.UserConfigExists() && !force {
		fmt.Fprintf(out, "User configuration already exists at %s (use --force to overwrite)\n", path)
		return nil
	}

	if err := os.MkdirAll(config.GetUserConfigDir(), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(configs.UserConfigTemplate), 0o644); err != nil {
		return fmt.Errorf("write user config: %w", err)
	}
	fmt.Fprintf(out, "Created %s\n", path)
	return nil
}

func newConfigShowCmd() *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigShow(cmd, jsonOutput)
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func runConfigShow(cmd *cobra.Command, jsonOutput bool) error {
	layout, err := resolveLayout()
	if err != nil {
		return err
	}
	cfg, err := loadConfig(layout)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(cfg)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(out, string(data))
	return nil
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the user configuration file path",
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), config.GetUserConfigPath())
			return nil
		},
	}
}

func newConfigBackupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Back up the user configuration file",
		Long: fmt.Sprintf(`Writes a timestamped copy of the user configuration file
alongside it (suffix %q), then prunes old backups beyond the newest
%d.`, config.BackupSuffix, config.MaxBackups),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigBackup(cmd)
		},
	}
}

func runConfigBackup(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	path, err := config.BackupUserConfig()
	if err != nil {
		return fmt.Errorf("backup user config: %w", err)
	}
	if path == "" {
		fmt.Fprintln(out, "No user configuration exists yet, nothing to back up")
		return nil
	}
	fmt.Fprintf(out, "Backed up to %s\n", path)
	return nil
}

func newConfigRestoreCmd() *cobra.Command {
	var list bool
	cmd := &cobra.Command{
		Use:   "restore [backup-path]",
		Short: "List or restore user configuration backups",
		Long: `With --list, prints every backup for the user configuration file,
newest first. With a backup-path argument, restores the user
configuration from that backup (backing up the current one first).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if list || len(args) == 0 {
				return runConfigRestoreList(cmd)
			}
			return runConfigRestore(cmd, args[0])
		},
	}
	cmd.Flags().BoolVar(&list, "list", false, "List available backups instead of restoring")
	return cmd
}

func runConfigRestoreList(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	backups, err := config.ListUserConfigBackups()
	if err != nil {
		return fmt.Errorf("list config backups: %w", err)
	}
	if len(backups) == 0 {
		fmt.Fprintln(out, "No backups found")
		return nil
	}
	for _, b := range backups {
		fmt.Fprintln(out, b)
	}
	return nil
}

func runConfigRestore(cmd *cobra.Command, backupPath string) error {
	out := cmd.OutOrStdout()
	if err := config.RestoreUserConfig(backupPath); err != nil {
		return fmt.Errorf("restore user config: %w", err)
	}
	fmt.Fprintf(out, "Restored user configuration from %s\n", backupPath)
	return nil
}
