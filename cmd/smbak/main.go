package main

import (
	"fmt"
	"os"

	"smbak/internal/app"
	"smbak/internal/config"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var configFlag string

// newApp reads the config and creates an App. The caller must defer
// app.Close().
func newApp() (*app.App, error) {
	explicit := configFlag
	if explicit == "" {
		explicit = os.Getenv("SMBAK_CONFIG_PATH")
	}

	a, err := app.New(explicit)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

var rootCmd = &cobra.Command{
	Use:   "smbak",
	Short: "Unattended StepMania backup to a git remote",
}

// run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute one backup run",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		res := a.RunBackup()
		if res.Err != nil {
			return res.Err
		}

		out := res.Outcome
		if !out.Committed {
			fmt.Printf("Nothing to back up: %d file(s) staged, no changes. (%s)\n",
				out.Copied, res.Duration().String())
			return nil
		}
		fmt.Printf("Backed up %d file(s), %d changed, %d skipped. (%s)\n",
			out.Copied, out.Changed, out.Skipped, res.Duration().String())
		return nil
	},
}

// status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "View backup status",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if a.ConfigPath != "" {
			fmt.Printf("Config:       %s\n", a.ConfigPath)
		}
		fmt.Printf("Remote:       %s\n", a.Cfg.RemoteURL)
		fmt.Printf("Install path: %s\n", a.Cfg.InstallPath)
		fmt.Printf("Staging dir:  %s\n", a.Cfg.StagingDir)

		if last, ok := a.LastDigest(); ok {
			fmt.Printf("Last digest:  %s\n", last)
		} else {
			fmt.Println("Last digest:  none")
		}

		if next, err := a.NextRun(); err == nil {
			fmt.Printf("Next run:     %s\n", next.Format("2006-01-02 15:04:05 MST"))
		} else {
			fmt.Printf("Next run:     %v\n", err)
		}
		return nil
	},
}

// repair command
var repairCmd = &cobra.Command{
	Use:   "repair",
	Short: "Regroup digest entries under the current song library",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		changed, present, err := a.RepairDigests()
		if err != nil {
			return fmt.Errorf("repairing digests: %w", err)
		}
		if !present {
			fmt.Printf("No staging checkout at %s; nothing to repair.\n", a.Cfg.StagingDir)
			return nil
		}
		if len(changed) == 0 {
			fmt.Println("All digests already grouped correctly.")
			return nil
		}
		fmt.Printf("Rewrote %d digest file(s)\n", len(changed))
		return nil
	},
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		installPath, _ := cmd.Flags().GetString("install")
		remoteURL, _ := cmd.Flags().GetString("remote")

		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(installPath, remoteURL, defaults["base_dir"])
		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Install path: %s\n", installPath)
		fmt.Printf("Remote:       %s\n", remoteURL)
		fmt.Printf("Base dir:     %s\n", defaults["base_dir"])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		explicit := configFlag
		if explicit == "" {
			explicit = os.Getenv("SMBAK_CONFIG_PATH")
		}
		path, err := config.Locate(explicit)
		if err != nil {
			return err
		}
		cfg, err := config.ReadFromFile(path)
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", path)
		fmt.Printf("Install path: %s\n", cfg.InstallPath)
		fmt.Printf("Remote:       %s\n", cfg.RemoteURL)
		fmt.Printf("Target name:  %s\n", cfg.TargetName)
		fmt.Printf("Staging dir:  %s\n", cfg.StagingDir)
		fmt.Printf("Log dir:      %s\n", cfg.LogDir)
		fmt.Printf("Include dirs: %v\n", cfg.IncludeDirs)
		fmt.Printf("Schedule:     %s (%s)\n", cfg.Schedule.Expression, cfg.Schedule.Timezone)
		for _, task := range cfg.Tasks {
			fmt.Printf("Task:         %s (%s -> %s)\n", task.Name, task.Source, task.Target)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Config file path")

	configInitCmd.Flags().String("install", "", "StepMania install path")
	configInitCmd.Flags().String("remote", "", "Remote git repository URL")
	configInitCmd.MarkFlagRequired("install")
	configInitCmd.MarkFlagRequired("remote")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(repairCmd)
	rootCmd.AddCommand(configCmd)
}
