package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"snapstore/internal/api"
	"snapstore/internal/app"
	"snapstore/internal/config"
	"snapstore/internal/fs"
	"snapstore/internal/snap"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates a SnapApp. The caller must defer app.Close().
// command identifies the CLI command being run (e.g. "serve", "versions").
func newApp(command string) (*app.SnapApp, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.NewSnapApp(cfg, command)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

// loadFiles returns the file list named by --dir or --files.
func loadFiles(cmd *cobra.Command, a *app.SnapApp) ([]snap.FileEntry, error) {
	if dir, _ := cmd.Flags().GetString("dir"); dir != "" {
		return a.ScanDirectory(dir)
	}
	filesPath, _ := cmd.Flags().GetString("files")
	return app.LoadFileList(filesPath, cmd.InOrStdin())
}

func parseVersionID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid version id %q", s)
	}
	return id, nil
}

var rootCmd = &cobra.Command{
	Use:          "snapstore",
	Short:        "Project snapshot store",
	SilenceUsage: true,
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
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		instanceID := uuid.New().String()
		cfg := config.NewConfig(instanceID, defaults.BaseDir)

		if err := config.Init(defaults.ConfigPath, cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults.ConfigPath)
		fmt.Printf("Instance ID: %s\n", instanceID)
		fmt.Printf("Base Dir:    %s\n", defaults.BaseDir)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults.ConfigPath)
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults.ConfigPath)
		fmt.Printf("Instance ID: %s\n", cfg.InstanceID)
		fmt.Printf("Base Dir:    %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:     %s (%s)\n", cfg.LogDir, cfg.Level())
		fmt.Printf("Database:    %s %s\n", cfg.Database.Type, cfg.Database.DataDir)
		fmt.Printf("Listen:      %s\n", cfg.Server.Addr())
		return nil
	},
}

// serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("serve")
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv := api.NewServer(a.Config().Server, a.Service(), a.Logger())
		return srv.Serve(ctx)
	},
}

// snapshot command
var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Record project snapshots",
}

var snapshotInitCmd = &cobra.Command{
	Use:   "init [PROJECT_NAME]",
	Short: "Record the first snapshot of a project",
	Long: "Record the first snapshot of a project. Files come from a JSON list (--files)\n" +
		"or from scanning a directory (--dir). With --dir the project name defaults\n" +
		"to the directory's name.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("dir")

		var name string
		switch {
		case len(args) == 1:
			name = args[0]
		case dir != "":
			n, err := fs.ProjectName(dir)
			if err != nil {
				return err
			}
			name = n
		default:
			return fmt.Errorf("project name required when not scanning a directory")
		}

		a, err := newApp("snapshot init")
		if err != nil {
			return err
		}
		defer a.Close()

		files, err := loadFiles(cmd, a)
		if err != nil {
			return err
		}

		id, err := a.CreateRootSnapshot(cmd.Context(), name, files)
		if err != nil {
			return err
		}

		fmt.Printf("Created version %d of %s (%d file(s))\n", id, name, len(files))
		return nil
	},
}

var snapshotCreateCmd = &cobra.Command{
	Use:   "create PARENT_VERSION",
	Short: "Record a snapshot that follows PARENT_VERSION",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		description, _ := cmd.Flags().GetString("description")

		parentID, err := parseVersionID(args[0])
		if err != nil {
			return err
		}

		a, err := newApp("snapshot create")
		if err != nil {
			return err
		}
		defer a.Close()

		files, err := loadFiles(cmd, a)
		if err != nil {
			return err
		}

		id, err := a.CreateChildSnapshot(cmd.Context(), parentID, description, files)
		if err != nil {
			return err
		}

		fmt.Printf("Created version %d from %d (%d file(s))\n", id, parentID, len(files))
		return nil
	},
}

// versions command
var versionsCmd = &cobra.Command{
	Use:   "versions",
	Short: "List versions, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("output")

		a, err := newApp("versions")
		if err != nil {
			return err
		}
		defer a.Close()

		versions, err := a.ListVersions(cmd.Context())
		if err != nil {
			return err
		}
		return renderVersions(cmd.OutOrStdout(), format, versions)
	},
}

// files command
var filesCmd = &cobra.Command{
	Use:   "files VERSION",
	Short: "List the files recorded at a version",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("output")

		versionID, err := parseVersionID(args[0])
		if err != nil {
			return err
		}

		a, err := newApp("files")
		if err != nil {
			return err
		}
		defer a.Close()

		files, err := a.ListVersionFiles(cmd.Context(), versionID)
		if err != nil {
			return err
		}
		return renderFiles(cmd.OutOrStdout(), format, files)
	},
}

// db command
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Database maintenance",
}

var dbBackupCmd = &cobra.Command{
	Use:   "backup DEST",
	Short: "Write a consistent copy of the database to DEST",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("db backup")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.BackupDatabase(args[0]); err != nil {
			return err
		}

		fmt.Printf("Database backed up to %s\n", args[0])
		return nil
	},
}

var dbStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the database location and schema version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("db status")
		if err != nil {
			return err
		}
		defer a.Close()

		st, err := a.SchemaStatus()
		if err != nil {
			return err
		}

		state := "current"
		if err := st.Err(); err != nil {
			state = err.Error()
		}
		fmt.Fprintf(cmd.OutOrStdout(), "database: %s\nschema:   version %d of %d (%s)\n",
			a.DatabasePath(), st.Current, st.Latest, state)
		return nil
	},
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// snapshot subcommands
	for _, c := range []*cobra.Command{snapshotInitCmd, snapshotCreateCmd} {
		snapshotCmd.AddCommand(c)
		c.Flags().StringP("files", "f", "-", "JSON file list to record (- for stdin)")
		c.Flags().String("dir", "", "Scan this directory instead of reading a file list")
		c.MarkFlagsMutuallyExclusive("files", "dir")
	}
	snapshotCreateCmd.Flags().StringP("description", "d", "", "Description of the change")

	// db subcommands
	dbCmd.AddCommand(dbBackupCmd)
	dbCmd.AddCommand(dbStatusCmd)

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(versionsCmd)
	rootCmd.AddCommand(filesCmd)
	for _, c := range []*cobra.Command{versionsCmd, filesCmd} {
		c.Flags().StringP("output", "o", "table", "Output format: table, json or yaml")
	}
	rootCmd.AddCommand(dbCmd)
}
