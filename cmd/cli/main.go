package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/wadjakorntonsri/guide-activity-log/pkg/app"
	"github.com/wadjakorntonsri/guide-activity-log/pkg/config"
	"github.com/wadjakorntonsri/guide-activity-log/pkg/core/domain"
	"github.com/wadjakorntonsri/guide-activity-log/pkg/core/identity"
	"github.com/wadjakorntonsri/guide-activity-log/pkg/core/services"
)

var (
	ownerEmail string
	outDir     string
	format     string

	filterUser   string
	filterAction string
	filterIP     string
	filterSince  string
	filterUntil  string
)

func main() {
	root := &cobra.Command{
		Use:           "guidelog",
		Short:         "Inspect, export and clear the guide activity log",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&ownerEmail, "owner", "", "owner email (defaults to the first OWNER_EMAILS entry)")

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show permission state, log volume and source counters",
		RunE:  runStatus,
	}

	countCmd := &cobra.Command{
		Use:   "count",
		Short: "Count entries matching a filter",
		RunE:  runCount,
	}
	addFilterFlags(countCmd)

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export matching entries and grant download permission",
		RunE:  runExport,
	}
	exportCmd.Flags().StringVar(&format, "format", "json", "json or csv")
	exportCmd.Flags().StringVar(&outDir, "out", ".", "directory to write the export to")
	addFilterFlags(exportCmd)

	ackCmd := &cobra.Command{
		Use:   "ack",
		Short: "Acknowledge the downloaded export and grant delete permission",
		RunE:  runAck,
	}

	purgeCmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete matching entries (requires delete permission)",
		RunE:  runPurge,
	}
	addFilterFlags(purgeCmd)

	root.AddCommand(statusCmd, countCmd, exportCmd, ackCmd, purgeCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&filterUser, "user", "", "user id")
	cmd.Flags().StringVar(&filterAction, "action", "", "action kind, or all")
	cmd.Flags().StringVar(&filterIP, "ip", "", "IP address")
	cmd.Flags().StringVar(&filterSince, "since", "", "start date (YYYY-MM-DD or RFC 3339)")
	cmd.Flags().StringVar(&filterUntil, "until", "", "end date (YYYY-MM-DD or RFC 3339)")
}

func buildFilter() (domain.LogFilter, error) {
	f := domain.LogFilter{UserID: filterUser, Action: filterAction, IPAddress: filterIP}
	var err error
	if f.StartDate, err = services.ParseFilterDate(filterSince, false); err != nil {
		return f, err
	}
	if f.EndDate, err = services.ParseFilterDate(filterUntil, true); err != nil {
		return f, err
	}
	return f, nil
}

// open builds the application; the CLI logs to the console.
func open() (*app.App, identity.VisitorInfo, error) {
	cfg := config.Load()
	if cfg.LogFormat == "json" {
		cfg.LogFormat = "console"
	}

	email := ownerEmail
	if email == "" && len(cfg.OwnerEmails) > 0 {
		email = cfg.OwnerEmails[0]
	}
	if email == "" {
		return nil, identity.VisitorInfo{}, fmt.Errorf("no owner: pass --owner or set OWNER_EMAILS")
	}
	if !cfg.IsOwner(email) {
		return nil, identity.VisitorInfo{}, fmt.Errorf("%s is not an owner", email)
	}

	application, err := app.New(cfg)
	if err != nil {
		return nil, identity.VisitorInfo{}, err
	}
	return application, identity.NewVisitorInfo("127.0.0.1", email, "", "guidelog-cli", ""), nil
}

func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	application, owner, err := open()
	if err != nil {
		return err
	}
	defer application.Close()
	ctx := context.Background()

	state, err := application.Admin.PermissionState(ctx, owner.ActorID())
	if err != nil {
		return err
	}
	status, err := application.Admin.ThresholdStatus(ctx)
	if err != nil {
		return err
	}
	sources, err := application.Repo.ReferrerSummary(ctx)
	if err != nil {
		return err
	}

	return printJSON(map[string]interface{}{
		"owner":           owner.ActorID(),
		"permissionState": state,
		"threshold":       status,
		"entryThreshold":  application.Tracker.TotalEntryThreshold(),
		"storedSources":   sources,
	})
}

func runCount(cmd *cobra.Command, args []string) error {
	filter, err := buildFilter()
	if err != nil {
		return err
	}
	application, _, err := open()
	if err != nil {
		return err
	}
	defer application.Close()

	total, err := application.Admin.CountLogs(context.Background(), filter)
	if err != nil {
		return err
	}
	fmt.Println(total)
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	exportFormat, err := services.ParseExportFormat(format)
	if err != nil {
		return err
	}
	filter, err := buildFilter()
	if err != nil {
		return err
	}
	application, owner, err := open()
	if err != nil {
		return err
	}
	defer application.Close()

	export, err := application.Admin.ExportLogs(context.Background(), owner, filter, exportFormat)
	if err != nil {
		return err
	}

	path := filepath.Join(outDir, export.Filename)
	if err := os.WriteFile(path, export.Data, 0o600); err != nil {
		return fmt.Errorf("write export: %w (permission is now %q; acknowledge only after saving a copy)", err, domain.PermissionDownload)
	}
	fmt.Printf("Exported %d entries to %s\n", export.Count, path)
	fmt.Println("Run 'guidelog ack' once the file is stored safely.")
	return nil
}

func runAck(cmd *cobra.Command, args []string) error {
	application, owner, err := open()
	if err != nil {
		return err
	}
	defer application.Close()

	state, err := application.Admin.AcknowledgeDownload(context.Background(), owner)
	if err != nil {
		return err
	}
	fmt.Printf("Permission state: %s\n", state)
	return nil
}

func runPurge(cmd *cobra.Command, args []string) error {
	filter, err := buildFilter()
	if err != nil {
		return err
	}
	application, owner, err := open()
	if err != nil {
		return err
	}
	defer application.Close()

	deleted, err := application.Admin.DeleteLogs(context.Background(), owner, filter)
	if err != nil {
		return err
	}
	fmt.Printf("Deleted %d entries\n", deleted)
	return nil
}
