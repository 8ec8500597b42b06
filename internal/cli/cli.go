package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/fabriziosalmi/nexus-taskqueue/internal/config"
	internal_http "github.com/fabriziosalmi/nexus-taskqueue/internal/http"
	"github.com/fabriziosalmi/nexus-taskqueue/internal/log"
	"github.com/fabriziosalmi/nexus-taskqueue/internal/metrics"
	internal_storage "github.com/fabriziosalmi/nexus-taskqueue/internal/storage"
	"github.com/fabriziosalmi/nexus-taskqueue/pkg/models"
	"github.com/fabriziosalmi/nexus-taskqueue/pkg/service"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func SetupCLI(rootCmd *cobra.Command) {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the task queue server (CLI)",
		Run: func(cmd *cobra.Command, args []string) {
			configFile, err := cmd.Flags().GetString("config")
			if err != nil {
				log.GetLogger().Errorf("Error retrieving config flag: %v", err)
				os.Exit(1)
			}
			log.GetLogger().Debugf("Running serve with config file: %s", configFile)
			runServer(configFile)
		},
	}
	serveCmd.Flags().String("config", "", "Path to a config file (optional, env vars override it)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks from a snapshot file (CLI)",
		Long:  "Reads the snapshot a server persists to disk. Run it against a stopped server, or accept that a live server may overwrite the file at any moment.",
		Run: func(cmd *cobra.Command, args []string) {
			path := storagePathFlag(cmd)
			status, err := cmd.Flags().GetString("status")
			if err != nil {
				log.GetLogger().Errorf("Error retrieving status flag: %v", err)
				os.Exit(1)
			}
			limit, err := cmd.Flags().GetInt("limit")
			if err != nil {
				log.GetLogger().Errorf("Error retrieving limit flag: %v", err)
				os.Exit(1)
			}
			listTasks(path, status, limit)
		},
	}
	listCmd.Flags().String("storage", "", "Snapshot file path (defaults to the configured storage path)")
	listCmd.Flags().String("status", "", "Only show tasks with this status")
	listCmd.Flags().Int("limit", service.DefaultListLimit, "Maximum number of tasks to show")

	infoCmd := &cobra.Command{
		Use:   "info [task-id]",
		Short: "Show one task from a snapshot file (CLI)",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			path := storagePathFlag(cmd)
			showTask(path, args[0])
		},
	}
	infoCmd.Flags().String("storage", "", "Snapshot file path (defaults to the configured storage path)")

	rootCmd.AddCommand(serveCmd, listCmd, infoCmd)
}

func runServer(configFile string) {
	logger := log.GetLogger()
	if err := godotenv.Load(); err != nil {
		logger.Debugf("No .env file loaded: %v", err)
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		logger.Errorf("Failed to load configuration: %v", err)
		fmt.Fprintf(os.Stderr, "Error: failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	log.SetLevel(cfg.Log.Level)

	store := initStore(cfg.Storage.Path)
	defer store.Close()

	svc := service.NewQueueService(context.Background(), store, service.Config{
		MaxWorkers:    cfg.Queue.MaxWorkers,
		RetryDelay:    cfg.Queue.RetryDelay,
		SweepInterval: cfg.Queue.SweepInterval,
		Retention:     cfg.Queue.Retention,
	}, logger)

	recorder := metrics.NewRecorder()
	svc.SetMetrics(recorder)

	server := internal_http.NewServer(svc, internal_http.NewBuiltinRegistry(), logger).
		WithMetricsHandler(recorder.Handler())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := server.Start(ctx, cfg.Server.Port)
	if serveErr != nil {
		logger.Errorf("HTTP server error: %v", serveErr)
	}

	// Drain the queue even when the server failed, so running work persists.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := svc.Stop(shutdownCtx); err != nil {
		logger.Warnf("Queue did not drain cleanly: %v", err)
	}
	logger.Infof("Shutdown complete")
	if serveErr != nil {
		os.Exit(1)
	}
}

func listTasks(path, status string, limit int) {
	records := loadRecords(path)

	if status != "" {
		parsed, err := models.ParseTaskStatus(status)
		if err != nil {
			log.GetLogger().Errorf("Invalid status filter: %v", err)
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		filtered := records[:0]
		for _, rec := range records {
			if rec.Status == parsed {
				filtered = append(filtered, rec)
			}
		}
		records = filtered
	}

	sort.Slice(records, func(i, j int) bool {
		if records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].ID < records[j].ID
		}
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}

	if len(records) == 0 {
		fmt.Fprintf(os.Stdout, "No tasks found.\n")
		return
	}
	fmt.Fprintf(os.Stdout, "Tasks:\n")
	for _, rec := range records {
		fmt.Fprintf(os.Stdout, "- ID: %s, Name: %s, Status: %s, Priority: %s, Progress: %.0f%%, Created: %s\n",
			rec.ID, rec.Name, rec.Status, rec.Priority, rec.Progress, rec.CreatedAt.Format(time.RFC3339))
	}
}

func showTask(path, id string) {
	for _, rec := range loadRecords(path) {
		if rec.ID != id {
			continue
		}
		fmt.Fprintf(os.Stdout, "ID:          %s\n", rec.ID)
		fmt.Fprintf(os.Stdout, "Name:        %s\n", rec.Name)
		if rec.Description != "" {
			fmt.Fprintf(os.Stdout, "Description: %s\n", rec.Description)
		}
		fmt.Fprintf(os.Stdout, "Status:      %s\n", rec.Status)
		fmt.Fprintf(os.Stdout, "Priority:    %s\n", rec.Priority)
		fmt.Fprintf(os.Stdout, "Progress:    %.0f%%\n", rec.Progress)
		fmt.Fprintf(os.Stdout, "Retries:     %d/%d\n", rec.RetryCount, rec.MaxRetries)
		fmt.Fprintf(os.Stdout, "Created:     %s\n", rec.CreatedAt.Format(time.RFC3339))
		if rec.StartedAt != nil {
			fmt.Fprintf(os.Stdout, "Started:     %s\n", rec.StartedAt.Format(time.RFC3339))
		}
		if rec.CompletedAt != nil {
			fmt.Fprintf(os.Stdout, "Completed:   %s\n", rec.CompletedAt.Format(time.RFC3339))
		}
		if len(rec.Tags) > 0 {
			fmt.Fprintf(os.Stdout, "Tags:        %v\n", rec.Tags)
		}
		if len(rec.Metadata.Params) > 0 {
			fmt.Fprintf(os.Stdout, "Params:      %s\n", compactJSON(rec.Metadata.Params))
		}
		if rec.Result != nil {
			fmt.Fprintf(os.Stdout, "Result:      %s\n", compactJSON(rec.Result))
		}
		if rec.ErrorMsg != "" {
			fmt.Fprintf(os.Stdout, "Error:       %s\n", rec.ErrorMsg)
		}
		return
	}
	fmt.Fprintf(os.Stderr, "Error: task %s not found in %s\n", id, path)
	os.Exit(1)
}

// storagePathFlag resolves --storage, falling back to the configured path so
// NEXUS_TASKQUEUE_STORAGE_PATH is honoured.
func storagePathFlag(cmd *cobra.Command) string {
	path, err := cmd.Flags().GetString("storage")
	if err != nil {
		log.GetLogger().Errorf("Error retrieving storage flag: %v", err)
		os.Exit(1)
	}
	if path != "" {
		return path
	}
	cfg, err := config.Load("")
	if err != nil {
		log.GetLogger().Errorf("Failed to load configuration: %v", err)
		fmt.Fprintf(os.Stderr, "Error: failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	return cfg.Storage.Path
}

func loadRecords(path string) []models.TaskRecord {
	snap, err := internal_storage.ReadSnapshot(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		log.GetLogger().Errorf("Failed to read snapshot: %v", err)
		fmt.Fprintf(os.Stderr, "Error: failed to read snapshot %s: %v\n", path, err)
		os.Exit(1)
	}
	return snap.Tasks
}

func compactJSON(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

func initStore(path string) *internal_storage.FileStore {
	store, err := internal_storage.InitStore(path)
	if err != nil {
		log.GetLogger().Errorf("Failed to initialize store: %v", err)
		os.Exit(1)
	}
	return store
}
