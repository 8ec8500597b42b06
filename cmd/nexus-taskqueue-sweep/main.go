package main

import (
	"fmt"
	"os"
	"time"

	"github.com/fabriziosalmi/nexus-taskqueue/internal/config"
	internal_storage "github.com/fabriziosalmi/nexus-taskqueue/internal/storage"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{Use: "nexus-taskqueue-sweep"}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Remove old finished tasks from a snapshot file",
	Long:  "Offline variant of the server's periodic sweeper. Do not run it against the snapshot of a live server, which rewrites the file on every state change.",
	Run: func(cmd *cobra.Command, args []string) {
		// Load .env if present
		if err := godotenv.Load(); err != nil {
			fmt.Printf("No .env file found or failed to load: %v. Using flags.\n", err)
		}

		path, _ := cmd.Flags().GetString("storage")
		if path == "" {
			cfg, err := config.Load("")
			if err != nil {
				fmt.Printf("Failed to load configuration: %v\n", err)
				os.Exit(1)
			}
			path = cfg.Storage.Path
		}
		maxAgeHours, _ := cmd.Flags().GetInt("max-age")
		if maxAgeHours < 1 {
			fmt.Println("Error: --max-age must be at least 1 hour")
			os.Exit(1)
		}

		snap, err := internal_storage.ReadSnapshot(path)
		if err != nil {
			if os.IsNotExist(err) {
				fmt.Printf("No snapshot at %s, nothing to sweep\n", path)
				return
			}
			fmt.Printf("Failed to read snapshot: %v\n", err)
			os.Exit(1)
		}

		cutoff := time.Now().Add(-time.Duration(maxAgeHours) * time.Hour)
		kept := snap.Tasks[:0]
		removed := 0
		for _, rec := range snap.Tasks {
			if rec.Status.Terminal() && rec.CompletedAt != nil && rec.CompletedAt.Before(cutoff) {
				removed++
				continue
			}
			kept = append(kept, rec)
		}
		if removed == 0 {
			fmt.Println("No finished tasks old enough to sweep")
			return
		}

		store, err := internal_storage.NewFileStore(path)
		if err != nil {
			fmt.Printf("Failed to open store: %v\n", err)
			os.Exit(1)
		}
		snap.Tasks = kept
		snap.SavedAt = time.Now()
		if err := store.Save(snap); err != nil {
			fmt.Printf("Failed to write snapshot: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Swept %d finished tasks older than %dh from %s\n", removed, maxAgeHours, path)
	},
}

func main() {
	rootCmd.AddCommand(sweepCmd)
	sweepCmd.Flags().String("storage", "", "Snapshot file path (optional if NEXUS_TASKQUEUE_STORAGE_PATH is set)")
	sweepCmd.Flags().Int("max-age", 24, "Remove finished tasks older than this many hours")
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
