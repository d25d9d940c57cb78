package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"familyspace/internal/config"
	"familyspace/internal/database"
	"familyspace/internal/logger"
	"familyspace/internal/service"
	"familyspace/migrations"
)

func main() {
	// Define subcommands
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)

	// Export flags
	exportFamily := exportCmd.Int64("family", 0, "Family ID to export (required)")
	exportOutput := exportCmd.String("output", "", "Output file path (default: family_<id>_YYYYMMDD_HHMMSS.json)")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logr, err := logger.New(cfg.LogLevel, "console", "familyspace-backup")
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logr.Sync()

	// Initialize database
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		logr.Fatal("failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	ctx := context.Background()

	// Run migrations to ensure schema is up to date
	if err := db.RunMigrations(ctx, migrations.FS); err != nil {
		logr.Fatal("failed to run migrations", zap.Error(err))
	}

	backupService := service.NewBackupService(db, service.NewCalendar(cfg.Location(), nil), logr)

	switch os.Args[1] {
	case "export":
		exportCmd.Parse(os.Args[2:])
		if *exportFamily <= 0 {
			fmt.Println("Error: -family flag is required")
			exportCmd.PrintDefaults()
			os.Exit(1)
		}
		if err := handleExport(ctx, backupService, *exportFamily, *exportOutput, logr); err != nil {
			logr.Fatal("export failed", zap.Error(err))
		}

	default:
		printUsage()
		os.Exit(1)
	}
}

func handleExport(ctx context.Context, backupService *service.BackupService, familyID int64, outputPath string, logr *zap.Logger) error {
	// Generate default filename if not provided
	if outputPath == "" {
		timestamp := time.Now().Format("20060102_150405")
		outputPath = fmt.Sprintf("family_%d_%s.json", familyID, timestamp)
	}

	// Ensure directory exists
	dir := filepath.Dir(outputPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	logr.Info("exporting family", zap.Int64("family_id", familyID), zap.String("output", outputPath))
	if _, err := backupService.Export(ctx, familyID, file); err != nil {
		file.Close()
		os.Remove(outputPath)
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}

	if info, err := os.Stat(outputPath); err == nil {
		logr.Info("export complete", zap.Float64("size_kb", float64(info.Size())/1024))
	}
	return nil
}

func printUsage() {
	fmt.Println("Family Space Backup Tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  backup export [options]    Export one family to a JSON file")
	fmt.Println()
	fmt.Println("Export Options:")
	fmt.Println("  -family <id>      Family ID to export (required)")
	fmt.Println("  -output <file>    Output file path (default: family_<id>_YYYYMMDD_HHMMSS.json)")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  backup export -family 1")
	fmt.Println("  backup export -family 1 -output backups/kims.json")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  DB_TYPE          Database type: sqlite, postgres, or mysql (default: sqlite)")
	fmt.Println("  DB_PATH          SQLite database path (default: ./familyspace.db)")
	fmt.Println("  DATABASE_URL     PostgreSQL or MySQL connection URL")
}
