package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"imbsoft.co.id/attendance/core"
	"imbsoft.co.id/attendance/infrastructure/devops"
)

// Cron entrypoint: downloads today's punch logs from every active machine
// in unattended mode. One machine failing never aborts the others.
func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	cfg, err := devops.Load(ctx)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	db, err := core.OpenDatabase(cfg.DSN, cfg.MaxConnections, core.LogLevelWarn)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	var machines []core.Machine
	if err := db.Where("active = ?", true).Order("port asc").Find(&machines).Error; err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Downloading attendance from %d machines...\n", len(machines))
	if err := core.DownloadAttendance(ctx, db, machines, core.ModeUnattended); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Done.")
}
