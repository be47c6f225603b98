package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"imbsoft.co.id/attendance/core"
	"imbsoft.co.id/attendance/infrastructure/devops"
)

// Refreshes machine-employee links from every active machine's user
// listing.
func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
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

	if err := core.SyncEmployeeIDs(ctx, db, machines, core.ModeUnattended); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Done.")
}
