package main

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"imbsoft.co.id/attendance/core"
	"imbsoft.co.id/attendance/infrastructure/devops"
	"imbsoft.co.id/attendance/web/common"
	"imbsoft.co.id/attendance/web/middlewares"
)

func main() {
	ctx := context.Background()

	cfg, err := devops.Load(ctx)
	if err != nil {
		log.Fatal(err)
	}

	db, err := core.OpenDatabase(cfg.DSN, cfg.MaxConnections, core.LogLevelWarn)
	if err != nil {
		log.Fatal(err)
	}

	jwtSecret, err := base64.StdEncoding.DecodeString(cfg.SigningSecret)
	if err != nil {
		log.Fatal("Failed to decode JWT secret:", err)
	}

	r := gin.Default()

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	protected := r.Group("/api/attendance/v1.0")
	protected.Use(middlewares.Authentication(jwtSecret))
	{
		protected.GET("/machines", listMachinesHandler(db))
		protected.POST("/machines/:id/test", testMachineHandler(db))
		protected.POST("/machines/:id/sync-employees", syncEmployeesHandler(db))
		protected.POST("/machines/:id/download", downloadMachineHandler(db))
		protected.POST("/download", downloadAllHandler(db))
	}

	r.Run(cfg.ListenAddr)
}

type machineInfo struct {
	core.Machine
	EmployeeCount int64 `json:"employeeCount"`
}

func listMachinesHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var machines []core.Machine
		if err := db.Order("port asc").Find(&machines).Error; err != nil {
			c.JSON(http.StatusInternalServerError, common.NewErrorResponse(err.Error()))
			return
		}

		infos := make([]machineInfo, 0, len(machines))
		for _, m := range machines {
			var count int64
			if err := db.Model(&core.MachineEmployee{}).Where("machine_id = ?", m.ID).Count(&count).Error; err != nil {
				c.JSON(http.StatusInternalServerError, common.NewErrorResponse(err.Error()))
				return
			}
			infos = append(infos, machineInfo{Machine: m, EmployeeCount: count})
		}

		c.JSON(http.StatusOK, common.NewSuccessResponse(infos))
	}
}

func testMachineHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		machine, ok := findMachine(c, db)
		if !ok {
			return
		}

		if err := core.TryConnection(c.Request.Context(), machine); err != nil {
			c.JSON(http.StatusOK, common.NewErrorResponse(fmt.Sprintf("connection test failed: %v", err)))
			return
		}

		c.JSON(http.StatusOK, common.NewSuccessResponse(gin.H{"message": "connection test succeeded"}))
	}
}

func syncEmployeesHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		machine, ok := findMachine(c, db)
		if !ok {
			return
		}

		if err := core.SyncEmployeeIDs(c.Request.Context(), db, []core.Machine{*machine}, core.ModeInteractive); err != nil {
			c.JSON(http.StatusInternalServerError, common.NewErrorResponse(err.Error()))
			return
		}

		c.JSON(http.StatusOK, common.NewSuccessResponse(gin.H{}))
	}
}

func downloadMachineHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		machine, ok := findMachine(c, db)
		if !ok {
			return
		}
		runDownload(c, db, []core.Machine{*machine})
	}
}

func downloadAllHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var machines []core.Machine
		if err := db.Where("active = ?", true).Order("port asc").Find(&machines).Error; err != nil {
			c.JSON(http.StatusInternalServerError, common.NewErrorResponse(err.Error()))
			return
		}
		runDownload(c, db, machines)
	}
}

func runDownload(c *gin.Context, db *gorm.DB, machines []core.Machine) {
	err := core.DownloadAttendance(c.Request.Context(), db, machines, core.ModeInteractive)
	if errors.Is(err, core.ErrOutsideSyncWindow) {
		c.JSON(http.StatusConflict, common.NewErrorResponse(err.Error()))
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, common.NewErrorResponse(err.Error()))
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(gin.H{}))
}

func findMachine(c *gin.Context, db *gorm.DB) (*core.Machine, bool) {
	var machine core.Machine
	err := db.First(&machine, c.Param("id")).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, common.NewErrorResponse("machine not found"))
		return nil, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, common.NewErrorResponse(err.Error()))
		return nil, false
	}
	return &machine, true
}
