package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	_ "dailyreport/api/swagger" // swagger docs
)

// @title           Daily Report API
// @version         1.0
// @description     Work records, daily report submission and multi-supervisor review.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
