package main

import (
	"context"
	"log"

	"github.com/noah-isme/lms-grading-api/internal/cli"
)

// @title LMS Grading API
// @version 1.0.0
// @description Weighted course grades, assignment statistics and grade curves
// @BasePath /
// @schemes http

func main() {
	if err := cli.Serve(context.Background()); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
