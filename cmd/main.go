package main

import (
	"fmt"
	"os"

	"github.com/yungbote/complaintdesk-backend/internal/app"
)

func main() {
	a, err := app.New()
	if err != nil {
		fmt.Printf("Failed to initialize app: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	a.Start()
	if err := a.Run(); err != nil {
		a.Log.Error("HTTP server exited", "error", err)
		os.Exit(1)
	}
}
