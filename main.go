package main

import (
	"context"
	"os"
	"time"

	"github.com/shandysiswandi/credvault/internal/app"
)

func main() {
	application := app.New()    // Initialize the application
	wait := application.Start() // Start the console and wait for it to end or a termination signal
	<-wait                      // Wait for the session to finish
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	application.Stop(ctx) // Stop the application gracefully
	cancel()
	os.Exit(application.ExitCode())
}
