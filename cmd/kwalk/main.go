package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "kwalk",
	Short: "Train and watch walking policies on simulated robots",
	Long: `kwalk trains a PPO policy to walk a simulated humanoid and plays
policies back as an animated gif or a live mjpeg stream.

The robot comes from the builtin default humanoid or from a robot
registry (set KSIM_REGISTRY to override the default one). Training
artifacts: config, epoch statistics and checkpoints, go under a fresh
run directory.`,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Fatalf("%+v", err)
	}
}

// serveStream exposes a live encoder over HTTP.
func serveStream(h http.Handler, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/stream", h)
	log.Printf("streaming on http://localhost%s/stream", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Printf("mjpeg server: %v", err)
	}
}
