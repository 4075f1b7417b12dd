package main

import (
	"context"
	"io"
	"net/http"
	"os"

	"github.com/google/uuid"

	"loginprobe/internal/probe"
	"loginprobe/pkg/logger"
)

func main() {
	log := logger.New("test-login")
	runID := uuid.NewString()

	// No timeout: the run blocks until the server answers or the transport gives up.
	client := &http.Client{}

	if err := run(context.Background(), log, runID, client, probe.DefaultRequest(), os.Stdout); err != nil {
		log.Fatal("Login request failed", map[string]interface{}{
			"run_id": runID,
			"error":  err.Error(),
		})
	}
}

// run performs one exchange, printing to out. The run ID only reaches the
// log on stderr, so out carries nothing but the console lines.
func run(ctx context.Context, log logger.Logger, runID string, client probe.Doer, req probe.Request, out io.Writer) error {
	resp, err := probe.Run(ctx, client, req, out)
	if err != nil {
		return err
	}

	log.Info("Login check finished", map[string]interface{}{
		"run_id": runID,
		"url":    req.URL,
		"status": resp.StatusCode,
	})
	return nil
}
