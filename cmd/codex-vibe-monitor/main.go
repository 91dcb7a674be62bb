// Command codex-vibe-monitor performs one fetch-and-store cycle against the
// upstream quota endpoint. It takes no flags; an external scheduler is
// expected to invoke it periodically.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/IvanLi-CN/codex-vibe-monitor/internal/app"
	"github.com/IvanLi-CN/codex-vibe-monitor/internal/config"
	"github.com/IvanLi-CN/codex-vibe-monitor/internal/logging"
	"github.com/IvanLi-CN/codex-vibe-monitor/internal/quota"
)

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	logger, err := logging.Setup(cfg.LogLevel)
	if err != nil {
		return err
	}

	client := quota.NewHTTPClient(cfg.RequestTimeout)
	runner := app.NewRunner(cfg, logger, client)

	res, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	if res.Fetched == 0 {
		fmt.Println("No records returned from quota endpoint.")
		return nil
	}
	fmt.Printf("Inserted %d new record(s) out of %d fetched.\n", res.Inserted, res.Fetched)
	return nil
}
