package cmd

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// runClientCmd periodically triggers the admin inventory sync endpoint so
// the redis counters are reconciled with the database even when no
// submissions are flowing.
func runClientCmd(ctx context.Context) {
	cfg := newCfg("env")

	syncTicker := time.NewTicker(cfg.GetDuration("client.sync_interval"))
	defer syncTicker.Stop()

	syncUrl := cfg.GetString("client.sync_url")

	client := &http.Client{
		Timeout: 20 * time.Second,
	}

	slog.InfoContext(ctx, "client started", slog.String("sync_url", syncUrl))

	go func() {
		for {
			select {
			case <-syncTicker.C:
				go func() {
					reqCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()

					req, err := http.NewRequestWithContext(reqCtx, "POST", syncUrl, nil)
					if err != nil {
						slog.ErrorContext(ctx, "Failed to create request",
							slog.String("url", syncUrl),
							slog.Any("error", err))
						return
					}

					resp, _ := client.Do(req)
					if resp != nil {
						resp.Body.Close()
					}
				}()

			case <-ctx.Done():
				return
			}
		}
	}()

	<-ctx.Done()

	slog.InfoContext(ctx, "client stopped")
}
