package cron

import (
	"context"
	"event-registration/common"
	"event-registration/common/constant"
	"event-registration/common/vars"
	"event-registration/model"
	"event-registration/outbound/store"
	"fmt"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"log/slog"
	"strconv"
	"time"
)

// AvailabilityCron keeps the lock-free availability snapshot fresh: the
// database is authoritative, redis counters overlay the latest reservations
// between refreshes.
type AvailabilityCron struct {
	Cfg       *viper.Viper
	Cache     *redis.Client
	Inventory *store.InventoryStore
}

func (in AvailabilityCron) Start(ctx context.Context) {
	refreshTicker := time.NewTicker(in.Cfg.GetDuration("cron.availability.refresh.interval"))
	defer refreshTicker.Stop()

	in.refresh(ctx)

	slog.Info("availability cron started")

	for {
		select {
		case <-refreshTicker.C:
			in.refresh(ctx)
		case <-ctx.Done():
			slog.Info("availability cron stopped")
			return
		}
	}
}

func (in AvailabilityCron) refresh(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, in.Cfg.GetDuration("cron.availability.refresh.timeout"))
	defer cancel()

	traceIdAttr := common.ExtractTraceIDFromCtx(ctx)

	slog.DebugContext(ctx, "refreshing availability snapshot", traceIdAttr)

	ticketTypes, err := in.Inventory.ListAvailability(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list ticket types", traceIdAttr, slog.Any(constant.LogFieldErr, err))
		return
	}

	if len(ticketTypes) == 0 {
		vars.SetAvailability(nil)
		return
	}

	quantityCacheKeys := make([]string, 0, len(ticketTypes))
	for _, t := range ticketTypes {
		quantityCacheKeys = append(quantityCacheKeys, fmt.Sprintf(constant.TicketTypeQuantityKey, t.ID))
	}

	quantities, err := in.Cache.MGet(ctx, quantityCacheKeys...).Result()
	if err != nil {
		slog.ErrorContext(ctx, "failed to get quantities from cache", traceIdAttr, slog.Any(constant.LogFieldErr, err))
		return
	}

	snapshot := make(map[string][]model.TicketAvailability)
	for i, t := range ticketTypes {
		available := t.AvailableQuantity

		if raw, ok := quantities[i].(string); ok {
			cached, err := strconv.Atoi(raw)
			if err != nil {
				slog.ErrorContext(ctx, "failed to convert cached quantity to int", traceIdAttr, slog.Any(constant.LogFieldErr, err))
				return
			}
			available = int32(cached)
		}

		snapshot[t.EventID] = append(snapshot[t.EventID], model.TicketAvailability{
			ID:                t.ID,
			Name:              t.Name,
			Price:             t.Price,
			AvailableQuantity: available,
		})
	}

	vars.SetAvailability(snapshot)

	slog.DebugContext(ctx, "availability snapshot refreshed", traceIdAttr)
}

// SeedQuantityCache overwrites the redis counters with the database values,
// used at startup and by the admin sync endpoint to heal drift.
func (in AvailabilityCron) SeedQuantityCache(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	ticketTypes, err := in.Inventory.ListAvailability(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list ticket types", slog.Any(constant.LogFieldErr, err))
		return fmt.Errorf("list ticket types: %w", err)
	}

	if len(ticketTypes) == 0 {
		slog.InfoContext(ctx, "no ticket types found to seed")
		return nil
	}

	pipe := in.Cache.TxPipeline()
	for _, t := range ticketTypes {
		pipe.Set(ctx, fmt.Sprintf(constant.TicketTypeQuantityKey, t.ID), t.AvailableQuantity, 0)
	}

	if _, err = pipe.Exec(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to seed ticket type counters", slog.Any(constant.LogFieldErr, err))
		return fmt.Errorf("execute pipeline: %w", err)
	}

	slog.InfoContext(ctx, "ticket type counters seeded")
	return nil
}
