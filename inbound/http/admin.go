package http

import (
	"context"
	"event-registration/common"
	"event-registration/common/constant"
	"event-registration/common/otel"
	"log/slog"
	"net/http"
)

// QuantityCacheSeeder re-seeds the redis availability counters from the
// database, healing any drift between cache and store.
type QuantityCacheSeeder interface {
	SeedQuantityCache(ctx context.Context) error
}

type AdminHttp struct {
	Seeder QuantityCacheSeeder
}

func RegisterAdminHttp(mux *http.ServeMux, seeder QuantityCacheSeeder) *AdminHttp {
	in := &AdminHttp{Seeder: seeder}

	mux.HandleFunc("POST /api/admin/inventory/sync", in.syncInventory)

	return in
}

func (in AdminHttp) syncInventory(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer.Start(r.Context(), "AdminHttp.syncInventory")
	defer span.End()

	traceIdAttr := common.ExtractTraceIDFromCtx(ctx)
	slog.InfoContext(ctx, "inventory sync receive request", traceIdAttr)

	if err := in.Seeder.SeedQuantityCache(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to sync inventory counters", traceIdAttr, slog.Any(constant.LogFieldErr, err))
		writeErrorResponse(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, nil)
}
