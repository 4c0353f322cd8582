package http

import (
	"event-registration/common/vars"
	"event-registration/model"
	"net/http"
)

type TicketHttp struct{}

func RegisterTicketHttp(mux *http.ServeMux) *TicketHttp {
	in := &TicketHttp{}

	mux.HandleFunc("GET /api/events/{eventID}/ticket-types", in.list)

	return in
}

// list serves availability from the lock-free snapshot refreshed by the
// cron, never touching the database on the hot path.
func (in *TicketHttp) list(w http.ResponseWriter, r *http.Request) {
	ticketTypes := vars.GetAvailability(r.PathValue("eventID"))
	if ticketTypes == nil {
		ticketTypes = []model.TicketAvailability{}
	}

	writeJSONResponse(w, http.StatusOK, model.ListTicketTypesResponse{TicketTypes: ticketTypes})
}
