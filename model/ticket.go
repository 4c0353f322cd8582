package model

import "time"

type TicketType struct {
	ID                string     `json:"id"`
	EventID           string     `json:"event_id"`
	Name              string     `json:"name"`
	Price             int64      `json:"price"`
	MaxQuantity       int32      `json:"max_quantity"`
	AvailableQuantity int32      `json:"available_quantity"`
	IsActive          bool       `json:"is_active"`
	SalesStartDate    *time.Time `json:"sales_start_date,omitempty"`
	SalesEndDate      *time.Time `json:"sales_end_date,omitempty"`
}

// OnSale reports whether the ticket type can be reserved at the given time.
func (t TicketType) OnSale(now time.Time) bool {
	if !t.IsActive {
		return false
	}
	if t.SalesStartDate != nil && now.Before(*t.SalesStartDate) {
		return false
	}
	if t.SalesEndDate != nil && now.After(*t.SalesEndDate) {
		return false
	}
	return true
}

type TicketAvailability struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Price             int64  `json:"price"`
	AvailableQuantity int32  `json:"available_quantity"`
}
