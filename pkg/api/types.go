package api

import (
	"time"

	"github.com/rubiojr/hayao/pkg/core"
	"github.com/rubiojr/hayao/pkg/highlight"
	"github.com/rubiojr/hayao/pkg/realtime"
	"github.com/rubiojr/hayao/pkg/warehouse"
)

type ResultResponse struct {
	SheetName    string            `json:"sheet_name"`
	OriginalData core.Row          `json:"original_data"`
	Fields       []highlight.Field `json:"fields"`
}

type SearchResponse struct {
	Query      string           `json:"query"`
	Tokens     []string         `json:"tokens"`
	Results    []ResultResponse `json:"results"`
	TotalCount int              `json:"total_count"`
	Limit      int              `json:"limit"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	// Token and Position locate the problem in an invalid query.
	Token    string `json:"token,omitempty"`
	Position *int   `json:"position,omitempty"`
}

type StatusResponse struct {
	warehouse.Status
	Version string `json:"version"`
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}

// EventMessage is what the events WebSocket sends. The first message has
// type "init" and carries the current status; the following ones carry a
// lifecycle event.
type EventMessage struct {
	Type   string          `json:"type"`
	Status *StatusResponse `json:"status,omitempty"`
	Event  *realtime.Event `json:"event,omitempty"`
}
