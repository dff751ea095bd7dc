package core

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Semantic header names recognized in the import file.
const (
	HeaderCompanyName = "Firmenname"
	HeaderPostalCode  = "PLZ"
	HeaderCity        = "Stadt"
)

// Field names used when reporting validation errors.
const (
	FieldCompanyName = "companyName"
	FieldPostalCode  = "postalCode"
	FieldCity        = "city"
)

// Record is one parsed data line of an import file.
// Columns with unrecognized headers are kept as text in Extra.
type Record struct {
	CompanyName string            `json:"companyName"`
	PostalCode  *int              `json:"postalCode,omitempty"`
	City        *string           `json:"city,omitempty"`
	Extra       map[string]string `json:"extra,omitempty"`
}

// NewClient is the payload handed to the store for one imported record.
type NewClient struct {
	CompanyName string
	PostalCode  *int
	City        *string
	OwnerID     uuid.UUID
}

// Client is a persisted client as returned by the store.
type Client struct {
	ID          uuid.UUID `json:"id"`
	CompanyName string    `json:"companyName"`
	PostalCode  *int      `json:"postalCode,omitempty"`
	City        *string   `json:"city,omitempty"`
	OwnerID     uuid.UUID `json:"ownerId"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Store persists clients.
// InsertBatch must insert all clients in a single operation and may reject
// the whole batch, e.g. on a duplicate key.
type Store interface {
	InsertBatch(ctx context.Context, clients []NewClient) ([]Client, error)
}

// Identity resolves the user on whose behalf an import runs.
type Identity interface {
	CurrentUserID(ctx context.Context) (uuid.UUID, error)
}

// Notifier surfaces messages to the user. Calls are fire-and-forget.
type Notifier interface {
	NotifySuccess(ctx context.Context, text string)
	NotifyError(ctx context.Context, text string)
}

// Hooks are optional callbacks fired by the orchestrator.
type Hooks struct {
	// OnImportComplete fires once after a successful batch insert.
	OnImportComplete func()
	// OnClose fires when the dialog is cancelled or closed.
	OnClose func()
}

// Phase is the orchestrator's current state in the import state machine.
type Phase string

const (
	PhaseIdle         Phase = "idle"
	PhaseFileSelected Phase = "file_selected"
	PhaseParsing      Phase = "parsing"
	PhasePreviewed    Phase = "previewed"
	PhaseImporting    Phase = "importing"
	PhaseCompleted    Phase = "completed"
	PhaseFailed       Phase = "failed"
)

// toNewClients stamps records with the owning user.
// Empty optional text is sent as absent.
func toNewClients(records []Record, owner uuid.UUID) []NewClient {
	clients := make([]NewClient, len(records))
	for i, r := range records {
		c := NewClient{
			CompanyName: r.CompanyName,
			PostalCode:  r.PostalCode,
			OwnerID:     owner,
		}
		if r.City != nil && *r.City != "" {
			city := *r.City
			c.City = &city
		}
		clients[i] = c
	}
	return clients
}
