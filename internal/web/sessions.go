package web

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/clientdesk/internal/config"
	"github.com/JonMunkholm/clientdesk/internal/core"
)

// dialog is one open import dialog: an orchestrator plus the notifications
// it produced since the last response.
type dialog struct {
	id    uuid.UUID
	owner uuid.UUID
	orch  *core.Orchestrator
	flash *flashQueue

	// lastSeen is guarded by SessionRegistry.mu.
	lastSeen time.Time
}

// RegistryStats summarizes the registry for health checks.
type RegistryStats struct {
	Open      int   `json:"open"`
	Completed int64 `json:"completed"`
}

// SessionRegistry maps dialog ids to orchestrators. Dialogs idle for longer
// than the session TTL are closed by Sweep.
type SessionRegistry struct {
	store       core.Store
	maxFileSize int64
	ttl         time.Duration
	logger      *slog.Logger
	now         func() time.Time

	completed atomic.Int64

	mu      sync.Mutex
	dialogs map[uuid.UUID]*dialog
}

// NewSessionRegistry creates a registry whose dialogs commit into store.
func NewSessionRegistry(store core.Store, cfg config.ImportConfig, logger *slog.Logger) *SessionRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	maxFileSize := cfg.MaxFileSize
	if maxFileSize <= 0 {
		maxFileSize = core.DefaultMaxFileSize
	}
	return &SessionRegistry{
		store:       store,
		maxFileSize: maxFileSize,
		ttl:         cfg.SessionTTL,
		logger:      logger,
		now:         time.Now,
		dialogs:     make(map[uuid.UUID]*dialog),
	}
}

// Open creates a dialog owned by the user in ctx, if any.
func (r *SessionRegistry) Open(ctx context.Context) *dialog {
	id := uuid.New()
	owner, _ := core.UserIDFromContext(ctx)
	logger := r.logger.With("import_id", id.String(), "owner_id", owner.String())

	d := &dialog{
		id:    id,
		owner: owner,
		flash: &flashQueue{},
	}
	d.orch = core.NewOrchestrator(
		r.store,
		core.ContextIdentity{},
		core.MultiNotifier{d.flash, core.LogNotifier{Logger: logger}},
		core.WithMaxFileSize(r.maxFileSize),
		core.WithLogger(logger),
		core.WithHooks(core.Hooks{
			OnImportComplete: func() { r.completed.Add(1) },
			OnClose:          func() { r.remove(id) },
		}),
	)

	r.mu.Lock()
	d.lastSeen = r.now()
	r.dialogs[id] = d
	r.mu.Unlock()

	logger.Debug("import dialog opened")
	return d
}

// Get returns the dialog with id if the user in ctx may use it.
// Dialogs opened by another user are reported as not found.
func (r *SessionRegistry) Get(ctx context.Context, id uuid.UUID) (*dialog, error) {
	owner, _ := core.UserIDFromContext(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.dialogs[id]
	if !ok || d.owner != owner {
		return nil, core.ErrSessionNotFound
	}
	d.lastSeen = r.now()
	return d, nil
}

// Close closes the dialog and removes it. A dialog with a batch insert in
// flight cannot be closed.
func (r *SessionRegistry) Close(d *dialog) error {
	// OnClose removes the dialog from the map.
	return d.orch.Close()
}

func (r *SessionRegistry) remove(id uuid.UUID) {
	r.mu.Lock()
	delete(r.dialogs, id)
	r.mu.Unlock()
}

// Sweep closes dialogs idle since before now minus the TTL and returns how
// many were closed. Dialogs that are importing are left for the next sweep.
func (r *SessionRegistry) Sweep(_ context.Context, now time.Time) int {
	if r.ttl <= 0 {
		return 0
	}

	r.mu.Lock()
	var expired []*dialog
	for _, d := range r.dialogs {
		if now.Sub(d.lastSeen) > r.ttl {
			expired = append(expired, d)
		}
	}
	r.mu.Unlock()

	closed := 0
	for _, d := range expired {
		if err := r.Close(d); err != nil {
			if !errors.Is(err, core.ErrBusy) {
				r.logger.Warn("closing expired import dialog", "import_id", d.id, "error", err)
			}
			continue
		}
		closed++
	}
	return closed
}

// Stats returns the number of open dialogs and completed imports.
func (r *SessionRegistry) Stats() RegistryStats {
	r.mu.Lock()
	open := len(r.dialogs)
	r.mu.Unlock()
	return RegistryStats{Open: open, Completed: r.completed.Load()}
}
