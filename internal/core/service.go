// Package core hosts the local record service. It owns a persistence adapter
// and applies the domain mutators as full read-modify-write cycles.
package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"fieldbook/internal/kv"
	"fieldbook/internal/normalize"
	"fieldbook/internal/persistence"
	"fieldbook/internal/records"
	"fieldbook/pkg/domain"
)

var _ domain.Records = (*Service)(nil)

// ErrClosed is returned by every operation after Close.
var ErrClosed = errors.New("core: service closed")

// Service is the local implementation of domain.Records. Every mutation loads
// the stored graph, applies one mutator and saves the result while holding a
// single mutex. Reads load fresh, so writes made by another process through
// the same store become visible; concurrent writers still overwrite each
// other.
type Service struct {
	mu       sync.Mutex
	adapter  *persistence.Adapter
	closed   bool
	logger   Logger
	clock    Clock
	newID    func() string
	metrics  MetricsRecorder
	tracer   Tracer
	audit    AuditRecorder
	lastLoad persistence.LoadReport
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the service logger. The persistence adapter logs through it
// as well.
func WithLogger(l Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock sets the clock used for created and changed timestamps.
func WithClock(c Clock) ServiceOption {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithIDGenerator sets the id source for created entities.
func WithIDGenerator(fn func() string) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithMetricsRecorder sets the recorder observing each operation.
func WithMetricsRecorder(m MetricsRecorder) ServiceOption {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithTracer sets the tracer opening one span per operation.
func WithTracer(t Tracer) ServiceOption {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithAuditRecorder sets the recorder receiving one entry per mutation.
func WithAuditRecorder(a AuditRecorder) ServiceOption {
	return func(s *Service) {
		if a != nil {
			s.audit = a
		}
	}
}

// Open builds a service over store. The store is probed once; an unusable
// store is replaced by process memory for the service's lifetime.
func Open(ctx context.Context, store kv.Store, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("core: nil store")
	}
	s := &Service{
		logger:  noopLogger{},
		clock:   ClockFunc(nil),
		newID:   records.NewID,
		metrics: noopMetrics{},
		tracer:  noopTracer{},
		audit:   noopAudit{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.adapter = persistence.Open(ctx, store, persistence.WithLogger(s.logger))
	return s, nil
}

// OpenMemory returns a service over a fresh in-memory store, for tests and
// throwaway sessions.
func OpenMemory(opts ...ServiceOption) *Service {
	s, _ := Open(context.Background(), kv.NewMemory(), opts...)
	return s
}

// Close releases the underlying store. Further calls fail with ErrClosed.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.adapter.Close()
}

// Driver reports the storage driver in use after the probe.
func (s *Service) Driver() kv.Driver { return s.adapter.Driver() }

// Degraded reports whether the configured store was unusable.
func (s *Service) Degraded() bool { return s.adapter.Degraded() }

// LastLoad describes the most recent load, so callers can show a "failed to
// load" notice.
func (s *Service) LastLoad() persistence.LoadReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastLoad
}

func (s *Service) env() records.Env {
	return records.Env{NewID: s.newID, Now: s.clock.Now}
}

func (s *Service) load(ctx context.Context) domain.Graph {
	g, report := s.adapter.Load(ctx)
	s.lastLoad = report
	return g
}

// operation names one service call for metrics, tracing and audit.
type operation struct {
	name   string
	entity domain.EntityType
	action AuditAction
	target string
}

func (s *Service) observe(ctx context.Context, op operation, entityID string, started time.Time, err error) {
	elapsed := time.Since(started)
	s.metrics.Observe(ctx, op.name, err == nil, elapsed)
	if op.action == "" {
		if err != nil {
			s.logger.Warn("core: read failed", "operation", op.name, "error", err)
		}
		return
	}
	entry := AuditEntry{
		Timestamp: s.clock.Now().UTC(),
		Operation: op.name,
		Entity:    op.entity,
		Action:    op.action,
		EntityID:  entityID,
		Status:    AuditStatusSuccess,
		Duration:  elapsed,
	}
	if err != nil {
		entry.Status = AuditStatusError
		entry.Error = err.Error()
		s.logger.Warn("core: operation failed", "operation", op.name, "id", entityID, "error", err)
	} else {
		s.logger.Debug("core: operation applied", "operation", op.name, "id", entityID)
	}
	s.audit.Record(ctx, entry)
}

// mutate runs one read-modify-write cycle. The graph is saved only when the
// mutator succeeds, and never when the store failed the read.
func mutate[T any](ctx context.Context, s *Service, op operation, fn func(domain.Graph, records.Env) (domain.Graph, T, error)) (result T, err error) {
	started := time.Now()
	ctx, span := s.tracer.Start(ctx, op.name)
	defer func() {
		id := op.target
		if err == nil && op.action == ActionCreate {
			id = entityID(result)
		}
		s.observe(ctx, op, id, started, err)
		span.End(err)
	}()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return result, ErrClosed
	}
	g := s.load(ctx)
	if s.lastLoad.Unreadable() {
		return result, fmt.Errorf("core: %s: stored records could not be read: %w", op.name, s.lastLoad.Err)
	}
	next, result, err := fn(g, s.env())
	if err != nil {
		return result, err
	}
	if err := s.adapter.Save(ctx, next); err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}

// remove adapts a delete mutator to mutate.
func remove(fn func(domain.Graph, records.Env) (domain.Graph, error)) func(domain.Graph, records.Env) (domain.Graph, struct{}, error) {
	return func(g domain.Graph, env records.Env) (domain.Graph, struct{}, error) {
		out, err := fn(g, env)
		return out, struct{}{}, err
	}
}

// read runs fn against a freshly loaded graph.
func read[T any](ctx context.Context, s *Service, name string, fn func(domain.Graph) (T, error)) (result T, err error) {
	started := time.Now()
	ctx, span := s.tracer.Start(ctx, name)
	defer func() {
		s.observe(ctx, operation{name: name}, "", started, err)
		span.End(err)
	}()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return result, ErrClosed
	}
	return fn(s.load(ctx))
}

func entityID(v any) string {
	switch e := v.(type) {
	case domain.Customer:
		return e.ID
	case domain.Site:
		return e.ID
	case domain.Contact:
		return e.ID
	case domain.SubCustomer:
		return e.ID
	case domain.Machine:
		return e.ID
	case domain.Project:
		return e.ID
	case domain.WorkOrder:
		return e.ID
	case domain.PurchaseOrder:
		return e.ID
	case domain.ProjectTask:
		return e.ID
	case domain.Document:
		return e.ID
	case domain.OnsiteReport:
		return e.ID
	case domain.User:
		return e.ID
	}
	return ""
}

// Graph returns the whole normalized record graph.
func (s *Service) Graph(ctx context.Context) (domain.Graph, error) {
	return read(ctx, s, "graph", func(g domain.Graph) (domain.Graph, error) { return g, nil })
}

// ListCustomers returns every customer with everything it owns, in display
// order.
func (s *Service) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	return read(ctx, s, "list_customers", func(g domain.Graph) ([]domain.Customer, error) {
		return g.Customers, nil
	})
}

// GetCustomer returns one customer.
func (s *Service) GetCustomer(ctx context.Context, id string) (domain.Customer, error) {
	return read(ctx, s, "get_customer", func(g domain.Graph) (domain.Customer, error) {
		c, ok := g.FindCustomer(id)
		if !ok {
			return domain.Customer{}, domain.ErrNotFound{Entity: domain.EntityCustomer, ID: id}
		}
		return c, nil
	})
}

// GetProject returns one project and the id of the customer owning it.
func (s *Service) GetProject(ctx context.Context, id string) (domain.Project, string, error) {
	type found struct {
		project  domain.Project
		customer string
	}
	res, err := read(ctx, s, "get_project", func(g domain.Graph) (found, error) {
		p, owner, ok := g.FindProject(id)
		if !ok {
			return found{}, domain.ErrNotFound{Entity: domain.EntityProject, ID: id}
		}
		return found{project: p, customer: owner}, nil
	})
	return res.project, res.customer, err
}

// ListUsers returns the users in display order.
func (s *Service) ListUsers(ctx context.Context) ([]domain.User, error) {
	return read(ctx, s, "list_users", func(g domain.Graph) ([]domain.User, error) { return g.Users, nil })
}

// BusinessSettings returns the company-wide settings.
func (s *Service) BusinessSettings(ctx context.Context) (domain.BusinessSettings, error) {
	return read(ctx, s, "business_settings", func(g domain.Graph) (domain.BusinessSettings, error) {
		return g.BusinessSettings, nil
	})
}

// Export renders the normalized graph as indented JSON.
func (s *Service) Export(ctx context.Context) ([]byte, error) {
	return read(ctx, s, "export", func(g domain.Graph) ([]byte, error) {
		return json.MarshalIndent(g, "", "  ")
	})
}

// Import replaces the stored graph with raw after normalizing it. Any stored
// vintage is accepted; unparseable input is rejected and nothing changes.
func (s *Service) Import(ctx context.Context, raw []byte) (domain.Graph, error) {
	op := operation{name: "import", action: ActionImport}
	return mutate(ctx, s, op, func(_ domain.Graph, _ records.Env) (domain.Graph, domain.Graph, error) {
		g, err := normalize.Decode(raw, normalize.WithLogger(s.logger))
		if err != nil {
			return domain.Graph{}, domain.Graph{}, domain.Invalid("import", "The file is not a readable record export.")
		}
		return g, g, nil
	})
}
