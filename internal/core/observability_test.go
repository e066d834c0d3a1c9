package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"expvar"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"fieldbook/pkg/domain"
)

type captureAuditRecorder struct {
	entries []AuditEntry
}

func (c *captureAuditRecorder) Record(_ context.Context, entry AuditEntry) {
	c.entries = append(c.entries, entry)
}

func (c *captureAuditRecorder) has(op string, status AuditStatus, predicate func(AuditEntry) bool) bool {
	for _, entry := range c.entries {
		if entry.Operation == op && entry.Status == status {
			if predicate == nil || predicate(entry) {
				return true
			}
		}
	}
	return false
}

type metricsCall struct {
	op       string
	success  bool
	duration time.Duration
}

type captureMetricsRecorder struct {
	calls []metricsCall
}

func (c *captureMetricsRecorder) Observe(_ context.Context, op string, success bool, duration time.Duration) {
	c.calls = append(c.calls, metricsCall{op: op, success: success, duration: duration})
}

func (c *captureMetricsRecorder) has(op string, success bool) bool {
	for _, call := range c.calls {
		if call.op == op && call.success == success {
			return true
		}
	}
	return false
}

type spanRecord struct {
	op  string
	err error
}

type captureTracer struct {
	started []string
	ended   []spanRecord
}

func (c *captureTracer) Start(ctx context.Context, op string) (context.Context, TraceSpan) {
	c.started = append(c.started, op)
	return ctx, &captureSpan{tracer: c, op: op}
}

func (c *captureTracer) has(op string, success bool) bool {
	for _, record := range c.ended {
		if record.op == op && (record.err == nil) == success {
			return true
		}
	}
	return false
}

type captureSpan struct {
	tracer *captureTracer
	op     string
}

func (s *captureSpan) End(err error) {
	s.tracer.ended = append(s.tracer.ended, spanRecord{op: s.op, err: err})
}

type captureLogger struct {
	debugs, infos, warns []string
}

func (c *captureLogger) Debug(msg string, _ ...any) { c.debugs = append(c.debugs, msg) }
func (c *captureLogger) Info(msg string, _ ...any)  { c.infos = append(c.infos, msg) }
func (c *captureLogger) Warn(msg string, _ ...any)  { c.warns = append(c.warns, msg) }
func (c *captureLogger) Error(string, ...any)       {}

func TestServiceObservability(t *testing.T) {
	ctx := context.Background()
	audit := &captureAuditRecorder{}
	metrics := &captureMetricsRecorder{}
	tracer := &captureTracer{}
	logger := &captureLogger{}
	svc := newTestService(t,
		WithAuditRecorder(audit),
		WithMetricsRecorder(metrics),
		WithTracer(tracer),
		WithLogger(logger),
	)

	c, err := svc.CreateCustomer(ctx, domain.CustomerInput{Name: "Acme"})
	if err != nil {
		t.Fatalf("create customer: %v", err)
	}
	if !audit.has("create_customer", AuditStatusSuccess, func(e AuditEntry) bool {
		return e.EntityID == c.ID && e.Entity == domain.EntityCustomer && e.Action == ActionCreate && e.Timestamp.Equal(fixedNow)
	}) {
		t.Fatalf("expected audit entry for create_customer, got %+v", audit.entries)
	}
	if _, err := svc.CreateCustomer(ctx, domain.CustomerInput{Name: "acme"}); err == nil {
		t.Fatalf("expected duplicate to fail")
	}
	if !audit.has("create_customer", AuditStatusError, func(e AuditEntry) bool { return e.Error != "" }) {
		t.Fatalf("expected audit entry for failed create_customer")
	}
	if err := svc.DeleteCustomer(ctx, c.ID); err != nil {
		t.Fatalf("delete customer: %v", err)
	}
	if !audit.has("delete_customer", AuditStatusSuccess, func(e AuditEntry) bool { return e.EntityID == c.ID }) {
		t.Fatalf("expected audit entry for delete_customer")
	}
	if _, err := svc.ListCustomers(ctx); err != nil {
		t.Fatalf("list customers: %v", err)
	}
	for _, e := range audit.entries {
		if e.Operation == "list_customers" {
			t.Fatalf("reads must not be audited: %+v", e)
		}
	}

	if !metrics.has("create_customer", true) || !metrics.has("create_customer", false) || !metrics.has("list_customers", true) {
		t.Fatalf("unexpected metric calls: %+v", metrics.calls)
	}
	if !tracer.has("create_customer", true) || !tracer.has("create_customer", false) || !tracer.has("delete_customer", true) {
		t.Fatalf("unexpected spans: %+v", tracer.ended)
	}
	if len(tracer.started) != len(tracer.ended) {
		t.Fatalf("every span must end: started %d ended %d", len(tracer.started), len(tracer.ended))
	}
	if len(logger.debugs) == 0 || len(logger.warns) == 0 {
		t.Fatalf("expected debug and warn logs, got %+v", logger)
	}
}

func TestClockFuncDefaultsToUTC(t *testing.T) {
	var clock ClockFunc
	if loc := clock.Now().Location(); loc != time.UTC {
		t.Fatalf("expected UTC, got %v", loc)
	}
	fixed := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	if got := ClockFunc(func() time.Time { return fixed }).Now(); !got.Equal(fixed) {
		t.Fatalf("expected %v, got %v", fixed, got)
	}
}

func TestExpvarMetricsRecorder(t *testing.T) {
	rec := NewExpvarMetricsRecorder("")
	rec.Observe(context.Background(), "create_customer", true, 2*time.Millisecond)
	rec.Observe(context.Background(), "create_customer", false, time.Millisecond)
	rec.Observe(context.Background(), "", true, time.Millisecond)

	snap := rec.Snapshot()
	if snap.Results["create_customer"]["success"] != 1 || snap.Results["create_customer"]["error"] != 1 {
		t.Fatalf("unexpected results: %+v", snap.Results)
	}
	if snap.DurationsMS["create_customer"] != 3 {
		t.Fatalf("expected 3ms total, got %v", snap.DurationsMS["create_customer"])
	}
	if len(snap.Results) != 1 {
		t.Fatalf("empty operation must be ignored: %+v", snap.Results)
	}
	v := expvar.Get(rec.Name())
	if v == nil || !strings.Contains(v.String(), "create_customer") {
		t.Fatalf("expected published expvar %s", rec.Name())
	}
}

func TestJSONTracerWritesEntries(t *testing.T) {
	var buf bytes.Buffer
	tracer := NewJSONTracer(&buf)
	_, span := tracer.Start(context.Background(), "import")
	span.End(errors.New("boom"))
	_, span = tracer.Start(context.Background(), "export")
	span.End(nil)

	entries := tracer.Entries()
	if len(entries) != 2 || entries[0].Status != "error" || entries[0].Error != "boom" || entries[1].Status != "success" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
	dec := json.NewDecoder(&buf)
	var first JSONTraceEntry
	if err := dec.Decode(&first); err != nil {
		t.Fatalf("decode trace line: %v", err)
	}
	if first.Operation != "import" {
		t.Fatalf("unexpected first line: %+v", first)
	}
}

func TestLogAuditRecorder(t *testing.T) {
	logger := &captureLogger{}
	rec := LogAuditRecorder{Logger: logger}
	rec.Record(context.Background(), AuditEntry{Operation: "create_user", Status: AuditStatusSuccess})
	rec.Record(context.Background(), AuditEntry{Operation: "delete_user", Status: AuditStatusError, Error: "gone"})
	if len(logger.infos) != 1 || len(logger.warns) != 1 {
		t.Fatalf("expected one info and one warn, got %+v", logger)
	}
	LogAuditRecorder{}.Record(context.Background(), AuditEntry{})
}

func TestPrometheusMetricsRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := NewPrometheusMetricsRecorder(reg, "")
	if err != nil {
		t.Fatalf("new recorder: %v", err)
	}
	svc := newTestService(t, WithMetricsRecorder(rec))
	ctx := context.Background()
	if _, err := svc.CreateCustomer(ctx, domain.CustomerInput{Name: "Acme"}); err != nil {
		t.Fatalf("create customer: %v", err)
	}
	if _, err := svc.CreateCustomer(ctx, domain.CustomerInput{Name: "Acme"}); err == nil {
		t.Fatalf("expected duplicate to fail")
	}

	if got := testutil.ToFloat64(rec.operations.WithLabelValues("create_customer", "true")); got != 1 {
		t.Fatalf("expected 1 success, got %v", got)
	}
	if got := testutil.ToFloat64(rec.operations.WithLabelValues("create_customer", "false")); got != 1 {
		t.Fatalf("expected 1 failure, got %v", got)
	}
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{"fieldbook_service_operations_total", "fieldbook_service_operation_duration_seconds"} {
		if !names[want] {
			t.Fatalf("missing metric family %s in %v", want, names)
		}
	}

	if _, err := NewPrometheusMetricsRecorder(reg, ""); err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}
}
