// Package normalize turns stored JSON of any vintage into a well-formed
// domain.Graph. It never fails on content: unusable values fall back to
// defaults or disappear, and the result is the same no matter how many times
// it is applied.
package normalize

import (
	"encoding/json"
	"fmt"

	"fieldbook/internal/logging"
	"fieldbook/internal/schema"
	"fieldbook/pkg/domain"
)

// Option customises a normalization run.
type Option func(*options)

type options struct {
	logger logging.Logger
}

// WithLogger reports every dropped element at debug level.
func WithLogger(l logging.Logger) Option {
	return func(o *options) { o.logger = logging.OrNoop(l) }
}

func apply(opts []Option) options {
	o := options{logger: logging.Noop{}}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Decode parses raw and normalizes the result. A bare top-level array is the
// oldest stored form, a list of customers. Malformed JSON yields the empty
// graph together with the parse error.
func Decode(raw []byte, opts ...Option) (domain.Graph, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return domain.EmptyGraph(), fmt.Errorf("normalize: parse: %w", err)
	}
	return Document(doc, opts...), nil
}

// Document normalizes an already-decoded JSON value.
func Document(doc any, opts ...Option) domain.Graph {
	o := apply(opts)
	if list, ok := doc.([]any); ok {
		doc = map[string]any{"customers": list}
	}
	s := newSchemas(func(at schema.Path, reason string) {
		o.logger.Debug("normalize: dropped element", "path", string(at), "reason", reason)
	})
	out, ok := s.graph.Normalize(doc, "")
	if !ok {
		return domain.EmptyGraph()
	}
	g, err := schema.Into[domain.Graph](out)
	if err != nil {
		o.logger.Error("normalize: typed decode failed, decoding element-wise", "error", err)
		g = salvage(out, o.logger)
	}
	repair(&g)
	return g
}

// salvage decodes each customer, user and the settings on their own, so a
// value the typed graph rejects costs only the element holding it.
func salvage(out map[string]any, logger logging.Logger) domain.Graph {
	var g domain.Graph
	g.Customers = salvageList[domain.Customer](out["customers"], "customers", logger)
	g.Users = salvageList[domain.User](out["users"], "users", logger)
	if raw, ok := out["businessSettings"]; ok {
		settings, err := schema.Into[domain.BusinessSettings](raw)
		if err != nil {
			logger.Warn("normalize: dropped element", "path", "businessSettings", "reason", err.Error())
		} else {
			g.BusinessSettings = settings
		}
	}
	return g
}

func salvageList[T any](raw any, key string, logger logging.Logger) []T {
	items, _ := raw.([]any)
	out := make([]T, 0, len(items))
	for i, item := range items {
		v, err := schema.Into[T](item)
		if err != nil {
			logger.Warn("normalize: dropped element", "path", string(schema.Path(key).Index(i)), "reason", err.Error())
			continue
		}
		out = append(out, v)
	}
	return out
}

// Graph re-normalizes a typed graph. Normalizing a normalized graph returns
// it unchanged. The only error is a graph that cannot be encoded, such as
// one holding a time outside years 0 through 9999.
func Graph(g domain.Graph, opts ...Option) (domain.Graph, error) {
	raw, err := Encode(g)
	if err != nil {
		return domain.Graph{}, err
	}
	out, err := Decode(raw, opts...)
	if err != nil {
		return domain.Graph{}, err
	}
	return out, nil
}

// Encode renders g in its persisted form. Output is deterministic for a
// normalized graph.
func Encode(g domain.Graph) ([]byte, error) {
	raw, err := json.Marshal(g)
	if err != nil {
		return nil, fmt.Errorf("normalize: encode: %w", err)
	}
	return raw, nil
}
