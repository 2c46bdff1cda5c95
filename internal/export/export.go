// Package export ships assembled reports to external destinations.
package export

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dvloznov/bank-backoffice/internal/report"
)

// ErrNothingToExport is returned when a report has no content a sink can ship.
var ErrNothingToExport = errors.New("report has nothing to export")

// Result describes where a sink put a report.
type Result struct {
	Sink     string `json:"sink"`
	Location string `json:"location"`
	Items    int    `json:"items"`
}

// Sink is an export destination for reports.
type Sink interface {
	Name() string
	Export(ctx context.Context, r *report.Report) (Result, error)
}

// Registry holds the sinks configured for this process, by name.
type Registry struct {
	sinks map[string]Sink
}

// NewRegistry registers sinks; nil entries are skipped so callers can pass
// optional sinks unconditionally.
func NewRegistry(sinks ...Sink) *Registry {
	reg := &Registry{sinks: make(map[string]Sink)}
	for _, s := range sinks {
		if s != nil {
			reg.sinks[s.Name()] = s
		}
	}
	return reg
}

// Names lists registered sink names in sorted order.
func (reg *Registry) Names() []string {
	names := make([]string, 0, len(reg.sinks))
	for n := range reg.sinks {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Select resolves sink names. An empty list selects every registered sink.
func (reg *Registry) Select(names []string) ([]Sink, error) {
	if len(names) == 0 {
		names = reg.Names()
	}
	out := make([]Sink, 0, len(names))
	var unknown []string
	for _, n := range names {
		s, ok := reg.sinks[strings.ToLower(strings.TrimSpace(n))]
		if !ok {
			unknown = append(unknown, n)
			continue
		}
		out = append(out, s)
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("unknown export sinks %s (configured: %s)",
			strings.Join(unknown, ", "), strings.Join(reg.Names(), ", "))
	}
	if len(out) == 0 {
		return nil, errors.New("no export sinks configured")
	}
	return out, nil
}
