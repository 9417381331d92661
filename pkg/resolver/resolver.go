package resolver

import (
	"context"

	"github.com/matst80/slask-crossfilter/pkg/table"
	"github.com/matst80/slask-crossfilter/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var (
	name   = "slask-crossfilter-resolver"
	tracer = otel.Tracer(name)

	resolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crossfilter_resolutions_total",
		Help: "The total number of resolved selections by filter mode",
	}, []string{"mode"})
	resolutionErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crossfilter_resolution_errors_total",
		Help: "The total number of selections that failed to resolve",
	})
	candidateSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "crossfilter_candidates",
		Help:    "Number of identifiers a selection resolved to",
		Buckets: prometheus.ExponentialBuckets(1, 4, 10),
	})
)

// Func is the signature of Resolve, used where the resolution step is injected.
type Func func(ctx context.Context, raw []string, spec types.FilterSpec, tbl *table.Table, idColumn string) (types.IdSet, error)

// Validate checks that the identifier column and every column the filter
// refers to exist in tbl.
func Validate(spec types.FilterSpec, tbl *table.Table, idColumn string) error {
	if tbl == nil {
		return types.ErrMissingTable
	}
	if _, err := tbl.Column(idColumn); err != nil {
		return err
	}
	if spec.Mode() == types.DirectMode {
		return nil
	}
	_, err := tbl.Column(spec.MatchColumn())
	return err
}

// Resolve maps raw selection values to the set of identifiers they denote.
// In direct mode the values are the identifiers, otherwise the values are
// looked up in the filter's match column and the identifiers of the matching
// rows are returned. An empty result is not an error.
func Resolve(ctx context.Context, raw []string, spec types.FilterSpec, tbl *table.Table, idColumn string) (types.IdSet, error) {
	mode := spec.Mode()
	_, span := tracer.Start(ctx, "Resolve")
	defer span.End()
	span.SetAttributes(
		attribute.String("mode", mode.String()),
		attribute.Int("selected", len(raw)),
	)

	ids, err := resolve(raw, spec, tbl, idColumn)
	if err != nil {
		resolutionErrors.Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	resolutions.WithLabelValues(mode.String()).Inc()
	candidateSize.Observe(float64(ids.Len()))
	span.SetAttributes(attribute.Int("candidates", ids.Len()))
	return ids, nil
}

func resolve(raw []string, spec types.FilterSpec, tbl *table.Table, idColumn string) (types.IdSet, error) {
	if tbl == nil {
		return nil, types.ErrMissingTable
	}
	idCol, err := tbl.Column(idColumn)
	if err != nil {
		return nil, err
	}
	if spec.Mode() == types.DirectMode {
		return types.NewIdSet(raw...), nil
	}
	col, err := tbl.Column(spec.MatchColumn())
	if err != nil {
		return nil, err
	}
	return types.NewIdSet(idCol.Values(col.Match(raw))...), nil
}
