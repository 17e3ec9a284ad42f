package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	documentsAnnotated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "medtext",
		Subsystem: "pipeline",
		Name:      "documents_annotated_total",
		Help:      "Number of documents run through the annotation pipeline.",
	})

	annotationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "medtext",
		Subsystem: "pipeline",
		Name:      "annotation_failures_total",
		Help:      "Number of documents the pipeline failed to annotate.",
	})

	syntagmasProduced = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "medtext",
		Subsystem: "pipeline",
		Name:      "syntagmas_total",
		Help:      "Number of syntagma segments produced by the tokenizer.",
	})

	attributesProduced = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "medtext",
		Subsystem: "pipeline",
		Name:      "attributes_total",
		Help:      "Number of attributes produced by context detectors.",
	}, []string{"label"})

	annotateDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "medtext",
		Subsystem: "pipeline",
		Name:      "annotate_duration_seconds",
		Help:      "Time spent annotating one document.",
		Buckets:   prometheus.DefBuckets,
	})
)
