// Package corpus loads the conversation/SOAP-note dataset and flattens it into
// the parallel text and metadata sequences that the index is built from.
package corpus

import (
	"context"

	"github.com/Jatayu-u/Soap-notes-generation-RAG/logging"
	"github.com/Jatayu-u/Soap-notes-generation-RAG/models"
	"github.com/Jatayu-u/Soap-notes-generation-RAG/tracing"
	"github.com/m-mizutani/goerr/v2"
	"go.opentelemetry.io/otel/attribute"
)

const (
	// UnknownPatient is the patient name of records that carry none.
	UnknownPatient = "Unknown"
)

// Record is one row of the dataset. Absent and null fields are nil.
type Record struct {
	PatientConvo  *string `json:"patient_convo" yaml:"patient_convo"`
	SOAPNotes     *string `json:"soap_notes" yaml:"soap_notes"`
	PatientName   *string `json:"patient_name" yaml:"patient_name"`
	HealthProblem *string `json:"health_problem" yaml:"health_problem"`
}

// Partition is a named, ordered split of the dataset such as "train".
type Partition struct {
	Name    string   `json:"split" yaml:"split"`
	Records []Record `json:"rows" yaml:"rows"`
}

// Source yields the dataset partitions in their natural order.
type Source interface {
	Name() string
	Partitions(ctx context.Context) ([]Partition, error)
}

// Load reads every partition of src and flattens it into a Corpus. Any source
// failure is reported as a CorpusUnavailable error.
func Load(ctx context.Context, src Source) (corpus *models.Corpus, err error) {
	ctx, span := tracing.Start(ctx, "corpus.load", attribute.String("corpus.source", src.Name()))
	defer func() { tracing.End(span, err) }()

	logger := logging.Component(ctx, "corpus")
	logger.Info("loading corpus", "source", src.Name())

	partitions, err := src.Partitions(ctx)
	if err != nil {
		return nil, models.NewError(models.ErrKindCorpusUnavailable,
			goerr.Wrap(err, "failed to load corpus", goerr.V("source", src.Name())))
	}

	corpus = Flatten(partitions)
	for _, p := range partitions {
		logger.Info("loaded partition", "split", p.Name, "rows", len(p.Records))
	}
	span.SetAttributes(attribute.Int("corpus.documents", corpus.Len()))
	logger.Info("corpus loaded", "documents", corpus.Len(), "partitions", len(partitions))
	return corpus, nil
}

// Flatten turns partitions into a Corpus, keeping record order within and
// across partitions.
func Flatten(partitions []Partition) *models.Corpus {
	total := 0
	for _, p := range partitions {
		total += len(p.Records)
	}

	corpus := &models.Corpus{
		Texts:     make([]string, 0, total),
		Metadatas: make([]models.Metadata, 0, total),
	}
	for _, p := range partitions {
		for idx, rec := range p.Records {
			corpus.Append(valueOr(rec.PatientConvo, ""), models.Metadata{
				Split:         p.Name,
				Index:         idx,
				PatientName:   valueOr(rec.PatientName, UnknownPatient),
				HealthProblem: valueOr(rec.HealthProblem, ""),
				SOAPNotes:     valueOr(rec.SOAPNotes, ""),
			})
		}
	}
	return corpus
}

func valueOr(v *string, fallback string) string {
	if v == nil {
		return fallback
	}
	return *v
}
