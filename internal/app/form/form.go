package form

import (
	"context"
	"errors"
	"github.com/burenotti/go_bmi_backend/internal/domain/bmi"
	"log/slog"
)

const (
	MsgInvalidInput  = "Please enter valid age, height, and weight."
	MsgInvalidAge    = "Please enter a valid age between 2 and 120."
	MsgInvalidHeight = "Please enter a valid height between 50cm and 250cm."
	MsgInvalidWeight = "Please enter a valid weight between 2kg and 500kg."
	MsgSaved         = "BMI calculated and saved successfully!"
	MsgSaveFailed    = "Failed to save BMI record."
	MsgLoadFailed    = "Failed to load BMI records."
)

type MessageKind string

const (
	KindError   MessageKind = "error"
	KindSuccess MessageKind = "success"
)

type Message struct {
	Kind MessageKind
	Text string
}

// Gateway is the remote side of the form: where history is read from and
// new records are saved to.
type Gateway interface {
	ListRecords(ctx context.Context) ([]bmi.Record, error)
	CreateRecord(ctx context.Context, record bmi.Record) error
}

// Form holds the state a BMI entry screen renders: the last known history,
// whether a save is in flight and the latest user-facing message.
type Form struct {
	History []bmi.Record
	Loading bool
	Message *Message

	gateway Gateway
	logger  *slog.Logger
}

func New(gateway Gateway, logger *slog.Logger) *Form {
	if logger == nil {
		logger = slog.Default()
	}
	return &Form{
		History: make([]bmi.Record, 0),
		gateway: gateway,
		logger:  logger,
	}
}

// Load replaces History with the remote history. On failure the previous
// history is kept and an error message is set.
func (f *Form) Load(ctx context.Context) error {
	records, err := f.gateway.ListRecords(ctx)
	if err != nil {
		f.logger.Error("failed to load bmi records", "error", err)
		f.Message = &Message{Kind: KindError, Text: MsgLoadFailed}
		return err
	}
	f.History = records
	return nil
}

// Submit validates the raw inputs, computes the record and saves it.
// Rejected input never reaches the gateway.
func (f *Form) Submit(ctx context.Context, age, height, weight string) (bmi.Record, error) {
	f.Message = nil

	m, err := bmi.Parse(age, height, weight)
	if err != nil {
		f.Message = &Message{Kind: KindError, Text: rejectionText(err)}
		return bmi.Record{}, err
	}

	record := bmi.Compute(m)

	f.Loading = true
	defer func() { f.Loading = false }()

	if err := f.gateway.CreateRecord(ctx, record); err != nil {
		f.logger.Error("failed to save bmi record", "error", err)
		f.Message = &Message{Kind: KindError, Text: MsgSaveFailed}
		return bmi.Record{}, err
	}

	if records, err := f.gateway.ListRecords(ctx); err != nil {
		f.logger.Warn("failed to refresh bmi records after save", "error", err)
	} else {
		f.History = records
	}

	f.Message = &Message{Kind: KindSuccess, Text: MsgSaved}
	return record, nil
}

func rejectionText(err error) string {
	switch {
	case errors.Is(err, bmi.ErrInvalidAgeRange):
		return MsgInvalidAge
	case errors.Is(err, bmi.ErrInvalidHeightRange):
		return MsgInvalidHeight
	case errors.Is(err, bmi.ErrInvalidWeightRange):
		return MsgInvalidWeight
	default:
		return MsgInvalidInput
	}
}
