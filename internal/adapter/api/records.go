package api

import (
	"errors"
	recordservice "github.com/burenotti/go_bmi_backend/internal/app/record"
	"github.com/burenotti/go_bmi_backend/internal/app/unitofwork"
	"github.com/burenotti/go_bmi_backend/internal/domain/bmi"
	"github.com/labstack/echo/v4"
	"github.com/samber/lo"
	"math"
	"net/http"
	"time"
)

// submitted values are rounded by the client, allow one hundredth of drift
const maxBMIDrift = 0.01 + 1e-9

func (s *Server) MountRecords() {
	s.handler.GET("/api/user/bmi", s.ListRecords)
	s.handler.POST("/api/create/bmi", s.CreateRecord)
}

func (s *Server) getRecordUoW() *unitofwork.UnitOfWork[*recordservice.AtomicContext] {
	return unitofwork.New[*recordservice.AtomicContext](
		s.db,
		recordservice.NewAtomicContextFactory(s.db.Driver, s.logger),
		s.msgBus,
		s.logger,
	)
}

type Record struct {
	ID        string    `json:"id"`
	Age       float64   `json:"age"`
	Height    float64   `json:"height"`
	Weight    float64   `json:"weight"`
	BMI       float64   `json:"bmi"`
	Category  string    `json:"category"`
	Source    string    `json:"source,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func toRecord(e *bmi.Entry) Record {
	return Record{
		ID:        string(e.EntryID),
		Age:       e.Record.Age,
		Height:    e.Record.Height,
		Weight:    e.Record.Weight,
		BMI:       e.Record.BMI,
		Category:  string(e.Record.Category),
		Source:    e.Source,
		CreatedAt: e.CreatedAt,
	}
}

type CreateRecordRequest struct {
	RecordID string  `json:"id" validate:"omitempty,uuid"`
	Age      float64 `json:"age" validate:"required"`
	Height   float64 `json:"height" validate:"required"`
	Weight   float64 `json:"weight" validate:"required"`
	BMI      float64 `json:"bmi" validate:"required"`
	Category string  `json:"category" validate:"required,oneof=Underweight Normal Overweight Obese"`
}

func (s *Server) CreateRecord(c echo.Context) error {
	var req CreateRecordRequest
	if err := s.bind(c, &req); err != nil {
		return JsonError(c, http.StatusBadRequest, err)
	}

	m, err := bmi.Validate(req.Age, req.Height, req.Weight)
	if err != nil {
		return JsonError(c, http.StatusBadRequest, err)
	}

	record := bmi.Compute(m)
	if math.Abs(record.BMI-req.BMI) > maxBMIDrift || string(record.Category) != req.Category {
		return JsonError(c, http.StatusUnprocessableEntity, "bmi does not match measurements")
	}

	uow := s.getRecordUoW()
	ctx := c.Request().Context()

	entry, created, err := s.recordService.Create(ctx, uow, bmi.EntryID(req.RecordID), clientSource(c), record)
	if err != nil {
		if errors.Is(err, bmi.ErrEntryConflict) || errors.Is(err, bmi.ErrEntryExists) {
			return JsonError(c, http.StatusConflict, "record id already used")
		}
		return JsonError(c, http.StatusInternalServerError, err)
	}

	status := http.StatusCreated
	if !created {
		status = http.StatusOK
	}
	return c.JSON(status, toRecord(entry))
}

type ListRecordsRequest struct {
	Limit  int `query:"limit" validate:"gte=0"`
	Offset int `query:"offset" validate:"gte=0"`
}

func (s *Server) ListRecords(c echo.Context) error {
	var req ListRecordsRequest
	if err := s.bind(c, &req); err != nil {
		return JsonError(c, http.StatusBadRequest, err)
	}

	uow := s.getRecordUoW()
	ctx := c.Request().Context()

	entries, err := s.recordService.List(ctx, uow, req.Limit, req.Offset)
	if err != nil {
		return JsonError(c, http.StatusInternalServerError, err)
	}

	return c.JSON(http.StatusOK, lo.Map(entries, func(e *bmi.Entry, _ int) Record {
		return toRecord(e)
	}))
}
