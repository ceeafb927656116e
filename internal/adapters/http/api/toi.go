package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/samber/lo"

	service "github.com/okian/icetime/internal/app"
	"github.com/okian/icetime/internal/domain/model"
)

const defaultMaxBody = 32 << 20

// shiftRequest mirrors the OpenAPI Shift schema.
type shiftRequest struct {
	Player   string `json:"player"`
	PlayerID int64  `json:"player_id"`
	Position string `json:"position"`
	GameID   int    `json:"game_id"`
	Date     string `json:"date"`
	Team     string `json:"team"`
	Period   int    `json:"period"`
	Start    int    `json:"start"`
	End      int    `json:"end"`
	Duration *int   `json:"duration,omitempty"`
}

func (s shiftRequest) model() model.Shift {
	d := s.End - s.Start
	if s.Duration != nil {
		d = *s.Duration
	}
	return model.Shift{
		Player:   s.Player,
		PlayerID: s.PlayerID,
		Position: s.Position,
		GameID:   s.GameID,
		Date:     s.Date,
		Team:     s.Team,
		Period:   s.Period,
		Start:    s.Start,
		End:      s.End,
		Duration: d,
	}
}

type lengthRequest struct {
	Period int `json:"period"`
	End    int `json:"end"`
}

type batchRequest struct {
	Shifts  []shiftRequest        `json:"shifts"`
	Lengths map[int]lengthRequest `json:"lengths,omitempty"`
}

type failureResponse struct {
	GameID int    `json:"game_id"`
	Error  string `json:"error"`
}

type rejectionResponse struct {
	Shift  shiftRequest `json:"shift"`
	Reason string       `json:"reason"`
}

type toiResponse struct {
	RunID    string               `json:"run_id"`
	Summary  service.Summary      `json:"summary"`
	Players  []model.PlayerTOIRow `json:"players"`
	Teams    []model.TeamTOIRow   `json:"teams"`
	Failures []failureResponse    `json:"failures"`
	Rejected []rejectionResponse  `json:"rejected"`
}

// TOIHandler computes time on ice for shifts posted in the request body.
type TOIHandler struct {
	computer Computer
	maxBody  int64
}

// NewTOIHandler creates a new TOI handler.
func NewTOIHandler(computer Computer, opts ...Option) *TOIHandler {
	h := &TOIHandler{computer: computer, maxBody: defaultMaxBody}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HandleCompute handles POST /toi requests. The body is either a bare array
// of shifts or an object carrying shifts and authoritative lengths.
func (h *TOIHandler) HandleCompute(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)

	batch, err := decodeBatch(r)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "too_large", err)
			return
		}
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	rep, err := h.computer.Compute(r.Context(), batch)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "compute_failed", err)
		return
	}

	writeJSON(w, http.StatusOK, newTOIResponse(rep))
}

func decodeBatch(r *http.Request) (service.Batch, error) {
	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		return service.Batch{}, fmt.Errorf("%w: %w", ErrBadRequest, err)
	}

	var req batchRequest
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &req.Shifts); err != nil {
			return service.Batch{}, fmt.Errorf("%w: %w", ErrBadRequest, err)
		}
	} else if err := json.Unmarshal(trimmed, &req); err != nil {
		return service.Batch{}, fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	if len(req.Shifts) == 0 {
		return service.Batch{}, ErrEmptyBatch
	}

	b := service.Batch{
		Shifts: lo.Map(req.Shifts, func(s shiftRequest, _ int) model.Shift { return s.model() }),
	}
	if len(req.Lengths) > 0 {
		b.Lengths = lo.MapValues(req.Lengths, func(l lengthRequest, _ int) model.Length {
			return model.Length{Period: l.Period, End: l.End}
		})
	}
	return b, nil
}

func newTOIResponse(rep *service.Report) toiResponse {
	return toiResponse{
		RunID:   rep.RunID,
		Summary: rep.Summary(),
		Players: lo.Ternary(rep.Result.Players == nil, []model.PlayerTOIRow{}, rep.Result.Players),
		Teams:   lo.Ternary(rep.Result.Teams == nil, []model.TeamTOIRow{}, rep.Result.Teams),
		Failures: lo.Map(rep.Failures, func(f model.GameFailure, _ int) failureResponse {
			return failureResponse{GameID: f.GameID, Error: errorString(f.Err)}
		}),
		Rejected: lo.Map(rep.Rejected, func(rj model.ShiftRejection, _ int) rejectionResponse {
			return rejectionResponse{Shift: fromModel(rj.Shift), Reason: errorString(rj.Reason)}
		}),
	}
}

func fromModel(s model.Shift) shiftRequest {
	d := s.Duration
	return shiftRequest{
		Player:   s.Player,
		PlayerID: s.PlayerID,
		Position: s.Position,
		GameID:   s.GameID,
		Date:     s.Date,
		Team:     s.Team,
		Period:   s.Period,
		Start:    s.Start,
		End:      s.End,
		Duration: &d,
	}
}

func errorString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
