package server

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"math/rand/v2"
	"net/http"

	"github.com/matzehuels/augment/pkg/buildinfo"
	"github.com/matzehuels/augment/pkg/core/registry"
	"github.com/matzehuels/augment/pkg/core/target"
	"github.com/matzehuels/augment/pkg/errors"
	"github.com/matzehuels/augment/pkg/pipeline"
)

// ApplyRequest runs Pipeline on Data. Without a seed a random one is drawn
// and echoed in the response.
type ApplyRequest struct {
	Pipeline json.RawMessage `json:"pipeline"`
	Data     json.RawMessage `json:"data"`
	Seed     *uint64         `json:"seed,omitempty"`
}

type ApplyResponse struct {
	Data     json.RawMessage `json:"data"`
	Saved    *pipeline.Saved `json:"saved"`
	Seed     uint64          `json:"seed"`
	CacheHit bool            `json:"cache_hit"`
}

// RecordRequest carries a record and the bundle to replay or reverse.
type RecordRequest struct {
	Saved *pipeline.Saved `json:"saved"`
	Data  json.RawMessage `json:"data"`
}

type DataResponse struct {
	Data json.RawMessage `json:"data"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, buildinfo.Get())
}

func (s *Server) handleTransforms(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"transforms": registry.Names()})
}

func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	var req ApplyRequest
	if !s.decode(w, r, &req) {
		return
	}
	spec, err := pipeline.ParseSpec(req.Pipeline, pipeline.FormatJSON)
	if err != nil {
		s.fail(w, err)
		return
	}
	data, err := target.ParseBundle(req.Data, spec.Resolver())
	if err != nil {
		s.fail(w, err)
		return
	}
	seed := rand.Uint64()
	if req.Seed != nil {
		seed = *req.Seed
	}

	res, err := s.Runner.Run(r.Context(), spec, []pipeline.Sample{{Name: "request", Data: data}}, seed)
	if err != nil {
		s.fail(w, err)
		return
	}
	sr := res.Samples[0]
	out, err := target.MarshalBundle(sr.Output)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ApplyResponse{Data: out, Saved: sr.Saved, Seed: seed, CacheHit: sr.CacheHit})
}

func (s *Server) handleReplay(w http.ResponseWriter, r *http.Request) {
	s.handleRecord(w, r, pipeline.Replay)
}

func (s *Server) handleReverse(w http.ResponseWriter, r *http.Request) {
	s.handleRecord(w, r, pipeline.Reverse)
}

func (s *Server) handleRecord(w http.ResponseWriter, r *http.Request, run func(*pipeline.Saved, target.Bundle) (target.Bundle, error)) {
	var req RecordRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Saved == nil {
		s.fail(w, errors.New(errors.ErrCodeInvalidInput, "request has no saved run"))
		return
	}
	data, err := target.ParseBundle(req.Data, req.Saved.Resolver())
	if err != nil {
		s.fail(w, err)
		return
	}
	out, err := run(req.Saved, data)
	if err != nil {
		s.fail(w, err)
		return
	}
	raw, err := target.MarshalBundle(out)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, DataResponse{Data: raw})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	limit := s.MaxBodyBytes
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}
	body := http.MaxBytesReader(w, r.Body, limit)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Code: string(errors.ErrCodeInvalidInput), Message: "request body too large"})
			return false
		}
		if stderrors.Is(err, io.EOF) {
			err = stderrors.New("empty body")
		}
		s.fail(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request"))
		return false
	}
	return true
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		s.Logger.Error("request failed", "error", err)
	}
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	writeJSON(w, status, errorResponse{Code: string(code), Message: err.Error()})
}

// statusOf maps the error taxonomy onto HTTP statuses.
func statusOf(err error) int {
	switch {
	case errors.IsCapability(err):
		return http.StatusNotImplemented
	case errors.IsPrecondition(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errors.ErrCodeInvalidSpec),
		errors.Is(err, errors.ErrCodeInvalidConfig),
		errors.Is(err, errors.ErrCodeReservedName),
		errors.Is(err, errors.ErrCodeTransformNotFound):
		return http.StatusBadRequest
	case errors.Is(err, errors.ErrCodeNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
