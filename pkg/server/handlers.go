package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"mercator-hq/cadence/pkg/engine"
	"mercator-hq/cadence/pkg/playback"
	"mercator-hq/cadence/pkg/telemetry/logging"
)

const maxBodyBytes = 64 << 10

func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	var req PlayRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	play := engine.NewRequest(req.Name)
	if req.Position != nil {
		play = engine.RequestAt(req.Name, *req.Position)
	}

	var info InstanceInfo
	err := s.do(r.Context(), func(e *engine.Engine) error {
		inst, err := e.PlayRequest(r.Context(), play)
		if err != nil {
			return err
		}
		if req.Volume != nil {
			inst.SetVolume(*req.Volume)
		}
		if req.Pitch != nil {
			inst.SetPitch(*req.Pitch)
		}
		info = instanceInfo(inst)
		return nil
	})
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, PlayResponse{Instance: info})
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	var req StopRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	var stopped int
	err := s.do(r.Context(), func(e *engine.Engine) error {
		switch {
		case req.InstanceID != 0:
			if e.StopInstance(req.InstanceID, req.FadeOut) {
				stopped = 1
			}
		case req.Name != "":
			stopped = e.Stop(req.Name, req.FadeOut)
		default:
			stopped = e.StopAll(req.FadeOut, req.OnlyLooping)
		}
		return nil
	})
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, StopResponse{Stopped: stopped})
}

func (s *Server) handleInstances(w http.ResponseWriter, r *http.Request) {
	clip := r.URL.Query().Get("clip")

	resp := InstancesResponse{Instances: []InstanceInfo{}}
	err := s.do(r.Context(), func(e *engine.Engine) error {
		var list []*playback.Instance
		if clip != "" {
			list = e.InstancesOf(clip)
		} else {
			list = e.ActiveInstances()
		}
		for _, inst := range list {
			resp.Instances = append(resp.Instances, instanceInfo(inst))
		}
		return nil
	})
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleBanks(w http.ResponseWriter, r *http.Request) {
	resp := BanksResponse{Banks: []BankInfo{}}
	err := s.do(r.Context(), func(e *engine.Engine) error {
		for _, bank := range e.Banks() {
			info := BankInfo{Name: bank.Name(), CacheType: bank.CacheType().String(), Clips: []string{}}
			for _, entry := range bank.Entries() {
				info.Clips = append(info.Clips, entry.ClipName)
				if entry.HasEvent() {
					info.Events = append(info.Events, entry.EventName)
				}
			}
			resp.Banks = append(resp.Banks, info)
		}
		return nil
	})
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// do runs fn on the tick goroutine, bounded by the request timeout. Work
// that reaches the tick goroutine after the request gave up is skipped.
func (s *Server) do(ctx context.Context, fn func(*engine.Engine) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.requestTimeout())
	defer cancel()
	return s.controller.Do(ctx, func(e *engine.Engine) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return fn(e)
	})
}

func (s *Server) writeEngineError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), "request failed",
			"path", r.URL.Path,
			"error", err,
		)
	}
	writeError(w, r, status, code, err.Error())
}

// statusFor maps engine errors to an HTTP status and error code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "engine_timeout"
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, "cancelled"
	}

	code := engine.ErrorCode(err)
	switch {
	case errors.Is(err, engine.ErrInvalidRequest):
		return http.StatusBadRequest, code
	case errors.Is(err, engine.ErrNotFound):
		return http.StatusNotFound, code
	case errors.Is(err, engine.ErrBlocked):
		return http.StatusConflict, code
	case errors.Is(err, engine.ErrClosed):
		return http.StatusServiceUnavailable, code
	default:
		return http.StatusInternalServerError, code
	}
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorDetail{
		Code:      code,
		Message:   message,
		RequestID: logging.GetRequestID(r.Context()),
	}})
}
