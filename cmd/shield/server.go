package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"spoilerblock/shield/pkg/config"
	"spoilerblock/shield/pkg/document"
	"spoilerblock/shield/pkg/scanner"
	"spoilerblock/shield/pkg/suppression"
	"spoilerblock/shield/pkg/telemetry/health"
	"spoilerblock/shield/pkg/telemetry/metrics"
	"spoilerblock/shield/pkg/telemetry/tracing"
)

// controlServer is the local HTTP surface of shield run: metrics, probes and
// the reader's controls (reveal, pause, rescan).
type controlServer struct {
	cfg       *config.TelemetryConfig
	pipeline  *pipeline
	collector *metrics.Collector
	checker   *health.Checker
	logger    *slog.Logger

	// render re-publishes the page after a change that runs no pass.
	render func()
}

// segmentView is what the API exposes about a segment. It deliberately
// carries no text.
type segmentView struct {
	ID           uint64   `json:"id"`
	Fragment     string   `json:"fragment,omitempty"`
	State        string   `json:"state"`
	Confidence   int      `json:"confidence,omitempty"`
	RiskLevel    string   `json:"riskLevel,omitempty"`
	MatchedTerms []string `json:"matchedTerms,omitempty"`
}

type scanningView struct {
	Enabled  bool              `json:"enabled"`
	Passes   int64             `json:"passes"`
	LastPass scanner.PassStats `json:"lastPass"`
}

func (s *controlServer) handler() http.Handler {
	mux := http.NewServeMux()

	if s.cfg.Metrics.Enabled {
		mux.Handle(s.cfg.Metrics.Path, s.collector.Handler())
	}
	health.Mount(mux, s.checker, &s.cfg.Health, versionInfo())

	mux.HandleFunc("GET /segments", s.listSegments)
	mux.HandleFunc("POST /segments/{id}/reveal", s.revealSegment)
	mux.HandleFunc("GET /scanning", s.scanningStatus)
	mux.HandleFunc("PUT /scanning", s.setScanning)
	mux.HandleFunc("POST /scan", s.scanNow)
	mux.HandleFunc("GET /profile", s.activeProfile)

	return tracing.HTTPMiddleware(mux)
}

func (s *controlServer) listSegments(w http.ResponseWriter, r *http.Request) {
	var filter suppression.State = -1
	if st := r.URL.Query().Get("state"); st != "" {
		var ok bool
		if filter, ok = parseState(st); !ok {
			writeError(w, http.StatusBadRequest, "unknown state "+strconv.Quote(st))
			return
		}
	}

	views := []segmentView{}
	for _, id := range s.pipeline.doc.SegmentIDs() {
		rec, ok := s.pipeline.tracker.Lookup(id)
		if !ok || (filter >= 0 && rec.State != filter) {
			continue
		}
		v := segmentView{
			ID:       uint64(id),
			Fragment: s.pipeline.doc.FragmentOf(id),
			State:    rec.State.String(),
		}
		if rec.Result != nil && rec.State != suppression.Safe {
			v.Confidence = rec.Result.Confidence
			v.RiskLevel = string(rec.Result.RiskLevel)
			v.MatchedTerms = rec.Result.MatchedTerms
		}
		views = append(views, v)
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *controlServer) revealSegment(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid segment id")
		return
	}

	err = s.pipeline.ctrl.Reveal(r.Context(), document.SegmentID(id))
	var sideEffect *suppression.SideEffectError
	switch {
	case err == nil:
	case errors.Is(err, suppression.ErrUnknownSegment):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, suppression.ErrNotBlocked):
		writeError(w, http.StatusConflict, err.Error())
		return
	case errors.As(err, &sideEffect):
		// The segment is revealed even though the page could not be updated.
		s.logger.WarnContext(r.Context(), "reveal side effect failed", "segment_id", id, "error", err)
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if s.render != nil {
		s.render()
	}
	writeJSON(w, http.StatusOK, segmentView{ID: id, State: suppression.Revealed.String()})
}

func (s *controlServer) scanningStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.scanning())
}

func (s *controlServer) setScanning(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Enabled *bool `json:"enabled"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1024)).Decode(&body); err != nil || body.Enabled == nil {
		writeError(w, http.StatusBadRequest, `expected {"enabled": true|false}`)
		return
	}
	s.pipeline.ctrl.SetEnabled(*body.Enabled)
	writeJSON(w, http.StatusOK, s.scanning())
}

func (s *controlServer) scanNow(w http.ResponseWriter, r *http.Request) {
	stats := s.pipeline.ctrl.ScanNow()
	writeJSON(w, http.StatusOK, stats)
}

func (s *controlServer) activeProfile(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.pipeline.ctrl.Profile())
}

func (s *controlServer) scanning() scanningView {
	ctrl := s.pipeline.ctrl
	return scanningView{Enabled: ctrl.Enabled(), Passes: ctrl.Passes(), LastPass: ctrl.LastPass()}
}

func parseState(s string) (suppression.State, bool) {
	for _, st := range []suppression.State{suppression.Unscanned, suppression.Safe, suppression.Blocked, suppression.Revealed} {
		if st.String() == s {
			return st, true
		}
	}
	return 0, false
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
