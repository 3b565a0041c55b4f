package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sbrg/gds/pkg/cache"
	gdserrors "github.com/sbrg/gds/pkg/errors"
	"github.com/sbrg/gds/pkg/pipeline"
)

// statsFormat is the run key suffix holding run statistics.
const statsFormat = "stats"

func newRunID() string { return uuid.NewString() }

// runRecord is the response to POST and GET /v1/analyses/{id}.
type runRecord struct {
	ID        string             `json:"id"`
	Analysis  string             `json:"analysis"`
	CreatedAt time.Time          `json:"created_at"`
	Stats     pipeline.Stats     `json:"stats"`
	Cache     pipeline.CacheInfo `json:"cache"`
	Formats   []string           `json:"formats"`
	Links     map[string]string  `json:"links"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var opts pipeline.Options
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&opts); err != nil {
		writeError(w, gdserrors.Wrap(gdserrors.ErrCodeInvalidInput, err, "decode request body"))
		return
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		writeError(w, gdserrors.New(gdserrors.ErrCodeInvalidInput, "request body must be a single JSON object"))
		return
	}

	if err := opts.ValidateAndSetDefaults(); err != nil {
		writeError(w, err)
		return
	}
	res, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		s.logger.Warn("analysis failed", "err", err)
		writeError(w, err)
		return
	}

	id := s.newID()
	rec := runRecord{
		ID:        id,
		Analysis:  opts.Analysis,
		CreatedAt: time.Now().UTC(),
		Stats:     res.Stats,
		Cache:     res.CacheInfo,
		Links:     make(map[string]string),
	}
	keyer := s.keyer()
	for _, format := range opts.Formats {
		data, ok := res.Artifacts[format]
		if !ok {
			continue
		}
		if err := s.runner.Cache.Set(r.Context(), keyer.RunKey(id, format), data, cache.TTLRun); err != nil {
			writeError(w, gdserrors.Wrap(gdserrors.ErrCodeInternal, err, "store artifact"))
			return
		}
		rec.Formats = append(rec.Formats, format)
		rec.Links[format] = "/v1/analyses/" + id + "/" + format
	}
	data, _ := json.Marshal(rec)
	if err := s.runner.Cache.Set(r.Context(), keyer.RunKey(id, statsFormat), data, cache.TTLRun); err != nil {
		writeError(w, gdserrors.Wrap(gdserrors.ErrCodeInternal, err, "store run"))
		return
	}

	w.Header().Set("Location", "/v1/analyses/"+id)
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	data, err := s.lookup(r, id, statsFormat)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

func (s *Server) handleArtifact(w http.ResponseWriter, r *http.Request) {
	id, format := chi.URLParam(r, "id"), chi.URLParam(r, "format")
	if err := pipeline.ValidateFormat(format); err != nil {
		writeError(w, err)
		return
	}
	data, err := s.lookup(r, id, format)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", pipeline.ContentType(format))
	if format == pipeline.FormatXLSX {
		w.Header().Set("Content-Disposition", `attachment; filename="`+id+`.xlsx"`)
	}
	_, _ = w.Write(data)
}

func (s *Server) lookup(r *http.Request, id, format string) ([]byte, error) {
	if err := gdserrors.ValidateRunID(id); err != nil {
		return nil, err
	}
	data, hit, err := s.runner.Cache.Get(r.Context(), s.keyer().RunKey(strings.ToLower(id), format))
	if err != nil {
		return nil, gdserrors.Wrap(gdserrors.ErrCodeInternal, err, "read run")
	}
	if !hit {
		return nil, gdserrors.New(gdserrors.ErrCodeRunNotFound, "run %s has no %s artifact", id, format)
	}
	return data, nil
}
