package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/moridelogica/backoffice/internal/domain"
	"github.com/moridelogica/backoffice/internal/exchange"
	"github.com/moridelogica/backoffice/internal/logging"
	"github.com/moridelogica/backoffice/internal/records"
)

// filterDateLayout is the wire format for the ?start and ?end query
// parameters.
const filterDateLayout = "2006-01-02"

// filteredRecords loads all records and applies the start/end/q query
// parameters from the request.
func (s *Server) filteredRecords(r *http.Request) ([]domain.Record, error) {
	list, err := s.records.List(r.Context())
	if err != nil {
		return nil, err
	}

	startParam := r.URL.Query().Get("start")
	endParam := r.URL.Query().Get("end")
	if startParam != "" || endParam != "" {
		if startParam == "" || endParam == "" {
			return nil, fmt.Errorf("%w: both start and end dates are required", domain.ErrValidation)
		}
		start, err := time.Parse(filterDateLayout, startParam)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid start date %q", domain.ErrValidation, startParam)
		}
		end, err := time.Parse(filterDateLayout, endParam)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid end date %q", domain.ErrValidation, endParam)
		}
		list, err = records.FilterByDateRange(list, start, end)
		if err != nil {
			return nil, err
		}
	}

	if q := r.URL.Query().Get("q"); q != "" {
		list = records.FilterByText(list, q)
	}
	return list, nil
}

// handleListRecords returns records, optionally filtered by a created-at
// date range (?start, ?end) and a free-text query (?q).
func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	list, err := s.filteredRecords(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	out := make([]recordJSON, 0, len(list))
	for _, rec := range list {
		out = append(out, toRecordJSON(rec))
	}
	writeJSON(w, http.StatusOK, out)
}

// handleGetRecord returns a single record by id.
func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := s.records.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecordJSON(rec))
}

// handleCreateRecord stores a new record.
func (s *Server) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	var in recordJSON
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rec, err := s.records.Create(r.Context(), in.toDomain())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRecordJSON(rec))
}

// handleUpdateRecord replaces a record in full.
func (s *Server) handleUpdateRecord(w http.ResponseWriter, r *http.Request) {
	var in recordJSON
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id := chi.URLParam(r, "id")
	if err := s.records.Update(r.Context(), id, in.toDomain()); err != nil {
		writeServiceError(w, err)
		return
	}

	rec, err := s.records.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecordJSON(rec))
}

// handleDeleteRecord removes a record. Admin only.
func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	profile, _ := profileFrom(r.Context())
	if err := s.records.Delete(r.Context(), profile, chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleExportRecords streams the current (optionally filtered) record set
// as a CSV download.
func (s *Server) handleExportRecords(w http.ResponseWriter, r *http.Request) {
	list, err := s.filteredRecords(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	data, err := exchange.Export(list)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	filename := exchange.Filename(s.now())
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		logging.FromContext(r.Context()).Debug("export write aborted", "error", err)
	}
	logging.FromContext(r.Context()).Info("records exported", "count", len(list), "file", filename)
}

type importResponse struct {
	Message   string               `json:"message"`
	TotalRows int                  `json:"totalRows"`
	Uploaded  int                  `json:"uploaded"`
	Skipped   int                  `json:"skipped"`
	Failed    []exchange.FailedRow `json:"failed,omitempty"`
}

// handleImportRecords accepts a multipart CSV upload and replays its rows
// as record creates.
func (s *Server) handleImportRecords(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize)
	if err := r.ParseMultipartForm(s.cfg.Upload.MaxFileSize); err != nil {
		writeError(w, http.StatusBadRequest, "could not parse upload")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file upload")
		return
	}
	defer file.Close()

	result, err := s.importer.Import(r.Context(), header.Filename, file)
	switch {
	case errors.Is(err, exchange.ErrNotCSV):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, exchange.ErrParse):
		writeError(w, http.StatusBadRequest, "could not parse CSV file")
		return
	case err != nil:
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, importResponse{
		Message:   result.Message(),
		TotalRows: result.TotalRows,
		Uploaded:  result.Uploaded,
		Skipped:   result.Skipped,
		Failed:    result.Failed,
	})
}
