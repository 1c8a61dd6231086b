package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	apperrors "workforce-ingest/internal/errors"
	"workforce-ingest/internal/workforce"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "OK",
		"message": "workforce-ingest is running",
	})
}

// batchPayload mirrors workforce.Batch at the request boundary. The
// hired_employees key is required (an empty list is legal), so it decodes
// through a pointer to distinguish an absent key from an empty one.
type batchPayload struct {
	Departments    []workforce.Department     `json:"departments"`
	Jobs           []workforce.Job            `json:"jobs"`
	HiredEmployees *[]workforce.HiredEmployee `json:"hired_employees"`
}

func (s *Server) handleInsertBatch(w http.ResponseWriter, r *http.Request) {
	var payload batchPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"detail": "Request body is not a valid batch payload.",
		})
		return
	}
	if payload.HiredEmployees == nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"detail": map[string]interface{}{"errors": []string{"Field 'hired_employees' is required."}},
		})
		return
	}

	batch := workforce.Batch{
		Departments:    payload.Departments,
		Jobs:           payload.Jobs,
		HiredEmployees: *payload.HiredEmployees,
	}
	counts, err := s.transactions.InsertBatch(r.Context(), &batch)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": fmt.Sprintf("Inserted %d departments, %d jobs, %d hired employees successfully.",
			counts.Departments, counts.Jobs, counts.HiredEmployees),
		"counts": counts,
	})
}

func (s *Server) handleCreateBackup(w http.ResponseWriter, r *http.Request) {
	result, err := s.backups.BackupAll(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Database backup completed successfully!",
		"tables":  result.Tables,
		"skipped": result.Skipped,
	})
}

func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	table := mux.Vars(r)["table"]

	count, err := s.backups.Restore(r.Context(), table)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": fmt.Sprintf("Successfully restored %d records to %s.", count, table),
		"table":   table,
		"count":   count,
	})
}

func (s *Server) handleMigrate(w http.ResponseWriter, r *http.Request) {
	completed, err := s.migrations.MigrateAll(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Historical data migration completed successfully.",
		"tables":  completed,
	})
}

func (s *Server) handleHiredPerQuarter(w http.ResponseWriter, r *http.Request) {
	rows, err := s.reports.HiredPerQuarter(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleDepartmentsAboveAverage(w http.ResponseWriter, r *http.Request) {
	rows, err := s.reports.DepartmentsAboveAverage(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// writeError maps the error taxonomy onto HTTP statuses. Infrastructure
// faults are logged with full context but surface opaquely.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	appErr := apperrors.Classify(err)

	switch appErr.Kind {
	case apperrors.KindMalformedBatch:
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"detail": appErr.Message,
		})
	case apperrors.KindValidation:
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"detail": map[string]interface{}{"errors": appErr.Violations},
		})
	case apperrors.KindConstraint:
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"detail": "Database constraint error. Ensure unique department and job IDs.",
		})
	case apperrors.KindNotFound:
		writeJSON(w, http.StatusNotFound, map[string]interface{}{
			"detail":   appErr.Message,
			"resource": appErr.Resource,
		})
	case apperrors.KindUnrecognized:
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"detail":   appErr.Message,
			"resource": appErr.Resource,
		})
	default:
		s.logger.WithFields(map[string]interface{}{
			"error": appErr.Error(),
		}).Error("Request failed with infrastructure fault")
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"detail": "Internal Server Error",
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
