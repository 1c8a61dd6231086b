package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"workforce-ingest/internal/backup"
	apperrors "workforce-ingest/internal/errors"
	"workforce-ingest/internal/report"
	"workforce-ingest/internal/workforce"
)

const testAPIKey = "test-key"

// stub services

type stubTransactions struct {
	counts workforce.InsertCounts
	err    error
	got    *workforce.Batch
}

func (s *stubTransactions) InsertBatch(ctx context.Context, batch *workforce.Batch) (workforce.InsertCounts, error) {
	s.got = batch
	return s.counts, s.err
}

type stubBackups struct {
	result       *backup.Result
	restoreCount int
	err          error
	restored     string
}

func (s *stubBackups) BackupAll(ctx context.Context) (*backup.Result, error) {
	return s.result, s.err
}

func (s *stubBackups) Restore(ctx context.Context, table string) (int, error) {
	s.restored = table
	return s.restoreCount, s.err
}

type stubMigrations struct {
	completed map[string]int
	err       error
}

func (s *stubMigrations) MigrateAll(ctx context.Context) (map[string]int, error) {
	return s.completed, s.err
}

type stubReports struct {
	quarters    []report.QuarterRow
	departments []report.DepartmentHires
	err         error
}

func (s *stubReports) HiredPerQuarter(ctx context.Context) ([]report.QuarterRow, error) {
	return s.quarters, s.err
}

func (s *stubReports) DepartmentsAboveAverage(ctx context.Context) ([]report.DepartmentHires, error) {
	return s.departments, s.err
}

func newTestServer(transactions TransactionService, backups BackupService,
	migrations MigrationService, reports report.Reporter) *Server {
	if transactions == nil {
		transactions = &stubTransactions{}
	}
	if backups == nil {
		backups = &stubBackups{}
	}
	if migrations == nil {
		migrations = &stubMigrations{}
	}
	if reports == nil {
		reports = &stubReports{}
	}
	return NewServer(testAPIKey, transactions, backups, migrations, reports, nil)
}

func doRequest(t *testing.T, server *Server, method, path, apiKey string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if apiKey != "" {
		req.Header.Set(APIKeyHeader, apiKey)
	}
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestHealthNeedsNoAPIKey(t *testing.T) {
	server := newTestServer(nil, nil, nil, nil)
	rec := doRequest(t, server, http.MethodGet, "/", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if decodeBody(t, rec)["status"] != "OK" {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestMissingAPIKeyRejected(t *testing.T) {
	server := newTestServer(nil, nil, nil, nil)
	paths := []struct {
		method, path string
	}{
		{http.MethodPost, "/api/v1/transactions/insert_new_data"},
		{http.MethodPost, "/api/v1/backups/create_backup"},
		{http.MethodPost, "/api/v1/backups/restore/departments"},
		{http.MethodPost, "/api/v1/migrations/migrate_historic_data"},
		{http.MethodGet, "/api/v1/reports/hired_per_quarter"},
		{http.MethodGet, "/api/v1/reports/departments_above_average"},
	}

	for _, p := range paths {
		t.Run(p.path, func(t *testing.T) {
			rec := doRequest(t, server, p.method, p.path, "", nil)
			if rec.Code != http.StatusForbidden {
				t.Errorf("status = %d, want 403", rec.Code)
			}
			if decodeBody(t, rec)["detail"] != "Invalid API Key" {
				t.Errorf("body = %s", rec.Body.String())
			}
		})
	}
}

func TestWrongAPIKeyRejected(t *testing.T) {
	server := newTestServer(nil, nil, nil, nil)
	rec := doRequest(t, server, http.MethodPost, "/api/v1/backups/create_backup", "wrong", nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestInsertBatchSuccessResponse(t *testing.T) {
	transactions := &stubTransactions{
		counts: workforce.InsertCounts{Departments: 1, Jobs: 2, HiredEmployees: 3},
	}
	server := newTestServer(transactions, nil, nil, nil)

	payload := []byte(`{"departments":[{"id":1,"name":"Engineering"}],"hired_employees":[]}`)
	rec := doRequest(t, server, http.MethodPost, "/api/v1/transactions/insert_new_data", testAPIKey, payload)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	body := decodeBody(t, rec)
	want := "Inserted 1 departments, 2 jobs, 3 hired employees successfully."
	if body["message"] != want {
		t.Errorf("message = %q, want %q", body["message"], want)
	}
	if transactions.got == nil || len(transactions.got.Departments) != 1 {
		t.Errorf("decoded batch = %+v", transactions.got)
	}
}

func TestInsertBatchMissingHiredEmployeesField(t *testing.T) {
	transactions := &stubTransactions{}
	server := newTestServer(transactions, nil, nil, nil)

	payload := []byte(`{"departments":[{"id":1,"name":"Engineering"}]}`)
	rec := doRequest(t, server, http.MethodPost, "/api/v1/transactions/insert_new_data", testAPIKey, payload)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422: %s", rec.Code, rec.Body.String())
	}

	detail, ok := decodeBody(t, rec)["detail"].(map[string]interface{})
	if !ok {
		t.Fatalf("detail = %v", decodeBody(t, rec)["detail"])
	}
	errs, ok := detail["errors"].([]interface{})
	if !ok || len(errs) != 1 || errs[0] != "Field 'hired_employees' is required." {
		t.Errorf("errors = %v", detail["errors"])
	}
	if transactions.got != nil {
		t.Error("batch reached the transaction service")
	}
}

func TestInsertBatchInvalidJSON(t *testing.T) {
	server := newTestServer(nil, nil, nil, nil)
	rec := doRequest(t, server, http.MethodPost, "/api/v1/transactions/insert_new_data", testAPIKey, []byte("{not json"))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestInsertBatchMalformedBatchStatus(t *testing.T) {
	transactions := &stubTransactions{
		err: apperrors.NewMalformedBatch("Batch size must be between 1 and 1000 rows."),
	}
	server := newTestServer(transactions, nil, nil, nil)

	rec := doRequest(t, server, http.MethodPost, "/api/v1/transactions/insert_new_data", testAPIKey, []byte(`{"hired_employees":[]}`))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if decodeBody(t, rec)["detail"] != "Batch size must be between 1 and 1000 rows." {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestInsertBatchValidationStatus(t *testing.T) {
	violations := []string{
		"Department ID 99 does not exist and is not in the new departments list.",
	}
	transactions := &stubTransactions{err: apperrors.NewValidation(violations)}
	server := newTestServer(transactions, nil, nil, nil)

	rec := doRequest(t, server, http.MethodPost, "/api/v1/transactions/insert_new_data", testAPIKey, []byte(`{"hired_employees":[]}`))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}

	body := decodeBody(t, rec)
	detail, ok := body["detail"].(map[string]interface{})
	if !ok {
		t.Fatalf("detail = %v", body["detail"])
	}
	errs, ok := detail["errors"].([]interface{})
	if !ok || len(errs) != 1 || errs[0] != violations[0] {
		t.Errorf("errors = %v, want %v", detail["errors"], violations)
	}
}

func TestInsertBatchConstraintStatus(t *testing.T) {
	transactions := &stubTransactions{
		err: apperrors.NewConstraint("duplicate entry - record already exists", nil),
	}
	server := newTestServer(transactions, nil, nil, nil)

	rec := doRequest(t, server, http.MethodPost, "/api/v1/transactions/insert_new_data", testAPIKey, []byte(`{"hired_employees":[]}`))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	want := "Database constraint error. Ensure unique department and job IDs."
	if decodeBody(t, rec)["detail"] != want {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestInsertBatchFaultStatus(t *testing.T) {
	transactions := &stubTransactions{err: errors.New("connection refused")}
	server := newTestServer(transactions, nil, nil, nil)

	rec := doRequest(t, server, http.MethodPost, "/api/v1/transactions/insert_new_data", testAPIKey, []byte(`{"hired_employees":[]}`))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if decodeBody(t, rec)["detail"] != "Internal Server Error" {
		t.Errorf("faults must surface opaquely, got %s", rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "connection refused") {
		t.Error("fault details leaked into the response")
	}
}

func TestCreateBackupResponse(t *testing.T) {
	backups := &stubBackups{result: &backup.Result{
		Tables:  map[string]int{"departments": 3},
		Skipped: []string{"jobs"},
	}}
	server := newTestServer(nil, backups, nil, nil)

	rec := doRequest(t, server, http.MethodPost, "/api/v1/backups/create_backup", testAPIKey, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if decodeBody(t, rec)["message"] != "Database backup completed successfully!" {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestRestoreResponse(t *testing.T) {
	backups := &stubBackups{restoreCount: 42}
	server := newTestServer(nil, backups, nil, nil)

	rec := doRequest(t, server, http.MethodPost, "/api/v1/backups/restore/hired_employees", testAPIKey, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if backups.restored != "hired_employees" {
		t.Errorf("restored table = %q", backups.restored)
	}
	want := "Successfully restored 42 records to hired_employees."
	if decodeBody(t, rec)["message"] != want {
		t.Errorf("message = %v, want %q", decodeBody(t, rec)["message"], want)
	}
}

func TestRestoreUnrecognizedTableStatus(t *testing.T) {
	backups := &stubBackups{err: apperrors.NewUnrecognized("payroll", "Table 'payroll' is not recognized.")}
	server := newTestServer(nil, backups, nil, nil)

	rec := doRequest(t, server, http.MethodPost, "/api/v1/backups/restore/payroll", testAPIKey, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if decodeBody(t, rec)["detail"] != "Table 'payroll' is not recognized." {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestRestoreMissingArtifactStatus(t *testing.T) {
	backups := &stubBackups{
		err: apperrors.NewNotFound("jobs", "Backup file for table 'jobs' not found.", nil),
	}
	server := newTestServer(nil, backups, nil, nil)

	rec := doRequest(t, server, http.MethodPost, "/api/v1/backups/restore/jobs", testAPIKey, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	if decodeBody(t, rec)["detail"] != "Backup file for table 'jobs' not found." {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestMigrateResponse(t *testing.T) {
	migrations := &stubMigrations{completed: map[string]int{"departments": 10, "jobs": 5, "hired_employees": 100}}
	server := newTestServer(nil, nil, migrations, nil)

	rec := doRequest(t, server, http.MethodPost, "/api/v1/migrations/migrate_historic_data", testAPIKey, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if decodeBody(t, rec)["message"] != "Historical data migration completed successfully." {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestReportsResponses(t *testing.T) {
	reports := &stubReports{
		quarters: []report.QuarterRow{
			{Department: "Engineering", Job: "Developer", Q1: 1, Q2: 2, Q3: 3, Q4: 4},
		},
		departments: []report.DepartmentHires{{ID: 1, Department: "Engineering", Hired: 40}},
	}
	server := newTestServer(nil, nil, nil, reports)

	rec := doRequest(t, server, http.MethodGet, "/api/v1/reports/hired_per_quarter", testAPIKey, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var quarters []report.QuarterRow
	if err := json.Unmarshal(rec.Body.Bytes(), &quarters); err != nil {
		t.Fatal(err)
	}
	if len(quarters) != 1 || quarters[0].Q4 != 4 {
		t.Errorf("quarters = %+v", quarters)
	}

	rec = doRequest(t, server, http.MethodGet, "/api/v1/reports/departments_above_average", testAPIKey, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var hires []report.DepartmentHires
	if err := json.Unmarshal(rec.Body.Bytes(), &hires); err != nil {
		t.Fatal(err)
	}
	if len(hires) != 1 || hires[0].Hired != 40 {
		t.Errorf("hires = %+v", hires)
	}
}

func TestRequestIDHeaderSet(t *testing.T) {
	server := newTestServer(nil, nil, nil, nil)
	rec := doRequest(t, server, http.MethodGet, "/", "", nil)
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header missing")
	}
}

func TestMethodNotAllowed(t *testing.T) {
	server := newTestServer(nil, nil, nil, nil)
	rec := doRequest(t, server, http.MethodGet, "/api/v1/backups/create_backup", testAPIKey, nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}
