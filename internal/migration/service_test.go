package migration

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"workforce-ingest/internal/config"
	apperrors "workforce-ingest/internal/errors"
	"workforce-ingest/internal/workforce"
)

// fakeSource serves CSV payloads from memory
type fakeSource struct {
	objects map[string][]byte
	fetched []string
}

func (f *fakeSource) Fetch(ctx context.Context, key string) ([]byte, error) {
	f.fetched = append(f.fetched, key)
	data, ok := f.objects[key]
	if !ok {
		return nil, apperrors.NewNotFound(key, fmt.Sprintf("object %s not found", key), nil)
	}
	return data, nil
}

func testConfig() config.MigrationConfig {
	return config.MigrationConfig{Prefix: "raw_data", ChunkSize: 500}
}

func TestMigrateAllLoadsTablesInOrder(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	source := &fakeSource{objects: map[string][]byte{
		"raw_data/departments.csv":     []byte("1,Supply Chain\n2,Maintenance\n"),
		"raw_data/jobs.csv":            []byte("1,Recruiter\n"),
		"raw_data/hired_employees.csv": []byte("10,Alice,2021-07-27T16:02:08Z,1,1\n"),
	}}

	for _, table := range workforce.KnownTables() {
		mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM " + table)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO " + table)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()
	}

	service := NewService(db, workforce.NewWriter(nil), source, testConfig(), nil)
	completed, err := service.MigrateAll(context.Background())
	if err != nil {
		t.Fatalf("MigrateAll: %v", err)
	}

	want := map[string]int{"departments": 2, "jobs": 1, "hired_employees": 1}
	for table, count := range want {
		if completed[table] != count {
			t.Errorf("%s count = %d, want %d", table, completed[table], count)
		}
	}

	// fetch order must follow the dependency order
	wantKeys := []string{"raw_data/departments.csv", "raw_data/jobs.csv", "raw_data/hired_employees.csv"}
	for i, key := range wantKeys {
		if source.fetched[i] != key {
			t.Errorf("fetch %d = %q, want %q", i, source.fetched[i], key)
		}
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestMigrateAllChunksLargeFiles(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	var sb strings.Builder
	for i := 1; i <= 5; i++ {
		fmt.Fprintf(&sb, "%d,Department %d\n", i, i)
	}
	source := &fakeSource{objects: map[string][]byte{
		"raw_data/departments.csv": []byte(sb.String()),
	}}

	cfg := testConfig()
	cfg.ChunkSize = 2

	// departments: 5 rows at chunk size 2 means 3 insert statements in one tx
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM departments")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectBegin()
	for i := 0; i < 3; i++ {
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO departments")).
			WillReturnResult(sqlmock.NewResult(0, 2))
	}
	mock.ExpectCommit()

	service := NewService(db, workforce.NewWriter(nil), source, cfg, nil)
	completed, err := service.MigrateAll(context.Background())
	if err == nil {
		t.Fatal("expected failure once jobs.csv is missing")
	}
	if completed["departments"] != 5 {
		t.Errorf("departments count = %d, want 5", completed["departments"])
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestMigrateAllAbortKeepsCompletedTables(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	// departments present, jobs missing: migration aborts at jobs and never
	// reaches hired_employees
	source := &fakeSource{objects: map[string][]byte{
		"raw_data/departments.csv": []byte("1,Supply Chain\n"),
	}}

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM departments")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO departments")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	service := NewService(db, workforce.NewWriter(nil), source, testConfig(), nil)
	completed, err := service.MigrateAll(context.Background())
	if err == nil {
		t.Fatal("expected abort on the missing jobs file")
	}
	if !apperrors.IsKind(err, apperrors.KindNotFound) {
		t.Errorf("kind = %v, want %v", apperrors.KindOf(err), apperrors.KindNotFound)
	}
	if !strings.Contains(err.Error(), "jobs") {
		t.Errorf("error = %q, want it to name the failed table", err.Error())
	}
	if got := apperrors.ResourceOf(err); got != "jobs" {
		t.Errorf("resource = %q, want %q", got, "jobs")
	}
	if !strings.Contains(err.Error(), "CSV file for table 'jobs' not found.") {
		t.Errorf("error = %q, want the source detail preserved", err.Error())
	}

	if completed["departments"] != 1 {
		t.Errorf("completed = %v, want departments kept", completed)
	}
	if _, ok := completed["jobs"]; ok {
		t.Error("failed table must not appear in completed")
	}
	if len(source.fetched) != 2 {
		t.Errorf("fetched %v, migration should stop after the failure", source.fetched)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestMigrateTableParseFailureRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	source := &fakeSource{objects: map[string][]byte{
		"raw_data/departments.csv": []byte("not-a-number,Broken\n"),
	}}

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM departments")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectBegin()
	mock.ExpectRollback()

	service := NewService(db, workforce.NewWriter(nil), source, testConfig(), nil)
	completed, err := service.MigrateAll(context.Background())
	if err == nil {
		t.Fatal("expected parse failure")
	}
	if len(completed) != 0 {
		t.Errorf("completed = %v, want empty", completed)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestMigrateAppendsWithoutTruncating(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	source := &fakeSource{objects: map[string][]byte{
		"raw_data/departments.csv": []byte("5,New Department\n"),
	}}

	// target already has rows; migration still appends, no TRUNCATE anywhere
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM departments")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO departments")).
		WithArgs(5, "New Department").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	service := NewService(db, workforce.NewWriter(nil), source, testConfig(), nil)
	completed, err := service.MigrateAll(context.Background())
	if err == nil {
		t.Fatal("expected abort on the missing jobs file")
	}
	if completed["departments"] != 1 {
		t.Errorf("departments count = %d, want 1", completed["departments"])
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
