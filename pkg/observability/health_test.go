package observability

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

func TestHealthChecker_Liveness(t *testing.T) {
	checker := NewHealthChecker(nil, nil)

	req := httptest.NewRequest("GET", "/health/live", nil)
	w := httptest.NewRecorder()
	checker.Liveness(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body["status"] != StatusHealthy {
		t.Errorf("status = %v, want %s", body["status"], StatusHealthy)
	}
}

func TestHealthChecker_Check_Healthy(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectPing()
	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	checker := NewHealthChecker(db, rdb)
	status := checker.Check(context.Background())

	if status.Status != StatusHealthy {
		t.Errorf("status = %s, want %s", status.Status, StatusHealthy)
	}
	if status.Dependencies["database"].Status != StatusHealthy {
		t.Errorf("database status = %s, want %s", status.Dependencies["database"].Status, StatusHealthy)
	}
	if status.Dependencies["redis"].Status != StatusHealthy {
		t.Errorf("redis status = %s, want %s", status.Dependencies["redis"].Status, StatusHealthy)
	}
}

func TestHealthChecker_Check_DatabaseDown(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectPing().WillReturnError(context.DeadlineExceeded)

	checker := NewHealthChecker(db, nil)
	status := checker.Check(context.Background())

	if status.Status != StatusUnhealthy {
		t.Errorf("status = %s, want %s", status.Status, StatusUnhealthy)
	}
	if status.Dependencies["database"].Message == "" {
		t.Error("expected a failure message for the database dependency")
	}
}

func TestHealthChecker_Check_RedisDownDegrades(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectPing()
	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	mr.Close()

	checker := NewHealthChecker(db, rdb)
	status := checker.Check(context.Background())

	if status.Status != StatusDegraded {
		t.Errorf("status = %s, want %s", status.Status, StatusDegraded)
	}
}

func TestHealthChecker_Readiness(t *testing.T) {
	t.Run("healthy returns 200", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		if err != nil {
			t.Fatalf("failed to create sqlmock: %v", err)
		}
		defer db.Close()

		mock.ExpectPing()
		mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

		checker := NewHealthChecker(db, nil)
		req := httptest.NewRequest("GET", "/health/ready", nil)
		w := httptest.NewRecorder()
		checker.Readiness(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", w.Code)
		}
	})

	t.Run("unhealthy returns 503", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		if err != nil {
			t.Fatalf("failed to create sqlmock: %v", err)
		}
		defer db.Close()

		mock.ExpectPing().WillReturnError(context.DeadlineExceeded)

		checker := NewHealthChecker(db, nil)
		req := httptest.NewRequest("GET", "/health/ready", nil)
		w := httptest.NewRecorder()
		checker.Readiness(w, req)

		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want 503", w.Code)
		}
	})
}

func TestRegisterHealthRoutes(t *testing.T) {
	checker := NewHealthChecker(nil, nil)
	mux := http.NewServeMux()
	RegisterHealthRoutes(mux, checker)

	for _, path := range []string{"/health", "/health/live", "/health/ready"} {
		req := httptest.NewRequest("GET", path, nil)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Errorf("GET %s status = %d, want 200", path, w.Code)
		}
	}
}
