package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"workflow/internal/config"
	"workflow/internal/database"
	"workflow/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SetupTestDB opens a migrated SQLite database in a per-test temp directory.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	cfg := config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "workflow_test.db"),
	}
	db, err := database.Open(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// SetupRouter returns a bare gin engine in test mode.
func SetupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())
	return r
}

// DoRequest sends a JSON request, authenticating with token when given.
func DoRequest(r http.Handler, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ParseResponse decodes the response envelope into a map.
func ParseResponse(w *httptest.ResponseRecorder) map[string]interface{} {
	var result map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &result)
	return result
}

// SeedUser creates a user whose password is hashed at the minimum bcrypt cost.
func SeedUser(t *testing.T, db *gorm.DB, name, email, role, password string) *model.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	user := &model.User{Name: name, Email: email, Role: role, PasswordHash: string(hash)}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to seed user: %v", err)
	}
	return user
}

// SeedMaterial creates an active material without a calc rule.
func SeedMaterial(t *testing.T, db *gorm.DB, sapPN, name string) *model.Material {
	t.Helper()
	m := &model.Material{SapPN: sapPN, Name: name, IsActive: true, CalcRounding: model.RoundingNone}
	if err := db.Create(m).Error; err != nil {
		t.Fatalf("Failed to seed material: %v", err)
	}
	return m
}

// SeedRuledMaterial creates an active material with a calc rule.
func SeedRuledMaterial(t *testing.T, db *gorm.DB, sapPN, name, basis, factor, rounding string) *model.Material {
	t.Helper()
	m := &model.Material{
		SapPN:        sapPN,
		Name:         name,
		IsActive:     true,
		CalcBasis:    &basis,
		CalcFactor:   decimal.NewNullDecimal(decimal.RequireFromString(factor)),
		CalcRounding: rounding,
	}
	if err := db.Create(m).Error; err != nil {
		t.Fatalf("Failed to seed material: %v", err)
	}
	return m
}
