package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"workflow/internal/model"
	"workflow/internal/repository"
	"workflow/internal/session"
	"workflow/internal/testutil"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const adminPassword = "admin-pass-1"

type publishedEvent struct {
	Name string
	Data interface{}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) Publish(event string, data interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{Name: event, Data: data})
}

func (p *recordingPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Name)
	}
	return out
}

type failingAuditRepo struct{}

func (failingAuditRepo) Log(context.Context, *model.AuditLog) error {
	return errors.New("audit table unavailable")
}

func (failingAuditRepo) List(context.Context, repository.AuditFilter, int, int) ([]model.AuditLog, int64, error) {
	return nil, 0, errors.New("audit table unavailable")
}

type fixture struct {
	db        *gorm.DB
	events    *recordingPublisher
	auth      AuthService
	audit     AuditService
	users     UserService
	materials MaterialService
	requests  RequestService
	export    ExportService
	admin     Actor
	operator  Actor
	viewer    Actor
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWithAudit(t, nil)
}

// newFixtureWithAudit wires every service against a fresh database. A nil
// auditRepo uses the real one.
func newFixtureWithAudit(t *testing.T, auditRepo repository.AuditRepository) *fixture {
	t.Helper()
	db := testutil.SetupTestDB(t)

	userRepo := repository.NewUserRepository(db)
	materialRepo := repository.NewMaterialRepository(db)
	teamRepo := repository.NewTeamRepository(db)
	requestRepo := repository.NewRequestRepository(db)
	if auditRepo == nil {
		auditRepo = repository.NewAuditRepository(db)
	}
	txManager := repository.NewTransactionManager(db)

	events := &recordingPublisher{}
	auth := NewAuthService(userRepo, session.NewManager("test-secret", time.Hour))
	audit := NewAuditService(auditRepo, zap.NewNop())
	users := NewUserService(userRepo, txManager, auth, audit)
	users.(*userService).hashCost = bcrypt.MinCost

	f := &fixture{
		db:        db,
		events:    events,
		auth:      auth,
		audit:     audit,
		users:     users,
		materials: NewMaterialService(materialRepo, txManager, auth, audit),
		requests:  NewRequestService(requestRepo, materialRepo, teamRepo, txManager, auth, audit, events),
		export:    NewExportService(requestRepo, txManager, audit, events, nil),
	}

	f.admin = actorFor(testutil.SeedUser(t, db, "Ada Admin", "admin@workflow.local", model.RoleAdmin, adminPassword))
	f.operator = actorFor(testutil.SeedUser(t, db, "Oscar Operator", "operator@workflow.local", model.RoleOperator, "operator-pass"))
	f.viewer = actorFor(testutil.SeedUser(t, db, "Vera Viewer", "viewer@workflow.local", model.RoleViewer, "viewer-pass"))
	return f
}

func actorFor(u *model.User) Actor {
	return Actor{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}
}

// auditActions returns the recorded audit actions, oldest first.
func (f *fixture) auditActions(t *testing.T) []string {
	t.Helper()
	var actions []string
	if err := f.db.Model(&model.AuditLog{}).Order("created_at asc").Pluck("action", &actions).Error; err != nil {
		t.Fatalf("read audit log: %v", err)
	}
	return actions
}

func contains(list []string, want string) bool {
	for _, v := range list {
		if v == want {
			return true
		}
	}
	return false
}

// validationMessage fails the test unless err is a *ValidationError.
func validationMessage(t *testing.T, err error) *ValidationError {
	t.Helper()
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("error = %v (%T), want *ValidationError", err, err)
	}
	return vErr
}
