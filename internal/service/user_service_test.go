package service

import (
	"context"
	"errors"
	"testing"

	"workflow/internal/model"
	"workflow/internal/testutil"
)

func TestCreateUserValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		req      CreateUserRequest
		wantMsg  string
		conflict bool
	}{
		{"missing name", CreateUserRequest{Email: "a@b.c", Password: "secret1", Role: "VIEWER"}, "All fields are required.", false},
		{"bad email", CreateUserRequest{Name: "A", Email: "nobody", Password: "secret1", Role: "VIEWER"}, "Enter a valid email address.", false},
		{"short password", CreateUserRequest{Name: "A", Email: "a@b.c", Password: "12345", Role: "VIEWER"}, "Password must be at least 6 characters.", false},
		{"unknown role", CreateUserRequest{Name: "A", Email: "a@b.c", Password: "secret1", Role: "owner"}, `Invalid role "OWNER". Allowed: VIEWER, OPERATOR, ADMIN`, false},
		{"duplicate email", CreateUserRequest{Name: "A", Email: " Viewer@Workflow.local ", Password: "secret1", Role: "VIEWER"}, "Email already exists.", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.users.CreateUser(ctx, f.admin, tt.req)
			vErr := validationMessage(t, err)
			if vErr.Message != tt.wantMsg {
				t.Errorf("message = %q, want %q", vErr.Message, tt.wantMsg)
			}
			if vErr.Conflict != tt.conflict {
				t.Errorf("conflict = %v, want %v", vErr.Conflict, tt.conflict)
			}
		})
	}
}

func TestCreateUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.users.CreateUser(ctx, f.admin, CreateUserRequest{
		Name:     "Sam Splicer",
		Email:    "  Sam@Example.COM ",
		Password: "splice-it",
		Role:     "operator",
	})
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	if created.Email != "sam@example.com" || created.Role != model.RoleOperator {
		t.Errorf("created = %+v, want normalised email and OPERATOR", created)
	}

	if _, err := f.auth.VerifyCredentials(ctx, "sam@example.com", "splice-it"); err != nil {
		t.Errorf("new user cannot log in: %v", err)
	}
	if !contains(f.auditActions(t), model.ActionCreateUser) {
		t.Error("user creation was not audited")
	}

	users, err := f.users.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers() error = %v", err)
	}
	if len(users) != 4 || users[0].Role != model.RoleAdmin {
		t.Errorf("users = %+v, want 4 with the admin first", users)
	}
}

func TestDeleteUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.users.DeleteUser(ctx, f.operator, f.viewer.ID.String(), "operator-pass"); !errors.Is(err, ErrForbidden) {
		t.Errorf("operator delete error = %v, want ErrForbidden", err)
	}
	if err := f.users.DeleteUser(ctx, f.admin, f.viewer.ID.String(), "wrong"); !errors.Is(err, ErrInvalidAdminPassword) {
		t.Errorf("wrong password error = %v, want ErrInvalidAdminPassword", err)
	}

	err := f.users.DeleteUser(ctx, f.admin, f.admin.ID.String(), adminPassword)
	if vErr := validationMessage(t, err); vErr.Message != "You cannot delete your own account." {
		t.Errorf("self delete message = %q", vErr.Message)
	}

	var admins int64
	f.db.Model(&model.User{}).Where("role = ?", model.RoleAdmin).Count(&admins)
	if admins != 1 {
		t.Fatalf("admins = %d, want the sole admin kept", admins)
	}

	if err := f.users.DeleteUser(ctx, f.admin, f.viewer.ID.String(), adminPassword); err != nil {
		t.Fatalf("DeleteUser() error = %v", err)
	}
	if _, err := f.users.GetUserByID(ctx, f.viewer.ID.String()); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetUserByID() after delete error = %v, want ErrNotFound", err)
	}

	other := testutil.SeedUser(t, f.db, "Second Admin", "second@workflow.local", model.RoleAdmin, "second-pass")
	if err := f.users.DeleteUser(ctx, f.admin, other.ID.String(), adminPassword); err != nil {
		t.Errorf("deleting one of two admins error = %v", err)
	}
}

func TestEnsureAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.users.EnsureAdmin(ctx, "Root", "Root@Workflow.local", "bootstrap")
	if err != nil || !created {
		t.Fatalf("EnsureAdmin() = %v, %v; want created", created, err)
	}

	created, err = f.users.EnsureAdmin(ctx, "Root", "root@workflow.local", "different")
	if err != nil || created {
		t.Fatalf("second EnsureAdmin() = %v, %v; want no-op", created, err)
	}

	if _, err := f.auth.VerifyCredentials(ctx, "root@workflow.local", "bootstrap"); err != nil {
		t.Errorf("bootstrap password rejected: %v", err)
	}
}
