package service

import (
	"errors"
	"testing"

	"github.com/dafibh/elektrikci/elektrikci-backend/internal/domain"
	"github.com/dafibh/elektrikci/elektrikci-backend/internal/testutil"
	"github.com/google/uuid"
)

func TestAuthenticateUser_NewUser(t *testing.T) {
	userRepo := testutil.NewMockUserRepository()
	workspaceRepo := testutil.NewMockWorkspaceRepository()
	service := NewAuthService(userRepo, workspaceRepo)

	auth0ID := "auth0|12345"
	email := "usta@example.com"
	name := "Usta"

	result, err := service.AuthenticateUser(LoginInput{Auth0ID: auth0ID, Email: &email, Name: &name})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if !result.IsNewUser {
		t.Error("Expected IsNewUser to be true for new user")
	}
	if result.User.Auth0ID != auth0ID {
		t.Errorf("Expected auth0ID %s, got %s", auth0ID, result.User.Auth0ID)
	}
	if result.User.Email == nil || *result.User.Email != email {
		t.Errorf("Expected email %s, got %v", email, result.User.Email)
	}
	if result.Workspace == nil {
		t.Fatal("Expected workspace, got nil")
	}
	if result.Workspace.Name != domain.DefaultWorkspaceName {
		t.Errorf("Expected workspace name %q, got %s", domain.DefaultWorkspaceName, result.Workspace.Name)
	}
}

func TestAuthenticateUser_PhoneOnly(t *testing.T) {
	service := NewAuthService(testutil.NewMockUserRepository(), testutil.NewMockWorkspaceRepository())
	phone := "+905321234567"

	result, err := service.AuthenticateUser(LoginInput{Auth0ID: "sms|1", PhoneNumber: &phone})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if result.User.Email != nil {
		t.Error("Expected no email")
	}
	if result.User.PhoneNumber == nil || *result.User.PhoneNumber != phone {
		t.Errorf("Expected phone %s, got %v", phone, result.User.PhoneNumber)
	}
}

func TestAuthenticateUser_ContactRequired(t *testing.T) {
	userRepo := testutil.NewMockUserRepository()
	service := NewAuthService(userRepo, testutil.NewMockWorkspaceRepository())
	blank := "  "

	_, err := service.AuthenticateUser(LoginInput{Auth0ID: "auth0|x", Email: &blank})
	if !errors.Is(err, domain.ErrUserContactRequired) {
		t.Fatalf("Expected ErrUserContactRequired, got %v", err)
	}
	if len(userRepo.Users) != 0 {
		t.Error("Expected no user to be created")
	}
}

func TestAuthenticateUser_ExistingUser(t *testing.T) {
	userRepo := testutil.NewMockUserRepository()
	workspaceRepo := testutil.NewMockWorkspaceRepository()
	service := NewAuthService(userRepo, workspaceRepo)

	auth0ID := "auth0|existing"
	email := "existing@example.com"
	existingUser := &domain.User{ID: uuid.New(), Auth0ID: auth0ID, Email: &email}
	userRepo.AddUser(existingUser)
	workspaceRepo.AddWorkspace(&domain.Workspace{ID: 1, UserID: existingUser.ID, Name: "Dükkan"}, auth0ID)

	result, err := service.AuthenticateUser(LoginInput{Auth0ID: auth0ID, Email: &email})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if result.IsNewUser {
		t.Error("Expected IsNewUser to be false for existing user")
	}
	if result.User.ID != existingUser.ID {
		t.Error("Expected the existing user")
	}
	if result.Workspace.Name != "Dükkan" {
		t.Errorf("Expected existing workspace name, got %s", result.Workspace.Name)
	}
}

func TestAuthenticateUser_RepositoryError(t *testing.T) {
	userRepo := testutil.NewMockUserRepository()
	dbErr := errors.New("connection reset")
	userRepo.CreateFn = func(*domain.User) (*domain.User, error) {
		return nil, dbErr
	}
	service := NewAuthService(userRepo, testutil.NewMockWorkspaceRepository())
	email := "a@b.c"

	if _, err := service.AuthenticateUser(LoginInput{Auth0ID: "x", Email: &email}); !errors.Is(err, dbErr) {
		t.Fatalf("Expected repository error, got %v", err)
	}
}

func TestUpdateProfile(t *testing.T) {
	userRepo := testutil.NewMockUserRepository()
	service := NewAuthService(userRepo, testutil.NewMockWorkspaceRepository())
	userRepo.AddUser(&domain.User{ID: uuid.New(), Auth0ID: "auth0|me"})

	user, err := service.UpdateProfile("auth0|me", "  Hasan Usta ")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if user.Name == nil || *user.Name != "Hasan Usta" {
		t.Errorf("Expected trimmed name, got %v", user.Name)
	}

	if _, err := service.UpdateProfile("auth0|me", " "); !errors.Is(err, domain.ErrNameRequired) {
		t.Errorf("Expected ErrNameRequired, got %v", err)
	}
	if _, err := service.UpdateProfile("auth0|nobody", "x"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("Expected ErrUserNotFound, got %v", err)
	}
}

func TestGetWorkspaceByAuth0ID(t *testing.T) {
	userRepo := testutil.NewMockUserRepository()
	workspaceRepo := testutil.NewMockWorkspaceRepository()
	service := NewAuthService(userRepo, workspaceRepo)

	auth0ID := "auth0|workspace-test"
	user := &domain.User{ID: uuid.New(), Auth0ID: auth0ID}
	userRepo.AddUser(user)
	workspace := &domain.Workspace{ID: 1, UserID: user.ID, Name: "Test Workspace"}
	workspaceRepo.AddWorkspace(workspace, auth0ID)

	t.Run("returns workspace for valid auth0_id", func(t *testing.T) {
		found, err := service.GetWorkspaceByAuth0ID(auth0ID)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if found.ID != workspace.ID {
			t.Errorf("Expected workspace ID %d, got %d", workspace.ID, found.ID)
		}
	})

	t.Run("returns error for unknown auth0_id", func(t *testing.T) {
		_, err := service.GetWorkspaceByAuth0ID("auth0|unknown")
		if err != domain.ErrWorkspaceNotFound {
			t.Errorf("Expected ErrWorkspaceNotFound, got %v", err)
		}
	})
}
