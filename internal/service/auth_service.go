package service

import (
	"errors"
	"strings"

	"github.com/dafibh/elektrikci/elektrikci-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// AuthService handles authentication and the user's own profile
type AuthService struct {
	userRepo      domain.UserRepository
	workspaceRepo domain.WorkspaceRepository
}

// NewAuthService creates a new AuthService
func NewAuthService(userRepo domain.UserRepository, workspaceRepo domain.WorkspaceRepository) *AuthService {
	return &AuthService{
		userRepo:      userRepo,
		workspaceRepo: workspaceRepo,
	}
}

// AuthResult represents the result of an authentication operation
type AuthResult struct {
	User      *domain.User
	Workspace *domain.Workspace
	IsNewUser bool
}

// LoginInput carries the identity claims of a validated token.
// Users sign in with either email or a phone number (SMS one-time code).
type LoginInput struct {
	Auth0ID     string
	Email       *string
	PhoneNumber *string
	Name        *string
}

// AuthenticateUser handles the authentication flow after Auth0 callback
// Creates user and workspace if they don't exist
func (s *AuthService) AuthenticateUser(input LoginInput) (*AuthResult, error) {
	email := trimmedOrNil(input.Email)
	phone := trimmedOrNil(input.PhoneNumber)
	if email == nil && phone == nil {
		return nil, domain.ErrUserContactRequired
	}

	user, err := s.userRepo.CreateOrGetByAuth0ID(&domain.User{
		Auth0ID:     input.Auth0ID,
		Email:       email,
		PhoneNumber: phone,
		Name:        trimmedOrNil(input.Name),
	})
	if err != nil {
		log.Error().Err(err).Str("auth0_id", input.Auth0ID).Msg("Failed to create or get user")
		return nil, err
	}

	// Check if this is a new user by trying to get their workspace
	workspace, err := s.workspaceRepo.GetByUserID(user.ID)
	if err != nil {
		if errors.Is(err, domain.ErrWorkspaceNotFound) {
			// New user - create default workspace
			workspace, err = s.createDefaultWorkspace(user.ID)
			if err != nil {
				log.Error().Err(err).Str("user_id", user.ID.String()).Msg("Failed to create default workspace")
				return nil, err
			}
			log.Info().Str("user_id", user.ID.String()).Int32("workspace_id", workspace.ID).Msg("Created new user with default workspace")
			return &AuthResult{
				User:      user,
				Workspace: workspace,
				IsNewUser: true,
			}, nil
		}
		log.Error().Err(err).Str("user_id", user.ID.String()).Msg("Failed to get workspace")
		return nil, err
	}

	log.Info().Str("user_id", user.ID.String()).Msg("Existing user authenticated")
	return &AuthResult{
		User:      user,
		Workspace: workspace,
		IsNewUser: false,
	}, nil
}

// GetUserByID retrieves a user by their ID
func (s *AuthService) GetUserByID(id uuid.UUID) (*domain.User, error) {
	return s.userRepo.GetByID(id)
}

// GetProfile retrieves a user's profile by Auth0 ID
func (s *AuthService) GetProfile(auth0ID string) (*domain.User, error) {
	return s.userRepo.GetByAuth0ID(auth0ID)
}

// UpdateProfile updates a user's display name by Auth0 ID
func (s *AuthService) UpdateProfile(auth0ID string, name string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrNameRequired
	}
	if len(name) > domain.MaxNameLength {
		return nil, domain.ErrNameTooLong
	}
	return s.userRepo.UpdateName(auth0ID, name)
}

// GetWorkspaceByAuth0ID retrieves a user's workspace by their Auth0 ID
func (s *AuthService) GetWorkspaceByAuth0ID(auth0ID string) (*domain.Workspace, error) {
	return s.workspaceRepo.GetByUserAuth0ID(auth0ID)
}

// GetWorkspaceByID retrieves a workspace by its ID
func (s *AuthService) GetWorkspaceByID(id int32) (*domain.Workspace, error) {
	return s.workspaceRepo.GetByID(id)
}

func (s *AuthService) createDefaultWorkspace(userID uuid.UUID) (*domain.Workspace, error) {
	workspace := &domain.Workspace{
		UserID: userID,
		Name:   domain.DefaultWorkspaceName,
	}
	return s.workspaceRepo.Create(workspace)
}
