package auth

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"support-chat-backend/internal/apperror"
	"support-chat-backend/internal/database"
	"support-chat-backend/internal/identity"
	internaljwt "support-chat-backend/internal/jwt"
	"support-chat-backend/internal/model"
	"support-chat-backend/internal/service/organization"

	"github.com/google/uuid"
)

const (
	roleOwner    = "owner"
	statusActive = "active"
)

type RegisterParams struct {
	OrganizationName string
	OwnerName        string
	OwnerEmail       string
	Password         string
}

type LoginParams struct {
	OrganizationID string
	Email          string
	Password       string
}

type Membership struct {
	Operator     model.OperatorItem
	Organization model.OrganizationItem
	IsDefault    bool
}

type AuthResult struct {
	Operator     model.OperatorItem
	Organization model.OrganizationItem
	Tokens       internaljwt.TokenResponse
	Memberships  []Membership
}

type ProfileResult struct {
	Operator     model.OperatorItem
	Organization model.OrganizationItem
}

type Service struct {
	repo Repository
	now  func() time.Time
}

var createTokenWithRefresh = internaljwt.CreateTokenWithRefresh

func SetTokenIssuer(issuer func(internaljwt.User, internaljwt.Role, int64) (internaljwt.TokenResponse, error)) {
	if issuer == nil {
		createTokenWithRefresh = internaljwt.CreateTokenWithRefresh
		return
	}
	createTokenWithRefresh = issuer
}

func New(db *database.Database) *Service {
	return &Service{
		repo: NewDynamoRepository(db),
		now:  time.Now,
	}
}

func NewWithRepository(repo Repository, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}

	return &Service{
		repo: repo,
		now:  now,
	}
}

// Register creates an organization on the free seat limit and its owner operator.
func (s *Service) Register(ctx context.Context, params RegisterParams) (AuthResult, error) {
	email := normalizeEmail(params.OwnerEmail)
	password := strings.TrimSpace(params.Password)
	name := strings.TrimSpace(params.OwnerName)
	organizationName := strings.TrimSpace(params.OrganizationName)

	if email == "" || password == "" || name == "" || organizationName == "" {
		return AuthResult{}, apperror.BadRequest("Missing required fields")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return AuthResult{}, apperror.BadRequest("Invalid email address")
	}
	if len(password) < internaljwt.MinPasswordLength {
		return AuthResult{}, apperror.BadRequest("Password is too short")
	}

	now := s.now().UTC().Format(time.RFC3339)
	organizationID := uuid.NewString()
	operatorID := uuid.NewString()

	org := model.OrganizationItem{
		OrganizationID: organizationID,
		Name:           organizationName,
		MaxMemberships: organization.FreeMaxMemberships,
		CreatedAt:      now,
	}
	if err := s.repo.CreateOrganization(ctx, org); err != nil {
		return AuthResult{}, apperror.Internal("failed to create organization", err)
	}

	hash, err := internaljwt.HashPassword(password)
	if err != nil {
		return AuthResult{}, apperror.Internal("failed to hash password", err)
	}

	operator := model.OperatorItem{
		PK:             model.OrganizationScopedPK(organizationID, operatorID),
		OrganizationID: organizationID,
		OperatorID:     operatorID,
		Email:          email,
		Name:           name,
		Role:           roleOwner,
		Status:         statusActive,
		PasswordHash:   hash,
		CreatedAt:      now,
	}
	if err := s.repo.CreateOperator(ctx, operator); err != nil {
		return AuthResult{}, apperror.Internal("failed to save operator", err)
	}

	tokens, err := createTokenWithRefresh(tokenUser(operator), internaljwt.RoleUser, 0)
	if err != nil {
		return AuthResult{}, apperror.Internal("failed to issue tokens", err)
	}

	return AuthResult{
		Operator:     operator,
		Organization: org,
		Tokens:       tokens,
		Memberships: []Membership{
			{Operator: operator, Organization: org, IsDefault: true},
		},
	}, nil
}

// Login signs an operator in. Without an organization ID the owned organization
// is preferred when the email belongs to several.
func (s *Service) Login(ctx context.Context, params LoginParams) (AuthResult, error) {
	email := normalizeEmail(params.Email)
	password := strings.TrimSpace(params.Password)
	organizationID := strings.TrimSpace(params.OrganizationID)

	if email == "" || password == "" {
		return AuthResult{}, apperror.BadRequest("Missing required fields")
	}

	matches, err := s.resolveMemberships(ctx, email, organizationID, password)
	if err != nil {
		return AuthResult{}, err
	}

	return s.issue(matches, selectDefaultMembership(matches, organizationID))
}

// SwitchOrganization reissues tokens for another organization the same email belongs to.
func (s *Service) SwitchOrganization(ctx context.Context, op identity.Operator, organizationID string) (AuthResult, error) {
	email := normalizeEmail(op.Email)
	organizationID = strings.TrimSpace(organizationID)

	if email == "" {
		return AuthResult{}, apperror.Unauthorized("Identity not found")
	}
	if organizationID == "" {
		organizationID = strings.TrimSpace(op.OrganizationID)
	}

	matches, err := s.fetchMemberships(ctx, email)
	if err != nil {
		return AuthResult{}, err
	}

	for i, match := range matches {
		if match.Organization.OrganizationID == organizationID {
			return s.issue(matches, i)
		}
	}
	return AuthResult{}, apperror.Unauthorized("Membership not found")
}

func (s *Service) Me(ctx context.Context, op identity.Operator) (ProfileResult, error) {
	if err := op.Require(); err != nil {
		return ProfileResult{}, err
	}

	operator, err := s.repo.GetOperator(ctx, op.OrganizationID, op.OperatorID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ProfileResult{}, apperror.NotFound("Operator not found")
		}
		return ProfileResult{}, apperror.Internal("failed to fetch operator", err)
	}

	org, err := s.repo.GetOrganization(ctx, op.OrganizationID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ProfileResult{}, apperror.NotFound("Organization not found")
		}
		return ProfileResult{}, apperror.Internal("failed to fetch organization", err)
	}

	return ProfileResult{Operator: operator, Organization: org}, nil
}

func (s *Service) issue(matches []Membership, defaultIdx int) (AuthResult, error) {
	chosen := matches[defaultIdx]

	tokens, err := createTokenWithRefresh(tokenUser(chosen.Operator), internaljwt.RoleUser, 0)
	if err != nil {
		return AuthResult{}, apperror.Internal("failed to issue tokens", err)
	}

	memberships := make([]Membership, len(matches))
	for i, match := range matches {
		match.IsDefault = i == defaultIdx
		memberships[i] = match
	}

	return AuthResult{
		Operator:     chosen.Operator,
		Organization: chosen.Organization,
		Tokens:       tokens,
		Memberships:  memberships,
	}, nil
}

func tokenUser(operator model.OperatorItem) internaljwt.User {
	return internaljwt.User{
		Id:             operator.OperatorID,
		Email:          operator.Email,
		Name:           operator.Name,
		OrganizationID: operator.OrganizationID,
		PasswordHash:   operator.PasswordHash,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) resolveMemberships(ctx context.Context, email, organizationID, password string) ([]Membership, error) {
	memberships, err := s.fetchMemberships(ctx, email)
	if err != nil {
		return nil, err
	}

	filtered := make([]Membership, 0, len(memberships))
	for _, match := range memberships {
		if organizationID != "" && match.Organization.OrganizationID != organizationID {
			continue
		}
		if internaljwt.ValidatePassword(match.Operator.PasswordHash, password) {
			filtered = append(filtered, match)
		}
	}

	if len(filtered) == 0 {
		return nil, apperror.Unauthorized("Invalid credentials")
	}
	return filtered, nil
}

func (s *Service) fetchMemberships(ctx context.Context, email string) ([]Membership, error) {
	operators, err := s.repo.ListOperatorsByEmail(ctx, email)
	if err != nil {
		return nil, apperror.Internal("failed to fetch operator", err)
	}

	matches := make([]Membership, 0, len(operators))
	for _, operator := range operators {
		if operator.Status != statusActive {
			continue
		}

		org, err := s.repo.GetOrganization(ctx, operator.OrganizationID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, apperror.Internal("failed to fetch organization", err)
		}

		matches = append(matches, Membership{Operator: operator, Organization: org})
	}
	return matches, nil
}

func selectDefaultMembership(matches []Membership, organizationID string) int {
	if organizationID != "" {
		return 0
	}
	for i, match := range matches {
		if match.Operator.Role == roleOwner {
			return i
		}
	}
	return 0
}
