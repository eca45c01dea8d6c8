package endpoints

import (
	"context"
	"net/http"
	"strings"

	"support-chat-backend/internal/apperror"
	"support-chat-backend/internal/dto"
	"support-chat-backend/internal/identity"
	internaljwt "support-chat-backend/internal/jwt"
	authsvc "support-chat-backend/internal/service/auth"
)

type AuthService interface {
	Register(ctx context.Context, params authsvc.RegisterParams) (authsvc.AuthResult, error)
	Login(ctx context.Context, params authsvc.LoginParams) (authsvc.AuthResult, error)
	SwitchOrganization(ctx context.Context, op identity.Operator, organizationID string) (authsvc.AuthResult, error)
	Me(ctx context.Context, op identity.Operator) (authsvc.ProfileResult, error)
}

type AuthEndpoints interface {
	Register(http.ResponseWriter, *http.Request) error
	Login(http.ResponseWriter, *http.Request) error
	Refresh(http.ResponseWriter, *http.Request) error
	Me(http.ResponseWriter, *http.Request) error
	Switch(http.ResponseWriter, *http.Request) error
}

type authEndpoints struct {
	service AuthService
	refresh func(refreshToken string, role internaljwt.Role) (string, error)
}

func NewAuthEndpoints(service AuthService) AuthEndpoints {
	return &authEndpoints{
		service: service,
		refresh: internaljwt.RefreshToken,
	}
}

func (h *authEndpoints) Register(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodPost: h.handleRegister,
	})
}

func (h *authEndpoints) Login(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodPost: h.handleLogin,
	})
}

func (h *authEndpoints) Refresh(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodPost: h.handleRefresh,
	})
}

func (h *authEndpoints) Me(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodGet: h.handleMe,
	})
}

func (h *authEndpoints) Switch(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodPost: h.handleSwitch,
	})
}

func (h *authEndpoints) handleRegister(w http.ResponseWriter, r *http.Request) error {
	var req dto.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}

	result, err := h.service.Register(r.Context(), authsvc.RegisterParams{
		OrganizationName: req.OrganizationName,
		OwnerName:        req.Name,
		OwnerEmail:       req.Email,
		Password:         req.Password,
	})
	if err != nil {
		return err
	}

	return WriteJSON(w, http.StatusCreated, toAuthResponse(result))
}

func (h *authEndpoints) handleLogin(w http.ResponseWriter, r *http.Request) error {
	var req dto.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}

	result, err := h.service.Login(r.Context(), authsvc.LoginParams{
		OrganizationID: req.OrganizationID,
		Email:          req.Email,
		Password:       req.Password,
	})
	if err != nil {
		return err
	}

	return WriteJSON(w, http.StatusOK, toAuthResponse(result))
}

func (h *authEndpoints) handleRefresh(w http.ResponseWriter, r *http.Request) error {
	var req dto.RefreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	if strings.TrimSpace(req.RefreshToken) == "" {
		return apperror.BadRequest("Missing refresh token")
	}

	accessToken, err := h.refresh(strings.TrimSpace(req.RefreshToken), internaljwt.RoleUser)
	if err != nil {
		return apperror.New(apperror.CodeUnauthorized, "Invalid refresh token", err)
	}

	return WriteJSON(w, http.StatusOK, dto.RefreshResponse{AccessToken: accessToken})
}

func (h *authEndpoints) handleMe(w http.ResponseWriter, r *http.Request) error {
	op, err := operator(r)
	if err != nil {
		return err
	}

	profile, err := h.service.Me(r.Context(), op)
	if err != nil {
		return err
	}

	return WriteJSON(w, http.StatusOK, toMeResponse(profile))
}

func (h *authEndpoints) handleSwitch(w http.ResponseWriter, r *http.Request) error {
	op, err := operator(r)
	if err != nil {
		return err
	}

	var req dto.SwitchOrganizationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}

	result, err := h.service.SwitchOrganization(r.Context(), op, req.OrganizationID)
	if err != nil {
		return err
	}

	return WriteJSON(w, http.StatusOK, toAuthResponse(result))
}
