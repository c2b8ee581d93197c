package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/mpopescu/autochecks/internal/common"
)

type apiError struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

type credentialsRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	AccountID    string `json:"account_id"`
	Email        string `json:"email"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type accountResponse struct {
	AccountID string `json:"account_id"`
	Email     string `json:"email"`
}

type snapshotResponse struct {
	AccountID string          `json:"account_id"`
	Payload   json.RawMessage `json:"payload"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type uploadRequest struct {
	Payload json.RawMessage `json:"payload" validate:"required"`
}

type uploadResponse struct {
	UpdatedAt time.Time `json:"updated_at"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, apiError{Error: msg, Code: code})
}

// decode unmarshals and validates a request body.
func (s *Server) decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return err
	}
	return s.validate.Struct(v)
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, common.CodeMalformedPayload, "invalid credentials payload")
		return
	}

	user, err := s.users.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrorEmailTaken) {
			writeError(w, http.StatusConflict, common.CodeEmailTaken, "email already registered")
			return
		}
		s.logger.Error(r.Context(), "register failed", "error", err)
		writeError(w, http.StatusInternalServerError, "", "internal error")
		return
	}

	s.logger.Info(r.Context(), "account registered", "account_id", user.ID)
	writeJSON(w, http.StatusCreated, accountResponse{AccountID: user.ID, Email: user.Email})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, common.CodeMalformedPayload, "invalid credentials payload")
		return
	}

	user, pair, err := s.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			writeError(w, http.StatusUnauthorized, common.CodeUnauthorized, "invalid email or password")
			return
		}
		s.logger.Error(r.Context(), "login failed", "error", err)
		writeError(w, http.StatusInternalServerError, "", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		AccountID:    user.ID,
		Email:        user.Email,
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, common.CodeMalformedPayload, "invalid refresh payload")
		return
	}

	user, pair, err := s.users.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrRefreshTokenExpired):
			writeError(w, http.StatusUnauthorized, common.CodeRefreshTokenExpired, "refresh token expired")
		case errors.Is(err, common.ErrorUnauthorized):
			writeError(w, http.StatusUnauthorized, common.CodeUnauthorized, "invalid refresh token")
		default:
			s.logger.Error(r.Context(), "refresh failed", "error", err)
			writeError(w, http.StatusInternalServerError, "", "internal error")
		}
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		AccountID:    user.ID,
		Email:        user.Email,
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := s.users.GetByID(r.Context(), accountIDFrom(r.Context()))
	if err != nil {
		writeError(w, http.StatusUnauthorized, common.CodeUnauthorized, "unknown account")
		return
	}
	writeJSON(w, http.StatusOK, accountResponse{AccountID: user.ID, Email: user.Email})
}

func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	row, err := s.snapshots.Get(r.Context(), accountIDFrom(r.Context()))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			writeError(w, http.StatusNotFound, common.CodeNotFound, "no snapshot for account")
			return
		}
		s.logger.Error(r.Context(), "snapshot fetch failed", "error", err)
		writeError(w, http.StatusInternalServerError, "", "internal error")
		return
	}

	snapshotDownloadsTotal.Inc()
	writeJSON(w, http.StatusOK, snapshotResponse{
		AccountID: row.AccountID,
		Payload:   row.Payload,
		UpdatedAt: row.UpdatedAt,
	})
}

func (s *Server) handlePutSnapshot(w http.ResponseWriter, r *http.Request) {
	var req uploadRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, common.CodeMalformedPayload, "invalid snapshot payload")
		return
	}

	row, err := s.snapshots.Upsert(r.Context(), accountIDFrom(r.Context()), req.Payload)
	if err != nil {
		if errors.Is(err, common.ErrMalformedPayload) {
			writeError(w, http.StatusBadRequest, common.CodeMalformedPayload, "snapshot payload is not valid JSON")
			return
		}
		s.logger.Error(r.Context(), "snapshot upsert failed", "error", err)
		writeError(w, http.StatusInternalServerError, "", "internal error")
		return
	}

	snapshotUploadsTotal.Inc()
	writeJSON(w, http.StatusOK, uploadResponse{UpdatedAt: row.UpdatedAt})
}
