package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"shopkeep/m/domain"
	"shopkeep/m/internal/apperr"
	"shopkeep/m/internal/store"
)

type ctxKey string

const (
	ctxUserID      ctxKey = "userID"
	ctxPermissions ctxKey = "permissions"
)

type authClaims struct {
	UserID      int64               `json:"user_id"`
	Role        string              `json:"role"`
	Permissions []domain.Permission `json:"permissions"`
	jwt.RegisteredClaims
}

func (h *Handler) generateToken(user domain.User, role domain.Role) (string, error) {
	now := time.Now()
	claims := authClaims{
		UserID:      user.ID,
		Role:        role.Name,
		Permissions: role.Permissions,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(h.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.secret))
}

func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			h.respondError(w, r, apperr.Unauthorized("missing bearer token"))
			return
		}
		tokenString := strings.TrimSpace(header[len("Bearer "):])
		token, err := jwt.ParseWithClaims(tokenString, &authClaims{}, func(token *jwt.Token) (any, error) {
			if token.Method != jwt.SigningMethodHS256 {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(h.secret), nil
		})
		if err != nil || !token.Valid {
			h.respondError(w, r, apperr.Unauthorized("invalid token"))
			return
		}
		claims, ok := token.Claims.(*authClaims)
		if !ok || claims.UserID <= 0 {
			h.respondError(w, r, apperr.Unauthorized("invalid token claims"))
			return
		}
		ctx := context.WithValue(r.Context(), ctxUserID, claims.UserID)
		ctx = context.WithValue(ctx, ctxPermissions, claims.Permissions)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requirePermission rejects requests whose token does not grant perm.
func (h *Handler) requirePermission(perm domain.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			granted, _ := r.Context().Value(ctxPermissions).([]domain.Permission)
			for _, p := range granted {
				if p == perm {
					next.ServeHTTP(w, r)
					return
				}
			}
			h.respondError(w, r, apperr.Forbidden("permission %s required", perm))
		})
	}
}

func currentUserID(r *http.Request) int64 {
	id, _ := r.Context().Value(ctxUserID).(int64)
	return id
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	ctx := r.Context()
	user, ok, err := h.store.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if !ok || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		h.respondError(w, r, apperr.Unauthorized("invalid credentials"))
		return
	}
	role, err := h.store.GetRole(ctx, user.RoleID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	token, err := h.generateToken(user, role)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, authResponse{Token: token, User: toUserResponse(user, role)})
}

// register creates a staff account. Only users:manage may call it.
func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" || req.Email == "" || req.Password == "" || req.Role == "" {
		h.respondError(w, r, apperr.Validation("name, email, password and role are required"))
		return
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	user := domain.User{Name: req.Name, Email: req.Email, Password: string(hashed)}
	var role domain.Role
	err = h.store.WithTx(r.Context(), func(tx *store.Tx) error {
		found, ok, err := tx.GetRoleByName(r.Context(), req.Role)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.Validation("unknown role %q", req.Role)
		}
		role = found
		taken, err := tx.EmailTaken(r.Context(), req.Email)
		if err != nil {
			return err
		}
		if taken {
			return apperr.Validation("email %s already exists", req.Email)
		}
		user.RoleID = role.ID
		return tx.InsertUser(r.Context(), &user)
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.log.Info("user registered", zap.Int64("user_id", user.ID), zap.String("role", role.Name))
	respondJSON(w, http.StatusCreated, toUserResponse(user, role))
}

// resetPassword lets the signed-in user replace their own password.
func (h *Handler) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		NewPassword string `json:"new_password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	if req.NewPassword == "" {
		h.respondError(w, r, apperr.Validation("new_password is required"))
		return
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	uid := currentUserID(r)
	if err := h.store.SetUserPassword(r.Context(), uid, string(hashed)); err != nil {
		h.respondError(w, r, err)
		return
	}
	h.log.Info("password reset", zap.Int64("user_id", uid))
	respondJSON(w, http.StatusOK, map[string]string{"status": "password updated"})
}

type roleRequest struct {
	Name        string              `json:"name"`
	Permissions []domain.Permission `json:"permissions"`
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.store.ListRoles(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, roles)
}

func (h *Handler) createRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		h.respondError(w, r, apperr.Validation("name is required"))
		return
	}
	for _, p := range req.Permissions {
		if !p.Valid() {
			h.respondError(w, r, apperr.Validation("unknown permission %q", p))
			return
		}
	}

	if req.Permissions == nil {
		req.Permissions = []domain.Permission{}
	}
	role := domain.Role{Name: req.Name, Permissions: req.Permissions}
	err := h.store.WithTx(r.Context(), func(tx *store.Tx) error {
		_, exists, err := tx.GetRoleByName(r.Context(), role.Name)
		if err != nil {
			return err
		}
		if exists {
			return apperr.Validation("role %s already exists", role.Name)
		}
		return tx.InsertRole(r.Context(), &role)
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, role)
}
