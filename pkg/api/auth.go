package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"watson-dash/pkg/auth"
	"watson-dash/pkg/db"
	"watson-dash/pkg/model"
	"watson-dash/pkg/store"
)

// UserStore is the operator account backend; *db.UserRepo implements it.
type UserStore interface {
	CountUsers() (int64, error)
	CreateUser(*model.User) error
	FindUser(username string) (*model.User, error)
	TouchLogin(id uint, at time.Time) error
}

type AuthHandler struct {
	Users  UserStore
	Signer *auth.Signer
	Store  store.ActionStore
	Log    *zap.Logger
}

type authRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (a *AuthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/auth/register", a.handleRegister)
	mux.HandleFunc("/api/auth/login", a.handleLogin)
}

// handleRegister only allows the first user to be created (admin).
func (a *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req authRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" || req.Password == "" {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	count, err := a.Users.CountUsers()
	if err != nil {
		a.Log.Error("count users failed", zap.Error(err))
		http.Error(w, "failed to create user", http.StatusInternalServerError)
		return
	}
	if count > 0 {
		http.Error(w, "registration closed", http.StatusForbidden)
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		http.Error(w, "invalid password", http.StatusBadRequest)
		return
	}
	user := model.User{Username: req.Username, PasswordHash: string(hash), IsAdmin: true}
	if err := a.Users.CreateUser(&user); err != nil {
		a.Log.Error("create user failed", zap.String("username", req.Username), zap.Error(err))
		http.Error(w, "failed to create user", http.StatusInternalServerError)
		return
	}
	a.audit(r, user.Username, "register")
	a.issue(w, &user)
}

func (a *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req authRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" || req.Password == "" {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	user, err := a.Users.FindUser(req.Username)
	if err != nil {
		if !errors.Is(err, db.ErrUserNotFound) {
			a.Log.Error("find user failed", zap.String("username", req.Username), zap.Error(err))
		}
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		a.audit(r, req.Username, "login_failed")
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	if err := a.Users.TouchLogin(user.ID, time.Now()); err != nil {
		a.Log.Warn("record login time failed", zap.Uint("id", user.ID), zap.Error(err))
	}
	a.audit(r, user.Username, "login")
	a.issue(w, user)
}

func (a *AuthHandler) issue(w http.ResponseWriter, user *model.User) {
	token, err := a.Signer.Generate(user.ID, user.Username)
	if err != nil {
		a.Log.Error("sign token failed", zap.Error(err))
		http.Error(w, "failed to issue token", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (a *AuthHandler) audit(r *http.Request, username, action string) {
	if a.Store == nil {
		return
	}
	if err := a.Store.AppendAudit(model.AuditEntry{
		Actor:    username,
		Action:   action,
		Target:   username,
		RemoteIP: remoteIP(r),
	}); err != nil {
		a.Log.Error("audit append failed", zap.Error(err))
	}
}
