package web

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"personal-calendar/internal/auth"
	"personal-calendar/internal/middleware"
	"personal-calendar/internal/model"
)

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.SessionFrom(r.Context()); ok {
		http.Redirect(w, r, "/index", http.StatusSeeOther)
		return
	}
	s.render(w, r, http.StatusOK, "login", nil)
}

// handleLogin logs in, or registers when the username is new and an email
// was given.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	u, err := s.Accounts.Login(r.Context(),
		r.PostFormValue("username"), r.PostFormValue("email"), r.PostFormValue("password"))
	if err != nil {
		var msg string
		switch {
		case errors.Is(err, model.ErrInvalidCredentials):
			msg = "用户名或密码错误"
		case errors.Is(err, model.ErrMissingEmail):
			msg = "请填写邮箱地址"
		case errors.Is(err, model.ErrDuplicateUsername):
			msg = "用户名已存在"
		default:
			s.Log.Error("login", zap.Error(err))
			msg = "登录失败，请稍后再试"
		}
		s.notice(w, r, "/login", msg)
		return
	}

	tok, err := auth.MakeToken(u.ID, u.Username, s.Secret, s.TTL)
	if err != nil {
		s.Log.Error("sign session", zap.Error(err))
		s.notice(w, r, "/login", "登录失败，请稍后再试")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    tok,
		Path:     "/",
		MaxAge:   int(s.TTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/index", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
