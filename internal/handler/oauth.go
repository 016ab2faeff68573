package handler

import (
	"errors"
	"net/http"

	"github.com/markbates/goth/gothic"

	"github.com/equezada327/pro-tasker-backend/internal/apperr"
	"github.com/equezada327/pro-tasker-backend/internal/auth"
	"github.com/equezada327/pro-tasker-backend/internal/repository"
)

// OAuthHandler is the optional Google login path. The callback funnels into
// the same token issuance as password login; accounts created here carry no
// local secret.
type OAuthHandler struct {
	users  *repository.UserRepo
	tokens *auth.TokenService
}

func NewOAuthHandler(users *repository.UserRepo, tokens *auth.TokenService) *OAuthHandler {
	return &OAuthHandler{users: users, tokens: tokens}
}

func (h *OAuthHandler) Begin(w http.ResponseWriter, r *http.Request) {
	//gothic look for provider query by default
	//forcing to use google
	q := r.URL.Query()
	q.Add("provider", "google")
	r.URL.RawQuery = q.Encode()

	gothic.BeginAuthHandler(w, r)
}

func (h *OAuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	gothUser, err := gothic.CompleteUserAuth(w, r)
	if err != nil {
		writeError(w, r, apperr.Wrap(apperr.ErrTokenInvalid, "oauth callback: %v", err))
		return
	}

	user, err := h.users.GetByEmail(r.Context(), gothUser.Email)
	if errors.Is(err, apperr.ErrNotFound) {
		username := gothUser.NickName
		if username == "" {
			username = gothUser.Name
		}
		user, err = h.users.CreateOAuth(r.Context(), username, gothUser.Email)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	token, err := h.tokens.Issue(user)
	if err != nil {
		writeError(w, r, err)
		return
	}

	//token is ready - set cookie
	http.SetCookie(w, &http.Cookie{
		Name:     "session_token",
		Value:    token,
		Path:     "/",
		HttpOnly: true, //not visible to JS [IMP for security]
		//Secure: true,//enable it for HTTPS in production
	})

	writeJSON(w, http.StatusOK, authResponse{Token: token, User: user})
}

func (h *OAuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	// clear session cookies
	http.SetCookie(w, &http.Cookie{
		Name:     "session_token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true, //js cant touch it
	})

	//clear gothic session
	gothic.Logout(w, r)
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}
