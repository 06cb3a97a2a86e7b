package handler

import (
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/proveloce/connect/internal/api/metrics"
	"github.com/proveloce/connect/internal/core/domain"
	"github.com/proveloce/connect/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
	frontendURL string
}

func NewAuthHandler(authService ports.AuthService, frontendURL string) *AuthHandler {
	return &AuthHandler{authService: authService, frontendURL: frontendURL}
}

type signupRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name"     validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token"`
	AllSessions  bool   `json:"all_sessions"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

type authResponse struct {
	Tokens tokenResponse `json:"tokens"`
	User   *domain.User  `json:"user"`
}

type meResponse struct {
	User *domain.User `json:"user"`
	// ExpertApplication is either the full application document or, when the
	// user never applied, a stub carrying only {"status":"NONE"}.
	ExpertApplication any `json:"expertApplication"`
}

type applicationStatusOnly struct {
	Status domain.ApplicationStatus `json:"status"`
}

func toMeResponse(me *ports.MeResult) meResponse {
	resp := meResponse{User: me.User}
	if me.Application != nil {
		resp.ExpertApplication = me.Application
	} else {
		resp.ExpertApplication = applicationStatusOnly{Status: me.ApplicationStatus}
	}
	return resp
}

func toTokenResponse(pair *ports.TokenPair) tokenResponse {
	return tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
	}
}

// Signup creates a new account and signs the caller in.
//
// @Summary      Create an account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signupRequest  true  "Account details"
// @Success      201   {object}  envelope
// @Failure      400   {object}  errorEnvelope
// @Failure      409   {object}  errorEnvelope
// @Router       /api/auth/signup [post]
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	pair, user, err := h.authService.Signup(c.Request().Context(), req.Email, req.Password, req.Name)
	if err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("signup", "failure").Inc()
		return err
	}
	metrics.AuthAttemptsTotal.WithLabelValues("signup", "success").Inc()
	return c.JSON(http.StatusCreated, ok(authResponse{Tokens: toTokenResponse(pair), User: user}))
}

// Login authenticates a user and returns a token pair.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Credentials"
// @Success      200   {object}  envelope
// @Failure      401   {object}  errorEnvelope
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	pair, user, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("login", "failure").Inc()
		return err
	}
	metrics.AuthAttemptsTotal.WithLabelValues("login", "success").Inc()
	return c.JSON(http.StatusOK, ok(authResponse{Tokens: toTokenResponse(pair), User: user}))
}

// Me returns the caller's profile together with their application status.
//
// @Summary      Current user profile
// @Tags         auth
// @Produce      json
// @Success      200  {object}  envelope
// @Failure      401  {object}  errorEnvelope
// @Router       /api/auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	actor, err := ctxAuth(c)
	if err != nil {
		return err
	}

	me, err := h.authService.Me(c.Request().Context(), actor.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ok(toMeResponse(me)))
}

// Refresh rotates a refresh token into a fresh pair.
//
// @Summary      Refresh session
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      refreshRequest  true  "Refresh token"
// @Success      200   {object}  envelope
// @Failure      401   {object}  errorEnvelope
// @Router       /api/auth/refresh [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	pair, err := h.authService.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("refresh", "failure").Inc()
		return err
	}
	metrics.AuthAttemptsTotal.WithLabelValues("refresh", "success").Inc()
	return c.JSON(http.StatusOK, ok(toTokenResponse(pair)))
}

// Logout revokes the caller's refresh token, or every session when asked.
//
// @Summary      Logout
// @Tags         auth
// @Accept       json
// @Produce      json
// @Success      200  {object}  envelope
// @Router       /api/auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	var req logoutRequest
	_ = c.Bind(&req)

	userID, _ := c.Get("user_id").(string)
	if err := h.authService.Logout(c.Request().Context(), userID, req.RefreshToken, req.AllSessions); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, okMessage("logged out"))
}

// oauthStateCookie pins the anti-forgery state minted at redirect time so the
// callback can reject responses we never initiated.
const oauthStateCookie = "oauth_state"

// GoogleLogin redirects the browser to the Google consent page.
//
// @Summary      Start Google sign-in
// @Tags         auth
// @Success      302
// @Router       /api/auth/google [get]
func (h *AuthHandler) GoogleLogin(c echo.Context) error {
	state := uuid.NewString()
	c.SetCookie(&http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/api/auth/google",
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return c.Redirect(http.StatusFound, h.authService.GoogleAuthURL(state))
}

// GoogleCallback completes the OAuth flow and hands the tokens back to the
// web client via redirect.
//
// @Summary      Google sign-in callback
// @Tags         auth
// @Success      302
// @Failure      401  {object}  errorEnvelope
// @Router       /api/auth/google/callback [get]
func (h *AuthHandler) GoogleCallback(c echo.Context) error {
	state := c.QueryParam("state")
	cookie, err := c.Cookie(oauthStateCookie)
	if err != nil || state == "" || cookie.Value != state {
		metrics.AuthAttemptsTotal.WithLabelValues("oauth", "failure").Inc()
		return echo.NewHTTPError(http.StatusUnauthorized, "oauth state mismatch")
	}
	c.SetCookie(&http.Cookie{
		Name:     oauthStateCookie,
		Path:     "/api/auth/google",
		MaxAge:   -1,
		HttpOnly: true,
	})

	code := c.QueryParam("code")
	pair, _, err := h.authService.GoogleCallback(c.Request().Context(), code)
	if err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("oauth", "failure").Inc()
		return c.Redirect(http.StatusFound, h.frontendURL+"/auth/callback?error=oauth_failed")
	}
	metrics.AuthAttemptsTotal.WithLabelValues("oauth", "success").Inc()

	q := url.Values{
		"access_token":  {pair.AccessToken},
		"refresh_token": {pair.RefreshToken},
	}
	return c.Redirect(http.StatusFound, h.frontendURL+"/auth/callback?"+q.Encode())
}
