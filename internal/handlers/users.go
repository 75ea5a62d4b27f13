package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/vidtube/backend/internal/apperr"
	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/middleware"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
	"github.com/vidtube/backend/internal/response"
)

const (
	refreshTokenCookie = "refreshToken"
	minPasswordLength  = 8
	channelCacheSpace  = "channel"
)

// UserHandler implements account, session and channel endpoints.
type UserHandler struct {
	Users         UserStore
	Sessions      SessionManager
	Media         MediaStorage
	Janitor       AssetDiscarder
	Uploads       Uploads
	Cache         ChannelCache
	ChannelTTL    time.Duration
	SecureCookies bool
	NowFunc       func() time.Time
}

type loginRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	User         models.User `json:"user"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type updateAccountRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

// Register handles POST /api/v1/users/register.
func (h UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if err := h.Uploads.parse(w, r); err != nil {
		fail(w, r, err, "")
		return
	}

	fullName, email, username, password := r.FormValue("fullName"), r.FormValue("email"), r.FormValue("username"), r.FormValue("password")
	if err := required(&fullName, &email, &username, &password); err != nil {
		fail(w, r, err, "")
		return
	}
	username = strings.ToLower(username)

	email, err := normalizeEmail(email)
	if err != nil {
		fail(w, r, err, "")
		return
	}
	if len(password) < minPasswordLength {
		fail(w, r, apperr.InvalidArgument("Password must be at least 8 characters"), "")
		return
	}

	for _, login := range []string{email, username} {
		if _, err := h.Users.FindByLogin(ctx, login); err == nil {
			fail(w, r, apperr.Conflict("User with email or username already exists"), "")
			return
		} else if !errors.Is(err, repositories.ErrNotFound) {
			fail(w, r, err, "")
			return
		}
	}

	avatarPath, err := h.Uploads.stageRequired(r, "avatar")
	if err != nil {
		fail(w, r, err, "")
		return
	}
	coverPath, err := h.Uploads.stage(r, "coverImage")
	if err != nil {
		discardLocal(ctx, avatarPath)
		fail(w, r, err, "")
		return
	}

	avatar, err := upload(ctx, h.Media, "avatar", avatarPath)
	if err != nil {
		discardLocal(ctx, coverPath)
		fail(w, r, err, "")
		return
	}
	var cover models.MediaAsset
	if coverPath != "" {
		if cover, err = upload(ctx, h.Media, "coverImage", coverPath); err != nil {
			h.discard(ctx, avatar)
			fail(w, r, err, "")
			return
		}
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		h.discard(ctx, avatar, cover)
		fail(w, r, err, "")
		return
	}

	now := h.now()
	user := models.User{
		ID:         uuid.NewString(),
		Username:   username,
		Email:      email,
		FullName:   fullName,
		Avatar:     avatar,
		CoverImage: cover,
		Password:   string(hashed),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := h.Users.Create(ctx, user); err != nil {
		h.discard(ctx, avatar, cover)
		if errors.Is(err, repositories.ErrConflict) {
			err = apperr.Conflict("User with email or username already exists")
		}
		fail(w, r, err, "")
		return
	}

	logger.Info("user registered", "userId", user.ID)
	response.JSON(ctx, w, http.StatusCreated, user, "User registered successfully")
}

// Login handles POST /api/v1/users/login.
func (h UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, r, err, "")
		return
	}

	identifier := strings.ToLower(strings.TrimSpace(req.Email))
	if identifier == "" {
		identifier = strings.ToLower(strings.TrimSpace(req.Username))
	}
	if identifier == "" {
		fail(w, r, apperr.InvalidArgument("Username or email is required"), "")
		return
	}
	if req.Password == "" {
		fail(w, r, apperr.InvalidArgument("Password is required"), "")
		return
	}

	user, err := h.Users.FindByLogin(ctx, identifier)
	if errors.Is(err, repositories.ErrNotFound) {
		fail(w, r, err, "User does not exist")
		return
	} else if err != nil {
		fail(w, r, err, "")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		logging.FromContext(ctx).Warn("login password mismatch", "userId", user.ID)
		fail(w, r, apperr.Unauthorized("Invalid user credentials"), "")
		return
	}

	tokens, err := h.Sessions.Issue(ctx, user.ID)
	if err != nil {
		fail(w, r, err, "")
		return
	}

	h.setSessionCookies(w, tokens)
	response.JSON(ctx, w, http.StatusOK, loginResponse{
		User:         user,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}, "User logged in successfully")
}

// Logout handles POST /api/v1/users/logout.
func (h UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.Sessions.Revoke(ctx, auth.ActorFromContext(ctx)); err != nil {
		fail(w, r, err, "")
		return
	}

	h.clearSessionCookies(w)
	response.JSON(ctx, w, http.StatusOK, struct{}{}, "User logged out")
}

// RefreshToken handles POST /api/v1/users/refresh-token. The token is read
// from the refreshToken cookie, falling back to the JSON body.
func (h UserHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var token string
	if c, err := r.Cookie(refreshTokenCookie); err == nil {
		token = c.Value
	}
	if token == "" {
		var req refreshRequest
		if err := decodeJSON(w, r, &req); err != nil {
			fail(w, r, err, "")
			return
		}
		token = strings.TrimSpace(req.RefreshToken)
	}
	if token == "" {
		fail(w, r, apperr.Unauthorized("Unauthorized request"), "")
		return
	}

	tokens, err := h.Sessions.Refresh(ctx, token)
	if err != nil {
		fail(w, r, err, "")
		return
	}

	h.setSessionCookies(w, tokens)
	response.JSON(ctx, w, http.StatusOK, tokens, "Access token refreshed")
}

// ChangePassword handles POST /api/v1/users/change-password.
func (h UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req changePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, r, err, "")
		return
	}
	if req.OldPassword == "" || strings.TrimSpace(req.NewPassword) == "" {
		fail(w, r, apperr.InvalidArgument("All fields are required"), "")
		return
	}
	if len(req.NewPassword) < minPasswordLength {
		fail(w, r, apperr.InvalidArgument("Password must be at least 8 characters"), "")
		return
	}

	user, err := h.Users.FindByID(ctx, auth.ActorFromContext(ctx))
	if err != nil {
		fail(w, r, err, "User not found")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.OldPassword)); err != nil {
		fail(w, r, apperr.InvalidArgument("Invalid old password"), "")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		fail(w, r, err, "")
		return
	}
	if err := h.Users.UpdatePassword(ctx, user.ID, string(hashed), h.now()); err != nil {
		fail(w, r, err, "User not found")
		return
	}

	response.JSON(ctx, w, http.StatusOK, struct{}{}, "Password changed successfully")
}

// CurrentUser handles GET /api/v1/users/current-user.
func (h UserHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := h.Users.FindByID(ctx, auth.ActorFromContext(ctx))
	if err != nil {
		fail(w, r, err, "User not found")
		return
	}
	response.JSON(ctx, w, http.StatusOK, user, "Current user fetched successfully")
}

// UpdateAccount handles PATCH /api/v1/users/update-account.
func (h UserHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := auth.ActorFromContext(ctx)

	var req updateAccountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, r, err, "")
		return
	}
	if err := required(&req.FullName, &req.Email); err != nil {
		fail(w, r, err, "")
		return
	}
	email, err := normalizeEmail(req.Email)
	if err != nil {
		fail(w, r, err, "")
		return
	}
	req.Email = email

	if err := h.Users.UpdateAccount(ctx, actor, req.FullName, req.Email, h.now()); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			err = apperr.Conflict("Email is already in use")
		}
		fail(w, r, err, "User not found")
		return
	}

	h.respondWithUser(w, r, actor, "Account details updated successfully")
}

// UpdateAvatar handles PATCH /api/v1/users/avatar.
func (h UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.replaceImage(w, r, "avatar", h.Users.ReplaceAvatar, "Avatar image updated successfully")
}

// UpdateCoverImage handles PATCH /api/v1/users/cover-image.
func (h UserHandler) UpdateCoverImage(w http.ResponseWriter, r *http.Request) {
	h.replaceImage(w, r, "coverImage", h.Users.ReplaceCoverImage, "Cover image updated successfully")
}

// replaceImage uploads the new image, points the user record at it and only
// then discards the previous one. A failed record update discards the new
// upload instead.
func (h UserHandler) replaceImage(w http.ResponseWriter, r *http.Request, field string,
	replace func(ctx context.Context, id string, asset models.MediaAsset) (models.MediaAsset, error), message string) {
	ctx := r.Context()
	actor := auth.ActorFromContext(ctx)

	if err := h.Uploads.parse(w, r); err != nil {
		fail(w, r, err, "")
		return
	}
	path, err := h.Uploads.stageRequired(r, field)
	if err != nil {
		fail(w, r, err, "")
		return
	}

	asset, err := upload(ctx, h.Media, field, path)
	if err != nil {
		fail(w, r, err, "")
		return
	}

	previous, err := replace(ctx, actor, asset)
	if err != nil {
		h.discard(ctx, asset)
		fail(w, r, err, "User not found")
		return
	}
	h.discard(ctx, previous)

	h.respondWithUser(w, r, actor, message)
}

// ChannelProfile handles GET /api/v1/users/c/{username}. The stored channel
// fields come through the channel cache; subscription counts and the viewer
// flag are computed on every read.
func (h UserHandler) ChannelProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	username := strings.ToLower(strings.TrimSpace(r.PathValue("username")))
	if username == "" {
		fail(w, r, apperr.InvalidArgument("Username is missing"), "")
		return
	}

	var channel models.Channel
	fetch := func() (err error) {
		channel, err = h.Users.Channel(ctx, username)
		return err
	}

	var err error
	if h.Cache != nil {
		err = h.Cache.Aside(ctx, channelCacheSpace, channelKey(username), &channel, h.ChannelTTL, fetch)
	} else {
		err = fetch()
	}
	if err != nil {
		fail(w, r, err, "Channel does not exist")
		return
	}

	stats, err := h.Users.ChannelStats(ctx, channel.ID, auth.ActorFromContext(ctx))
	if err != nil {
		fail(w, r, err, "Channel does not exist")
		return
	}

	profile := models.ChannelProfile{Channel: channel, ChannelStats: stats}
	response.JSON(ctx, w, http.StatusOK, profile, "User channel fetched successfully")
}

// WatchHistory handles GET /api/v1/users/history.
func (h UserHandler) WatchHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	page, err := h.Users.WatchHistory(ctx, auth.ActorFromContext(ctx), pageParams(r))
	if err != nil {
		fail(w, r, err, "User not found")
		return
	}
	response.JSON(ctx, w, http.StatusOK, page, "Watch history fetched successfully")
}

// DeleteAccount handles DELETE /api/v1/users/me. Everything the user owns is
// removed with the account.
func (h UserHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := auth.ActorFromContext(ctx)

	user, err := h.Users.FindByID(ctx, actor)
	if err != nil {
		fail(w, r, err, "User not found")
		return
	}

	assets, err := h.Users.Delete(ctx, actor)
	if err != nil {
		fail(w, r, err, "User not found")
		return
	}
	h.discard(ctx, assets...)
	h.invalidateChannel(ctx, user.Username)

	h.clearSessionCookies(w)
	response.JSON(ctx, w, http.StatusOK, map[string]string{"userId": actor}, "User deleted successfully")
}

func (h UserHandler) respondWithUser(w http.ResponseWriter, r *http.Request, id, message string) {
	ctx := r.Context()

	user, err := h.Users.FindByID(ctx, id)
	if err != nil {
		fail(w, r, err, "User not found")
		return
	}
	h.invalidateChannel(ctx, user.Username)
	response.JSON(ctx, w, http.StatusOK, user, message)
}

func (h UserHandler) setSessionCookies(w http.ResponseWriter, tokens models.SessionTokens) {
	http.SetCookie(w, h.cookie(middleware.AccessTokenCookie, tokens.AccessToken, tokens.AccessExpiresAt))
	http.SetCookie(w, h.cookie(refreshTokenCookie, tokens.RefreshToken, tokens.RefreshExpiresAt))
}

func (h UserHandler) clearSessionCookies(w http.ResponseWriter) {
	for _, name := range []string{middleware.AccessTokenCookie, refreshTokenCookie} {
		c := h.cookie(name, "", time.Unix(0, 0))
		c.MaxAge = -1
		http.SetCookie(w, c)
	}
}

func (h UserHandler) cookie(name, value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}
}

func (h UserHandler) discard(ctx context.Context, assets ...models.MediaAsset) {
	if h.Janitor != nil {
		h.Janitor.Discard(ctx, assets...)
	}
}

func (h UserHandler) invalidateChannel(ctx context.Context, username string) {
	invalidateChannel(ctx, h.Cache, username)
}

func (h UserHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

func channelKey(username string) string {
	return channelCacheSpace + ":" + strings.ToLower(username)
}

func invalidateChannel(ctx context.Context, cache ChannelCache, username string) {
	if cache == nil || username == "" {
		return
	}
	if err := cache.Invalidate(ctx, channelKey(username)); err != nil {
		logging.FromContext(ctx).Warn("invalidate channel cache", "username", username, "error", err)
	}
}

// normalizeEmail keeps only the address part of raw, lower-cased.
func normalizeEmail(raw string) (string, error) {
	addr, err := mail.ParseAddress(raw)
	if err != nil {
		return "", apperr.InvalidArgument("Invalid email address")
	}
	return strings.ToLower(addr.Address), nil
}
