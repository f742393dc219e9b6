package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"
	"gorm.io/gorm"

	"github.com/pixvault/pixvault/config"
	"github.com/pixvault/pixvault/models"
	"github.com/pixvault/pixvault/services"
	"github.com/pixvault/pixvault/utils"
)

const tokenDuration = 7 * 24 * time.Hour

// AuthController handles registration, login and third-party sign-in.
type AuthController struct {
	db     *gorm.DB
	points *services.PointsService
}

// NewAuthController creates a new controller instance.
func NewAuthController(db *gorm.DB, points *services.PointsService) *AuthController {
	return &AuthController{db: db, points: points}
}

// Register creates a local account and materializes its points account so the
// starting balance shows up on the very first profile read.
func (a *AuthController) Register(ctx *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required,min=3,max=64"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=8"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40010, "invalid request payload")
		return
	}

	username := strings.TrimSpace(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))

	var existing models.User
	if err := a.db.Where("username = ? OR email = ?", username, email).First(&existing).Error; err == nil {
		utils.Error(ctx, http.StatusConflict, 40910, "username or email already taken")
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.Error(ctx, http.StatusInternalServerError, 50010, "failed to check existing users")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50011, "failed to hash password")
		return
	}

	user := models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Provider:     "local",
	}
	if err := a.db.Create(&user).Error; err != nil {
		// The username column carries a unique index, so a race past the
		// pre-check above still cannot create a duplicate.
		if isDuplicateKey(err) {
			utils.Error(ctx, http.StatusConflict, 40910, "username or email already taken")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50012, "failed to create user")
		return
	}

	if _, err := a.points.Account(ctx.Request.Context(), user.ID); err != nil {
		utils.Sugar.Warnf("points account init failed for user %d: %v", user.ID, err)
	}

	token, err := utils.GenerateToken(user.ID, user.Username, tokenDuration)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50013, "failed to issue token")
		return
	}

	utils.Success(ctx, gin.H{"token": token, "user": user})
}

// Login authenticates by username or email.
func (a *AuthController) Login(ctx *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40011, "invalid request payload")
		return
	}

	ident := strings.TrimSpace(req.Username)
	var user models.User
	if err := a.db.Where("username = ? OR email = ?", ident, strings.ToLower(ident)).First(&user).Error; err != nil {
		utils.Error(ctx, http.StatusUnauthorized, 40120, "invalid credentials")
		return
	}
	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		utils.Error(ctx, http.StatusUnauthorized, 40120, "invalid credentials")
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Username, tokenDuration)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50014, "failed to issue token")
		return
	}
	utils.Success(ctx, gin.H{"token": token, "user": user})
}

// Logout revokes the presented token until its natural expiry.
func (a *AuthController) Logout(ctx *gin.Context) {
	authHeader := ctx.GetHeader("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		utils.Error(ctx, http.StatusBadRequest, 40012, "missing bearer token")
		return
	}
	tokenStr := strings.TrimSpace(parts[1])
	claims, err := utils.ParseToken(tokenStr)
	if err != nil {
		utils.Error(ctx, http.StatusUnauthorized, 40121, "invalid token")
		return
	}
	utils.BlacklistToken(tokenStr, claims.ExpiresAt.Time)
	utils.Success(ctx, gin.H{"message": "logged out"})
}

// Me returns the authenticated profile together with the points balance.
func (a *AuthController) Me(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var user models.User
	if err := a.db.First(&user, userID).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40410, "user not found")
		return
	}

	acct, err := a.points.Account(ctx.Request.Context(), userID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50015, "failed to load points account")
		return
	}

	utils.Success(ctx, gin.H{"user": user, "points": acct})
}

// oauthConfig builds the provider configuration for the redirect/callback pair.
func (a *AuthController) oauthConfig(provider string) (*oauth2.Config, bool) {
	cfg := config.Get()
	switch provider {
	case "github":
		if cfg.GitHubClientID == "" {
			return nil, false
		}
		return &oauth2.Config{
			ClientID:     cfg.GitHubClientID,
			ClientSecret: cfg.GitHubClientSecret,
			Endpoint:     github.Endpoint,
			RedirectURL:  cfg.OAuthRedirectBase + "/api/v1/auth/oauth/github/callback",
			Scopes:       []string{"read:user", "user:email"},
		}, true
	case "google":
		if cfg.GoogleClientID == "" {
			return nil, false
		}
		return &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			Endpoint:     google.Endpoint,
			RedirectURL:  cfg.OAuthRedirectBase + "/api/v1/auth/oauth/google/callback",
			Scopes:       []string{"openid", "email", "profile"},
		}, true
	default:
		return nil, false
	}
}

// OAuthRedirect starts the provider sign-in flow with a single-use state nonce.
func (a *AuthController) OAuthRedirect(ctx *gin.Context) {
	provider := strings.ToLower(ctx.Param("provider"))
	conf, ok := a.oauthConfig(provider)
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40013, "unsupported or unconfigured provider")
		return
	}
	state := uuid.NewString()
	utils.SaveState(state, 10*time.Minute)
	ctx.Redirect(http.StatusFound, conf.AuthCodeURL(state))
}

type oauthProfile struct {
	ID        string
	Username  string
	Email     string
	AvatarURL string
}

// OAuthCallback exchanges the code, upserts the user and issues a JWT.
func (a *AuthController) OAuthCallback(ctx *gin.Context) {
	provider := strings.ToLower(ctx.Param("provider"))
	conf, ok := a.oauthConfig(provider)
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40013, "unsupported or unconfigured provider")
		return
	}
	if !utils.ConsumeState(ctx.Query("state")) {
		utils.Error(ctx, http.StatusBadRequest, 40014, "invalid or expired oauth state")
		return
	}

	reqCtx, cancel := context.WithTimeout(ctx.Request.Context(), 10*time.Second)
	defer cancel()
	token, err := conf.Exchange(reqCtx, ctx.Query("code"))
	if err != nil {
		utils.Error(ctx, http.StatusBadGateway, 50210, "oauth code exchange failed")
		return
	}

	profile, err := fetchOAuthProfile(reqCtx, provider, conf, token)
	if err != nil {
		utils.Error(ctx, http.StatusBadGateway, 50211, "failed to fetch provider profile")
		return
	}

	var user models.User
	err = a.db.Where("provider = ? AND provider_id = ?", provider, profile.ID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// A concurrent signup can take the candidate between the lookup and
		// the insert; the unique index reports that as a duplicate-key error
		// and we retry with a fresh candidate.
		var createErr error
		for attempt := 0; attempt < 3; attempt++ {
			user = models.User{
				Username:   uniqueUsername(a.db, profile.Username),
				Email:      profile.Email,
				Provider:   provider,
				ProviderID: profile.ID,
				AvatarURL:  profile.AvatarURL,
			}
			createErr = a.db.Create(&user).Error
			if createErr == nil || !isDuplicateKey(createErr) {
				break
			}
		}
		if createErr != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50016, "failed to create user")
			return
		}
		if _, err := a.points.Account(ctx.Request.Context(), user.ID); err != nil {
			utils.Sugar.Warnf("points account init failed for user %d: %v", user.ID, err)
		}
	} else if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50017, "failed to look up user")
		return
	}

	jwtToken, err := utils.GenerateToken(user.ID, user.Username, tokenDuration)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50018, "failed to issue token")
		return
	}
	ctx.Redirect(http.StatusFound, config.Get().OAuthRedirectBase+"/#token="+jwtToken)
}

func fetchOAuthProfile(ctx context.Context, provider string, conf *oauth2.Config, token *oauth2.Token) (*oauthProfile, error) {
	client := conf.Client(ctx, token)

	var url string
	switch provider {
	case "github":
		url = "https://api.github.com/user"
	case "google":
		url = "https://www.googleapis.com/oauth2/v2/userinfo"
	}
	resp, err := client.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if provider == "github" {
		var gh struct {
			ID        int64  `json:"id"`
			Login     string `json:"login"`
			Email     string `json:"email"`
			AvatarURL string `json:"avatar_url"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&gh); err != nil {
			return nil, err
		}
		return &oauthProfile{
			ID:        strconv.FormatInt(gh.ID, 10),
			Username:  gh.Login,
			Email:     gh.Email,
			AvatarURL: gh.AvatarURL,
		}, nil
	}

	var gg struct {
		ID      string `json:"id"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&gg); err != nil {
		return nil, err
	}
	return &oauthProfile{ID: gg.ID, Username: gg.Name, Email: gg.Email, AvatarURL: gg.Picture}, nil
}

// uniqueUsername appends a short suffix when the provider handle is taken.
// Best effort only: the unique index on the column is the real guarantee, and
// the caller retries on a duplicate-key insert.
func uniqueUsername(db *gorm.DB, base string) string {
	name := strings.TrimSpace(base)
	if name == "" {
		name = "user"
	}
	candidate := name
	for i := 0; i < 5; i++ {
		var n int64
		if err := db.Model(&models.User{}).Where("username = ?", candidate).Count(&n).Error; err != nil || n == 0 {
			return candidate
		}
		candidate = name + "-" + uuid.NewString()[:8]
	}
	return candidate
}
