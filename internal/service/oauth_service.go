package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"ai-chatbot-be/internal/config"
	"ai-chatbot-be/internal/dto"
	"ai-chatbot-be/internal/entity"
	"ai-chatbot-be/internal/pkg/apperror"
	"ai-chatbot-be/internal/pkg/logger"
	"ai-chatbot-be/internal/pkg/serverutils"
	"ai-chatbot-be/internal/repository/specification"
	"ai-chatbot-be/internal/repository/unitofwork"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	providerGoogle    = "google"
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
)

// OAuthProfile is the identity returned by the provider.
type OAuthProfile struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

type IOAuthService interface {
	// GetLoginURL returns the consent URL and the state value the callback
	// must echo back.
	GetLoginURL(provider string) (string, string, error)
	HandleCallback(ctx context.Context, provider string, code string) (*dto.LoginResponse, error)
	// Login links the profile to a user, creating one on first sign-in.
	Login(ctx context.Context, provider string, profile OAuthProfile) (*dto.LoginResponse, error)
}

type oauthService struct {
	uowFactory  unitofwork.RepositoryFactory
	entitlement IEntitlementService
	googleConf  *oauth2.Config
	jwtSecret   string
	tokenTTL    time.Duration
	logger      logger.ILogger
}

func NewOAuthService(
	uowFactory unitofwork.RepositoryFactory,
	entitlementService IEntitlementService,
	cfg config.AuthConfig,
	log logger.ILogger,
) IOAuthService {
	conf := &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}

	return &oauthService{
		uowFactory:  uowFactory,
		entitlement: entitlementService,
		googleConf:  conf,
		jwtSecret:   cfg.JwtSecret,
		tokenTTL:    cfg.TokenTTL,
		logger:      log,
	}
}

func (s *oauthService) GetLoginURL(provider string) (string, string, error) {
	if provider != providerGoogle {
		return "", "", apperror.New(apperror.CodeValidation, "Unsupported provider")
	}
	if s.googleConf.ClientID == "" {
		return "", "", apperror.New(apperror.CodeConfigurationMissing, "Google login is not configured")
	}

	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", "", err
	}
	state := base64.RawURLEncoding.EncodeToString(b)
	return s.googleConf.AuthCodeURL(state), state, nil
}

func (s *oauthService) HandleCallback(ctx context.Context, provider string, code string) (*dto.LoginResponse, error) {
	if provider != providerGoogle {
		return nil, apperror.New(apperror.CodeValidation, "Unsupported provider")
	}

	token, err := s.googleConf.Exchange(ctx, code)
	if err != nil {
		s.logger.Warn("OAUTH", "Code exchange failed", map[string]interface{}{"error": err.Error()})
		return nil, apperror.Wrap(apperror.CodeUnauthorized, err, "Login failed")
	}

	resp, err := s.googleConf.Client(ctx, token).Get(googleUserInfoURL)
	if err != nil {
		return nil, apperror.Wrap(apperror.CodeUpstreamFailure, err, "Failed to fetch Google profile")
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, apperror.Wrap(apperror.CodeUpstreamFailure, fmt.Errorf("userinfo status %d", resp.StatusCode), "Failed to fetch Google profile")
	}

	var profile OAuthProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, apperror.Wrap(apperror.CodeUpstreamFailure, err, "Failed to read Google profile")
	}
	if !profile.VerifiedEmail {
		return nil, apperror.New(apperror.CodeForbidden, "Google account email is not verified")
	}

	return s.Login(ctx, provider, profile)
}

func (s *oauthService) Login(ctx context.Context, provider string, profile OAuthProfile) (*dto.LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(profile.Email))
	if email == "" || profile.ID == "" {
		return nil, apperror.New(apperror.CodeValidation, "Provider profile is incomplete")
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: email})
	if err != nil {
		return nil, err
	}

	created := false
	if user == nil {
		user = &entity.User{
			Email:    email,
			FullName: profile.Name,
			Role:     entity.UserRoleUser,
			Status:   entity.UserStatusActive,
		}
		if profile.Picture != "" {
			user.AvatarURL = &profile.Picture
		}
		if err := uow.UserRepository().Create(ctx, user); err != nil {
			return nil, err
		}
		created = true
	}
	if user.Status == entity.UserStatusBlocked {
		return nil, apperror.Forbidden("This account has been blocked")
	}
	if !created && profile.Picture != "" && (user.AvatarURL == nil || *user.AvatarURL != profile.Picture) {
		user.AvatarURL = &profile.Picture
		if err := uow.UserRepository().Update(ctx, user); err != nil {
			return nil, err
		}
	}

	if err := uow.UserRepository().SaveUserProvider(ctx, &entity.UserProvider{
		UserId:         user.Id,
		ProviderName:   provider,
		ProviderUserId: profile.ID,
		AvatarURL:      profile.Picture,
	}); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	// Runs on every login so accounts created before a free plan existed
	// pick one up later.
	if err := s.entitlement.AssignFreePlanToUser(ctx, user.Id); err != nil {
		s.logger.Error("OAUTH", "Failed to assign free plan", map[string]interface{}{
			"user_id": user.Id.String(),
			"error":   err.Error(),
		})
		if created {
			return nil, err
		}
	}

	accessToken, err := serverutils.IssueToken(s.jwtSecret, user.Id, user.Role, s.tokenTTL)
	if err != nil {
		return nil, err
	}

	s.logger.Info("OAUTH", "User signed in", map[string]interface{}{
		"user_id":  user.Id.String(),
		"provider": provider,
		"new_user": created,
	})

	return &dto.LoginResponse{
		AccessToken: accessToken,
		User: dto.UserDTO{
			Id:        user.Id,
			Email:     user.Email,
			FullName:  user.FullName,
			Role:      string(user.Role),
			AvatarURL: user.AvatarURL,
		},
	}, nil
}
