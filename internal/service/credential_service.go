// internal/service/credential_service.go
package service

import (
	"context"
	"errors"
	"time"

	"clinic_tenant_core/internal/config"
	"clinic_tenant_core/internal/middleware"
	"clinic_tenant_core/internal/model"
	"clinic_tenant_core/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// CredentialService はテナントスコープ付きトークンの発行・検証・失効と、
// テナント内ログイン主体の管理を行います。
//
// 検証はフェイルクローズです: 署名・期限が正しいトークンでも、埋め込まれた
// テナントIDがリクエストのテナントと一致しなければ拒否します。署名キーを
// テナント間で共有していても、病院Aのトークンを病院Bのドメインに対して
// 再生することはできません。
type CredentialService interface {
	Issue(ctx context.Context, identity *model.Identity) (string, *model.CredentialClaims, error)
	Validate(ctx context.Context, tokenString string, expectedTenantID uuid.UUID) (*model.CredentialClaims, error)
	Revoke(ctx context.Context, claims *model.CredentialClaims) error
	Authenticate(ctx context.Context, tenantID uuid.UUID, email, password string) (*model.Identity, error)
	RegisterIdentity(ctx context.Context, tenantID uuid.UUID, req *model.CreateIdentityRequest) (*model.Identity, error)
	PruneRevoked(ctx context.Context) (int64, error)
}

type credentialService struct {
	db             *gorm.DB
	identityRepo   repository.IdentityRepository
	revocationRepo repository.RevocationRepository
	cfg            *config.Config
}

func NewCredentialService(
	db *gorm.DB,
	identityRepo repository.IdentityRepository,
	revocationRepo repository.RevocationRepository,
	cfg *config.Config,
) CredentialService {
	return &credentialService{
		db:             db,
		identityRepo:   identityRepo,
		revocationRepo: revocationRepo,
		cfg:            cfg,
	}
}

func (s *credentialService) Issue(ctx context.Context, identity *model.Identity) (string, *model.CredentialClaims, error) {
	logger := middleware.GetLogger(ctx)

	now := time.Now()
	claims := &model.CredentialClaims{
		TenantID: identity.TenantID,
		Role:     identity.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(), // jti: 失効集合のキー
			Subject:   identity.IdentityID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenExpiry())),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWT.SecretKey))
	if err != nil {
		logger.Error("Failed to sign credential", "error", err)
		return "", nil, model.NewAppError("INTERNAL_SERVER_ERROR",
			"トークンの発行に失敗しました。", "", err)
	}

	logger.Info("Credential issued",
		"tenant_id", identity.TenantID.String(),
		"subject", identity.IdentityID.String(),
		"role", identity.Role,
	)
	return signed, claims, nil
}

func (s *credentialService) Validate(ctx context.Context, tokenString string, expectedTenantID uuid.UUID) (*model.CredentialClaims, error) {
	logger := middleware.GetLogger(ctx)

	claims := &model.CredentialClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// 署名アルゴリズムが期待通り(HS256)かチェック
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(s.cfg.JWT.SecretKey), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, model.ErrCredentialExpired
		}
		logger.Warn("Credential validation failed", "error", err)
		return nil, model.ErrAuthenticationFailed
	}
	if !token.Valid {
		return nil, model.ErrAuthenticationFailed
	}

	// 失効集合は検証のたびに照会する
	revoked, err := s.revocationRepo.IsRevoked(ctx, s.db, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		logger.Warn("Revoked credential presented", "credential_id", claims.ID)
		return nil, model.ErrCredentialRevoked
	}

	// テナント照合。構造的に正しいトークンでもテナントが違えば拒否。
	if claims.TenantID != expectedTenantID {
		logger.Warn("Credential tenant mismatch",
			"credential_tenant", claims.TenantID.String(),
			"expected_tenant", expectedTenantID.String(),
		)
		return nil, model.ErrCredentialTenantMismatch
	}

	return claims, nil
}

func (s *credentialService) Revoke(ctx context.Context, claims *model.CredentialClaims) error {
	logger := middleware.GetLogger(ctx)

	expiresAt := time.Now().Add(s.cfg.TokenExpiry())
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}

	err := s.revocationRepo.Add(ctx, s.db, &model.RevokedCredential{
		CredentialID: claims.ID,
		TenantID:     claims.TenantID,
		RevokedAt:    time.Now(),
		ExpiresAt:    expiresAt,
	})
	if err != nil {
		return err
	}

	logger.Info("Credential revoked",
		"credential_id", claims.ID,
		"tenant_id", claims.TenantID.String(),
	)
	return nil
}

func (s *credentialService) Authenticate(ctx context.Context, tenantID uuid.UUID, email, password string) (*model.Identity, error) {
	logger := middleware.GetLogger(ctx)

	identity, err := s.identityRepo.FindByEmail(ctx, s.db, tenantID, email)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			// 未知のメールアドレスとパスワード不一致は区別できない応答にする
			return nil, model.ErrAuthenticationFailed
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(identity.PasswordHash), []byte(password)); err != nil {
		logger.Warn("Password mismatch on login",
			"tenant_id", tenantID.String(),
			"email", email,
		)
		return nil, model.ErrAuthenticationFailed
	}

	return identity, nil
}

func (s *credentialService) RegisterIdentity(ctx context.Context, tenantID uuid.UUID, req *model.CreateIdentityRequest) (*model.Identity, error) {
	logger := middleware.GetLogger(ctx)

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("Failed to hash password", "error", err)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR",
			"パスワードの処理中にエラーが発生しました。", "", err)
	}

	identity := &model.Identity{
		IdentityID:   uuid.New(),
		TenantID:     tenantID,
		Email:        req.Email,
		PasswordHash: string(hashedPassword),
		Role:         req.Role,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.identityRepo.Create(ctx, tx, identity); err != nil {
			if errors.Is(err, model.ErrConflict) {
				return model.NewAppError("DUPLICATE_EMAIL",
					"このメールアドレスは既に使用されています。", "email", model.ErrConflict)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Identity registered",
		"tenant_id", tenantID.String(),
		"identity_id", identity.IdentityID.String(),
		"role", identity.Role,
	)
	return identity, nil
}

func (s *credentialService) PruneRevoked(ctx context.Context) (int64, error) {
	return s.revocationRepo.PruneExpired(ctx, s.db, time.Now())
}
