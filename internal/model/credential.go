package model

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ロール定義
const (
	RoleStaff  = "staff"
	RoleDoctor = "doctor"
	RoleAdmin  = "admin"
)

// CredentialClaims はテナントスコープ付きトークンのペイロードです。
// TenantID が埋め込まれ、検証時にリクエストのテナントと照合されます。
type CredentialClaims struct {
	TenantID uuid.UUID `json:"tid"`
	Role     string    `json:"role"`
	jwt.RegisteredClaims
}

// Identity はテナント内のログイン主体（職員アカウント）です
type Identity struct {
	IdentityID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"identity_id"`
	TenantID     uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:uq_identity_email" json:"tenant_id"`
	Email        string    `gorm:"not null;uniqueIndex:uq_identity_email" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Role         string    `gorm:"type:varchar(32);not null" json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Identity) TableName() string {
	return "identities"
}

// RevokedCredential は失効させたトークンのIDを保持します。
// 自然満了後のエントリは掃除できるよう ExpiresAt を持ちます。
type RevokedCredential struct {
	CredentialID string    `gorm:"primaryKey" json:"credential_id"` // JWTのjti
	TenantID     uuid.UUID `gorm:"type:uuid;not null;index" json:"tenant_id"`
	RevokedAt    time.Time `gorm:"not null" json:"revoked_at"`
	ExpiresAt    time.Time `gorm:"not null;index" json:"expires_at"`
}

func (RevokedCredential) TableName() string {
	return "revoked_credentials"
}

// --- DTO ---

// LoginRequest はログインAPIのリクエストボディ
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse はログイン成功時のレスポンス
type LoginResponse struct {
	AccessToken string `json:"access_token"`
}

// CreateIdentityRequest は職員アカウント作成APIのリクエストボディ
type CreateIdentityRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role" validate:"required,oneof=staff doctor admin"`
}
