package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TenantStatus はテナントのライフサイクル状態です
type TenantStatus string

const (
	StatusProvisioning       TenantStatus = "provisioning"
	StatusActive             TenantStatus = "active"
	StatusSuspended          TenantStatus = "suspended"
	StatusDecommissioned     TenantStatus = "decommissioned"      // 終端状態
	StatusProvisioningFailed TenantStatus = "provisioning_failed" // パーティション作成が完了しなかった場合の終端状態
)

// validTransitions は許可されるライフサイクル遷移の表です。
// Provisioning → Active → Suspended ⇄ Active → Decommissioned
// Decommissioned へは Active / Suspended からのみ到達できます。
var validTransitions = map[TenantStatus][]TenantStatus{
	StatusProvisioning: {StatusActive, StatusProvisioningFailed},
	StatusActive:       {StatusSuspended, StatusDecommissioned},
	StatusSuspended:    {StatusActive, StatusDecommissioned},
	// StatusDecommissioned / StatusProvisioningFailed は終端
}

// CanTransition は s から to への遷移が許可されているかを返します
func (s TenantStatus) CanTransition(to TenantStatus) bool {
	for _, next := range validTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Tenant は1つの病院・クリニックを表します。
// PartitionID は作成時に割り当てられ、以後不変です。
type Tenant struct {
	TenantID     uuid.UUID         `gorm:"type:uuid;primaryKey" json:"tenant_id"`
	DisplayName  string            `gorm:"not null" json:"display_name"`
	PartitionID  uuid.UUID         `gorm:"type:uuid;uniqueIndex;not null" json:"partition_id"`
	Status       TenantStatus      `gorm:"type:varchar(32);not null;index" json:"status"`
	FeatureFlags map[string]string `gorm:"serializer:json" json:"feature_flags,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
	DeletedAt    gorm.DeletedAt    `gorm:"index" json:"-"`

	// GORM用のリレーション (JSONには含めない)
	Domains []DomainBinding `gorm:"foreignKey:TenantID" json:"-"`
}

func (Tenant) TableName() string {
	return "tenants"
}

// DomainBinding は hostname → tenant のマッピングです。
// hostname が主キーのため、同一ホスト名の二重束縛はストア層でも成立しません。
type DomainBinding struct {
	Hostname  string    `gorm:"primaryKey" json:"hostname"`
	TenantID  uuid.UUID `gorm:"type:uuid;not null;index" json:"tenant_id"`
	IsPrimary bool      `gorm:"not null;default:false" json:"is_primary"`
	CreatedAt time.Time `json:"created_at"`
}

func (DomainBinding) TableName() string {
	return "domain_bindings"
}

// ResolvedTenant はリゾルバの出力で、コンテキストバインダへの入力です。
// テナントと所属パーティションの両方が確定した状態を表します。
type ResolvedTenant struct {
	Tenant    *Tenant
	Partition *Partition
}

// --- DTO ---

// CreateTenantRequest はテナント作成APIのリクエストボディ (DTO)
type CreateTenantRequest struct {
	DisplayName   string `json:"display_name" validate:"required,min=1,max=200"`
	InitialDomain string `json:"initial_domain" validate:"required,hostname_rfc1123"`
}

// AddDomainRequest はドメイン追加APIのリクエストボディ
type AddDomainRequest struct {
	Hostname  string `json:"hostname" validate:"required,hostname_rfc1123"`
	IsPrimary bool   `json:"is_primary"`
}

// TenantResponse はクライアントに返すテナント情報の構造体
type TenantResponse struct {
	TenantID    uuid.UUID    `json:"tenant_id"`
	DisplayName string       `json:"display_name"`
	PartitionID uuid.UUID    `json:"partition_id"`
	Status      TenantStatus `json:"status"`
	Domains     []string     `json:"domains"`
	CreatedAt   time.Time    `json:"created_at"`
}

// NewTenantResponse は Tenant からレスポンスDTOを組み立てます
func NewTenantResponse(t *Tenant) TenantResponse {
	domains := make([]string, 0, len(t.Domains))
	for _, d := range t.Domains {
		domains = append(domains, d.Hostname)
	}
	return TenantResponse{
		TenantID:    t.TenantID,
		DisplayName: t.DisplayName,
		PartitionID: t.PartitionID,
		Status:      t.Status,
		Domains:     domains,
		CreatedAt:   t.CreatedAt,
	}
}
