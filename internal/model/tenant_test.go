package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTenantStatus_CanTransition(t *testing.T) {
	tests := []struct {
		name string
		from TenantStatus
		to   TenantStatus
		want bool
	}{
		{"正常系: Provisioning → Active", StatusProvisioning, StatusActive, true},
		{"正常系: Provisioning → ProvisioningFailed", StatusProvisioning, StatusProvisioningFailed, true},
		{"正常系: Active → Suspended", StatusActive, StatusSuspended, true},
		{"正常系: Suspended → Active", StatusSuspended, StatusActive, true},
		{"正常系: Active → Decommissioned", StatusActive, StatusDecommissioned, true},
		{"正常系: Suspended → Decommissioned", StatusSuspended, StatusDecommissioned, true},
		{"異常系: Provisioning → Suspended は不可", StatusProvisioning, StatusSuspended, false},
		{"異常系: Provisioning → Decommissioned は不可", StatusProvisioning, StatusDecommissioned, false},
		{"異常系: Decommissioned は終端", StatusDecommissioned, StatusActive, false},
		{"異常系: Decommissioned → Suspended は不可", StatusDecommissioned, StatusSuspended, false},
		{"異常系: ProvisioningFailed は終端", StatusProvisioningFailed, StatusActive, false},
		{"異常系: 自己遷移は不可", StatusActive, StatusActive, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransition(tt.to))
		})
	}
}

func TestNewTenantResponse(t *testing.T) {
	tenant := &Tenant{
		DisplayName: "さくら台病院",
		Status:      StatusActive,
		Domains: []DomainBinding{
			{Hostname: "sakuradai.example.jp", IsPrimary: true},
			{Hostname: "sakuradai-backup.example.jp"},
		},
	}

	resp := NewTenantResponse(tenant)
	assert.Equal(t, "さくら台病院", resp.DisplayName)
	assert.Equal(t, []string{"sakuradai.example.jp", "sakuradai-backup.example.jp"}, resp.Domains)
}
