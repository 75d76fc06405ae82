// internal/service/registry_service.go
package service

import (
	"context"
	"errors"
	"net"
	"strings"

	"clinic_tenant_core/internal/middleware"
	"clinic_tenant_core/internal/model"
	"clinic_tenant_core/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RegistryService はテナントレジストリの耐久カタログと、ホスト名から
// テナントへの解決を提供します。レジストリ変異は tenant_id 単位で直列化され、
// 失敗時にドメイン状態が中途半端に残らないようトランザクションで囲みます。
type RegistryService interface {
	CreateTenant(ctx context.Context, req *model.CreateTenantRequest) (*model.Tenant, error)
	ActivateTenant(ctx context.Context, tenantID uuid.UUID) (*model.Tenant, error)
	SuspendTenant(ctx context.Context, tenantID uuid.UUID) (*model.Tenant, error)
	ResumeTenant(ctx context.Context, tenantID uuid.UUID) (*model.Tenant, error)
	DecommissionTenant(ctx context.Context, tenantID uuid.UUID) (*model.Tenant, error)
	AddDomain(ctx context.Context, tenantID uuid.UUID, hostname string, isPrimary bool) error
	RemoveDomain(ctx context.Context, tenantID uuid.UUID, hostname string) error
	GetTenant(ctx context.Context, tenantID uuid.UUID) (*model.Tenant, error)
	ListTenants(ctx context.Context) ([]*model.Tenant, error)

	// Resolve はリクエストのホスト名（と任意の明示オーバーライド）を
	// テナントに解決します。オーバーライドは管理認可済みの呼び出し元から
	// のみ受理します。未解決のホスト名はハードエラーで、既定テナントへの
	// フォールバックはありません。
	Resolve(ctx context.Context, host, override string, overrideAuthorized bool) (model.ResolvedTenant, error)
}

type registryService struct {
	db            *gorm.DB
	tenantRepo    repository.TenantRepository
	partitionRepo repository.PartitionRepository
	identityRepo  repository.IdentityRepository
	partitions    PartitionService
	locks         *keyedLocks
}

func NewRegistryService(
	db *gorm.DB,
	tenantRepo repository.TenantRepository,
	partitionRepo repository.PartitionRepository,
	identityRepo repository.IdentityRepository,
	partitions PartitionService,
) RegistryService {
	return &registryService{
		db:            db,
		tenantRepo:    tenantRepo,
		partitionRepo: partitionRepo,
		identityRepo:  identityRepo,
		partitions:    partitions,
		locks:         newKeyedLocks(),
	}
}

// normalizeHostname はホスト名を小文字化しポート部を除去します。
// 裸のIPv6リテラル (::1 など) は SplitHostPort が失敗するためそのまま残ります。
func normalizeHostname(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.Trim(host, "[]")
	return strings.TrimSuffix(host, ".")
}

func (s *registryService) CreateTenant(ctx context.Context, req *model.CreateTenantRequest) (*model.Tenant, error) {
	logger := middleware.GetLogger(ctx)

	hostname := normalizeHostname(req.InitialDomain)
	if req.DisplayName == "" || hostname == "" {
		return nil, model.ErrInvalidInput
	}

	// PartitionID は作成時に割り当てられ、以後不変。廃止後も再利用しない。
	tenant := &model.Tenant{
		TenantID:    uuid.New(),
		DisplayName: req.DisplayName,
		PartitionID: uuid.New(),
		Status:      model.StatusProvisioning,
	}

	// テナント行と初期ドメイン束縛は同一トランザクション（all-or-nothing）
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.tenantRepo.Create(ctx, tx, tenant); err != nil {
			return err
		}
		binding := &model.DomainBinding{
			Hostname:  hostname,
			TenantID:  tenant.TenantID,
			IsPrimary: true,
		}
		if err := s.tenantRepo.AddDomain(ctx, tx, binding); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// パーティションのプロビジョニング。失敗したら ProvisioningFailed 終端へ。
	if _, err := s.partitions.Provision(ctx, tenant.TenantID, tenant.PartitionID); err != nil {
		logger.Error("Partition provisioning failed, abandoning tenant",
			"error", err,
			"tenant_id", tenant.TenantID.String(),
		)
		if uerr := s.tenantRepo.UpdateStatus(ctx, s.db, tenant.TenantID, model.StatusProvisioningFailed); uerr != nil {
			logger.Error("Failed to mark tenant provisioning_failed", "error", uerr)
		}
		return nil, model.NewAppError("PROVISIONING_FAILED",
			"テナントの作成に失敗しました。", "", err)
	}

	logger.Info("Tenant created",
		"tenant_id", tenant.TenantID.String(),
		"partition_id", tenant.PartitionID.String(),
		"domain", hostname,
	)
	return s.GetTenant(ctx, tenant.TenantID)
}

// transition は共通のライフサイクル遷移処理です
func (s *registryService) transition(ctx context.Context, tenantID uuid.UUID, to model.TenantStatus) (*model.Tenant, error) {
	logger := middleware.GetLogger(ctx)

	unlock := s.locks.Lock("tenant:" + tenantID.String())
	defer unlock()

	tenant, err := s.tenantRepo.FindByID(ctx, s.db, tenantID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.ErrTenantNotFound
		}
		return nil, err
	}

	if !tenant.Status.CanTransition(to) {
		logger.Warn("Invalid tenant lifecycle transition",
			"tenant_id", tenantID.String(),
			"from", string(tenant.Status),
			"to", string(to),
		)
		return nil, model.NewAppError("INVALID_TRANSITION",
			"このテナント状態からは実行できない操作です。", "status", model.ErrInvalidTransition)
	}

	if err := s.tenantRepo.UpdateStatus(ctx, s.db, tenantID, to); err != nil {
		return nil, err
	}
	tenant.Status = to

	logger.Info("Tenant status changed",
		"tenant_id", tenantID.String(),
		"status", string(to),
	)
	return tenant, nil
}

func (s *registryService) ActivateTenant(ctx context.Context, tenantID uuid.UUID) (*model.Tenant, error) {
	// Active への遷移はパーティションが存在し Ready であることが前提
	partition, err := s.partitionRepo.FindByTenant(ctx, s.db, tenantID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.NewAppError("PARTITION_MISSING",
				"パーティションが未作成のため有効化できません。", "", model.ErrInvalidTransition)
		}
		return nil, err
	}
	if partition.Status != model.PartitionReady {
		return nil, model.NewAppError("PARTITION_NOT_READY",
			"パーティションが利用可能な状態ではありません。", "", model.ErrInvalidTransition)
	}
	return s.transition(ctx, tenantID, model.StatusActive)
}

func (s *registryService) SuspendTenant(ctx context.Context, tenantID uuid.UUID) (*model.Tenant, error) {
	return s.transition(ctx, tenantID, model.StatusSuspended)
}

func (s *registryService) ResumeTenant(ctx context.Context, tenantID uuid.UUID) (*model.Tenant, error) {
	return s.transition(ctx, tenantID, model.StatusActive)
}

func (s *registryService) DecommissionTenant(ctx context.Context, tenantID uuid.UUID) (*model.Tenant, error) {
	logger := middleware.GetLogger(ctx)

	tenant, err := s.transition(ctx, tenantID, model.StatusDecommissioned)
	if err != nil {
		return nil, err
	}

	// ドメイン束縛と職員アカウントの除去はテナント行の終端化と同一トランザクション
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.tenantRepo.RemoveAllDomains(ctx, tx, tenantID); err != nil {
			return err
		}
		if err := s.identityRepo.DeleteByTenant(ctx, tx, tenantID); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// パーティションは Retiring へ。猶予期間と束縛ゼロの確認後にアーカイブされる。
	if err := s.partitions.Decommission(ctx, tenant.PartitionID); err != nil {
		logger.Error("Failed to mark partition retiring",
			"error", err,
			"partition_id", tenant.PartitionID.String(),
		)
		return nil, err
	}

	logger.Info("Tenant decommissioned", "tenant_id", tenantID.String())
	tenant.Domains = nil
	return tenant, nil
}

func (s *registryService) AddDomain(ctx context.Context, tenantID uuid.UUID, hostname string, isPrimary bool) error {
	hostname = normalizeHostname(hostname)
	if hostname == "" {
		return model.ErrInvalidInput
	}

	unlock := s.locks.Lock("tenant:" + tenantID.String())
	defer unlock()

	tenant, err := s.tenantRepo.FindByID(ctx, s.db, tenantID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.ErrTenantNotFound
		}
		return err
	}
	if tenant.Status == model.StatusDecommissioned || tenant.Status == model.StatusProvisioningFailed {
		return model.NewAppError("INVALID_TRANSITION",
			"廃止済みテナントにはドメインを追加できません。", "status", model.ErrInvalidTransition)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 既存束縛のチェック。主キー制約が最終防衛線だが、別テナントへの
		// 束縛は明示的な DomainConflict として返す。
		existing, err := s.tenantRepo.FindDomain(ctx, tx, hostname)
		switch {
		case err == nil:
			if existing.TenantID != tenantID {
				return model.NewAppError("DOMAIN_CONFLICT",
					"このホスト名は既に使用されています。", "hostname", model.ErrDomainConflict)
			}
			if !isPrimary || existing.IsPrimary {
				return nil // 同一テナントへの再追加は冪等
			}
		case errors.Is(err, model.ErrNotFound):
			if err := s.tenantRepo.AddDomain(ctx, tx, &model.DomainBinding{
				Hostname: hostname,
				TenantID: tenantID,
			}); err != nil {
				return err
			}
		default:
			return err
		}

		if !isPrimary {
			return nil
		}
		// 主ドメインはテナントにつき常に1つ。昇格は既存主の降格と
		// 同一トランザクションで行う。
		return s.tenantRepo.SetPrimaryDomain(ctx, tx, tenantID, hostname)
	})
}

func (s *registryService) RemoveDomain(ctx context.Context, tenantID uuid.UUID, hostname string) error {
	hostname = normalizeHostname(hostname)

	unlock := s.locks.Lock("tenant:" + tenantID.String())
	defer unlock()

	err := s.tenantRepo.RemoveDomain(ctx, s.db, tenantID, hostname)
	if errors.Is(err, model.ErrNotFound) {
		return model.NewAppError("DOMAIN_NOT_FOUND",
			"指定されたドメイン束縛が見つかりません。", "hostname", model.ErrNotFound)
	}
	return err
}

func (s *registryService) GetTenant(ctx context.Context, tenantID uuid.UUID) (*model.Tenant, error) {
	tenant, err := s.tenantRepo.FindByID(ctx, s.db, tenantID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.ErrTenantNotFound
		}
		return nil, err
	}
	return tenant, nil
}

func (s *registryService) ListTenants(ctx context.Context) ([]*model.Tenant, error) {
	return s.tenantRepo.List(ctx, s.db)
}

func (s *registryService) Resolve(ctx context.Context, host, override string, overrideAuthorized bool) (model.ResolvedTenant, error) {
	logger := middleware.GetLogger(ctx)

	var tenant *model.Tenant
	var err error

	if override != "" {
		// 明示オーバーライドは管理認可済みの呼び出し元のみ。未認可の
		// オーバーライドは存在情報を漏らさないため NotFound と同じ扱い。
		if !overrideAuthorized {
			logger.Warn("Unauthorized tenant override attempt", "override", override)
			return model.ResolvedTenant{}, model.ErrTenantNotFound
		}
		tenantID, perr := uuid.Parse(override)
		if perr != nil {
			return model.ResolvedTenant{}, model.ErrTenantNotFound
		}
		tenant, err = s.tenantRepo.FindByID(ctx, s.db, tenantID)
	} else {
		tenant, err = s.tenantRepo.FindByDomain(ctx, s.db, normalizeHostname(host))
	}

	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.ResolvedTenant{}, model.ErrTenantNotFound
		}
		return model.ResolvedTenant{}, err
	}

	// Suspended / Decommissioned は NotFound とは別の条件として拒否する。
	// （外部レスポンスでは同一に丸められるが、呼び出し側は区別できる）
	if tenant.Status != model.StatusActive {
		logger.Debug("Tenant not active at resolution",
			"tenant_id", tenant.TenantID.String(),
			"status", string(tenant.Status),
		)
		return model.ResolvedTenant{}, model.ErrTenantUnavailable
	}

	partition, err := s.partitionRepo.FindByTenant(ctx, s.db, tenant.TenantID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.ResolvedTenant{}, model.ErrTenantUnavailable
		}
		return model.ResolvedTenant{}, err
	}

	return model.ResolvedTenant{Tenant: tenant, Partition: partition}, nil
}
