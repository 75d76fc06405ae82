// Package tenantctx はリクエストとテナントパーティションの束縛を管理します。
//
// RequestContext はこのパッケージの Bind だけが生成できる不透明な値で、
// リクエスト処理コードが任意のパーティション識別子をでっち上げて
// データアクセス層に渡すことはできません。グローバルな「現在のテナント」
// 状態は存在せず、伝搬はすべて context.Context 経由の明示的な受け渡しです。
package tenantctx

import (
	"context"

	"clinic_tenant_core/internal/model"

	"github.com/google/uuid"
)

// RequestContext はリクエスト存続期間だけ有効なテナント束縛です。
// フィールドは非公開で、生成後に変更されることはありません。
type RequestContext struct {
	tenantID    uuid.UUID
	partitionID uuid.UUID
	schema      string
	bound       bool
}

// Bound はこのコンテキストが Bind によって正当に生成されたものかを返します。
// ゼロ値の RequestContext は常に false です。
func (rc RequestContext) Bound() bool { return rc.bound }

func (rc RequestContext) TenantID() uuid.UUID    { return rc.tenantID }
func (rc RequestContext) PartitionID() uuid.UUID { return rc.partitionID }

// Schema はパーティションのテーブル名前空間プレフィックスを返します。
// 利用者はデータアクセス層のみです。
func (rc RequestContext) Schema() string { return rc.schema }

// Binder は ResolvedTenant から RequestContext を生成します。
// Tracker を通じてパーティションごとのアクティブコンテキスト数を数え、
// デコミッションの猶予期間判定に使われます。
type Binder struct {
	tracker *Tracker
}

func NewBinder(tracker *Tracker) *Binder {
	return &Binder{tracker: tracker}
}

// Bind は解決済みテナントをリクエストコンテキストへ束縛します。
// パーティションが Ready でない場合は束縛を拒否します（半端に
// マイグレーションされたスキーマに対する実行を防ぐため）。
func (b *Binder) Bind(resolved model.ResolvedTenant) (RequestContext, error) {
	if resolved.Tenant == nil || resolved.Partition == nil {
		return RequestContext{}, model.ErrTenantNotFound
	}
	if resolved.Partition.Status != model.PartitionReady {
		return RequestContext{}, model.ErrPartitionUnavailable
	}
	return RequestContext{
		tenantID:    resolved.Tenant.TenantID,
		partitionID: resolved.Partition.PartitionID,
		schema:      resolved.Partition.SchemaName,
		bound:       true,
	}, nil
}

// WithContext は rc を ctx に載せて fn を実行し、fn がどの経路で
// 抜けても（早期リターン・エラー・panic・キャンセル含め）束縛の解放を
// 保証します。これが §スコープ獲得/解放契約の実装です。
func (b *Binder) WithContext(ctx context.Context, rc RequestContext, fn func(ctx context.Context) error) error {
	if !rc.Bound() {
		return model.ErrUnboundContextAccess
	}
	b.tracker.acquire(rc.partitionID)
	defer b.tracker.release(rc.partitionID)

	return fn(context.WithValue(ctx, ctxKey{}, rc))
}

// Tracker へのアクセサ（デコミッション処理が参照）
func (b *Binder) Tracker() *Tracker { return b.tracker }

type ctxKey struct{}

// From は ctx からアクティブな RequestContext を取り出します。
// 束縛が無い場合は ErrUnboundContextAccess を返します。呼び出し側は
// これをリクエスト致命として扱い、既定パーティションへ落とすことは
// 決してしません。
func From(ctx context.Context) (RequestContext, error) {
	rc, ok := ctx.Value(ctxKey{}).(RequestContext)
	if !ok || !rc.Bound() {
		return RequestContext{}, model.ErrUnboundContextAccess
	}
	return rc, nil
}
