// テナント解決からデータ分離までの通し検証。
// 実サービス・実ストアを配線した上で、HTTP境界から見た振る舞いを確認します。
package handlers_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinic_tenant_core/internal/model"
)

func TestAdminAPI_RequiresKey(t *testing.T) {
	t.Run("キーなしは拒否", func(t *testing.T) {
		rr := doRequest(t, http.MethodPost, "/api/v1/admin/tenants", "", model.CreateTenantRequest{
			DisplayName:   "無認可クリニック",
			InitialDomain: "rogue.example.jp",
		}, nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("誤ったキーも拒否", func(t *testing.T) {
		rr := doRequest(t, http.MethodPost, "/api/v1/admin/tenants", "", model.CreateTenantRequest{
			DisplayName:   "無認可クリニック",
			InitialDomain: "rogue.example.jp",
		}, map[string]string{"X-Admin-API-Key": "wrong-key"})
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestCreateTenant_Validation(t *testing.T) {
	rr := doRequest(t, http.MethodPost, "/api/v1/admin/tenants", "", model.CreateTenantRequest{
		DisplayName:   "バリデーション病院",
		InitialDomain: "not a hostname",
	}, adminHeaders())
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	var errResp model.APIErrorResponse
	decodeJSON(t, rr, &errResp)
	assert.Equal(t, "VALIDATION_ERROR", errResp.Error.Code)
}

// 2つの病院のデータが同じAPI・同じ記録IDでも互いに見えないことの通し検証
func TestHospitalIsolation_EndToEnd(t *testing.T) {
	hostA := "sakura.example.jp"
	hostB := "hikari.example.jp"
	provisionHospital(t, "さくら台総合病院", hostA, "doctor@sakura.example.jp", "password-sakura-1")
	provisionHospital(t, "ひかり中央クリニック", hostB, "doctor@hikari.example.jp", "password-hikari-1")

	tokenA := login(t, hostA, "doctor@sakura.example.jp", "password-sakura-1")
	tokenB := login(t, hostB, "doctor@hikari.example.jp", "password-hikari-1")

	// 病院Aで記録を作成
	rr := doRequest(t, http.MethodPost, "/api/v1/records", hostA, map[string]interface{}{
		"patient_name": "佐藤 花子",
		"note":         "初診。",
	}, bearerHeaders(tokenA))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var created model.ClinicalRecord
	decodeJSON(t, rr, &created)

	t.Run("自テナントの記録は読める", func(t *testing.T) {
		rr := doRequest(t, http.MethodGet, "/api/v1/records/"+created.RecordID.String(), hostA, nil, bearerHeaders(tokenA))
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("病院Bからは同じIDの記録が見えない", func(t *testing.T) {
		rr := doRequest(t, http.MethodGet, "/api/v1/records/"+created.RecordID.String(), hostB, nil, bearerHeaders(tokenB))
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("病院Bの一覧に病院Aの記録は現れない", func(t *testing.T) {
		rr := doRequest(t, http.MethodGet, "/api/v1/records", hostB, nil, bearerHeaders(tokenB))
		require.Equal(t, http.StatusOK, rr.Code)
		var records []model.ClinicalRecord
		decodeJSON(t, rr, &records)
		assert.Empty(t, records)
	})

	t.Run("病院AのトークンはB のドメインでは使えない", func(t *testing.T) {
		rr := doRequest(t, http.MethodGet, "/api/v1/records", hostB, nil, bearerHeaders(tokenA))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)

		// テナント不一致とパスワード誤りはレスポンスから区別できない
		wrongLogin := doRequest(t, http.MethodPost, "/api/v1/auth/login", hostB,
			model.LoginRequest{Email: "doctor@hikari.example.jp", Password: "wrong-password"}, nil)
		require.Equal(t, http.StatusUnauthorized, wrongLogin.Code)
		assert.Equal(t, wrongLogin.Body.String(), rr.Body.String())
	})
}

func TestResolution_UnknownAndSuspended(t *testing.T) {
	host := "midori.example.jp"
	tenant := provisionHospital(t, "みどりが丘医院", host, "doctor@midori.example.jp", "password-midori-1")
	token := login(t, host, "doctor@midori.example.jp", "password-midori-1")

	unknown := doRequest(t, http.MethodGet, "/api/v1/records", "unknown.example.jp", nil, bearerHeaders(token))
	assert.Equal(t, http.StatusServiceUnavailable, unknown.Code)

	// テナントを一時停止
	rr := doRequest(t, http.MethodPost,
		fmt.Sprintf("/api/v1/admin/tenants/%s/suspend", tenant.TenantID), "", nil, adminHeaders())
	require.Equal(t, http.StatusOK, rr.Code)

	t.Run("停止中テナントは未登録ホストと同一レスポンス", func(t *testing.T) {
		suspended := doRequest(t, http.MethodGet, "/api/v1/records", host, nil, bearerHeaders(token))
		assert.Equal(t, http.StatusServiceUnavailable, suspended.Code)
		// 存在の有無をボディから区別できてはならない
		assert.Equal(t, unknown.Body.String(), suspended.Body.String())
	})

	t.Run("復帰後はアクセスが回復する", func(t *testing.T) {
		rr := doRequest(t, http.MethodPost,
			fmt.Sprintf("/api/v1/admin/tenants/%s/resume", tenant.TenantID), "", nil, adminHeaders())
		require.Equal(t, http.StatusOK, rr.Code)

		resumed := doRequest(t, http.MethodGet, "/api/v1/records", host, nil, bearerHeaders(token))
		assert.Equal(t, http.StatusOK, resumed.Code)
	})
}

func TestTenantOverride(t *testing.T) {
	host := "aozora.example.jp"
	tenant := provisionHospital(t, "あおぞら小児科", host, "doctor@aozora.example.jp", "password-aozora-1")
	token := login(t, host, "doctor@aozora.example.jp", "password-aozora-1")

	t.Run("未認可のオーバーライドは存在を漏らさず拒否", func(t *testing.T) {
		rr := doRequest(t, http.MethodGet, "/api/v1/records", "unknown.example.jp", nil, map[string]string{
			"Authorization":     "Bearer " + token,
			"X-Tenant-Override": tenant.TenantID.String(),
		})
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	})

	t.Run("管理キー付きのオーバーライドはホスト名より優先", func(t *testing.T) {
		rr := doRequest(t, http.MethodGet, "/api/v1/records", "unknown.example.jp", nil, map[string]string{
			"Authorization":     "Bearer " + token,
			"X-Tenant-Override": tenant.TenantID.String(),
			"X-Admin-API-Key":   testAdminAPIKey,
		})
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("存在しないテナントIDのオーバーライド", func(t *testing.T) {
		rr := doRequest(t, http.MethodGet, "/api/v1/records", "unknown.example.jp", nil, map[string]string{
			"Authorization":     "Bearer " + token,
			"X-Tenant-Override": uuid.NewString(),
			"X-Admin-API-Key":   testAdminAPIKey,
		})
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	})
}

func TestLogout_RevokesCredential(t *testing.T) {
	host := "wakaba.example.jp"
	provisionHospital(t, "わかば整形外科", host, "doctor@wakaba.example.jp", "password-wakaba-1")
	token := login(t, host, "doctor@wakaba.example.jp", "password-wakaba-1")

	rr := doRequest(t, http.MethodGet, "/api/v1/records", host, nil, bearerHeaders(token))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doRequest(t, http.MethodPost, "/api/v1/auth/logout", host, nil, bearerHeaders(token))
	require.Equal(t, http.StatusNoContent, rr.Code)

	// 失効後は自然満了前でも使えない
	rr = doRequest(t, http.MethodGet, "/api/v1/records", host, nil, bearerHeaders(token))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestDomainManagement(t *testing.T) {
	hostA := "fuji-naika.example.jp"
	hostB := "kawasemi.example.jp"
	tenantA := provisionHospital(t, "ふじ内科", hostA, "doctor@fuji-naika.example.jp", "password-fuji-11")
	tenantB := provisionHospital(t, "かわせみ眼科", hostB, "doctor@kawasemi.example.jp", "password-kawa-11")

	aliasHost := "fuji-alias.example.jp"

	t.Run("追加ドメインでも解決できる", func(t *testing.T) {
		rr := doRequest(t, http.MethodPost,
			fmt.Sprintf("/api/v1/admin/tenants/%s/domains", tenantA.TenantID), "",
			model.AddDomainRequest{Hostname: aliasHost}, adminHeaders())
		require.Equal(t, http.StatusNoContent, rr.Code, rr.Body.String())

		token := login(t, aliasHost, "doctor@fuji-naika.example.jp", "password-fuji-11")
		rr = doRequest(t, http.MethodGet, "/api/v1/records", aliasHost, nil, bearerHeaders(token))
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("別テナントへの同名ドメイン追加は衝突", func(t *testing.T) {
		rr := doRequest(t, http.MethodPost,
			fmt.Sprintf("/api/v1/admin/tenants/%s/domains", tenantB.TenantID), "",
			model.AddDomainRequest{Hostname: aliasHost}, adminHeaders())
		assert.Equal(t, http.StatusConflict, rr.Code)

		var errResp model.APIErrorResponse
		decodeJSON(t, rr, &errResp)
		assert.Equal(t, "DOMAIN_CONFLICT", errResp.Error.Code)
	})

	t.Run("主ドメインはテナントにつき常に1つ", func(t *testing.T) {
		rr := doRequest(t, http.MethodPost,
			fmt.Sprintf("/api/v1/admin/tenants/%s/domains", tenantA.TenantID), "",
			model.AddDomainRequest{Hostname: "fuji-portal.example.jp", IsPrimary: true}, adminHeaders())
		require.Equal(t, http.StatusNoContent, rr.Code)

		// 作成時の主ドメインは降格され、昇格後も主は1つだけ
		var primaries []model.DomainBinding
		require.NoError(t, testDB.
			Where("tenant_id = ? AND is_primary = ?", tenantA.TenantID, true).
			Find(&primaries).Error)
		require.Len(t, primaries, 1)
		assert.Equal(t, "fuji-portal.example.jp", primaries[0].Hostname)
	})

	t.Run("ドメイン削除後は解決できない", func(t *testing.T) {
		rr := doRequest(t, http.MethodDelete,
			fmt.Sprintf("/api/v1/admin/tenants/%s/domains/%s", tenantA.TenantID, aliasHost), "", nil, adminHeaders())
		require.Equal(t, http.StatusNoContent, rr.Code)

		probe := doRequest(t, http.MethodPost, "/api/v1/auth/login", aliasHost,
			model.LoginRequest{Email: "doctor@fuji-naika.example.jp", Password: "password-fuji-11"}, nil)
		assert.Equal(t, http.StatusServiceUnavailable, probe.Code)
	})
}

func TestDecommission_EndToEnd(t *testing.T) {
	host := "yamabuki.example.jp"
	tenant := provisionHospital(t, "やまぶき消化器内科", host, "doctor@yamabuki.example.jp", "password-yama-11")
	token := login(t, host, "doctor@yamabuki.example.jp", "password-yama-11")

	rr := doRequest(t, http.MethodPost,
		fmt.Sprintf("/api/v1/admin/tenants/%s/decommission", tenant.TenantID), "", nil, adminHeaders())
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var decommissioned model.TenantResponse
	decodeJSON(t, rr, &decommissioned)
	assert.Equal(t, model.StatusDecommissioned, decommissioned.Status)

	t.Run("ドメイン束縛は即時に解除される", func(t *testing.T) {
		probe := doRequest(t, http.MethodGet, "/api/v1/records", host, nil, bearerHeaders(token))
		assert.Equal(t, http.StatusServiceUnavailable, probe.Code)
	})

	t.Run("廃止は終端で復帰できない", func(t *testing.T) {
		rr := doRequest(t, http.MethodPost,
			fmt.Sprintf("/api/v1/admin/tenants/%s/resume", tenant.TenantID), "", nil, adminHeaders())
		assert.Equal(t, http.StatusConflict, rr.Code)
	})
}
