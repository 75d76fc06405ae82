package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"clinic_tenant_core/internal/dataaccess"
	"clinic_tenant_core/internal/middleware"
	"clinic_tenant_core/internal/model"
	"clinic_tenant_core/internal/tenantctx"
	"clinic_tenant_core/internal/webutil"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// RecordHandler は診療記録のCRUDハンドラです。
// ストレージへの到達は必ずデータアクセス層経由で、束縛済みコンテキストを
// 第一引数として渡します。パーティションを自分で選ぶ手段はありません。
type RecordHandler struct {
	records dataaccess.RecordStore
	logger  *slog.Logger
}

func NewRecordHandler(records dataaccess.RecordStore, logger *slog.Logger) *RecordHandler {
	return &RecordHandler{
		records: records,
		logger:  logger,
	}
}

// CreateRecord godoc
// POST /api/v1/records
func (h *RecordHandler) CreateRecord(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context())

	rc, err := tenantctx.From(r.Context())
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	var req model.CreateRecordRequest
	if err := webutil.DecodeJSONBody(r, &req); err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	if err := webutil.Validator.Struct(req); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			webutil.HandleError(w, logger, webutil.NewValidationErrorResponse(validationErrors))
			return
		}
		webutil.HandleError(w, logger, model.ErrInvalidInput)
		return
	}

	recordID := uuid.New()
	if req.RecordID != nil {
		recordID = *req.RecordID
	}
	rec := &model.ClinicalRecord{
		RecordID:    recordID,
		PatientName: req.PatientName,
		Note:        req.Note,
	}

	if err := h.records.Insert(r.Context(), rc, rec); err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusCreated, rec)
}

// GetRecord godoc
// GET /api/v1/records/{record_id}
func (h *RecordHandler) GetRecord(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context())

	rc, err := tenantctx.From(r.Context())
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	recordID, err := uuid.Parse(chi.URLParam(r, "record_id"))
	if err != nil {
		webutil.HandleError(w, logger, model.NewAppError("INVALID_RECORD_ID",
			"記録IDの形式が正しくありません。", "record_id", model.ErrInvalidInput))
		return
	}

	rec, err := h.records.Get(r.Context(), rc, recordID)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, rec)
}

// ListRecords godoc
// GET /api/v1/records
func (h *RecordHandler) ListRecords(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context())

	rc, err := tenantctx.From(r.Context())
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	recs, err := h.records.List(r.Context(), rc)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, recs)
}

// UpdateRecord godoc
// PATCH /api/v1/records/{record_id}
func (h *RecordHandler) UpdateRecord(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context())

	rc, err := tenantctx.From(r.Context())
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	recordID, err := uuid.Parse(chi.URLParam(r, "record_id"))
	if err != nil {
		webutil.HandleError(w, logger, model.NewAppError("INVALID_RECORD_ID",
			"記録IDの形式が正しくありません。", "record_id", model.ErrInvalidInput))
		return
	}

	var req model.UpdateRecordRequest
	if err := webutil.DecodeJSONBody(r, &req); err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	if err := webutil.Validator.Struct(req); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			webutil.HandleError(w, logger, webutil.NewValidationErrorResponse(validationErrors))
			return
		}
		webutil.HandleError(w, logger, model.ErrInvalidInput)
		return
	}

	updates := make(map[string]interface{})
	if req.PatientName != nil {
		updates["patient_name"] = *req.PatientName
	}
	if req.Note != nil {
		updates["note"] = *req.Note
	}

	if err := h.records.Update(r.Context(), rc, recordID, updates); err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	rec, err := h.records.Get(r.Context(), rc, recordID)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, rec)
}

// DeleteRecord godoc
// DELETE /api/v1/records/{record_id}
func (h *RecordHandler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context())

	rc, err := tenantctx.From(r.Context())
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	recordID, err := uuid.Parse(chi.URLParam(r, "record_id"))
	if err != nil {
		webutil.HandleError(w, logger, model.NewAppError("INVALID_RECORD_ID",
			"記録IDの形式が正しくありません。", "record_id", model.ErrInvalidInput))
		return
	}

	if err := h.records.Delete(r.Context(), rc, recordID); err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusNoContent, nil)
}
