package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sandeepkv93/product-media-catalog/internal/domain"
	"github.com/sandeepkv93/product-media-catalog/internal/http/response"
	"github.com/sandeepkv93/product-media-catalog/internal/media"
	"github.com/sandeepkv93/product-media-catalog/internal/observability"
	"github.com/sandeepkv93/product-media-catalog/internal/repository"
	"github.com/sandeepkv93/product-media-catalog/internal/service"
)

type ProductHandler struct {
	svc service.ProductService
}

func NewProductHandler(svc service.ProductService) *ProductHandler {
	return &ProductHandler{svc: svc}
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	form, err := readProductForm(r)
	if err != nil {
		writeProductError(w, r, err, "create")
		return
	}
	defer form.close()

	input, err := form.createInput()
	if err != nil {
		writeProductError(w, r, err, "create")
		return
	}
	created, err := h.svc.Create(r.Context(), input)
	if err != nil {
		auditFailure(r, "create", "", err)
		writeProductError(w, r, err, "create")
		return
	}

	observability.EmitAudit(r, observability.AuditInput{
		EventName:  "product.create",
		TargetType: "product",
		TargetID:   created.ID,
		Action:     "create",
		Outcome:    "success",
		Reason:     "product_created",
	})
	response.JSON(w, r, http.StatusCreated, created)
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := repository.ProductFilter{Category: r.URL.Query().Get("category")}
	if !wantsPaging(r) {
		items, err := h.svc.List(r.Context(), filter)
		if err != nil {
			writeProductError(w, r, err, "list")
			return
		}
		response.JSON(w, r, http.StatusOK, items)
		return
	}

	pageReq, err := parsePageRequest(r)
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	res, err := h.svc.ListPaged(r.Context(), filter, pageReq)
	if err != nil {
		writeProductError(w, r, err, "list")
		return
	}
	response.JSON(w, r, http.StatusOK, paginatedData(res.Items, res.Page, res.PageSize, res.Total, res.TotalPages))
}

func (h *ProductHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	productID, err := parseProductID(chi.URLParam(r, "id"))
	if err != nil {
		writeProductError(w, r, err, "get")
		return
	}
	product, err := h.svc.GetByID(r.Context(), productID)
	if err != nil {
		writeProductError(w, r, err, "get")
		return
	}
	response.JSON(w, r, http.StatusOK, product)
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	productID, err := parseProductID(chi.URLParam(r, "id"))
	if err != nil {
		writeProductError(w, r, err, "update")
		return
	}
	form, err := readProductForm(r)
	if err != nil {
		writeProductError(w, r, err, "update")
		return
	}
	defer form.close()

	input, err := form.updateInput()
	if err != nil {
		writeProductError(w, r, err, "update")
		return
	}
	updated, err := h.svc.Update(r.Context(), productID, input)
	if err != nil {
		auditFailure(r, "update", productID, err)
		writeProductError(w, r, err, "update")
		return
	}

	reason := "product_updated"
	if len(input.Images) > 0 {
		reason = "product_images_replaced"
	}
	observability.EmitAudit(r, observability.AuditInput{
		EventName:  "product.update",
		TargetType: "product",
		TargetID:   productID,
		Action:     "update",
		Outcome:    "success",
		Reason:     reason,
	})
	response.JSON(w, r, http.StatusOK, updated)
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	productID, err := parseProductID(chi.URLParam(r, "id"))
	if err != nil {
		writeProductError(w, r, err, "delete")
		return
	}
	if err := h.svc.Delete(r.Context(), productID); err != nil {
		auditFailure(r, "delete", productID, err)
		writeProductError(w, r, err, "delete")
		return
	}

	observability.EmitAudit(r, observability.AuditInput{
		EventName:  "product.delete",
		TargetType: "product",
		TargetID:   productID,
		Action:     "delete",
		Outcome:    "success",
		Reason:     "product_deleted",
	})
	response.JSON(w, r, http.StatusOK, map[string]any{"deleted": true})
}

func auditFailure(r *http.Request, action, productID string, err error) {
	reason := "internal_error"
	switch {
	case errors.Is(err, domain.ErrValidation):
		reason = "validation_failed"
	case errors.Is(err, repository.ErrProductNotFound):
		reason = "not_found"
	case errors.Is(err, media.ErrUpload):
		reason = "upload_failed"
	}
	if productID == "" {
		productID = "new"
	}
	observability.EmitAudit(r, observability.AuditInput{
		EventName:  "product." + action,
		TargetType: "product",
		TargetID:   productID,
		Action:     action,
		Outcome:    "failure",
		Reason:     reason,
	})
}

func writeProductError(w http.ResponseWriter, r *http.Request, err error, action string) {
	var (
		verr   *domain.ValidationError
		upErr  *media.UploadError
		maxErr *http.MaxBytesError
	)
	switch {
	case errors.As(err, &verr):
		response.Error(w, r, http.StatusBadRequest, "VALIDATION_ERROR", verr.Error(), map[string]string{"field": verr.Field})
	case errors.Is(err, repository.ErrProductNotFound):
		response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "product not found", nil)
	case errors.As(err, &upErr) && upErr.Rejected():
		response.Error(w, r, http.StatusBadRequest, "INVALID_UPLOAD", upErr.Error(), map[string]any{"index": upErr.Index, "filename": upErr.Filename})
	case errors.Is(err, media.ErrUpload):
		response.Error(w, r, http.StatusBadGateway, "UPLOAD_FAILED", "image upload failed", nil)
	case errors.As(err, &maxErr):
		response.Error(w, r, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "request body too large", nil)
	case errors.Is(err, errMalformedBody):
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
	default:
		slog.ErrorContext(r.Context(), "product request failed", "action", action, "error", err)
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to "+action+" product", nil)
	}
}
