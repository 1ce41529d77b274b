package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/procurely/rfp-pilot/internal/ai"
	"github.com/procurely/rfp-pilot/internal/extract"
	"github.com/procurely/rfp-pilot/internal/logger"
	"github.com/procurely/rfp-pilot/internal/procurement"
)

const maxBodyBytes = 1 << 20

// Workflow is the slice of the procurement service the HTTP layer needs.
type Workflow interface {
	DraftRfp(ctx context.Context, description, title string) (*procurement.RfpDraft, error)
	FinalizeRfp(ctx context.Context, input procurement.FinalizeRfpInput) (*procurement.Rfp, error)
	ListRfps(ctx context.Context) ([]procurement.RfpSummary, error)
	GetRfpDetail(ctx context.Context, id string) (*procurement.RfpDetail, error)
	DeleteRfp(ctx context.Context, id string) (*procurement.Rfp, error)

	CreateVendor(ctx context.Context, name, email, phone string) (*procurement.Vendor, error)
	ListVendors(ctx context.Context) ([]procurement.Vendor, error)
	DeleteVendor(ctx context.Context, id string) error

	InviteVendors(ctx context.Context, rfpID string, vendorIDs []string) ([]procurement.InviteResult, error)
	IngestReply(ctx context.Context, rfpID, vendorID, subject, body string) (*procurement.Proposal, error)
}

type Handler struct {
	svc    Workflow
	logger *zap.Logger
}

func NewHandler(svc Workflow, log *zap.Logger) *Handler {
	return &Handler{svc: svc, logger: logger.OrNop(log)}
}

// envelope is the uniform response shape of every endpoint.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func (h *Handler) Ping(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (h *Handler) GenerateRfp(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Description string `json:"description"`
		Title       string `json:"title"`
	}
	if !h.decode(w, r, &req) {
		return
	}

	draft, err := h.svc.DraftRfp(r.Context(), req.Description, req.Title)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeData(w, http.StatusOK, draft)
}

func (h *Handler) SubmitRfp(w http.ResponseWriter, r *http.Request) {
	var req procurement.FinalizeRfpInput
	if !h.decode(w, r, &req) {
		return
	}

	rfp, err := h.svc.FinalizeRfp(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeData(w, http.StatusCreated, rfp)
}

func (h *Handler) ListRfps(w http.ResponseWriter, r *http.Request) {
	rfps, err := h.svc.ListRfps(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeData(w, http.StatusOK, rfps)
}

func (h *Handler) GetRfp(w http.ResponseWriter, r *http.Request) {
	detail, err := h.svc.GetRfpDetail(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeData(w, http.StatusOK, detail)
}

func (h *Handler) DeleteRfp(w http.ResponseWriter, r *http.Request) {
	rfp, err := h.svc.DeleteRfp(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, envelope{Success: true, Message: "RFP deleted successfully", Data: rfp})
}

func (h *Handler) CreateVendor(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		Email       string `json:"email"`
		PhoneNumber string `json:"phonenumber"`
	}
	if !h.decode(w, r, &req) {
		return
	}

	vendor, err := h.svc.CreateVendor(r.Context(), req.Name, req.Email, req.PhoneNumber)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeData(w, http.StatusCreated, vendor)
}

func (h *Handler) ListVendors(w http.ResponseWriter, r *http.Request) {
	vendors, err := h.svc.ListVendors(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeData(w, http.StatusOK, vendors)
}

func (h *Handler) DeleteVendor(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteVendor(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, envelope{Success: true, Message: "Vendor deleted successfully"})
}

func (h *Handler) InviteVendors(w http.ResponseWriter, r *http.Request) {
	var req struct {
		VendorIDs []string `json:"vendorIds"`
	}
	if !h.decode(w, r, &req) {
		return
	}

	results, err := h.svc.InviteVendors(r.Context(), chi.URLParam(r, "id"), req.VendorIDs)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeData(w, http.StatusOK, results)
}

func (h *Handler) SubmitProposal(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Subject string `json:"subject"`
		Text    string `json:"text"`
		HTML    string `json:"html"`
	}
	if !h.decode(w, r, &req) {
		return
	}

	body := req.Text
	if body == "" {
		body = req.HTML
	}

	proposal, err := h.svc.IngestReply(r.Context(),
		chi.URLParam(r, "rfpId"), chi.URLParam(r, "vendorId"), req.Subject, body)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeData(w, http.StatusCreated, proposal)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.writeJSON(w, http.StatusBadRequest, envelope{Success: false, Message: "invalid JSON body"})
		return false
	}
	return true
}

func (h *Handler) writeData(w http.ResponseWriter, status int, data any) {
	h.writeJSON(w, status, envelope{Success: true, Data: data})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("write response", zap.Error(err))
	}
}

// writeError maps domain errors onto HTTP statuses. A dispatch failure keeps
// the status of its cause and reports the partial progress.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var derr *procurement.DispatchError
	if errors.As(err, &derr) {
		h.writeJSON(w, statusFor(derr.Err), envelope{
			Success: false,
			Message: derr.Error(),
			Data:    map[string]any{"results": derr.Results},
		})
		return
	}

	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	h.writeJSON(w, status, envelope{Success: false, Message: err.Error()})
}

func statusFor(err error) int {
	var verr *procurement.ValidationError
	var merr *extract.MalformedError

	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, procurement.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, procurement.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ai.ErrQuotaExceeded):
		return http.StatusTooManyRequests
	case errors.As(err, &merr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
