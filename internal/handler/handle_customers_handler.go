package handler

import (
	"net/http"

	"github.com/boddenberg/lead-console-go/internal/domain"
	"github.com/boddenberg/lead-console-go/internal/service"

	"go.uber.org/zap"
)

// GET /handle-customers?q=&contacted=contacted|not_contacted
func listHandleCustomersHandler(svc *service.HandleCustomerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /handle-customers")
		defer span.End()

		f := domain.ContactFilter{Query: r.URL.Query().Get("q")}
		switch r.URL.Query().Get("contacted") {
		case "contacted":
			f.Contacted = boolPtr(true)
		case "not_contacted":
			f.Contacted = boolPtr(false)
		case "", "all":
		default:
			writeError(w, http.StatusBadRequest, "contacted must be contacted or not_contacted")
			return
		}

		customers, err := svc.List(ctx, PrincipalFromContext(ctx), f)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, listResponse(customers))
	}
}

// PATCH /handle-customers/{id}
func updateHandleCustomerHandler(svc *service.HandleCustomerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PATCH /handle-customers/{id}")
		defer span.End()

		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		var draft domain.HandleCustomerDraft
		if !decodeJSON(w, r, &draft) {
			return
		}
		draft.ID = id

		hc, err := svc.Update(ctx, PrincipalFromContext(ctx), draft)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, hc)
	}
}

// POST /handle-customers/{id}/contacted
func markContactedHandler(svc *service.HandleCustomerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /handle-customers/{id}/contacted")
		defer span.End()

		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		hc, err := svc.MarkContacted(ctx, PrincipalFromContext(ctx), id)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, hc)
	}
}

func boolPtr(b bool) *bool { return &b }
