package handler

import (
	"net/http"

	"github.com/boddenberg/lead-console-go/internal/domain"
	"github.com/boddenberg/lead-console-go/internal/service"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// GET /leads?q=&stage=&temperature=&source=&admin_id=
// ============================================================

func listLeadsHandler(svc *service.LeadService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /leads")
		defer span.End()

		q := r.URL.Query()
		f := domain.LeadFilter{
			Query:       q.Get("q"),
			Stage:       domain.Stage(q.Get("stage")),
			Temperature: domain.Temperature(q.Get("temperature")),
			Source:      domain.Source(q.Get("source")),
			AdminID:     q.Get("admin_id"),
		}

		leads, err := svc.List(ctx, PrincipalFromContext(ctx), f)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, listResponse(leads))
	}
}

// ============================================================
// GET /leads/{leadId}
// ============================================================

func getLeadHandler(svc *service.LeadService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /leads/{leadId}")
		defer span.End()

		id, ok := pathID(w, r, "leadId")
		if !ok {
			return
		}
		span.SetAttributes(attribute.String("lead.id", id))

		lead, err := svc.Get(ctx, PrincipalFromContext(ctx), id)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, lead)
	}
}

// ============================================================
// PATCH /leads/{leadId}: commit a draft
// ============================================================

func updateLeadHandler(svc *service.LeadService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PATCH /leads/{leadId}")
		defer span.End()

		id, ok := pathID(w, r, "leadId")
		if !ok {
			return
		}
		span.SetAttributes(attribute.String("lead.id", id))

		var draft domain.LeadDraft
		if !decodeJSON(w, r, &draft) {
			return
		}
		draft.LeadID = id

		lead, err := svc.Update(ctx, PrincipalFromContext(ctx), draft)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, lead)
	}
}
