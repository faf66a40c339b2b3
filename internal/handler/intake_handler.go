package handler

import (
	"net/http"

	"github.com/boddenberg/lead-console-go/internal/domain"
	"github.com/boddenberg/lead-console-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// GET /{productSlug}: public form
// ============================================================

func intakeFormHandler(svc *service.IntakeService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /{productSlug}")
		defer span.End()

		slug := chi.URLParam(r, "productSlug")
		span.SetAttributes(attribute.String("product.slug", slug))

		form, err := svc.Form(ctx, slug)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, form)
	}
}

// ============================================================
// POST /{productSlug}: public submission
// ============================================================

func intakeSubmitHandler(svc *service.IntakeService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /{productSlug}")
		defer span.End()

		slug := chi.URLParam(r, "productSlug")
		span.SetAttributes(attribute.String("product.slug", slug))

		var req domain.IntakeRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		confirmation, err := svc.Submit(ctx, slug, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, confirmation)
	}
}
