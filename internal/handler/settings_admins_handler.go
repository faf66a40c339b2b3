package handler

import (
	"net/http"

	"github.com/boddenberg/lead-console-go/internal/domain"
	"github.com/boddenberg/lead-console-go/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Settings: admins
// ============================================================

func listAdminsHandler(svc *service.SettingsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /settings/admins")
		defer span.End()

		admins, err := svc.ListAdmins(ctx, PrincipalFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, listResponse(admins))
	}
}

func createAdminHandler(svc *service.SettingsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /settings/admins")
		defer span.End()

		var req domain.NewAdminRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		admin, err := svc.CreateAdmin(ctx, PrincipalFromContext(ctx), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, admin)
	}
}

func updateAdminHandler(svc *service.SettingsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PATCH /settings/admins/{id}")
		defer span.End()

		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		var in domain.AdminInput
		if !decodeJSON(w, r, &in) {
			return
		}
		admin, err := svc.UpdateAdmin(ctx, PrincipalFromContext(ctx), id, in)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, admin)
	}
}

func toggleAdminHandler(svc *service.SettingsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /settings/admins/{id}/toggle")
		defer span.End()

		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		admin, err := svc.ToggleAdmin(ctx, PrincipalFromContext(ctx), id)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, admin)
	}
}

// ============================================================
// Settings: targets
// ============================================================

func listTargetsHandler(svc *service.SettingsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /settings/targets")
		defer span.End()

		month, err := queryInt(r, "month")
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		year, err := queryInt(r, "year")
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		targets, err := svc.ListTargets(ctx, PrincipalFromContext(ctx), month, year)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, listResponse(targets))
	}
}

func createTargetHandler(svc *service.SettingsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /settings/targets")
		defer span.End()

		var in domain.TargetInput
		if !decodeJSON(w, r, &in) {
			return
		}
		target, err := svc.CreateTarget(ctx, PrincipalFromContext(ctx), in)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, target)
	}
}

func updateTargetHandler(svc *service.SettingsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PATCH /settings/targets/{id}")
		defer span.End()

		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		var in domain.TargetInput
		if !decodeJSON(w, r, &in) {
			return
		}
		target, err := svc.UpdateTarget(ctx, PrincipalFromContext(ctx), id, in)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, target)
	}
}

func deleteTargetHandler(svc *service.SettingsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /settings/targets/{id}")
		defer span.End()

		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		if err := svc.DeleteTarget(ctx, PrincipalFromContext(ctx), id); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ============================================================
// POST /settings/reconcile?dry_run=true
// ============================================================

func reconcileHandler(rec *service.Reconciler, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /settings/reconcile")
		defer span.End()

		if rec == nil {
			writeError(w, http.StatusServiceUnavailable, "reconciliation not configured")
			return
		}
		dryRun := r.URL.Query().Get("dry_run") == "true"
		report, err := rec.RunAs(ctx, PrincipalFromContext(ctx), dryRun)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}
