package supabase_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/boddenberg/lead-console-go/internal/domain"
	"github.com/boddenberg/lead-console-go/internal/infra/resilience"
	"github.com/boddenberg/lead-console-go/internal/infra/supabase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *supabase.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	cfg := resilience.Config{MaxRetries: 2, InitialBackoff: time.Millisecond}
	return supabase.NewClient(srv.Client(), srv.URL+"/", "anon", "service", resilience.NewCircuitBreaker("supabase-test"), cfg, zap.NewNop())
}

func TestGetProductBySlug_SendsFilterAndKeys(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/products", r.URL.Path)
		assert.Equal(t, "eq.coursea", r.URL.Query().Get("slug"))
		assert.Equal(t, "anon", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer service", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `[{"id":"p1","name":"Course A","slug":"coursea","is_active":true}]`)
	})

	p, err := c.GetProductBySlug(context.Background(), "coursea")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "Course A", p.Name)
	assert.True(t, p.IsActive)
}

func TestGetProductBySlug_MissingRowIsNil(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[]`)
	})

	p, err := c.GetProductBySlug(context.Background(), "nothing")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestQuery_RetriesServerErrors(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `[]`)
	})

	_, err := c.ListLeads(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestMutate_IsNotRetried(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	})

	err := c.UpdateLead(context.Background(), &domain.Lead{ID: "l1", Stage: domain.StageLoss})
	require.Error(t, err)
	var ext *domain.ErrExternalService
	assert.ErrorAs(t, err, &ext)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestUpdateLead_WritesClearedFieldsAsNull(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "eq.l1", r.URL.Query().Get("id"))
		assert.Equal(t, "return=minimal", r.Header.Get("Prefer"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "on_progress", body["stage"])
		assert.Contains(t, body, "payment_type")
		assert.Nil(t, body["payment_type"])
		assert.Nil(t, body["closing_date"])
		assert.Equal(t, 300000.0, body["final_price"])
		w.WriteHeader(http.StatusNoContent)
	})

	price := 300000.0
	err := c.UpdateLead(context.Background(), &domain.Lead{ID: "l1", Stage: domain.StageOnProgress, FinalPrice: &price})
	require.NoError(t, err)
}

func TestCreateProduct_DuplicateSlugIsConflict(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = io.WriteString(w, `{"code":"23505","message":"duplicate key value violates unique constraint"}`)
	})

	_, err := c.CreateProduct(context.Background(), &domain.Product{Name: "Course A", Slug: "coursea"})
	var conflict *domain.ErrConflict
	require.ErrorAs(t, err, &conflict)
}

func TestSignInWithPassword(t *testing.T) {
	t.Run("valid credentials", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/auth/v1/token", r.URL.Path)
			assert.Equal(t, "password", r.URL.Query().Get("grant_type"))
			_, _ = io.WriteString(w, `{"access_token":"gt-token","user":{"id":"u1","email":"a@b.c"}}`)
		})

		s, err := c.SignInWithPassword(context.Background(), "a@b.c", "secret")
		require.NoError(t, err)
		assert.Equal(t, "u1", s.UserID)
		assert.Equal(t, "gt-token", s.AccessToken)
	})

	t.Run("wrong password", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"error":"invalid_grant"}`)
		})

		_, err := c.SignInWithPassword(context.Background(), "a@b.c", "nope")
		assert.Equal(t, domain.ErrInvalidCredentials, err)
	})
}

func TestSignUp_ReadsNestedUser(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"access_token":"x","user":{"id":"u9","email":"new@b.c"}}`)
	})

	u, err := c.SignUp(context.Background(), "new@b.c", "secret")
	require.NoError(t, err)
	assert.Equal(t, "u9", u.ID)
}
