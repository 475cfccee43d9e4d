// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package backend_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Gayathri240502/persft-web-sub000/internal/backend"
	"github.com/Gayathri240502/persft-web-sub000/internal/otp"
	"github.com/Gayathri240502/persft-web-sub000/internal/workorder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthClient_SendPasswordResetCode(t *testing.T) {
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/forgot-password/send", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"message":               "code sent",
			"expiryMinutes":         5,
			"resendCooldownSeconds": 30,
		})
	}))
	defer srv.Close()

	client := backend.NewAuthClient(srv.URL, time.Second)
	res, err := client.SendPasswordResetCode(context.Background(), "+919876543210")

	require.NoError(t, err)
	assert.Equal(t, "+919876543210", gotBody["phone"])
	assert.Equal(t, otp.SendResult{Message: "code sent", ExpiryMinutes: 5, ResendCooldownSeconds: 30}, res)
}

func TestAuthClient_ErrorMessageExtracted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "phone not registered"})
	}))
	defer srv.Close()

	client := backend.NewAuthClient(srv.URL, time.Second)
	_, err := client.SendPasswordResetCode(context.Background(), "+919876543210")

	require.Error(t, err)
	var be *backend.Error
	require.ErrorAs(t, err, &be)
	assert.Equal(t, http.StatusBadRequest, be.StatusCode)
	assert.Equal(t, "phone not registered", be.Message)
}

func TestErrorMessageEmptyForUnusableBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	client := backend.NewAuthClient(srv.URL, time.Second)
	_, err := client.SendPasswordResetCode(context.Background(), "+919876543210")

	require.Error(t, err)
	var be *backend.Error
	require.ErrorAs(t, err, &be)
	assert.Empty(t, be.Message)
	assert.Equal(t, "backend returned 500", be.Error())
}

func TestAuthClient_VerificationPaths(t *testing.T) {
	var paths []string
	var bodies []map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		bodies = append(bodies, body)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "ok"})
	}))
	defer srv.Close()

	client := backend.NewAuthClient(srv.URL, time.Second)
	ctx := context.Background()

	_, err := client.SendVerificationCode(ctx, "u-1", otp.ChannelPhone, "+919876543210")
	require.NoError(t, err)
	require.NoError(t, client.ConfirmVerificationCode(ctx, "u-1", otp.ChannelPhone, "+919876543210", "123456"))
	_, err = client.SendVerificationCode(ctx, "u-1", otp.ChannelEmail, "mira@example.com")
	require.NoError(t, err)
	require.NoError(t, client.ConfirmVerificationCode(ctx, "u-1", otp.ChannelEmail, "mira@example.com", "654321"))

	assert.Equal(t, []string{
		"/auth/verify-phone/send",
		"/auth/verify-phone/verify",
		"/auth/verify-email/send",
		"/auth/verify-email/verify",
	}, paths)
	assert.Equal(t, "123456", bodies[1]["otp"])
	assert.Equal(t, "654321", bodies[3]["code"])
	assert.Equal(t, "u-1", bodies[0]["userId"])
}

func TestCoreClient_GetWorkOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/work-orders/wo-7", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "wo-7",
			"status": "in_progress",
			"executionPlan": []map[string]string{
				{"type": "workGroup", "id": "g1", "name": "Demolition"},
				{"type": "workTask", "id": "t1", "name": "Remove tiles"},
			},
		})
	}))
	defer srv.Close()

	client := backend.NewCoreClient(srv.URL, time.Second)
	wo, err := client.GetWorkOrder(context.Background(), "wo-7")

	require.NoError(t, err)
	assert.Equal(t, "wo-7", wo.ID)
	require.Len(t, wo.ExecutionPlan, 2)

	plan := workorder.BuildPlan(wo.ExecutionPlan)
	require.Len(t, plan.Groups, 1)
	assert.Equal(t, "Demolition", plan.Groups[0].WorkGroupName)
}

func TestCoreClient_UpdateStatusPaths(t *testing.T) {
	var method, path string
	var body map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := backend.NewCoreClient(srv.URL, time.Second)

	require.NoError(t, client.UpdateGroupStatus(context.Background(), "wo-7", "g1", workorder.StatusCompleted))
	assert.Equal(t, http.MethodPatch, method)
	assert.Equal(t, "/work-orders/wo-7/groups/g1/status", path)
	assert.Equal(t, "completed", body["status"])

	require.NoError(t, client.UpdateTaskStatus(context.Background(), "wo-7", "g1", "t1", workorder.StatusCancelled))
	assert.Equal(t, "/work-orders/wo-7/groups/g1/tasks/t1/status", path)
	assert.Equal(t, "cancelled", body["status"])
}

func TestSchedulerClient_SearchTimesOut(t *testing.T) {
	t.Parallel()
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	client := backend.NewSchedulerClient(srv.URL, 0)

	// A caller deadline shorter than the fixed ten seconds wins.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := client.SearchBudgetCategories(ctx, "tiles")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestVendorClient_AssignMerchant(t *testing.T) {
	var path string
	var body map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	client := backend.NewVendorClient(srv.URL, time.Second)
	require.NoError(t, client.AssignMerchant(context.Background(), "wo-7", "item-3", "m-12"))
	assert.Equal(t, "/work-orders/wo-7/items/item-3/merchant", path)
	assert.Equal(t, "m-12", body["merchantId"])
}
