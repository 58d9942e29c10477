package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"condopix_app/internal/models"
)

func seedPendingPayment(t *testing.T, payments *fakePaymentStore) *models.Payment {
	t.Helper()
	payment := &models.Payment{
		RequestID:   "req-1",
		ClientID:    1,
		MonthRef:    "2026-09",
		Amount:      decimal.NewFromInt(70),
		Status:      models.PaymentStatusPending,
		MPPaymentID: "987654321",
		Client: models.Client{
			Name:      "Maria Silva",
			Phone:     "5511999999999",
			Condo:     "Residencial Flores",
			Block:     "A",
			Apartment: "101",
		},
	}
	require.NoError(t, payments.Create(context.Background(), payment))
	return payment
}

func TestProcessNotificationApprovesPending(t *testing.T) {
	ctx := context.Background()
	payments := newFakePaymentStore()
	markers := newFakeMarkerStore()
	processor := &fakeProcessor{getPayment: &ProcessorPayment{Status: "approved", StatusDetail: "accredited"}}
	messenger := &fakeMessenger{}
	mirror := &fakeMirror{}

	seedPendingPayment(t, payments)

	wp := NewWebhookProcessor(payments, markers, processor, messenger, mirror)

	result, err := wp.ProcessPaymentNotification(ctx, "987654321", "notif-1")
	require.NoError(t, err)
	require.True(t, result.Processed)
	require.True(t, result.Updated)
	require.Equal(t, models.PaymentStatusPending, result.OldStatus)
	require.Equal(t, models.PaymentStatusApproved, result.NewStatus)

	payment, err := payments.GetByMPPaymentID(ctx, "987654321")
	require.NoError(t, err)
	require.Equal(t, models.PaymentStatusApproved, payment.Status)
	require.NotNil(t, payment.PaidAt)

	// Exactly one confirmation went to the payer
	require.Len(t, messenger.sent, 1)
	require.Equal(t, "5511999999999", messenger.sent[0].To)
	require.Contains(t, messenger.sent[0].Text, "Pagamento confirmado")
	require.Contains(t, messenger.sent[0].Text, "R$ 70.00")

	require.Len(t, mirror.updates, 1)
	require.Equal(t, "req-1", mirror.updates[0].RequestID)
	require.Equal(t, "approved", mirror.updates[0].Status)
	require.NotNil(t, mirror.updates[0].PaidAt)
}

func TestProcessNotificationDuplicateShortCircuits(t *testing.T) {
	ctx := context.Background()
	payments := newFakePaymentStore()
	markers := newFakeMarkerStore()
	processor := &fakeProcessor{getPayment: &ProcessorPayment{Status: "approved"}}
	messenger := &fakeMessenger{}

	seedPendingPayment(t, payments)

	wp := NewWebhookProcessor(payments, markers, processor, messenger, nil)

	first, err := wp.ProcessPaymentNotification(ctx, "987654321", "notif-1")
	require.NoError(t, err)
	require.True(t, first.Processed)

	second, err := wp.ProcessPaymentNotification(ctx, "987654321", "notif-1")
	require.NoError(t, err)
	require.False(t, second.Processed)
	require.Equal(t, "already_processed", second.Reason)

	// The duplicate never reached the processor API and sent nothing
	require.Equal(t, 1, processor.getCalls)
	require.Len(t, messenger.sent, 1)
}

func TestProcessNotificationPaymentNotFoundKeepsMarker(t *testing.T) {
	ctx := context.Background()
	payments := newFakePaymentStore()
	markers := newFakeMarkerStore()
	processor := &fakeProcessor{getPayment: &ProcessorPayment{Status: "approved"}}
	messenger := &fakeMessenger{}

	wp := NewWebhookProcessor(payments, markers, processor, messenger, nil)

	result, err := wp.ProcessPaymentNotification(ctx, "unknown-id", "notif-9")
	require.NoError(t, err)
	require.False(t, result.Processed)
	require.Equal(t, "payment_not_found", result.Reason)

	// Marker stays claimed so redeliveries stop hitting the API
	require.True(t, markers.has("notif-9", "unknown-id"))
	require.Empty(t, messenger.sent)
}

func TestProcessNotificationFetchFailureReleasesMarker(t *testing.T) {
	ctx := context.Background()
	payments := newFakePaymentStore()
	markers := newFakeMarkerStore()
	processor := &fakeProcessor{getErr: errors.New("mercado pago timeout")}
	messenger := &fakeMessenger{}

	seedPendingPayment(t, payments)

	wp := NewWebhookProcessor(payments, markers, processor, messenger, nil)

	_, err := wp.ProcessPaymentNotification(ctx, "987654321", "notif-1")
	require.Error(t, err)

	// The marker was released, a redelivery can retry and succeed
	require.False(t, markers.has("notif-1", "987654321"))

	processor.getErr = nil
	processor.getPayment = &ProcessorPayment{Status: "approved"}

	result, err := wp.ProcessPaymentNotification(ctx, "987654321", "notif-1")
	require.NoError(t, err)
	require.True(t, result.Processed)
	require.True(t, result.Updated)
}

func TestProcessNotificationRejectsPending(t *testing.T) {
	ctx := context.Background()
	payments := newFakePaymentStore()
	markers := newFakeMarkerStore()
	processor := &fakeProcessor{getPayment: &ProcessorPayment{Status: "rejected", StatusDetail: "cc_rejected"}}
	messenger := &fakeMessenger{}
	mirror := &fakeMirror{}

	seedPendingPayment(t, payments)

	wp := NewWebhookProcessor(payments, markers, processor, messenger, mirror)

	result, err := wp.ProcessPaymentNotification(ctx, "987654321", "notif-1")
	require.NoError(t, err)
	require.True(t, result.Updated)
	require.Equal(t, models.PaymentStatusRejected, result.NewStatus)

	payment, err := payments.GetByMPPaymentID(ctx, "987654321")
	require.NoError(t, err)
	require.Equal(t, models.PaymentStatusRejected, payment.Status)
	require.Nil(t, payment.PaidAt)

	// Rejection mirrors the status but never messages the payer
	require.Empty(t, messenger.sent)
	require.Len(t, mirror.updates, 1)
	require.Equal(t, "rejected", mirror.updates[0].Status)
}

func TestProcessNotificationSecondApprovalForMonthRefused(t *testing.T) {
	ctx := context.Background()
	payments := newFakePaymentStore()
	markers := newFakeMarkerStore()
	processor := &fakeProcessor{getPayment: &ProcessorPayment{Status: "approved", StatusDetail: "accredited"}}
	messenger := &fakeMessenger{}
	mirror := &fakeMirror{}

	// The month already has an approved payment, plus a second pending
	// charge the payer also paid
	paidAt := time.Now().UTC()
	require.NoError(t, payments.Create(ctx, &models.Payment{
		RequestID:   "req-a",
		ClientID:    1,
		MonthRef:    "2026-09",
		Amount:      decimal.NewFromInt(70),
		Status:      models.PaymentStatusApproved,
		MPPaymentID: "111",
		PaidAt:      &paidAt,
	}))
	duplicate := &models.Payment{
		RequestID:   "req-b",
		ClientID:    1,
		MonthRef:    "2026-09",
		Amount:      decimal.NewFromInt(70),
		Status:      models.PaymentStatusPending,
		MPPaymentID: "222",
		Client:      models.Client{Phone: "5511999999999"},
	}
	require.NoError(t, payments.Create(ctx, duplicate))

	wp := NewWebhookProcessor(payments, markers, processor, messenger, mirror)

	result, err := wp.ProcessPaymentNotification(ctx, "222", "notif-b")
	require.NoError(t, err)
	require.True(t, result.Processed)
	require.False(t, result.Updated)
	require.Equal(t, "month_already_approved", result.Reason)

	// The duplicate stays pending and the month keeps exactly one
	// approved payment
	require.Equal(t, models.PaymentStatusPending, duplicate.Status)
	require.Nil(t, duplicate.PaidAt)
	approved := 0
	for _, p := range payments.payments {
		if p.ClientID == 1 && p.MonthRef == "2026-09" && p.Status == models.PaymentStatusApproved {
			approved++
		}
	}
	require.Equal(t, 1, approved)

	require.Empty(t, messenger.sent)
	require.Empty(t, mirror.updates)
}

func TestProcessNotificationUnlistedPairsAreNoOps(t *testing.T) {
	ctx := context.Background()

	// Every (local, processor) pair outside the transition table leaves
	// the ledger untouched
	pairs := []struct {
		local     models.PaymentStatus
		processor string
	}{
		{models.PaymentStatusPending, "pending"},
		{models.PaymentStatusApproved, "approved"},
		{models.PaymentStatusApproved, "cancelled"},
		{models.PaymentStatusApproved, "rejected"},
		{models.PaymentStatusCancelled, "cancelled"},
		{models.PaymentStatusCancelled, "rejected"},
		{models.PaymentStatusRejected, "cancelled"},
		{models.PaymentStatusRejected, "rejected"},
	}

	for _, tt := range pairs {
		t.Run(string(tt.local)+"_"+tt.processor, func(t *testing.T) {
			payments := newFakePaymentStore()
			markers := newFakeMarkerStore()
			processor := &fakeProcessor{getPayment: &ProcessorPayment{Status: tt.processor}}
			messenger := &fakeMessenger{}
			mirror := &fakeMirror{}

			payment := seedPendingPayment(t, payments)
			payment.Status = tt.local
			var paidAt *time.Time
			if tt.local == models.PaymentStatusApproved {
				now := time.Now().UTC()
				payment.PaidAt = &now
				paidAt = &now
			}

			wp := NewWebhookProcessor(payments, markers, processor, messenger, mirror)

			result, err := wp.ProcessPaymentNotification(ctx, "987654321", "notif-x")
			require.NoError(t, err)
			require.True(t, result.Processed)
			require.False(t, result.Updated)
			require.Equal(t, tt.local, payment.Status)
			require.Equal(t, paidAt, payment.PaidAt)
			require.Empty(t, messenger.sent)
			require.Empty(t, mirror.updates)
		})
	}
}

