package services

import (
	"testing"

	"lexledger/internal/models"
)

func TestSyncCreatesClientForUnseenEmail(t *testing.T) {
	snap := emptySnapshot()
	snap.Payments = []*models.Payment{
		payment("p1", "client@x.com", "500", models.PaymentStatusCompleted, day(t, "2026-03-01")),
	}
	idx := BuildReferenceIndex(snap)

	res := NewSyncService().Sync(snap, idx, day(t, "2026-03-02"))

	if len(res.NewClients) != 1 {
		t.Fatalf("NewClients = %d, want 1", len(res.NewClients))
	}
	c := res.NewClients[0]
	if c.Email != "client@x.com" {
		t.Errorf("Email = %q", c.Email)
	}
	if c.Status != models.ClientStatusActive {
		t.Errorf("Status = %q, want ACTIVE", c.Status)
	}
	if c.TargetBalance != nil {
		t.Error("TargetBalance should be blank so the default heuristic applies")
	}
	if c.ID == "" {
		t.Error("client must get a generated id")
	}
	if res.PaymentsProcessed != 1 {
		t.Errorf("PaymentsProcessed = %d, want 1", res.PaymentsProcessed)
	}
	if got, ok := idx.ClientByEmail("CLIENT@X.COM"); !ok || got != c {
		t.Error("new client should be resolvable through the index, case-insensitively")
	}
}

func TestSyncAttributesToExistingClient(t *testing.T) {
	snap := emptySnapshot()
	snap.Clients = []*models.Client{client("c1", "Client@X.com", nil)}
	snap.Payments = []*models.Payment{
		payment("p1", "client@x.com", "500", models.PaymentStatusCompleted, day(t, "2026-03-01")),
	}
	idx := BuildReferenceIndex(snap)

	res := NewSyncService().Sync(snap, idx, day(t, "2026-03-02"))
	if len(res.NewClients) != 0 {
		t.Fatalf("NewClients = %d, want 0 for a known email", len(res.NewClients))
	}
	if res.PaymentsProcessed != 1 {
		t.Errorf("PaymentsProcessed = %d, want 1", res.PaymentsProcessed)
	}
}

func TestSyncIdempotentOverProcessedSet(t *testing.T) {
	snap := emptySnapshot()
	snap.Payments = []*models.Payment{
		payment("p1", "a@x.com", "500", models.PaymentStatusCompleted, day(t, "2026-03-01")),
		payment("p2", "b@x.com", "900", models.PaymentStatusCompleted, day(t, "2026-03-01")),
	}
	idx := BuildReferenceIndex(snap)
	svc := NewSyncService()

	first := svc.Sync(snap, idx, day(t, "2026-03-02"))
	if first.PaymentsProcessed != 2 || len(first.NewClients) != 2 {
		t.Fatalf("first pass: processed %d, new clients %d", first.PaymentsProcessed, len(first.NewClients))
	}

	// Persist the processed set and the created clients, as a run would.
	for _, id := range first.ProcessedPaymentIDs {
		snap.ProcessedPaymentIDs[id] = true
	}
	snap.Clients = append(snap.Clients, first.NewClients...)

	second := svc.Sync(snap, BuildReferenceIndex(snap), day(t, "2026-03-03"))
	if second.PaymentsProcessed != 0 {
		t.Errorf("second pass processed %d payments, want 0", second.PaymentsProcessed)
	}
	if len(second.NewClients) != 0 {
		t.Errorf("second pass created %d clients, want 0", len(second.NewClients))
	}
	if second.DuplicateSkips != 2 {
		t.Errorf("DuplicateSkips = %d, want 2", second.DuplicateSkips)
	}
}

func TestSyncSkipsNonCompletedAndFlagsEmptyEmail(t *testing.T) {
	snap := emptySnapshot()
	snap.Payments = []*models.Payment{
		payment("p1", "a@x.com", "100", models.PaymentStatusPending, day(t, "2026-03-01")),
		payment("p2", "", "100", models.PaymentStatusCompleted, day(t, "2026-03-01")),
	}
	res := NewSyncService().Sync(snap, BuildReferenceIndex(snap), day(t, "2026-03-02"))

	if res.PaymentsProcessed != 0 {
		t.Errorf("PaymentsProcessed = %d, want 0", res.PaymentsProcessed)
	}
	if len(res.Gaps) != 1 || res.Gaps[0].Kind != GapEmptyEmail {
		t.Errorf("gaps = %v, want one EMPTY_PAYMENT_EMAIL flag", res.Gaps)
	}
	if len(res.ProcessedPaymentIDs) != 0 {
		t.Errorf("ProcessedPaymentIDs = %v, want none", res.ProcessedPaymentIDs)
	}
}

func TestNameFromEmail(t *testing.T) {
	tests := []struct{ in, want string }{
		{"jane.doe@x.com", "Jane Doe"},
		{"sam_smith@firm.io", "Sam Smith"},
		{"solo@x.com", "Solo"},
	}
	for _, tt := range tests {
		if got := nameFromEmail(tt.in); got != tt.want {
			t.Errorf("nameFromEmail(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
