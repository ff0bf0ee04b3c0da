package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"lexledger/internal/models"
)

// SyncResult is what one pass of the client sync produced. Nothing is
// written here; the reconcile run folds it into the apply batch.
type SyncResult struct {
	NewClients          []*models.Client
	ProcessedPaymentIDs []string
	PaymentsProcessed   int
	DuplicateSkips      int
	Gaps                []ReferenceGap
}

// SyncService reconciles new COMPLETED payments against the client
// set. Idempotence comes from the persisted processed-payment-id set,
// never from recomputing a running total: a payment id seen before is
// skipped outright.
type SyncService struct{}

func NewSyncService() *SyncService {
	return &SyncService{}
}

func (s *SyncService) Sync(snap *models.Snapshot, idx *ReferenceIndex, now time.Time) *SyncResult {
	res := &SyncResult{}
	for _, p := range snap.Payments {
		if p.Status != models.PaymentStatusCompleted {
			continue
		}
		if snap.ProcessedPaymentIDs[p.ID] {
			res.DuplicateSkips++
			continue
		}
		email := strings.TrimSpace(p.ClientEmail)
		if email == "" {
			res.Gaps = append(res.Gaps, ReferenceGap{
				Kind:   GapEmptyEmail,
				Ref:    p.ID,
				Detail: fmt.Sprintf("payment %s has no client email", p.ID),
			})
			continue
		}
		if _, ok := idx.ClientByEmail(email); !ok {
			c := newClientFromPayment(p, now)
			idx.AddClient(c)
			res.NewClients = append(res.NewClients, c)
		}
		res.ProcessedPaymentIDs = append(res.ProcessedPaymentIDs, p.ID)
		res.PaymentsProcessed++
	}
	return res
}

// newClientFromPayment creates the ACTIVE client record for a first
// payment from an unseen email. The target balance is left blank so
// the balance engine applies the default heuristic.
func newClientFromPayment(p *models.Payment, now time.Time) *models.Client {
	return &models.Client{
		ID:          uuid.NewString(),
		Email:       strings.TrimSpace(p.ClientEmail),
		Name:        nameFromEmail(p.ClientEmail),
		Status:      models.ClientStatusActive,
		LastUpdated: now,
	}
}

// nameFromEmail derives a placeholder display name until the firm
// fills one in on the client ledger.
func nameFromEmail(email string) string {
	local := strings.TrimSpace(email)
	if i := strings.IndexByte(local, '@'); i > 0 {
		local = local[:i]
	}
	local = strings.NewReplacer(".", " ", "_", " ", "-", " ").Replace(local)
	words := strings.Fields(local)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
