package services

import (
	"strings"

	"github.com/shopspring/decimal"

	"lexledger/internal/models"
)

// Gap kinds surfaced in the digest. A gap never drops a record
// silently: the affected record is excluded from the math and the gap
// is reported.
const (
	GapUnknownLawyer = "UNKNOWN_LAWYER"
	GapUnknownClient = "UNKNOWN_CLIENT"
	GapUnknownMatter = "UNKNOWN_MATTER"
	GapEmptyEmail    = "EMPTY_PAYMENT_EMAIL"
)

// ReferenceGap flags a record referencing missing reference data.
type ReferenceGap struct {
	Kind   string `json:"kind"`
	Ref    string `json:"ref"`
	Detail string `json:"detail"`
}

// ReferenceIndex holds the lookup structures one run's computations
// share. Client emails are matched case-insensitively.
type ReferenceIndex struct {
	LawyerRates    map[string]decimal.Decimal
	LawyerEmails   map[string]string
	ClientsByID    map[string]*models.Client
	ClientsByEmail map[string]*models.Client
	MatterClients  map[string]string
}

func BuildReferenceIndex(snap *models.Snapshot) *ReferenceIndex {
	idx := &ReferenceIndex{
		LawyerRates:    make(map[string]decimal.Decimal, len(snap.Lawyers)),
		LawyerEmails:   make(map[string]string, len(snap.Lawyers)),
		ClientsByID:    make(map[string]*models.Client, len(snap.Clients)),
		ClientsByEmail: make(map[string]*models.Client, len(snap.Clients)),
		MatterClients:  make(map[string]string, len(snap.Matters)),
	}
	for _, l := range snap.Lawyers {
		if l.ID == "" {
			continue
		}
		idx.LawyerRates[l.ID] = l.Rate.Round(2)
		if l.Email != "" {
			idx.LawyerEmails[l.ID] = l.Email
		}
	}
	for _, c := range snap.Clients {
		if c.ID == "" {
			continue
		}
		idx.ClientsByID[c.ID] = c
		if c.Email != "" {
			idx.ClientsByEmail[normalizeEmail(c.Email)] = c
		}
	}
	for _, m := range snap.Matters {
		if m.ID == "" {
			continue
		}
		idx.MatterClients[m.ID] = m.ClientID
	}
	return idx
}

// AddClient registers a client created mid-run so later lookups in the
// same run resolve it.
func (idx *ReferenceIndex) AddClient(c *models.Client) {
	idx.ClientsByID[c.ID] = c
	if c.Email != "" {
		idx.ClientsByEmail[normalizeEmail(c.Email)] = c
	}
}

func (idx *ReferenceIndex) ClientByEmail(email string) (*models.Client, bool) {
	c, ok := idx.ClientsByEmail[normalizeEmail(email)]
	return c, ok
}

// EntryClientID resolves the client a time entry bills to, preferring
// the matter's owner over the entry's own client column.
func (idx *ReferenceIndex) EntryClientID(e *models.TimeEntry) (string, bool) {
	if e.MatterID != "" {
		if clientID, ok := idx.MatterClients[e.MatterID]; ok && clientID != "" {
			return clientID, true
		}
	}
	if e.ClientID != "" {
		if _, ok := idx.ClientsByID[e.ClientID]; ok {
			return e.ClientID, true
		}
	}
	return "", false
}

// MaxActiveRate returns the highest hourly rate among active lawyers,
// the implicit minimum-retainer heuristic for clients without an
// explicit target.
func (idx *ReferenceIndex) MaxActiveRate(lawyers []*models.Lawyer) decimal.Decimal {
	max := decimal.Zero
	for _, l := range lawyers {
		if l.Status != models.LawyerStatusActive {
			continue
		}
		if r := l.Rate.Round(2); r.GreaterThan(max) {
			max = r
		}
	}
	return max
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
