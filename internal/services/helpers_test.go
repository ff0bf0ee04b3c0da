package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"lexledger/internal/models"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal literal %q: %v", s, err)
	}
	return d
}

func decPtr(t *testing.T, s string) *decimal.Decimal {
	t.Helper()
	d := dec(t, s)
	return &d
}

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("bad date literal %q: %v", s, err)
	}
	return d
}

func client(id, email string, target *decimal.Decimal) *models.Client {
	return &models.Client{
		ID:            id,
		Email:         email,
		Name:          id,
		TargetBalance: target,
		Status:        models.ClientStatusActive,
	}
}

func lawyer(id, email, rate, status string) *models.Lawyer {
	return &models.Lawyer{
		ID:     id,
		Name:   id,
		Email:  email,
		Rate:   decimal.RequireFromString(rate),
		Status: status,
	}
}

func payment(id, email, amount, status string, date time.Time) *models.Payment {
	return &models.Payment{
		ID:          id,
		ClientEmail: email,
		Amount:      decimal.RequireFromString(amount),
		Currency:    "USD",
		Date:        date,
		Status:      status,
	}
}

func entry(id int64, date time.Time, clientID, matterID, lawyerID, hours string) *models.TimeEntry {
	return &models.TimeEntry{
		ID:       id,
		Date:     date,
		ClientID: clientID,
		MatterID: matterID,
		LawyerID: lawyerID,
		Hours:    decimal.RequireFromString(hours),
	}
}

func matter(id, clientID string) *models.Matter {
	return &models.Matter{ID: id, ClientID: clientID, Status: "OPEN"}
}

func emptySnapshot() *models.Snapshot {
	return &models.Snapshot{ProcessedPaymentIDs: map[string]bool{}}
}

func balanceFor(t *testing.T, balances []models.ClientBalance, clientID string) models.ClientBalance {
	t.Helper()
	for _, b := range balances {
		if b.ClientID == clientID {
			return b
		}
	}
	t.Fatalf("no balance computed for client %q", clientID)
	return models.ClientBalance{}
}
