package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/require"

	"logiledger-api-server/internal/events"
	"logiledger-api-server/internal/models"
	"logiledger-api-server/internal/store/memstore"
)

var testNow = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(_ context.Context, ev events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) ofType(t string) []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.Event
	for _, ev := range r.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

type fixture struct {
	store  *memstore.Store
	events *recorder
	svc    *Services
}

func newFixture(t *testing.T, files FileStore) *fixture {
	t.Helper()
	st := memstore.New()
	rec := &recorder{}
	svc := New(Options{
		Store:  st,
		Events: rec,
		Now:    func() time.Time { return testNow },
	}, AccountConfig{JWTSecret: "test-secret", JWTExpiration: time.Hour}, files)
	return &fixture{store: st, events: rec, svc: svc}
}

func (f *fixture) register(t *testing.T, role models.Role, loc string) *models.User {
	t.Helper()
	in := RegisterInput{
		Name:        gofakeit.Name(),
		Email:       gofakeit.Email(),
		Password:    gofakeit.Password(true, true, true, false, false, 12),
		UserType:    string(role),
		CompanyName: gofakeit.Company(),
		Phone:       gofakeit.Phone(),
	}
	if loc != "" {
		in.Location = models.LocationInput{Text: loc}
	}
	user, _, err := f.svc.Accounts.Register(context.Background(), in)
	require.NoError(t, err)
	return user
}

func (f *fixture) consignment(t *testing.T, company *models.User, origin string, budget float64) *models.Consignment {
	t.Helper()
	c, _, err := f.svc.Consignments.Create(context.Background(), company, CreateConsignmentInput{
		Title:       gofakeit.ProductName(),
		Description: gofakeit.Sentence(8),
		GoodsType:   string(models.GoodsMachinery),
		Origin:      models.LocationInput{Text: origin},
		Destination: models.LocationInput{Text: "Delhi, Delhi"},
		Weight:      1500,
		Budget:      budget,
		Deadline:    "2025-03-20",
	})
	require.NoError(t, err)
	return c
}

func (f *fixture) bid(t *testing.T, msme *models.User, c *models.Consignment, amount float64) *models.Bid {
	t.Helper()
	b, err := f.svc.Bids.Create(context.Background(), msme, CreateBidInput{
		ConsignmentID:     c.ID.Hex(),
		Amount:            amount,
		EstimatedDelivery: "2025-03-15",
	})
	require.NoError(t, err)
	return b
}
