// internal/service/service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"logiledger-api-server/internal/events"
	"logiledger-api-server/internal/location"
	"logiledger-api-server/internal/models"
	"logiledger-api-server/internal/store"
)

// Options carries the collaborators shared by every service.
type Options struct {
	Store           store.Store
	Events          events.Publisher
	RadiusKm        float64
	PartnerRadiusKm float64
	Now             func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Events == nil {
		o.Events = events.Noop{}
	}
	if o.RadiusKm <= 0 {
		o.RadiusKm = location.DefaultRadiusKm
	}
	if o.PartnerRadiusKm <= 0 {
		o.PartnerRadiusKm = 100
	}
	if o.Now == nil {
		o.Now = func() time.Time { return time.Now().UTC() }
	}
	return o
}

// Services groups the lifecycle managers built from one set of Options.
type Services struct {
	Accounts     *AccountService
	Consignments *ConsignmentService
	Bids         *BidService
	Jobs         *JobService
}

func New(opts Options, accounts AccountConfig, files FileStore) *Services {
	opts = opts.withDefaults()
	consignments := &ConsignmentService{opts: opts}
	bids := &BidService{opts: opts}
	return &Services{
		Accounts:     NewAccountService(opts, accounts),
		Consignments: consignments,
		Bids:         bids,
		Jobs:         &JobService{opts: opts, files: files},
	}
}

func parseID(raw, what string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(raw))
	if err != nil {
		return primitive.NilObjectID, notFound("%s not found", what)
	}
	return id, nil
}

// storeErr turns a store sentinel into a business error; anything else is
// wrapped as unexpected.
func storeErr(err error, what, op string) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return notFound("%s not found", what)
	case errors.Is(err, store.ErrConflict):
		return conflict("%s was modified by another request", what)
	case errors.Is(err, store.ErrDuplicate):
		return conflict("%s already exists", what)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"}

func parseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func requireRole(actor *models.User, role models.Role, message string) error {
	if actor == nil {
		return unauthenticated("Authentication required")
	}
	if actor.Role != role {
		return forbidden("%s", message)
	}
	return nil
}

func publish(ctx context.Context, p events.Publisher, ev events.Event) {
	if err := p.Publish(ctx, ev); err != nil {
		logrus.WithError(err).WithField("event", ev.Type).Warn("Failed to publish event")
	}
}

func hexIDs(users []models.User) []string {
	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID.Hex())
	}
	return ids
}
