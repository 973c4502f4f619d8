// internal/store/memstore/memstore.go
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"logiledger-api-server/internal/models"
	"logiledger-api-server/internal/store"
)

// Store keeps every collection in process memory behind a single lock.
// It is constructed explicitly at start-up and lives until the process exits.
type Store struct {
	mu           sync.RWMutex
	users        map[primitive.ObjectID]models.User
	consignments map[primitive.ObjectID]models.Consignment
	bids         map[primitive.ObjectID]models.Bid
	jobs         map[primitive.ObjectID]models.Job
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		users:        make(map[primitive.ObjectID]models.User),
		consignments: make(map[primitive.ObjectID]models.Consignment),
		bids:         make(map[primitive.ObjectID]models.Bid),
		jobs:         make(map[primitive.ObjectID]models.Job),
	}
}

func (s *Store) Users() store.UserRepository               { return userRepo{s} }
func (s *Store) Consignments() store.ConsignmentRepository { return consignmentRepo{s} }
func (s *Store) Bids() store.BidRepository                 { return bidRepo{s} }
func (s *Store) Jobs() store.JobRepository                 { return jobRepo{s} }

func (s *Store) Close(context.Context) error { return nil }

func (s *Store) PlaceBid(_ context.Context, bid *models.Bid) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.consignments[bid.ConsignmentID]
	if !ok {
		return store.ErrNotFound
	}
	if c.Status != models.ConsignmentOpen {
		return store.ErrConflict
	}
	for _, b := range s.bids {
		if b.ConsignmentID == bid.ConsignmentID && b.BidderID == bid.BidderID {
			return store.ErrDuplicate
		}
	}

	if bid.ID.IsZero() {
		bid.ID = primitive.NewObjectID()
	}
	s.bids[bid.ID] = *bid

	c.BidCount++
	c.UpdatedAt = bid.CreatedAt
	s.consignments[c.ID] = c
	return nil
}

func (s *Store) AwardBid(_ context.Context, bidID primitive.ObjectID, at time.Time) (*store.AwardResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bid, ok := s.bids[bidID]
	if !ok {
		return nil, store.ErrNotFound
	}
	c, ok := s.consignments[bid.ConsignmentID]
	if !ok {
		return nil, store.ErrNotFound
	}
	if c.Status != models.ConsignmentOpen {
		return nil, store.ErrConflict
	}

	awardedAt := at
	bid.Status = models.BidAwarded
	bid.AwardedAt = &awardedAt
	bid.UpdatedAt = at
	s.bids[bid.ID] = bid

	c.Status = models.ConsignmentAwarded
	c.AwardedBidID = &bid.ID
	c.AwardedTo = &bid.BidderID
	c.AwardedAmount = bid.Amount
	c.AwardedAt = &awardedAt
	c.UpdatedAt = at
	s.consignments[c.ID] = c

	result := &store.AwardResult{Bid: bid, Consignment: c}
	for id, sibling := range s.bids {
		if sibling.ConsignmentID != c.ID || id == bid.ID {
			continue
		}
		sibling.Status = models.BidRejected
		sibling.UpdatedAt = at
		s.bids[id] = sibling
		result.Rejected = append(result.Rejected, sibling)
	}
	return result, nil
}

func (s *Store) AdvanceJob(_ context.Context, jobID primitive.ObjectID, from, to models.JobStatus, at time.Time) (*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return nil, store.ErrNotFound
	}
	if job.Status != from {
		return nil, store.ErrConflict
	}

	stamp := at
	job.Status = to
	job.UpdatedAt = at
	switch to {
	case models.JobInProgress:
		job.PickupDate = &stamp
	case models.JobCompleted:
		job.CompletedDate = &stamp
	}
	s.jobs[job.ID] = job

	if status, ok := store.ConsignmentStatusForJob(to); ok {
		if c, found := s.consignments[job.ConsignmentID]; found {
			c.Status = status
			c.UpdatedAt = at
			s.consignments[c.ID] = c
		}
	}

	out := job
	return &out, nil
}

type userRepo struct{ s *Store }

func (r userRepo) Create(_ context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return store.ErrDuplicate
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	r.s.users[user.ID] = *user
	return nil
}

func (r userRepo) GetByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (r userRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (r userRepo) Update(_ context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[user.ID]; !ok {
		return store.ErrNotFound
	}
	r.s.users[user.ID] = *user
	return nil
}

func (r userRepo) ListByRole(_ context.Context, role models.Role) ([]models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]models.User, 0)
	for _, u := range r.s.users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

type consignmentRepo struct{ s *Store }

func (r consignmentRepo) Create(_ context.Context, c *models.Consignment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	r.s.consignments[c.ID] = *c
	return nil
}

func (r consignmentRepo) GetByID(_ context.Context, id primitive.ObjectID) (*models.Consignment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.consignments[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &c, nil
}

func (r consignmentRepo) ListByCompany(_ context.Context, companyID primitive.ObjectID) ([]models.Consignment, error) {
	return r.list(func(c models.Consignment) bool { return c.CompanyID == companyID }), nil
}

func (r consignmentRepo) ListByStatus(_ context.Context, status models.ConsignmentStatus) ([]models.Consignment, error) {
	return r.list(func(c models.Consignment) bool { return c.Status == status }), nil
}

func (r consignmentRepo) list(keep func(models.Consignment) bool) []models.Consignment {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]models.Consignment, 0)
	for _, c := range r.s.consignments {
		if keep(c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return newer(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID) })
	return out
}

func (r consignmentRepo) UpdateStatus(_ context.Context, id primitive.ObjectID, from, to models.ConsignmentStatus, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.consignments[id]
	if !ok {
		return store.ErrNotFound
	}
	if c.Status != from {
		return store.ErrConflict
	}
	c.Status = to
	c.UpdatedAt = at
	r.s.consignments[id] = c
	return nil
}

type bidRepo struct{ s *Store }

func (r bidRepo) GetByID(_ context.Context, id primitive.ObjectID) (*models.Bid, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	b, ok := r.s.bids[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &b, nil
}

func (r bidRepo) FindByConsignmentAndBidder(_ context.Context, consignmentID, bidderID primitive.ObjectID) (*models.Bid, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, b := range r.s.bids {
		if b.ConsignmentID == consignmentID && b.BidderID == bidderID {
			return &b, nil
		}
	}
	return nil, store.ErrNotFound
}

func (r bidRepo) ListByBidder(_ context.Context, bidderID primitive.ObjectID) ([]models.Bid, error) {
	return r.list(func(b models.Bid) bool { return b.BidderID == bidderID }), nil
}

func (r bidRepo) ListByConsignment(_ context.Context, consignmentID primitive.ObjectID) ([]models.Bid, error) {
	return r.list(func(b models.Bid) bool { return b.ConsignmentID == consignmentID }), nil
}

func (r bidRepo) list(keep func(models.Bid) bool) []models.Bid {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]models.Bid, 0)
	for _, b := range r.s.bids {
		if keep(b) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return newer(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID) })
	return out
}

func (r bidRepo) UpdateStatus(_ context.Context, id primitive.ObjectID, from, to models.BidStatus, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	b, ok := r.s.bids[id]
	if !ok {
		return store.ErrNotFound
	}
	if b.Status != from {
		return store.ErrConflict
	}
	b.Status = to
	b.UpdatedAt = at
	r.s.bids[id] = b
	return nil
}

type jobRepo struct{ s *Store }

func (r jobRepo) Create(_ context.Context, job *models.Job) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, j := range r.s.jobs {
		if j.ConsignmentID == job.ConsignmentID && j.TransporterID == job.TransporterID {
			return store.ErrDuplicate
		}
	}
	if job.ID.IsZero() {
		job.ID = primitive.NewObjectID()
	}
	r.s.jobs[job.ID] = *job
	return nil
}

func (r jobRepo) GetByID(_ context.Context, id primitive.ObjectID) (*models.Job, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	j, ok := r.s.jobs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &j, nil
}

func (r jobRepo) FindByConsignmentAndTransporter(_ context.Context, consignmentID, transporterID primitive.ObjectID) (*models.Job, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, j := range r.s.jobs {
		if j.ConsignmentID == consignmentID && j.TransporterID == transporterID {
			return &j, nil
		}
	}
	return nil, store.ErrNotFound
}

func (r jobRepo) ListByTransporter(_ context.Context, transporterID primitive.ObjectID) ([]models.Job, error) {
	return r.list(func(j models.Job) bool { return j.TransporterID == transporterID }), nil
}

func (r jobRepo) ListByCompany(_ context.Context, companyID primitive.ObjectID) ([]models.Job, error) {
	return r.list(func(j models.Job) bool { return j.CompanyID == companyID }), nil
}

func (r jobRepo) list(keep func(models.Job) bool) []models.Job {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]models.Job, 0)
	for _, j := range r.s.jobs {
		if keep(j) {
			out = append(out, j)
		}
	}
	sort.Slice(out, func(i, j int) bool { return newer(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID) })
	return out
}

func (r jobRepo) AttachInvoice(_ context.Context, id primitive.ObjectID, invoice store.Invoice) (*models.Job, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	j, ok := r.s.jobs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	applyInvoice(&j, invoice)
	r.s.jobs[id] = j
	return &j, nil
}

func applyInvoice(j *models.Job, invoice store.Invoice) {
	uploadedAt := invoice.UploadedAt
	j.InvoiceUploaded = true
	j.InvoiceUploadedAt = &uploadedAt
	j.UpdatedAt = uploadedAt
	if invoice.Data != nil {
		j.InvoiceData = invoice.Data
	}
	if invoice.Number != "" {
		j.InvoiceNumber = invoice.Number
	}
	if invoice.Amount > 0 {
		j.InvoiceAmount = invoice.Amount
	}
	if invoice.File != "" {
		j.InvoiceFile = invoice.File
	}
}

// newer orders by creation time descending, falling back to the ObjectID so
// documents created within the same instant still have a stable order.
func newer(a, b time.Time, idA, idB primitive.ObjectID) bool {
	if !a.Equal(b) {
		return a.After(b)
	}
	return idA.Hex() > idB.Hex()
}
