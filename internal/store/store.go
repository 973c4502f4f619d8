// internal/store/store.go
package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"logiledger-api-server/internal/models"
)

var (
	ErrNotFound  = errors.New("store: not found")
	ErrDuplicate = errors.New("store: duplicate")
	// ErrConflict means a conditional write found the document in a different state.
	ErrConflict = errors.New("store: conflict")
)

type UserRepository interface {
	// Create fails with ErrDuplicate when the email is taken.
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	ListByRole(ctx context.Context, role models.Role) ([]models.User, error)
}

type ConsignmentRepository interface {
	Create(ctx context.Context, c *models.Consignment) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Consignment, error)
	// ListByCompany and ListByStatus return newest first.
	ListByCompany(ctx context.Context, companyID primitive.ObjectID) ([]models.Consignment, error)
	ListByStatus(ctx context.Context, status models.ConsignmentStatus) ([]models.Consignment, error)
	// UpdateStatus only applies while the consignment is still in status from.
	UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to models.ConsignmentStatus, at time.Time) error
}

type BidRepository interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Bid, error)
	FindByConsignmentAndBidder(ctx context.Context, consignmentID, bidderID primitive.ObjectID) (*models.Bid, error)
	ListByBidder(ctx context.Context, bidderID primitive.ObjectID) ([]models.Bid, error)
	ListByConsignment(ctx context.Context, consignmentID primitive.ObjectID) ([]models.Bid, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to models.BidStatus, at time.Time) error
}

type JobRepository interface {
	// Create fails with ErrDuplicate when a job already exists for the
	// (consignmentId, transporterId) pair.
	Create(ctx context.Context, job *models.Job) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Job, error)
	FindByConsignmentAndTransporter(ctx context.Context, consignmentID, transporterID primitive.ObjectID) (*models.Job, error)
	ListByTransporter(ctx context.Context, transporterID primitive.ObjectID) ([]models.Job, error)
	ListByCompany(ctx context.Context, companyID primitive.ObjectID) ([]models.Job, error)
	AttachInvoice(ctx context.Context, id primitive.ObjectID, invoice Invoice) (*models.Job, error)
}

// Invoice is the set of fields written when an invoice is attached to a job.
type Invoice struct {
	Data       map[string]interface{}
	Number     string
	Amount     float64
	File       string
	UploadedAt time.Time
}

// AwardResult describes the documents touched by a successful award.
type AwardResult struct {
	Bid         models.Bid
	Consignment models.Consignment
	Rejected    []models.Bid
}

// Store is the persistence boundary. Operations that touch more than one
// document are methods on Store so each backend can make them atomic.
type Store interface {
	Users() UserRepository
	Consignments() ConsignmentRepository
	Bids() BidRepository
	Jobs() JobRepository

	// PlaceBid inserts a pending bid and increments the consignment's bidCount.
	// It fails with ErrConflict if the consignment is no longer open and with
	// ErrDuplicate if the bidder already has a bid on it.
	PlaceBid(ctx context.Context, bid *models.Bid) error

	// AwardBid moves the consignment from open to awarded, marks the bid
	// awarded and rejects every sibling bid. It fails with ErrConflict when the
	// consignment is not open, so at most one bid per consignment is ever awarded.
	AwardBid(ctx context.Context, bidID primitive.ObjectID, at time.Time) (*AwardResult, error)

	// AdvanceJob moves a job from one status to the next and mirrors the new
	// status onto the parent consignment.
	AdvanceJob(ctx context.Context, jobID primitive.ObjectID, from, to models.JobStatus, at time.Time) (*models.Job, error)

	Close(ctx context.Context) error
}

// ConsignmentStatusForJob maps a job status onto the consignment it belongs to.
func ConsignmentStatusForJob(s models.JobStatus) (models.ConsignmentStatus, bool) {
	switch s {
	case models.JobInProgress:
		return models.ConsignmentInProgress, true
	case models.JobCompleted:
		return models.ConsignmentCompleted, true
	case models.JobCancelled:
		return models.ConsignmentCancelled, true
	case models.JobAssigned, models.JobAwarded:
		return models.ConsignmentAwarded, true
	default:
		return "", false
	}
}
