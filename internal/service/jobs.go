// internal/service/jobs.go
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/sirupsen/logrus"

	"logiledger-api-server/internal/events"
	"logiledger-api-server/internal/models"
	"logiledger-api-server/internal/store"
)

// FileStore keeps invoice documents; s3.Uploader satisfies it.
type FileStore interface {
	UploadFile(ctx context.Context, file io.Reader, objectKey, contentType string) (string, error)
}

type JobService struct {
	opts  Options
	files FileStore
}

func NewJobService(opts Options, files FileStore) *JobService {
	return &JobService{opts: opts.withDefaults(), files: files}
}

const trackingAlphabet = "0123456789ABCDEFGHJKLMNPQRSTUVWXYZ"

func newTrackingNumber() (string, error) {
	id, err := gonanoid.Generate(trackingAlphabet, 10)
	if err != nil {
		return "", err
	}
	return "LL" + id, nil
}

// initialJobStatus derives the starting status of a synthesized job from its consignment.
func initialJobStatus(c models.ConsignmentStatus) models.JobStatus {
	switch c {
	case models.ConsignmentInProgress:
		return models.JobInProgress
	case models.ConsignmentCompleted:
		return models.JobCompleted
	case models.ConsignmentCancelled:
		return models.JobCancelled
	default:
		return models.JobAssigned
	}
}

// ListAwarded returns one job per awarded bid of the caller, materializing
// jobs that do not exist yet.
func (s *JobService) ListAwarded(ctx context.Context, actor *models.User) ([]models.Job, error) {
	if err := requireRole(actor, models.RoleMSME, "Only MSMEs can view their awarded jobs"); err != nil {
		return nil, err
	}
	bids, err := s.opts.Store.Bids().ListByBidder(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("list bids: %w", err)
	}

	jobs := make([]models.Job, 0)
	for i := range bids {
		if bids[i].Status != models.BidAwarded {
			continue
		}
		job, err := s.materialize(ctx, actor, &bids[i])
		if err != nil {
			return nil, err
		}
		if job != nil {
			jobs = append(jobs, *job)
		}
	}
	return jobs, nil
}

func (s *JobService) materialize(ctx context.Context, actor *models.User, bid *models.Bid) (*models.Job, error) {
	jobs := s.opts.Store.Jobs()

	existing, err := jobs.FindByConsignmentAndTransporter(ctx, bid.ConsignmentID, actor.ID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("find job: %w", err)
	}

	c, err := s.opts.Store.Consignments().GetByID(ctx, bid.ConsignmentID)
	if errors.Is(err, store.ErrNotFound) {
		logrus.WithField("bidId", bid.ID.Hex()).Warn("Awarded bid references a missing consignment")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find consignment: %w", err)
	}

	tracking, err := newTrackingNumber()
	if err != nil {
		return nil, fmt.Errorf("generate tracking number: %w", err)
	}

	now := s.opts.Now()
	job := &models.Job{
		ConsignmentID:     c.ID,
		BidID:             bid.ID,
		ConsignmentTitle:  c.Title,
		CompanyID:         c.CompanyID,
		CompanyName:       c.CompanyName,
		TransporterID:     actor.ID,
		TransporterName:   actor.Name,
		Origin:            c.Origin,
		Destination:       c.Destination,
		Amount:            bid.Amount,
		Deadline:          c.Deadline,
		EstimatedDelivery: bid.EstimatedDelivery,
		Status:            initialJobStatus(c.Status),
		TrackingNumber:    tracking,
		AwardedDate:       bid.AwardedAt,
		PaymentStatus:     models.PaymentPending,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := jobs.Create(ctx, job); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			// Materialized concurrently by another request.
			return jobs.FindByConsignmentAndTransporter(ctx, bid.ConsignmentID, actor.ID)
		}
		return nil, fmt.Errorf("create job: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"jobId":          job.ID.Hex(),
		"consignmentId":  c.ID.Hex(),
		"trackingNumber": tracking,
	}).Info("Job materialized")
	return job, nil
}

var jobStatusVocabulary = map[models.JobStatus]bool{
	models.JobAwarded:    true,
	models.JobInProgress: true,
	models.JobCompleted:  true,
}

// nextJobStatus is the only status each state may move to.
var nextJobStatus = map[models.JobStatus]models.JobStatus{
	models.JobAssigned:   models.JobInProgress,
	models.JobAwarded:    models.JobInProgress,
	models.JobInProgress: models.JobCompleted,
}

func (s *JobService) owned(ctx context.Context, actor *models.User, rawJobID string) (*models.Job, error) {
	if actor == nil {
		return nil, unauthenticated("Authentication required")
	}
	id, err := parseID(rawJobID, "Job")
	if err != nil {
		return nil, err
	}
	job, err := s.opts.Store.Jobs().GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "Job", "find job")
	}
	if job.TransporterID != actor.ID {
		return nil, forbidden("Access denied")
	}
	return job, nil
}

// UpdateStatus advances a job one stage: assigned/awarded -> in_progress -> completed.
func (s *JobService) UpdateStatus(ctx context.Context, actor *models.User, rawJobID, status string) (*models.Job, error) {
	job, err := s.owned(ctx, actor, rawJobID)
	if err != nil {
		return nil, err
	}

	next := models.JobStatus(status)
	if !jobStatusVocabulary[next] {
		return nil, validation("Invalid status")
	}
	if allowed, ok := nextJobStatus[job.Status]; !ok || allowed != next {
		switch job.Status {
		case models.JobAssigned, models.JobAwarded:
			return nil, validation("Awarded jobs can only be moved to in_progress")
		case models.JobInProgress:
			return nil, validation("In progress jobs can only be completed")
		default:
			return nil, validation("Job status cannot change from %s", job.Status)
		}
	}

	updated, err := s.opts.Store.AdvanceJob(ctx, job.ID, job.Status, next, s.opts.Now())
	if err != nil {
		return nil, storeErr(err, "Job", "advance job")
	}

	logrus.WithFields(logrus.Fields{"jobId": rawJobID, "from": job.Status, "to": next}).Info("Job status updated")
	publish(ctx, s.opts.Events, events.New(events.JobStatusChanged, updated, updated.CompanyID.Hex()))
	return updated, nil
}

// UploadInvoice stores the invoice payload as given. Invoice number and amount
// are lifted into their own fields when present.
func (s *JobService) UploadInvoice(ctx context.Context, actor *models.User, rawJobID string, data map[string]interface{}) (*models.Job, error) {
	job, err := s.owned(ctx, actor, rawJobID)
	if err != nil {
		return nil, err
	}

	invoice := store.Invoice{
		Data:       data,
		Number:     stringField(data, "invoiceNumber"),
		Amount:     numberField(data, "invoiceAmount", "amount", "totalAmount"),
		UploadedAt: s.opts.Now(),
	}
	updated, err := s.opts.Store.Jobs().AttachInvoice(ctx, job.ID, invoice)
	if err != nil {
		return nil, storeErr(err, "Job", "attach invoice")
	}
	return updated, nil
}

// AttachInvoiceFile uploads an invoice document and records its URL on the job.
func (s *JobService) AttachInvoiceFile(ctx context.Context, actor *models.User, rawJobID, filename, contentType string, file io.Reader) (*models.Job, error) {
	job, err := s.owned(ctx, actor, rawJobID)
	if err != nil {
		return nil, err
	}
	if s.files == nil {
		return nil, unavailable("Invoice file storage is not configured")
	}

	key := fmt.Sprintf("invoices/%s/%s%s", job.ID.Hex(), uuid.NewString(), strings.ToLower(path.Ext(filename)))
	url, err := s.files.UploadFile(ctx, file, key, contentType)
	if err != nil {
		return nil, fmt.Errorf("upload invoice file: %w", err)
	}

	updated, err := s.opts.Store.Jobs().AttachInvoice(ctx, job.ID, store.Invoice{File: url, UploadedAt: s.opts.Now()})
	if err != nil {
		return nil, storeErr(err, "Job", "attach invoice file")
	}
	logrus.WithFields(logrus.Fields{"jobId": rawJobID, "url": url}).Info("Invoice file uploaded")
	return updated, nil
}

func (s *JobService) ListForCompany(ctx context.Context, actor *models.User) ([]models.Job, error) {
	if err := requireRole(actor, models.RoleCompany, "Only companies can view their jobs"); err != nil {
		return nil, err
	}
	jobs, err := s.opts.Store.Jobs().ListByCompany(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("list company jobs: %w", err)
	}
	return jobs, nil
}

func stringField(data map[string]interface{}, key string) string {
	if v, ok := data[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func numberField(data map[string]interface{}, keys ...string) float64 {
	for _, key := range keys {
		switch v := data[key].(type) {
		case float64:
			return v
		case int:
			return float64(v)
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				return f
			}
		}
	}
	return 0
}
