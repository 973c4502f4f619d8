// internal/service/bids.go
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"logiledger-api-server/internal/events"
	"logiledger-api-server/internal/models"
	"logiledger-api-server/internal/store"
)

type BidService struct {
	opts Options
}

func NewBidService(opts Options) *BidService {
	return &BidService{opts: opts.withDefaults()}
}

type CreateBidInput struct {
	ConsignmentID         string
	Amount                float64
	EstimatedDelivery     string
	EstimatedDeliveryTime int
	Message               string
	VehicleType           string
	VehicleCapacity       float64
	Insurance             bool
	Tracking              bool
	SpecialConditions     string
}

// Create places a pending bid. The consignment must be open, the bidder may
// bid once per consignment, and neither the budget nor the deadline may be exceeded.
func (s *BidService) Create(ctx context.Context, actor *models.User, in CreateBidInput) (*models.Bid, error) {
	if err := requireRole(actor, models.RoleMSME, "Only MSMEs can place bids"); err != nil {
		return nil, err
	}

	now := s.opts.Now()
	if strings.TrimSpace(in.EstimatedDelivery) == "" && in.EstimatedDeliveryTime > 0 {
		in.EstimatedDelivery = now.AddDate(0, 0, in.EstimatedDeliveryTime).Format("2006-01-02")
	}
	if strings.TrimSpace(in.ConsignmentID) == "" || in.Amount == 0 || strings.TrimSpace(in.EstimatedDelivery) == "" {
		return nil, validation("Consignment ID, bid amount, and estimated delivery are required")
	}
	if in.Amount < 0 {
		return nil, validation("Bid amount must be positive")
	}
	estimated, ok := parseDate(in.EstimatedDelivery)
	if !ok {
		return nil, validation("Invalid estimated delivery date")
	}

	consignmentID, err := parseID(in.ConsignmentID, "Consignment")
	if err != nil {
		return nil, err
	}
	c, err := s.opts.Store.Consignments().GetByID(ctx, consignmentID)
	if err != nil {
		return nil, storeErr(err, "Consignment", "find consignment")
	}
	if c.Status != models.ConsignmentOpen {
		return nil, conflict("This consignment is no longer accepting bids")
	}

	_, err = s.opts.Store.Bids().FindByConsignmentAndBidder(ctx, consignmentID, actor.ID)
	if err == nil {
		return nil, conflict("You have already placed a bid on this consignment")
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("check existing bid: %w", err)
	}

	if in.Amount > c.Budget {
		return nil, validation("Bid amount cannot exceed the maximum budget")
	}
	if estimated.After(c.Deadline) {
		return nil, validation("Estimated delivery cannot be after the deadline")
	}

	bid := &models.Bid{
		ConsignmentID:         c.ID,
		ConsignmentTitle:      c.Title,
		BidderID:              actor.ID,
		BidderName:            actor.Name,
		BidderCompany:         actor.DisplayCompany(),
		BidderEmail:           actor.Email,
		Amount:                in.Amount,
		EstimatedDelivery:     estimated,
		EstimatedDeliveryTime: in.EstimatedDeliveryTime,
		Status:                models.BidPending,
		Message:               strings.TrimSpace(in.Message),
		VehicleType:           strings.TrimSpace(in.VehicleType),
		VehicleCapacity:       in.VehicleCapacity,
		Insurance:             in.Insurance,
		Tracking:              in.Tracking,
		SpecialConditions:     strings.TrimSpace(in.SpecialConditions),
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	switch err := s.opts.Store.PlaceBid(ctx, bid); {
	case err == nil:
	case errors.Is(err, store.ErrConflict):
		return nil, conflict("This consignment is no longer accepting bids")
	case errors.Is(err, store.ErrDuplicate):
		return nil, conflict("You have already placed a bid on this consignment")
	default:
		return nil, storeErr(err, "Consignment", "place bid")
	}

	logrus.WithFields(logrus.Fields{
		"bidId":         bid.ID.Hex(),
		"consignmentId": c.ID.Hex(),
		"bidderId":      actor.ID.Hex(),
		"amount":        bid.Amount,
	}).Info("Bid placed")

	publish(ctx, s.opts.Events, events.New(events.BidPlaced, bid, c.CompanyID.Hex()))
	return bid, nil
}

func (s *BidService) ListMine(ctx context.Context, actor *models.User) ([]models.Bid, error) {
	if err := requireRole(actor, models.RoleMSME, "Only MSMEs can view their bids"); err != nil {
		return nil, err
	}
	bids, err := s.opts.Store.Bids().ListByBidder(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("list bids: %w", err)
	}
	return bids, nil
}

func (s *BidService) ListForConsignment(ctx context.Context, actor *models.User, rawConsignmentID string) ([]models.Bid, error) {
	if err := requireRole(actor, models.RoleCompany, "Only companies can view bids for their consignments"); err != nil {
		return nil, err
	}
	consignmentID, err := parseID(rawConsignmentID, "Consignment")
	if err != nil {
		return nil, err
	}
	c, err := s.opts.Store.Consignments().GetByID(ctx, consignmentID)
	if err != nil {
		return nil, storeErr(err, "Consignment", "find consignment")
	}
	if c.CompanyID != actor.ID {
		return nil, forbidden("Access denied")
	}

	bids, err := s.opts.Store.Bids().ListByConsignment(ctx, consignmentID)
	if err != nil {
		return nil, fmt.Errorf("list consignment bids: %w", err)
	}
	return bids, nil
}

// Award makes bid the single winner of its consignment and rejects every
// competing bid in the same atomic step.
func (s *BidService) Award(ctx context.Context, actor *models.User, rawBidID string) (*store.AwardResult, error) {
	if err := requireRole(actor, models.RoleCompany, "Only companies can award bids"); err != nil {
		return nil, err
	}
	bidID, err := parseID(rawBidID, "Bid")
	if err != nil {
		return nil, err
	}
	bid, err := s.opts.Store.Bids().GetByID(ctx, bidID)
	if err != nil {
		return nil, storeErr(err, "Bid", "find bid")
	}
	c, err := s.opts.Store.Consignments().GetByID(ctx, bid.ConsignmentID)
	if err != nil {
		return nil, storeErr(err, "Consignment", "find consignment")
	}
	if c.CompanyID != actor.ID {
		return nil, forbidden("Access denied")
	}
	if c.Status != models.ConsignmentOpen {
		return nil, conflict("This consignment is no longer accepting awards")
	}

	result, err := s.opts.Store.AwardBid(ctx, bidID, s.opts.Now())
	if errors.Is(err, store.ErrConflict) {
		return nil, conflict("This consignment is no longer accepting awards")
	}
	if err != nil {
		return nil, storeErr(err, "Bid", "award bid")
	}

	logrus.WithFields(logrus.Fields{
		"bidId":         bidID.Hex(),
		"consignmentId": c.ID.Hex(),
		"awardedTo":     result.Bid.BidderID.Hex(),
		"rejected":      len(result.Rejected),
	}).Info("Bid awarded")

	publish(ctx, s.opts.Events, events.New(events.BidAwarded, result.Bid, result.Bid.BidderID.Hex()))
	for _, r := range result.Rejected {
		publish(ctx, s.opts.Events, events.New(events.BidRejected, r, r.BidderID.Hex()))
	}
	return result, nil
}

var bidStatusVocabulary = map[models.BidStatus]bool{
	models.BidPending:  true,
	models.BidAwarded:  true,
	models.BidRejected: true,
}

// UpdateStatus lets the consignment owner or the bidder change a bid's status.
// Awarding goes through Award; an awarded bid is final.
func (s *BidService) UpdateStatus(ctx context.Context, actor *models.User, rawBidID, status string) (*models.Bid, error) {
	if actor == nil {
		return nil, unauthenticated("Authentication required")
	}
	bidID, err := parseID(rawBidID, "Bid")
	if err != nil {
		return nil, err
	}
	bid, err := s.opts.Store.Bids().GetByID(ctx, bidID)
	if err != nil {
		return nil, storeErr(err, "Bid", "find bid")
	}

	switch actor.Role {
	case models.RoleCompany:
		c, err := s.opts.Store.Consignments().GetByID(ctx, bid.ConsignmentID)
		if err != nil {
			return nil, storeErr(err, "Consignment", "find consignment")
		}
		if c.CompanyID != actor.ID {
			return nil, forbidden("Access denied")
		}
	case models.RoleMSME:
		if bid.BidderID != actor.ID {
			return nil, forbidden("Access denied")
		}
	default:
		return nil, forbidden("Access denied")
	}

	next := models.BidStatus(status)
	if !bidStatusVocabulary[next] {
		return nil, validation("Invalid status")
	}
	if next == models.BidAwarded {
		if actor.Role != models.RoleCompany {
			return nil, forbidden("Only companies can award bids")
		}
		result, err := s.Award(ctx, actor, rawBidID)
		if err != nil {
			return nil, err
		}
		return &result.Bid, nil
	}
	if bid.Status == models.BidAwarded {
		return nil, conflict("An awarded bid cannot change status")
	}
	if bid.Status == next {
		return bid, nil
	}

	if err := s.opts.Store.Bids().UpdateStatus(ctx, bidID, bid.Status, next, s.opts.Now()); err != nil {
		return nil, storeErr(err, "Bid", "update bid status")
	}
	updated, err := s.opts.Store.Bids().GetByID(ctx, bidID)
	if err != nil {
		return nil, storeErr(err, "Bid", "reload bid")
	}
	return updated, nil
}
