// internal/service/consignments.go
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"logiledger-api-server/internal/events"
	"logiledger-api-server/internal/location"
	"logiledger-api-server/internal/models"
)

type ConsignmentService struct {
	opts Options
}

func NewConsignmentService(opts Options) *ConsignmentService {
	return &ConsignmentService{opts: opts.withDefaults()}
}

type CreateConsignmentInput struct {
	Title               string
	Description         string
	GoodsType           string
	Origin              models.LocationInput
	Destination         models.LocationInput
	Weight              float64
	Budget              float64
	Deadline            string
	SpecialRequirements string
}

// Create stores a new open consignment and reports how many MSMEs currently
// match its origin.
func (s *ConsignmentService) Create(ctx context.Context, actor *models.User, in CreateConsignmentInput) (*models.Consignment, int, error) {
	if err := requireRole(actor, models.RoleCompany, "Only companies can create consignments"); err != nil {
		return nil, 0, err
	}

	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" || in.Origin.IsZero() || in.Destination.IsZero() || in.GoodsType == "" ||
		in.Weight == 0 || in.Deadline == "" || in.Budget == 0 {
		return nil, 0, validation("All required fields must be provided")
	}
	goods := models.GoodsType(in.GoodsType)
	if !models.ValidGoodsType(goods) {
		return nil, 0, validation("Invalid goods type")
	}
	if in.Weight < 0 || in.Budget < 0 {
		return nil, 0, validation("Weight and budget must be positive")
	}
	deadline, ok := parseDate(in.Deadline)
	if !ok {
		return nil, 0, validation("Invalid deadline")
	}

	origin := location.Resolve(in.Origin)
	destination := location.Resolve(in.Destination)
	if origin == nil || destination == nil {
		return nil, 0, validation("Invalid location format. Please use 'City, State' format")
	}

	now := s.opts.Now()
	c := &models.Consignment{
		Title:               in.Title,
		Description:         strings.TrimSpace(in.Description),
		CompanyID:           actor.ID,
		CompanyName:         actor.DisplayCompany(),
		GoodsType:           goods,
		Origin:              *origin,
		Destination:         *destination,
		Weight:              in.Weight,
		Budget:              in.Budget,
		Deadline:            deadline,
		Status:              models.ConsignmentOpen,
		SpecialRequirements: strings.TrimSpace(in.SpecialRequirements),
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := s.opts.Store.Consignments().Create(ctx, c); err != nil {
		return nil, 0, fmt.Errorf("create consignment: %w", err)
	}

	matching, err := s.FindMatchingMSMEs(ctx, origin, s.opts.RadiusKm)
	if err != nil {
		// The consignment exists; a failed count must not turn this into an error.
		logrus.WithError(err).WithField("consignmentId", c.ID.Hex()).Error("Failed to count matching MSMEs")
		matching = nil
	}

	logrus.WithFields(logrus.Fields{
		"consignmentId": c.ID.Hex(),
		"companyId":     actor.ID.Hex(),
		"origin":        origin.Label(),
		"matchingMSMEs": len(matching),
	}).Info("Consignment created")

	publish(ctx, s.opts.Events, events.New(events.ConsignmentCreated, publicView(c), hexIDs(matching)...))
	return c, len(matching), nil
}

// FindMatchingMSMEs returns the MSME users whose location matches origin.
func (s *ConsignmentService) FindMatchingMSMEs(ctx context.Context, origin *models.Location, maxDistanceKm float64) ([]models.User, error) {
	msmes, err := s.opts.Store.Users().ListByRole(ctx, models.RoleMSME)
	if err != nil {
		return nil, fmt.Errorf("list msme users: %w", err)
	}
	return location.MatchingUsers(origin, msmes, maxDistanceKm), nil
}

func (s *ConsignmentService) ListMine(ctx context.Context, actor *models.User) ([]models.Consignment, error) {
	if err := requireRole(actor, models.RoleCompany, "Only companies can view their consignments"); err != nil {
		return nil, err
	}
	list, err := s.opts.Store.Consignments().ListByCompany(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("list company consignments: %w", err)
	}
	return list, nil
}

type LocationMatch struct {
	IsMatch           bool             `json:"isMatch"`
	IsExactMatch      bool             `json:"isExactMatch"`
	DistanceKm        *float64         `json:"distanceKm,omitempty"`
	UserLocation      *models.Location `json:"userLocation"`
	ConsignmentOrigin models.Location  `json:"consignmentOrigin"`
}

type AvailableConsignment struct {
	models.Consignment
	LocationMatch LocationMatch `json:"locationMatch"`
}

type AvailableConsignments struct {
	Consignments   []AvailableConsignment
	TotalAvailable int
	MatchingCount  int
	UserLocation   *models.Location
}

// ListAvailable returns the open consignments whose origin matches the MSME's
// stored location, annotated with match quality.
func (s *ConsignmentService) ListAvailable(ctx context.Context, actor *models.User) (*AvailableConsignments, error) {
	if err := requireRole(actor, models.RoleMSME, "Only MSMEs can view available consignments"); err != nil {
		return nil, err
	}

	open, err := s.opts.Store.Consignments().ListByStatus(ctx, models.ConsignmentOpen)
	if err != nil {
		return nil, fmt.Errorf("list open consignments: %w", err)
	}
	matching := location.GetMatchingConsignments(actor.Location, open, s.opts.RadiusKm)

	out := &AvailableConsignments{
		Consignments:   make([]AvailableConsignment, 0, len(matching)),
		TotalAvailable: len(open),
		MatchingCount:  len(matching),
		UserLocation:   actor.Location,
	}
	for _, c := range matching {
		match := LocationMatch{
			IsMatch:           true,
			IsExactMatch:      location.IsExactMatch(&c.Origin, actor.Location),
			UserLocation:      actor.Location,
			ConsignmentOrigin: c.Origin,
		}
		if d, ok := location.DistanceBetween(&c.Origin, actor.Location); ok {
			match.DistanceKm = &d
		}
		out.Consignments = append(out.Consignments, AvailableConsignment{Consignment: c, LocationMatch: match})
	}
	return out, nil
}

// PublicConsignment is an open consignment without the owner's identifier.
type PublicConsignment struct {
	ID                  string                   `json:"id"`
	Title               string                   `json:"title"`
	Description         string                   `json:"description"`
	CompanyName         string                   `json:"companyName"`
	GoodsType           models.GoodsType         `json:"goodsType"`
	Origin              models.Location          `json:"origin"`
	Destination         models.Location          `json:"destination"`
	Weight              float64                  `json:"weight"`
	Budget              float64                  `json:"budget"`
	Deadline            time.Time                `json:"deadline"`
	Status              models.ConsignmentStatus `json:"status"`
	BidCount            int                      `json:"bidCount"`
	SpecialRequirements string                   `json:"specialRequirements,omitempty"`
	CreatedAt           time.Time                `json:"createdAt"`
}

func publicView(c *models.Consignment) PublicConsignment {
	return PublicConsignment{
		ID:                  c.ID.Hex(),
		Title:               c.Title,
		Description:         c.Description,
		CompanyName:         c.CompanyName,
		GoodsType:           c.GoodsType,
		Origin:              c.Origin,
		Destination:         c.Destination,
		Weight:              c.Weight,
		Budget:              c.Budget,
		Deadline:            c.Deadline,
		Status:              c.Status,
		BidCount:            c.BidCount,
		SpecialRequirements: c.SpecialRequirements,
		CreatedAt:           c.CreatedAt,
	}
}

func (s *ConsignmentService) ListPublic(ctx context.Context) ([]PublicConsignment, error) {
	open, err := s.opts.Store.Consignments().ListByStatus(ctx, models.ConsignmentOpen)
	if err != nil {
		return nil, fmt.Errorf("list open consignments: %w", err)
	}
	out := make([]PublicConsignment, 0, len(open))
	for i := range open {
		out = append(out, publicView(&open[i]))
	}
	return out, nil
}

// Get returns one consignment. Companies may only read their own; MSMEs may read any.
func (s *ConsignmentService) Get(ctx context.Context, actor *models.User, rawID string) (*models.Consignment, error) {
	if actor == nil {
		return nil, unauthenticated("Authentication required")
	}
	id, err := parseID(rawID, "Consignment")
	if err != nil {
		return nil, err
	}
	c, err := s.opts.Store.Consignments().GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "Consignment", "find consignment")
	}
	if actor.Role == models.RoleCompany && c.CompanyID != actor.ID {
		return nil, forbidden("Access denied")
	}
	return c, nil
}

// UpdateStatus lets the owner move a consignment to any enumerated status,
// except back to open once a bid has been awarded.
func (s *ConsignmentService) UpdateStatus(ctx context.Context, actor *models.User, rawID, status string) (*models.Consignment, error) {
	if err := requireRole(actor, models.RoleCompany, "Only companies can update consignments"); err != nil {
		return nil, err
	}
	id, err := parseID(rawID, "Consignment")
	if err != nil {
		return nil, err
	}
	c, err := s.opts.Store.Consignments().GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "Consignment", "find consignment")
	}
	if c.CompanyID != actor.ID {
		return nil, forbidden("Access denied")
	}

	next := models.ConsignmentStatus(status)
	if !models.ValidConsignmentStatus(next) {
		return nil, validation("Invalid status")
	}
	if next == models.ConsignmentOpen && c.AwardedBidID != nil {
		return nil, conflict("A consignment with an awarded bid cannot be reopened")
	}
	if next == c.Status {
		return c, nil
	}

	if err := s.opts.Store.Consignments().UpdateStatus(ctx, id, c.Status, next, s.opts.Now()); err != nil {
		return nil, storeErr(err, "Consignment", "update consignment status")
	}
	updated, err := s.opts.Store.Consignments().GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "Consignment", "reload consignment")
	}

	logrus.WithFields(logrus.Fields{"consignmentId": rawID, "from": c.Status, "to": next}).Info("Consignment status updated")
	return updated, nil
}

type Partner struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	CompanyName string           `json:"companyName"`
	Location    *models.Location `json:"location"`
	DistanceKm  *float64         `json:"distanceKm,omitempty"`
}

type LocationStats struct {
	TotalConsignments    int              `json:"totalConsignments"`
	MatchingConsignments int              `json:"matchingConsignments"`
	NearbyPartners       int              `json:"nearbyPartners"`
	UserLocation         *models.Location `json:"userLocation"`
}

type Recommendations struct {
	MatchingConsignments []models.Consignment `json:"matchingConsignments"`
	NearbyPartners       []Partner            `json:"nearbyPartners"`
	LocationStats        LocationStats        `json:"locationStats"`
}

const (
	maxRecommendedConsignments = 10
	maxNearbyPartners          = 5
)

// Recommendations returns the best matching open consignments and nearby MSMEs
// the caller could partner with.
func (s *ConsignmentService) Recommendations(ctx context.Context, actor *models.User) (*Recommendations, error) {
	if err := requireRole(actor, models.RoleMSME, "Only MSMEs can get location recommendations"); err != nil {
		return nil, err
	}
	if actor.Location == nil {
		return nil, validation("Please update your location information to get recommendations")
	}

	open, err := s.opts.Store.Consignments().ListByStatus(ctx, models.ConsignmentOpen)
	if err != nil {
		return nil, fmt.Errorf("list open consignments: %w", err)
	}
	matching := location.GetMatchingConsignments(actor.Location, open, s.opts.RadiusKm)

	msmes, err := s.FindMatchingMSMEs(ctx, actor.Location, s.opts.PartnerRadiusKm)
	if err != nil {
		return nil, err
	}
	partners := make([]Partner, 0, maxNearbyPartners)
	for _, u := range msmes {
		if u.ID == actor.ID {
			continue
		}
		p := Partner{ID: u.ID.Hex(), Name: u.Name, CompanyName: u.CompanyName, Location: u.Location}
		if d, ok := location.DistanceBetween(actor.Location, u.Location); ok {
			p.DistanceKm = &d
		}
		partners = append(partners, p)
		if len(partners) == maxNearbyPartners {
			break
		}
	}

	top := matching
	if len(top) > maxRecommendedConsignments {
		top = top[:maxRecommendedConsignments]
	}
	return &Recommendations{
		MatchingConsignments: top,
		NearbyPartners:       partners,
		LocationStats: LocationStats{
			TotalConsignments:    len(open),
			MatchingConsignments: len(matching),
			NearbyPartners:       len(partners),
			UserLocation:         actor.Location,
		},
	}, nil
}
