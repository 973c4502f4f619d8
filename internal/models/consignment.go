// internal/models/consignment.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ConsignmentStatus string

const (
	ConsignmentOpen       ConsignmentStatus = "open"
	ConsignmentAwarded    ConsignmentStatus = "awarded"
	ConsignmentInProgress ConsignmentStatus = "in_progress"
	ConsignmentCompleted  ConsignmentStatus = "completed"
	ConsignmentCancelled  ConsignmentStatus = "cancelled"
)

func ValidConsignmentStatus(s ConsignmentStatus) bool {
	switch s {
	case ConsignmentOpen, ConsignmentAwarded, ConsignmentInProgress, ConsignmentCompleted, ConsignmentCancelled:
		return true
	default:
		return false
	}
}

type GoodsType string

const (
	GoodsElectronics  GoodsType = "electronics"
	GoodsTextiles     GoodsType = "textiles"
	GoodsMachinery    GoodsType = "machinery"
	GoodsFood         GoodsType = "food"
	GoodsRawMaterials GoodsType = "raw_materials"
	GoodsOther        GoodsType = "other"
)

func ValidGoodsType(g GoodsType) bool {
	switch g {
	case GoodsElectronics, GoodsTextiles, GoodsMachinery, GoodsFood, GoodsRawMaterials, GoodsOther:
		return true
	default:
		return false
	}
}

// Consignment is a shipment request posted by a company.
// BidCount is maintained by the same atomic write that inserts a bid.
type Consignment struct {
	ID                  primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Title               string              `bson:"title" json:"title"`
	Description         string              `bson:"description" json:"description"`
	CompanyID           primitive.ObjectID  `bson:"companyId" json:"companyId"`
	CompanyName         string              `bson:"companyName" json:"companyName"`
	GoodsType           GoodsType           `bson:"goodsType" json:"goodsType"`
	Origin              Location            `bson:"origin" json:"origin"`
	Destination         Location            `bson:"destination" json:"destination"`
	Weight              float64             `bson:"weight" json:"weight"`
	Budget              float64             `bson:"budget" json:"budget"`
	Deadline            time.Time           `bson:"deadline" json:"deadline"`
	Status              ConsignmentStatus   `bson:"status" json:"status"`
	BidCount            int                 `bson:"bidCount" json:"bidCount"`
	AwardedBidID        *primitive.ObjectID `bson:"awardedBidId,omitempty" json:"awardedBidId,omitempty"`
	AwardedTo           *primitive.ObjectID `bson:"awardedTo,omitempty" json:"awardedTo,omitempty"`
	AwardedAmount       float64             `bson:"awardedAmount,omitempty" json:"awardedAmount,omitempty"`
	AwardedAt           *time.Time          `bson:"awardedAt,omitempty" json:"awardedAt,omitempty"`
	SpecialRequirements string              `bson:"specialRequirements,omitempty" json:"specialRequirements,omitempty"`
	CreatedAt           time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt           time.Time           `bson:"updatedAt" json:"updatedAt"`
}
