// internal/models/bid.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BidStatus string

const (
	BidPending   BidStatus = "pending"
	BidAwarded   BidStatus = "awarded"
	BidRejected  BidStatus = "rejected"
	BidWithdrawn BidStatus = "withdrawn"
)

// Bid is an MSME offer against exactly one consignment.
// Bidder fields are a snapshot taken when the bid is placed.
type Bid struct {
	ID                    primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ConsignmentID         primitive.ObjectID `bson:"consignmentId" json:"consignmentId"`
	ConsignmentTitle      string             `bson:"consignmentTitle" json:"consignmentTitle"`
	BidderID              primitive.ObjectID `bson:"bidderId" json:"bidderId"`
	BidderName            string             `bson:"bidderName" json:"bidderName"`
	BidderCompany         string             `bson:"bidderCompany" json:"bidderCompany"`
	BidderEmail           string             `bson:"bidderEmail" json:"bidderEmail"`
	Amount                float64            `bson:"amount" json:"amount"`
	EstimatedDelivery     time.Time          `bson:"estimatedDelivery" json:"estimatedDelivery"`
	EstimatedDeliveryTime int                `bson:"estimatedDeliveryTime,omitempty" json:"estimatedDeliveryTime,omitempty"` // days
	Status                BidStatus          `bson:"status" json:"status"`
	Message               string             `bson:"message,omitempty" json:"message,omitempty"`
	VehicleType           string             `bson:"vehicleType,omitempty" json:"vehicleType,omitempty"`
	VehicleCapacity       float64            `bson:"vehicleCapacity,omitempty" json:"vehicleCapacity,omitempty"`
	Insurance             bool               `bson:"insurance" json:"insurance"`
	Tracking              bool               `bson:"tracking" json:"tracking"`
	SpecialConditions     string             `bson:"specialConditions,omitempty" json:"specialConditions,omitempty"`
	AwardedAt             *time.Time         `bson:"awardedAt,omitempty" json:"awardedAt,omitempty"`
	CreatedAt             time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt             time.Time          `bson:"updatedAt" json:"updatedAt"`
}
