// internal/models/job.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type JobStatus string

const (
	JobAssigned   JobStatus = "assigned"
	JobAwarded    JobStatus = "awarded"
	JobInProgress JobStatus = "in_progress"
	JobCompleted  JobStatus = "completed"
	JobCancelled  JobStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentPartial   PaymentStatus = "partial"
	PaymentCompleted PaymentStatus = "completed"
)

// Job is the operational view of an awarded bid. There is at most one job per
// (consignmentId, transporterId); it is materialized the first time the winner lists its jobs.
type Job struct {
	ID                primitive.ObjectID     `bson:"_id,omitempty" json:"id"`
	ConsignmentID     primitive.ObjectID     `bson:"consignmentId" json:"consignmentId"`
	BidID             primitive.ObjectID     `bson:"bidId" json:"bidId"`
	ConsignmentTitle  string                 `bson:"consignmentTitle" json:"consignmentTitle"`
	CompanyID         primitive.ObjectID     `bson:"companyId" json:"companyId"`
	CompanyName       string                 `bson:"companyName" json:"companyName"`
	TransporterID     primitive.ObjectID     `bson:"transporterId" json:"transporterId"`
	TransporterName   string                 `bson:"transporterName" json:"transporterName"`
	Origin            Location               `bson:"origin" json:"origin"`
	Destination       Location               `bson:"destination" json:"destination"`
	Amount            float64                `bson:"amount" json:"amount"`
	Deadline          time.Time              `bson:"deadline" json:"deadline"`
	EstimatedDelivery time.Time              `bson:"estimatedDelivery" json:"estimatedDelivery"`
	Status            JobStatus              `bson:"status" json:"status"`
	TrackingNumber    string                 `bson:"trackingNumber" json:"trackingNumber"`
	AwardedDate       *time.Time             `bson:"awardedDate,omitempty" json:"awardedDate,omitempty"`
	PickupDate        *time.Time             `bson:"pickupDate,omitempty" json:"pickupDate,omitempty"`
	CompletedDate     *time.Time             `bson:"completedDate,omitempty" json:"completedDate,omitempty"`
	InvoiceUploaded   bool                   `bson:"invoiceUploaded" json:"invoiceUploaded"`
	InvoiceData       map[string]interface{} `bson:"invoiceData,omitempty" json:"invoiceData,omitempty"`
	InvoiceUploadedAt *time.Time             `bson:"invoiceUploadedAt,omitempty" json:"invoiceUploadedAt,omitempty"`
	InvoiceNumber     string                 `bson:"invoiceNumber,omitempty" json:"invoiceNumber,omitempty"`
	InvoiceAmount     float64                `bson:"invoiceAmount,omitempty" json:"invoiceAmount,omitempty"`
	InvoiceFile       string                 `bson:"invoiceFile,omitempty" json:"invoiceFile,omitempty"`
	PaymentStatus     PaymentStatus          `bson:"paymentStatus" json:"paymentStatus"`
	Notes             string                 `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt         time.Time              `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time              `bson:"updatedAt" json:"updatedAt"`
}
