// internal/store/mongostore/repos.go
package mongostore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"logiledger-api-server/internal/models"
	"logiledger-api-server/internal/store"
)

type userRepo struct{ coll *mongo.Collection }

func (r userRepo) Create(ctx context.Context, user *models.User) error {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if _, err := r.coll.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return store.ErrDuplicate
		}
		return fmt.Errorf("mongostore: insert user: %w", err)
	}
	return nil
}

func (r userRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, notFound(err, "find user")
	}
	return &u, nil
}

func (r userRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	filter := bson.M{"email": strings.ToLower(strings.TrimSpace(email))}
	if err := r.coll.FindOne(ctx, filter).Decode(&u); err != nil {
		return nil, notFound(err, "find user by email")
	}
	return &u, nil
}

func (r userRepo) Update(ctx context.Context, user *models.User) error {
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": user.ID}, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return store.ErrDuplicate
		}
		return fmt.Errorf("mongostore: update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r userRepo) ListByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	return findAll[models.User](ctx, r.coll, bson.M{"userType": role},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
}

type consignmentRepo struct{ coll *mongo.Collection }

func (r consignmentRepo) Create(ctx context.Context, c *models.Consignment) error {
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	if _, err := r.coll.InsertOne(ctx, c); err != nil {
		return fmt.Errorf("mongostore: insert consignment: %w", err)
	}
	return nil
}

func (r consignmentRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Consignment, error) {
	var c models.Consignment
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return nil, notFound(err, "find consignment")
	}
	return &c, nil
}

func (r consignmentRepo) ListByCompany(ctx context.Context, companyID primitive.ObjectID) ([]models.Consignment, error) {
	return findAll[models.Consignment](ctx, r.coll, bson.M{"companyId": companyID}, newestFirst)
}

func (r consignmentRepo) ListByStatus(ctx context.Context, status models.ConsignmentStatus) ([]models.Consignment, error) {
	return findAll[models.Consignment](ctx, r.coll, bson.M{"status": status}, newestFirst)
}

func (r consignmentRepo) UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to models.ConsignmentStatus, at time.Time) error {
	return conditionalSet(ctx, r.coll, id, from, to, at)
}

type bidRepo struct{ coll *mongo.Collection }

func (r bidRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Bid, error) {
	var b models.Bid
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&b); err != nil {
		return nil, notFound(err, "find bid")
	}
	return &b, nil
}

func (r bidRepo) FindByConsignmentAndBidder(ctx context.Context, consignmentID, bidderID primitive.ObjectID) (*models.Bid, error) {
	var b models.Bid
	filter := bson.M{"consignmentId": consignmentID, "bidderId": bidderID}
	if err := r.coll.FindOne(ctx, filter).Decode(&b); err != nil {
		return nil, notFound(err, "find bid by bidder")
	}
	return &b, nil
}

func (r bidRepo) ListByBidder(ctx context.Context, bidderID primitive.ObjectID) ([]models.Bid, error) {
	return findAll[models.Bid](ctx, r.coll, bson.M{"bidderId": bidderID}, newestFirst)
}

func (r bidRepo) ListByConsignment(ctx context.Context, consignmentID primitive.ObjectID) ([]models.Bid, error) {
	return findAll[models.Bid](ctx, r.coll, bson.M{"consignmentId": consignmentID}, newestFirst)
}

func (r bidRepo) UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to models.BidStatus, at time.Time) error {
	return conditionalSet(ctx, r.coll, id, from, to, at)
}

type jobRepo struct{ coll *mongo.Collection }

func (r jobRepo) Create(ctx context.Context, job *models.Job) error {
	if job.ID.IsZero() {
		job.ID = primitive.NewObjectID()
	}
	if _, err := r.coll.InsertOne(ctx, job); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return store.ErrDuplicate
		}
		return fmt.Errorf("mongostore: insert job: %w", err)
	}
	return nil
}

func (r jobRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Job, error) {
	var j models.Job
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&j); err != nil {
		return nil, notFound(err, "find job")
	}
	return &j, nil
}

func (r jobRepo) FindByConsignmentAndTransporter(ctx context.Context, consignmentID, transporterID primitive.ObjectID) (*models.Job, error) {
	var j models.Job
	filter := bson.M{"consignmentId": consignmentID, "transporterId": transporterID}
	if err := r.coll.FindOne(ctx, filter).Decode(&j); err != nil {
		return nil, notFound(err, "find job by transporter")
	}
	return &j, nil
}

func (r jobRepo) ListByTransporter(ctx context.Context, transporterID primitive.ObjectID) ([]models.Job, error) {
	return findAll[models.Job](ctx, r.coll, bson.M{"transporterId": transporterID}, newestFirst)
}

func (r jobRepo) ListByCompany(ctx context.Context, companyID primitive.ObjectID) ([]models.Job, error) {
	return findAll[models.Job](ctx, r.coll, bson.M{"companyId": companyID}, newestFirst)
}

func (r jobRepo) AttachInvoice(ctx context.Context, id primitive.ObjectID, invoice store.Invoice) (*models.Job, error) {
	set := bson.M{
		"invoiceUploaded":   true,
		"invoiceUploadedAt": invoice.UploadedAt,
		"updatedAt":         invoice.UploadedAt,
	}
	if invoice.Data != nil {
		set["invoiceData"] = invoice.Data
	}
	if invoice.Number != "" {
		set["invoiceNumber"] = invoice.Number
	}
	if invoice.Amount > 0 {
		set["invoiceAmount"] = invoice.Amount
	}
	if invoice.File != "" {
		set["invoiceFile"] = invoice.File
	}

	var j models.Job
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&j)
	if err != nil {
		return nil, notFound(err, "attach invoice")
	}
	return &j, nil
}
