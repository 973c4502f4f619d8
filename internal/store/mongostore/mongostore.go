// internal/store/mongostore/mongostore.go
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"logiledger-api-server/internal/models"
	"logiledger-api-server/internal/store"
)

const (
	UsersCollection        = "users"
	ConsignmentsCollection = "consignments"
	BidsCollection         = "bids"
	JobsCollection         = "jobs"
)

// Store is the MongoDB backend. Multi-document operations run inside a
// session transaction, which needs a replica set or sharded cluster.
type Store struct {
	db           *mongo.Database
	users        *mongo.Collection
	consignments *mongo.Collection
	bids         *mongo.Collection
	jobs         *mongo.Collection
}

var _ store.Store = (*Store)(nil)

func New(db *mongo.Database) *Store {
	return &Store{
		db:           db,
		users:        db.Collection(UsersCollection),
		consignments: db.Collection(ConsignmentsCollection),
		bids:         db.Collection(BidsCollection),
		jobs:         db.Collection(JobsCollection),
	}
}

func (s *Store) Users() store.UserRepository               { return userRepo{s.users} }
func (s *Store) Consignments() store.ConsignmentRepository { return consignmentRepo{s.consignments} }
func (s *Store) Bids() store.BidRepository                 { return bidRepo{s.bids} }
func (s *Store) Jobs() store.JobRepository                 { return jobRepo{s.jobs} }

func (s *Store) Close(ctx context.Context) error {
	return s.db.Client().Disconnect(ctx)
}

func (s *Store) withTransaction(ctx context.Context, fn func(mongo.SessionContext) error) error {
	session, err := s.db.Client().StartSession()
	if err != nil {
		return fmt.Errorf("mongostore: start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sctx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sctx)
	})
	return err
}

func (s *Store) PlaceBid(ctx context.Context, bid *models.Bid) error {
	if bid.ID.IsZero() {
		bid.ID = primitive.NewObjectID()
	}

	return s.withTransaction(ctx, func(sctx mongo.SessionContext) error {
		// Bumping the counter first doubles as the "still open" check and
		// write-locks the consignment for the rest of the transaction.
		res, err := s.consignments.UpdateOne(sctx,
			bson.M{"_id": bid.ConsignmentID, "status": models.ConsignmentOpen},
			bson.M{
				"$inc": bson.M{"bidCount": 1},
				"$set": bson.M{"updatedAt": bid.CreatedAt},
			},
		)
		if err != nil {
			return fmt.Errorf("mongostore: increment bid count: %w", err)
		}
		if res.MatchedCount == 0 {
			n, err := s.consignments.CountDocuments(sctx, bson.M{"_id": bid.ConsignmentID})
			if err != nil {
				return fmt.Errorf("mongostore: check consignment: %w", err)
			}
			if n == 0 {
				return store.ErrNotFound
			}
			return store.ErrConflict
		}

		if _, err := s.bids.InsertOne(sctx, bid); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return store.ErrDuplicate
			}
			return fmt.Errorf("mongostore: insert bid: %w", err)
		}
		return nil
	})
}

func (s *Store) AwardBid(ctx context.Context, bidID primitive.ObjectID, at time.Time) (*store.AwardResult, error) {
	var result store.AwardResult

	err := s.withTransaction(ctx, func(sctx mongo.SessionContext) error {
		result = store.AwardResult{}

		var bid models.Bid
		if err := s.bids.FindOne(sctx, bson.M{"_id": bidID}).Decode(&bid); err != nil {
			return notFound(err, "find bid")
		}

		after := options.FindOneAndUpdate().SetReturnDocument(options.After)
		err := s.consignments.FindOneAndUpdate(sctx,
			bson.M{"_id": bid.ConsignmentID, "status": models.ConsignmentOpen},
			bson.M{"$set": bson.M{
				"status":        models.ConsignmentAwarded,
				"awardedBidId":  bid.ID,
				"awardedTo":     bid.BidderID,
				"awardedAmount": bid.Amount,
				"awardedAt":     at,
				"updatedAt":     at,
			}},
			after,
		).Decode(&result.Consignment)
		if errors.Is(err, mongo.ErrNoDocuments) {
			// Either the consignment is gone or someone else was faster.
			n, cerr := s.consignments.CountDocuments(sctx, bson.M{"_id": bid.ConsignmentID})
			if cerr != nil {
				return fmt.Errorf("mongostore: check consignment: %w", cerr)
			}
			if n == 0 {
				return store.ErrNotFound
			}
			return store.ErrConflict
		}
		if err != nil {
			return fmt.Errorf("mongostore: award consignment: %w", err)
		}

		err = s.bids.FindOneAndUpdate(sctx,
			bson.M{"_id": bid.ID},
			bson.M{"$set": bson.M{"status": models.BidAwarded, "awardedAt": at, "updatedAt": at}},
			after,
		).Decode(&result.Bid)
		if err != nil {
			return fmt.Errorf("mongostore: award bid: %w", err)
		}

		siblings := bson.M{"consignmentId": bid.ConsignmentID, "_id": bson.M{"$ne": bid.ID}}
		if _, err := s.bids.UpdateMany(sctx, siblings,
			bson.M{"$set": bson.M{"status": models.BidRejected, "updatedAt": at}},
		); err != nil {
			return fmt.Errorf("mongostore: reject sibling bids: %w", err)
		}

		cursor, err := s.bids.Find(sctx, siblings)
		if err != nil {
			return fmt.Errorf("mongostore: list rejected bids: %w", err)
		}
		if err := cursor.All(sctx, &result.Rejected); err != nil {
			return fmt.Errorf("mongostore: decode rejected bids: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *Store) AdvanceJob(ctx context.Context, jobID primitive.ObjectID, from, to models.JobStatus, at time.Time) (*models.Job, error) {
	var job models.Job

	err := s.withTransaction(ctx, func(sctx mongo.SessionContext) error {
		set := bson.M{"status": to, "updatedAt": at}
		switch to {
		case models.JobInProgress:
			set["pickupDate"] = at
		case models.JobCompleted:
			set["completedDate"] = at
		}

		err := s.jobs.FindOneAndUpdate(sctx,
			bson.M{"_id": jobID, "status": from},
			bson.M{"$set": set},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&job)
		if errors.Is(err, mongo.ErrNoDocuments) {
			n, cerr := s.jobs.CountDocuments(sctx, bson.M{"_id": jobID})
			if cerr != nil {
				return fmt.Errorf("mongostore: check job: %w", cerr)
			}
			if n == 0 {
				return store.ErrNotFound
			}
			return store.ErrConflict
		}
		if err != nil {
			return fmt.Errorf("mongostore: advance job: %w", err)
		}

		if status, ok := store.ConsignmentStatusForJob(to); ok {
			if _, err := s.consignments.UpdateOne(sctx,
				bson.M{"_id": job.ConsignmentID},
				bson.M{"$set": bson.M{"status": status, "updatedAt": at}},
			); err != nil {
				return fmt.Errorf("mongostore: mirror job status: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func notFound(err error, op string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.ErrNotFound
	}
	return fmt.Errorf("mongostore: %s: %w", op, err)
}

var newestFirst = options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})

func findAll[T any](ctx context.Context, coll *mongo.Collection, filter interface{}, opts ...*options.FindOptions) ([]T, error) {
	cursor, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, fmt.Errorf("mongostore: find %s: %w", coll.Name(), err)
	}
	out := make([]T, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("mongostore: decode %s: %w", coll.Name(), err)
	}
	return out, nil
}

// conditionalSet updates one document only while it is still in status from.
func conditionalSet(ctx context.Context, coll *mongo.Collection, id primitive.ObjectID, from, to interface{}, at time.Time) error {
	res, err := coll.UpdateOne(ctx,
		bson.M{"_id": id, "status": from},
		bson.M{"$set": bson.M{"status": to, "updatedAt": at}},
	)
	if err != nil {
		return fmt.Errorf("mongostore: update %s status: %w", coll.Name(), err)
	}
	if res.MatchedCount > 0 {
		return nil
	}
	n, err := coll.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("mongostore: check %s: %w", coll.Name(), err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return store.ErrConflict
}
