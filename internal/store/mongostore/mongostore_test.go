package mongostore_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"logiledger-api-server/config"
	"logiledger-api-server/internal/database"
	"logiledger-api-server/internal/models"
	"logiledger-api-server/internal/store"
	"logiledger-api-server/internal/store/mongostore"
)

// newTestStore connects to MONGO_TEST_URI, which must point at a replica set
// so transactions are available.
func newTestStore(t *testing.T) *mongostore.Store {
	t.Helper()
	s, _ := newTestDB(t)
	return s
}

func newTestDB(t *testing.T) (*mongostore.Store, *mongo.Database) {
	t.Helper()
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}

	ctx := context.Background()
	db, err := database.Connect(ctx, config.MongoConfig{
		URI:     uri,
		DBName:  fmt.Sprintf("logiledger_test_%d", time.Now().UnixNano()),
		Timeout: 10 * time.Second,
	})
	require.NoError(t, err)
	require.NoError(t, database.EnsureIndexes(ctx, db))

	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = db.Client().Disconnect(context.Background())
	})
	return mongostore.New(db), db
}

func createConsignment(t *testing.T, s store.Store) *models.Consignment {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Millisecond)
	c := &models.Consignment{
		Title:     "Cotton bales",
		CompanyID: primitive.NewObjectID(),
		Origin:    models.Location{City: "Chennai", State: "Tamil Nadu"},
		Budget:    30000,
		Deadline:  now.Add(96 * time.Hour),
		Status:    models.ConsignmentOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, s.Consignments().Create(context.Background(), c))
	return c
}

func TestMongoPlaceAndAwardBid(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	c := createConsignment(t, s)

	bids := make([]*models.Bid, 0, 3)
	for _, amount := range []float64{25000, 27000, 29000} {
		b := &models.Bid{
			ConsignmentID: c.ID,
			BidderID:      primitive.NewObjectID(),
			Amount:        amount,
			Status:        models.BidPending,
			CreatedAt:     time.Now().UTC(),
		}
		require.NoError(t, s.PlaceBid(ctx, b))
		bids = append(bids, b)
	}

	dup := &models.Bid{ConsignmentID: c.ID, BidderID: bids[0].BidderID, Amount: 1, Status: models.BidPending}
	assert.ErrorIs(t, s.PlaceBid(ctx, dup), store.ErrDuplicate)

	got, err := s.Consignments().GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.BidCount)

	result, err := s.AwardBid(ctx, bids[1].ID, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, models.BidAwarded, result.Bid.Status)
	assert.Equal(t, models.ConsignmentAwarded, result.Consignment.Status)
	assert.Len(t, result.Rejected, 2)
	for _, r := range result.Rejected {
		assert.Equal(t, models.BidRejected, r.Status)
	}

	_, err = s.AwardBid(ctx, bids[2].ID, time.Now().UTC())
	assert.ErrorIs(t, err, store.ErrConflict)

	late := &models.Bid{ConsignmentID: c.ID, BidderID: primitive.NewObjectID(), Amount: 1}
	assert.ErrorIs(t, s.PlaceBid(ctx, late), store.ErrConflict)
}

func TestMongoAdvanceJobMirrorsConsignment(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	c := createConsignment(t, s)

	job := &models.Job{
		ConsignmentID: c.ID,
		TransporterID: primitive.NewObjectID(),
		CompanyID:     c.CompanyID,
		Status:        models.JobAssigned,
		CreatedAt:     time.Now().UTC(),
	}
	require.NoError(t, s.Jobs().Create(ctx, job))

	dup := &models.Job{ConsignmentID: c.ID, TransporterID: job.TransporterID, Status: models.JobAssigned}
	assert.ErrorIs(t, s.Jobs().Create(ctx, dup), store.ErrDuplicate)

	advanced, err := s.AdvanceJob(ctx, job.ID, models.JobAssigned, models.JobInProgress, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, models.JobInProgress, advanced.Status)
	assert.NotNil(t, advanced.PickupDate)

	got, err := s.Consignments().GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ConsignmentInProgress, got.Status)

	_, err = s.AdvanceJob(ctx, job.ID, models.JobAssigned, models.JobInProgress, time.Now().UTC())
	assert.ErrorIs(t, err, store.ErrConflict)

	_, err = s.AdvanceJob(ctx, primitive.NewObjectID(), models.JobAssigned, models.JobInProgress, time.Now().UTC())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestMongoUserEmailIsUnique(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := &models.User{Name: "Meera", Email: "Meera@Example.com", Role: models.RoleMSME}
	require.NoError(t, s.Users().Create(ctx, u))

	again := &models.User{Name: "Meera", Email: "meera@example.com", Role: models.RoleMSME}
	assert.ErrorIs(t, s.Users().Create(ctx, again), store.ErrDuplicate)

	got, err := s.Users().GetByEmail(ctx, "MEERA@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
}

func TestMongoUserCoordinatesSupportGeoQueries(t *testing.T) {
	s, db := newTestDB(t)
	ctx := context.Background()

	thane := &models.User{
		Name: "Thane Movers", Email: "thane@example.com", Role: models.RoleMSME,
		Location: &models.Location{City: "Thane", State: "Maharashtra", Coordinates: models.NewCoordinates(19.2, 72.97)},
	}
	pune := &models.User{
		Name: "Pune Freight", Email: "pune@example.com", Role: models.RoleMSME,
		Location: &models.Location{City: "Pune", State: "Maharashtra", Coordinates: models.NewCoordinates(18.52, 73.85)},
	}
	require.NoError(t, s.Users().Create(ctx, thane))
	require.NoError(t, s.Users().Create(ctx, pune))

	got, err := s.Users().GetByID(ctx, thane.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Location.Coordinates)
	assert.Equal(t, 19.2, got.Location.Coordinates.Latitude())
	assert.Equal(t, 72.97, got.Location.Coordinates.Longitude())

	near := bson.M{"location.coordinates": bson.M{"$nearSphere": bson.M{
		"$geometry":    bson.M{"type": "Point", "coordinates": bson.A{72.87, 19.07}},
		"$maxDistance": 50000,
	}}}
	cursor, err := db.Collection(mongostore.UsersCollection).Find(ctx, near)
	require.NoError(t, err)
	var nearby []models.User
	require.NoError(t, cursor.All(ctx, &nearby))
	require.Len(t, nearby, 1)
	assert.Equal(t, thane.ID, nearby[0].ID)
}
