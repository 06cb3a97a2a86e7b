package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/proveloce/connect/internal/core/domain"
	"github.com/proveloce/connect/internal/core/ports"
)

const collectionApplications = "expert_applications"

type ApplicationRepository struct {
	col *mongo.Collection
}

func NewApplicationRepository(db *mongo.Database) *ApplicationRepository {
	return &ApplicationRepository{col: db.Collection(collectionApplications)}
}

func (r *ApplicationRepository) Create(ctx context.Context, app *domain.ExpertApplication) (*domain.ExpertApplication, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if app.ID == "" {
		app.ID = uuid.NewString()
	}
	if _, err := r.col.InsertOne(ctx, app); err != nil {
		return nil, err
	}
	return app, nil
}

func (r *ApplicationRepository) FindByUser(ctx context.Context, userID string) (*domain.ExpertApplication, error) {
	return r.findOne(ctx, bson.M{"user_id": userID})
}

func (r *ApplicationRepository) FindByID(ctx context.Context, id string) (*domain.ExpertApplication, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *ApplicationRepository) findOne(ctx context.Context, filter bson.M) (*domain.ExpertApplication, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var app domain.ExpertApplication
	if err := r.col.FindOne(ctx, filter).Decode(&app); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrApplicationNotFound
		}
		return nil, err
	}
	return &app, nil
}

func (r *ApplicationRepository) UpdateProfile(ctx context.Context, id string, profile domain.ApplicationProfile) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{"profile": profile, "updated_at": time.Now().UTC()}}
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrApplicationNotFound
	}
	return nil
}

func (r *ApplicationRepository) List(ctx context.Context, filter ports.ListApplicationsFilter) ([]*domain.ExpertApplication, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := bson.M{}
	if filter.OrgID != "" {
		query["org_id"] = filter.OrgID
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}

	total, err := r.col.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "submitted_at", Value: -1}})
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
		if filter.Page > 1 {
			opts.SetSkip(int64((filter.Page - 1) * filter.Limit))
		}
	}

	cursor, err := r.col.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var apps []*domain.ExpertApplication
	if err := cursor.All(ctx, &apps); err != nil {
		return nil, 0, err
	}
	return apps, total, nil
}

// UpdateIfStatus applies the transition only when the document still holds
// the expected status. The filter carries both _id and status so the check
// and the write are one atomic operation; a zero MatchedCount means the
// caller lost the race.
func (r *ApplicationRepository) UpdateIfStatus(ctx context.Context, id string, expected, next domain.ApplicationStatus, update ports.ApplicationUpdate) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	set := bson.M{"status": next, "updated_at": time.Now().UTC()}
	if update.ReviewerID != "" {
		set["reviewer_id"] = update.ReviewerID
	}
	if update.RejectionReason != "" {
		set["rejection_reason"] = update.RejectionReason
	}
	if !update.ReviewedAt.IsZero() {
		set["reviewed_at"] = update.ReviewedAt
	}
	if !update.SubmittedAt.IsZero() {
		set["submitted_at"] = update.SubmittedAt
	}

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id, "status": expected}, bson.M{"$set": set})
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

// EnsureIndexes creates the one-application-per-user index and the reviewer
// listing index.
func (r *ApplicationRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "org_id", Value: 1}, {Key: "status", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
