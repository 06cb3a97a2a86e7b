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

const (
	collectionTasks       = "tasks"
	collectionExpertTasks = "expert_tasks"
)

type TaskRepository struct {
	col *mongo.Collection
}

func NewTaskRepository(db *mongo.Database) *TaskRepository {
	return &TaskRepository{col: db.Collection(collectionTasks)}
}

func (r *TaskRepository) Create(ctx context.Context, t *domain.Task) (*domain.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if _, err := r.col.InsertOne(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (r *TaskRepository) FindByID(ctx context.Context, id string) (*domain.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var t domain.Task
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *TaskRepository) List(ctx context.Context, filter ports.ListTasksFilter) ([]*domain.Task, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := bson.M{}
	if filter.OrgID != "" {
		query["org_id"] = filter.OrgID
	}
	if filter.CreatedBy != "" {
		query["created_by"] = filter.CreatedBy
	}

	total, err := r.col.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
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

	var tasks []*domain.Task
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

func (r *TaskRepository) Update(ctx context.Context, id string, patch ports.TaskPatch) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	set := bson.M{"updated_at": time.Now().UTC()}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.Domain != nil {
		set["domain"] = *patch.Domain
	}
	if patch.Deadline != nil {
		set["deadline"] = *patch.Deadline
	}
	if patch.Priority != nil {
		set["priority"] = *patch.Priority
	}

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

// EnsureIndexes creates the listing indexes for tasks.
func (r *TaskRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "org_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "created_by", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

// ExpertTaskRepository persists the per-expert assignment rows.
type ExpertTaskRepository struct {
	col *mongo.Collection
}

func NewExpertTaskRepository(db *mongo.Database) *ExpertTaskRepository {
	return &ExpertTaskRepository{col: db.Collection(collectionExpertTasks)}
}

// Create inserts an assignment row. The unique task/expert index turns a
// duplicate offer into domain.ErrAlreadyAssigned.
func (r *ExpertTaskRepository) Create(ctx context.Context, et *domain.ExpertTask) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if et.ID == "" {
		et.ID = uuid.NewString()
	}
	if _, err := r.col.InsertOne(ctx, et); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrAlreadyAssigned
		}
		return err
	}
	return nil
}

func (r *ExpertTaskRepository) FindByTaskAndExpert(ctx context.Context, taskID, expertID string) (*domain.ExpertTask, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var et domain.ExpertTask
	err := r.col.FindOne(ctx, bson.M{"task_id": taskID, "expert_id": expertID}).Decode(&et)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrAssignmentNotFound
		}
		return nil, err
	}
	return &et, nil
}

func (r *ExpertTaskRepository) ListByTask(ctx context.Context, taskID string) ([]*domain.ExpertTask, error) {
	return r.list(ctx, bson.M{"task_id": taskID})
}

func (r *ExpertTaskRepository) ListByExpert(ctx context.Context, expertID string) ([]*domain.ExpertTask, error) {
	return r.list(ctx, bson.M{"expert_id": expertID})
}

func (r *ExpertTaskRepository) list(ctx context.Context, filter bson.M) ([]*domain.ExpertTask, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cursor, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []*domain.ExpertTask
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// UpdateIfStatus transitions the row only when it still holds the expected
// status, in one atomic filtered write.
func (r *ExpertTaskRepository) UpdateIfStatus(ctx context.Context, id string, expected, next domain.AssignmentStatus, respondedAt time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"_id": id, "status": expected}
	update := bson.M{"$set": bson.M{"status": next, "responded_at": respondedAt}}
	res, err := r.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

// EnsureIndexes creates the unique task/expert pair index and per-expert
// listing index.
func (r *ExpertTaskRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "task_id", Value: 1}, {Key: "expert_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "expert_id", Value: 1}, {Key: "created_at", Value: -1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
