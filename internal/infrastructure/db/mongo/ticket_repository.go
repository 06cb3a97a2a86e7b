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

const collectionTickets = "tickets"

type TicketRepository struct {
	col *mongo.Collection
}

func NewTicketRepository(db *mongo.Database) *TicketRepository {
	return &TicketRepository{col: db.Collection(collectionTickets)}
}

func (r *TicketRepository) Create(ctx context.Context, t *domain.Ticket) (*domain.Ticket, error) {
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

func (r *TicketRepository) FindByID(ctx context.Context, id string) (*domain.Ticket, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var t domain.Ticket
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrTicketNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *TicketRepository) List(ctx context.Context, filter ports.ListTicketsFilter) ([]*domain.Ticket, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := bson.M{}
	if filter.OrgID != "" {
		query["org_id"] = filter.OrgID
	}
	if filter.RaisedBy != "" {
		query["raised_by"] = filter.RaisedBy
	}
	if filter.AssigneeID != "" {
		query["assignee_id"] = filter.AssigneeID
	}
	if filter.Status != "" {
		query["status"] = filter.Status
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

	var tickets []*domain.Ticket
	if err := cursor.All(ctx, &tickets); err != nil {
		return nil, 0, err
	}
	return tickets, total, nil
}

func (r *TicketRepository) UpdateStatus(ctx context.Context, id string, status domain.TicketStatus) error {
	return r.setFields(ctx, id, bson.M{"status": status})
}

func (r *TicketRepository) SetAssignee(ctx context.Context, id, assigneeID string) error {
	return r.setFields(ctx, id, bson.M{"assignee_id": assigneeID})
}

func (r *TicketRepository) setFields(ctx context.Context, id string, fields bson.M) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	fields["updated_at"] = time.Now().UTC()
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrTicketNotFound
	}
	return nil
}

// SetResponseIfUnanswered attaches the response only when the document has
// none yet. Concurrent responders race on one atomic filtered write; the
// loser observes MatchedCount zero.
func (r *TicketRepository) SetResponseIfUnanswered(ctx context.Context, id string, resp domain.TicketResponse) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"_id": id, "response": bson.M{"$exists": false}}
	update := bson.M{"$set": bson.M{"response": resp, "updated_at": time.Now().UTC()}}
	res, err := r.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

func (r *TicketRepository) UpdateResponse(ctx context.Context, id string, resp domain.TicketResponse) error {
	return r.setFields(ctx, id, bson.M{"response": resp})
}

// EnsureIndexes creates the listing indexes and the ticket number index.
func (r *TicketRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "ticket_number", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "org_id", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "raised_by", Value: 1}}},
		{Keys: bson.D{{Key: "assignee_id", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
