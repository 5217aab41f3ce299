package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/contract-payment-ledger/internal/domain/audit"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	// AuditCollectionName is the name of the audit trail collection in MongoDB
	AuditCollectionName = "audit_entries"
)

// AuditIndexes are the indexes the audit collection relies on. The unique event_id index
// makes republishing an already stored event a no-op.
func AuditIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "event_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_event_id"),
		},
		{
			Keys:    bson.D{{Key: "contract_id", Value: 1}, {Key: "occurred_at", Value: 1}},
			Options: options.Index().SetName("contract_occurred_at"),
		},
	}
}

// AuditRepository implements the audit.Repository interface for MongoDB
type AuditRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewAuditRepository creates a new MongoDB audit repository
func NewAuditRepository(logger *slog.Logger, db *mongo.Database) audit.Repository {
	return &AuditRepository{
		db:     db,
		logger: logger,
	}
}

// Create stores a new audit entry.
// Returns ErrDuplicateEntry if an entry with the same event ID exists.
func (r *AuditRepository) Create(ctx context.Context, entry *audit.Entry) error {
	collection := r.db.Collection(AuditCollectionName)

	if _, err := collection.InsertOne(ctx, entry); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return audit.ErrDuplicateEntry{EventID: entry.EventID}
		}
		r.logger.Error("Failed to create audit entry",
			"event_id", entry.EventID.String(),
			"contract_id", entry.ContractID.String(),
			"error", err)
		return fmt.Errorf("failed to create audit entry: %w", err)
	}

	return nil
}

// GetByEventID retrieves an audit entry by its event ID.
// Returns ErrEntryNotFound if no entry exists for the given event.
func (r *AuditRepository) GetByEventID(ctx context.Context, eventID uuid.UUID) (*audit.Entry, error) {
	collection := r.db.Collection(AuditCollectionName)

	var entry audit.Entry
	err := collection.FindOne(ctx, bson.M{"event_id": eventID}).Decode(&entry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, audit.ErrEntryNotFound{EventID: eventID}
		}
		r.logger.Error("Failed to get audit entry",
			"event_id", eventID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get audit entry: %w", err)
	}

	return &entry, nil
}

// GetByContractID retrieves paginated audit entries for a contract, oldest first
func (r *AuditRepository) GetByContractID(ctx context.Context, contractID uuid.UUID, limit, offset int) ([]*audit.Entry, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "occurred_at", Value: 1}, {Key: "version", Value: 1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	entries, err := r.find(ctx, bson.M{"contract_id": contractID}, opts)
	if err != nil {
		r.logger.Error("Failed to get audit entries",
			"contract_id", contractID.String(),
			"error", err)
		return nil, err
	}
	return entries, nil
}

// CountByContractID counts the total number of audit entries for a contract
func (r *AuditRepository) CountByContractID(ctx context.Context, contractID uuid.UUID) (int64, error) {
	collection := r.db.Collection(AuditCollectionName)

	count, err := collection.CountDocuments(ctx, bson.M{"contract_id": contractID})
	if err != nil {
		r.logger.Error("Failed to count audit entries",
			"contract_id", contractID.String(),
			"error", err)
		return 0, fmt.Errorf("failed to count audit entries: %w", err)
	}

	return count, nil
}

// GetByTimeRange retrieves paginated audit entries within the time window, newest first
func (r *AuditRepository) GetByTimeRange(ctx context.Context, startTime, endTime time.Time, limit, offset int) ([]*audit.Entry, error) {
	filter := bson.M{
		"occurred_at": bson.M{
			"$gte": startTime,
			"$lte": endTime,
		},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "occurred_at", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	entries, err := r.find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to get audit entries by time range",
			"start_time", startTime,
			"end_time", endTime,
			"error", err)
		return nil, err
	}
	return entries, nil
}

func (r *AuditRepository) find(ctx context.Context, filter interface{}, opts *options.FindOptions) ([]*audit.Entry, error) {
	cursor, err := r.db.Collection(AuditCollectionName).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to get audit entries: %w", err)
	}
	defer cursor.Close(ctx)

	entries := []*audit.Entry{}
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode audit entries: %w", err)
	}
	return entries, nil
}
