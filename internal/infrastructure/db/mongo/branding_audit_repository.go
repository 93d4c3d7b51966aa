package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/partnerdesk/console/internal/core/domain"
	"github.com/partnerdesk/console/internal/core/ports"
)

const auditCollection = "branding_audit"

// BrandingAuditRepository implements ports.BrandingAuditRepository using MongoDB.
type BrandingAuditRepository struct {
	coll *mongo.Collection
}

func NewBrandingAuditRepository(db *mongo.Database) *BrandingAuditRepository {
	return &BrandingAuditRepository{coll: db.Collection(auditCollection)}
}

var _ ports.BrandingAuditRepository = (*BrandingAuditRepository)(nil)

type mongoAuditEntry struct {
	ID        primitive.ObjectID     `bson:"_id,omitempty"`
	PartnerID string                 `bson:"partner_id"`
	SavedBy   string                 `bson:"saved_by"`
	Config    *domain.BrandingConfig `bson:"config,omitempty"`
	SavedAt   time.Time              `bson:"saved_at"`
	Mirrored  bool                   `bson:"mirrored"`
}

// Insert appends a save to the audit collection.
func (r *BrandingAuditRepository) Insert(ctx context.Context, e *domain.BrandingAuditEntry) error {
	doc := mongoAuditEntry{
		PartnerID: e.PartnerID,
		SavedBy:   e.SavedBy,
		Config:    e.Config,
		SavedAt:   e.SavedAt.UTC(),
		Mirrored:  e.Mirrored,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert branding audit: %w", err)
	}
	return nil
}

// ListByPartner returns the newest entries of partnerID first.
func (r *BrandingAuditRepository) ListByPartner(ctx context.Context, partnerID string, limit int) ([]*domain.BrandingAuditEntry, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "saved_at", Value: -1}}).
		SetLimit(int64(limit))

	cur, err := r.coll.Find(ctx, bson.M{"partner_id": partnerID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find branding audit: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoAuditEntry
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode branding audit: %w", err)
	}

	out := make([]*domain.BrandingAuditEntry, 0, len(docs))
	for _, d := range docs {
		out = append(out, &domain.BrandingAuditEntry{
			PartnerID: d.PartnerID,
			SavedBy:   d.SavedBy,
			Config:    d.Config,
			SavedAt:   d.SavedAt.UTC(),
			Mirrored:  d.Mirrored,
		})
	}
	return out, nil
}
