package database

import (
	"context"

	"github.com/AnshRaj112/leadcrm-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes configures the unique user keys and the owner lookups of the
// interaction collections. Called on startup from main after Mongo has connected.
func (m *Mongo) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		models.CollectionUsers: {
			{
				Keys:    bson.D{{Key: "cpf", Value: 1}},
				Options: options.Index().SetName("uniq_cpf").SetUnique(true),
			},
			{
				// Email is optional, so only documents carrying one take part.
				Keys:    bson.D{{Key: "email", Value: 1}},
				Options: options.Index().SetName("uniq_email").SetUnique(true).SetSparse(true),
			},
		},
	}

	for _, name := range []string{
		models.CollectionCalls,
		models.CollectionVisits,
		models.CollectionLoanRequests,
		models.CollectionWhatsappMessages,
	} {
		indexes[name] = []mongo.IndexModel{
			{Keys: bson.D{{Key: "cpf", Value: 1}}, Options: options.Index().SetName("idx_cpf")},
			{Keys: bson.D{{Key: "user", Value: 1}}, Options: options.Index().SetName("idx_user")},
		}
	}

	for collection, ims := range indexes {
		if _, err := m.DB.Collection(collection).Indexes().CreateMany(ctx, ims); err != nil {
			return err
		}
	}
	return nil
}
