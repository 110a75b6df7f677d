package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fjod/shopnest/internal/domain"
)

type mongoRepository struct {
	entries *mongo.Collection
	users   *mongo.Collection
}

type cartEntryBSON struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    string             `bson:"user_id"`
	ProductID string             `bson:"product_id"`
	ImageURL  string             `bson:"image_url"`
	Title     string             `bson:"title"`
	Price     string             `bson:"price"`
	BuyURL    string             `bson:"buy_url"`
	AddedAt   time.Time          `bson:"added_at"`
}

func (d cartEntryBSON) toDomain() domain.CartEntry {
	return domain.CartEntry{
		ID:        d.ID.Hex(),
		ProductID: d.ProductID,
		ImageURL:  d.ImageURL,
		Title:     d.Title,
		Price:     d.Price,
		BuyURL:    d.BuyURL,
		AddedAt:   d.AddedAt,
	}
}

type userBSON struct {
	UID          string    `bson:"_id"`
	Email        string    `bson:"email"`
	DisplayName  string    `bson:"display_name"`
	Phone        string    `bson:"phone"`
	AvatarURL    string    `bson:"avatar_url"`
	Role         string    `bson:"role"`
	IsActive     bool      `bson:"is_active"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
	PasswordHash string    `bson:"password_hash,omitempty"`
}

func (d userBSON) toDomain() *domain.User {
	return &domain.User{
		UID:          d.UID,
		Email:        d.Email,
		DisplayName:  d.DisplayName,
		Phone:        d.Phone,
		AvatarURL:    d.AvatarURL,
		Role:         d.Role,
		IsActive:     d.IsActive,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
		PasswordHash: d.PasswordHash,
	}
}

var bsonFields = map[domain.Field]string{
	domain.FieldProductID: "product_id",
	domain.FieldTitle:     "title",
	domain.FieldBuyURL:    "buy_url",
}

func (m *mongoRepository) List(ctx context.Context, userID string) ([]domain.CartEntry, error) {
	return m.find(ctx, bson.M{"user_id": userID})
}

func (m *mongoRepository) Add(ctx context.Context, userID string, entry domain.CartEntry) (string, error) {
	doc := cartEntryBSON{
		UserID:    userID,
		ProductID: entry.ProductID,
		ImageURL:  entry.ImageURL,
		Title:     entry.Title,
		Price:     entry.Price,
		BuyURL:    entry.BuyURL,
		AddedAt:   entry.AddedAt.UTC(),
	}
	if doc.AddedAt.IsZero() {
		doc.AddedAt = time.Now().UTC()
	}

	res, err := m.entries.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", ErrDuplicateEntry
		}
		return "", fmt.Errorf("failed to add cart entry: %w", err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	return oid.Hex(), nil
}

func (m *mongoRepository) Delete(ctx context.Context, userID, entryID string) error {
	oid, err := primitive.ObjectIDFromHex(entryID)
	if err != nil {
		return ErrEntryNotFound
	}

	result, err := m.entries.DeleteOne(ctx, bson.M{"_id": oid, "user_id": userID})
	if err != nil {
		return fmt.Errorf("failed to delete cart entry: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrEntryNotFound
	}
	return nil
}

func (m *mongoRepository) FindBy(ctx context.Context, userID string, field domain.Field, value string) ([]domain.CartEntry, error) {
	name, ok := bsonFields[field]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	return m.find(ctx, bson.M{"user_id": userID, name: value})
}

func (m *mongoRepository) find(ctx context.Context, filter bson.M) ([]domain.CartEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "added_at", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := m.entries.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query cart: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []cartEntryBSON
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode cart: %w", err)
	}

	entries := make([]domain.CartEntry, 0, len(docs))
	for _, d := range docs {
		entries = append(entries, d.toDomain())
	}
	return entries, nil
}

func (m *mongoRepository) GetUser(ctx context.Context, uid string) (*domain.User, error) {
	return m.findUser(ctx, bson.M{"_id": uid})
}

func (m *mongoRepository) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return m.findUser(ctx, bson.M{"email": email})
}

func (m *mongoRepository) findUser(ctx context.Context, filter bson.M) (*domain.User, error) {
	var d userBSON
	if err := m.users.FindOne(ctx, filter).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return d.toDomain(), nil
}

func (m *mongoRepository) PutUser(ctx context.Context, u *domain.User) error {
	if u == nil || u.UID == "" {
		return errors.New("mongo repository: PutUser requires user.UID")
	}
	doc := userBSON{
		UID:          u.UID,
		Email:        u.Email,
		DisplayName:  u.DisplayName,
		Phone:        u.Phone,
		AvatarURL:    u.AvatarURL,
		Role:         u.Role,
		IsActive:     u.IsActive,
		CreatedAt:    u.CreatedAt.UTC(),
		UpdatedAt:    u.UpdatedAt.UTC(),
		PasswordHash: u.PasswordHash,
	}
	opts := options.Replace().SetUpsert(true)
	if _, err := m.users.ReplaceOne(ctx, bson.M{"_id": u.UID}, doc, opts); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("failed to put user: %w", err)
	}
	return nil
}

// CreateIndexes makes (user_id, product_id) unique so a derived product id
// maps to at most one document per user.
func (m *mongoRepository) CreateIndexes(ctx context.Context) error {
	_, err := m.entries.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "product_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "added_at", Value: 1}},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create cart indexes: %w", err)
	}

	_, err = m.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}
	return nil
}

func (m *mongoRepository) Close(ctx context.Context) error {
	return m.entries.Database().Client().Disconnect(ctx)
}

func NewMongoRepository(db *mongo.Database) Store {
	return &mongoRepository{
		entries: db.Collection("cart_entries"),
		users:   db.Collection("users"),
	}
}
