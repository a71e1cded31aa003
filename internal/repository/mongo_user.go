package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/pageza/pantrypal/backend/internal/database"
	"github.com/pageza/pantrypal/backend/internal/models"
)

type userDoc struct {
	ID           string    `bson:"_id"`
	Name         string    `bson:"name"`
	Email        string    `bson:"email"`
	PasswordHash string    `bson:"passwordHash"`
	ProfileImage string    `bson:"profileImage,omitempty"`
	Favorites    []string  `bson:"favorites"`
	CreatedAt    time.Time `bson:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt"`
}

func (d userDoc) model() *models.User {
	return &models.User{
		ID:           uuid.MustParse(d.ID),
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
		Name:         d.Name,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		ProfileImage: d.ProfileImage,
		Favorites:    parseIDs(d.Favorites),
	}
}

type MongoUserRepository struct {
	users   *mongo.Collection
	recipes *mongo.Collection
}

func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{
		users:   db.Collection(database.UsersCollection),
		recipes: db.Collection(database.RecipesCollection),
	}
}

func (r *MongoUserRepository) Create(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now
	user.Favorites = []uuid.UUID{}

	_, err := r.users.InsertOne(ctx, userDoc{
		ID:           user.ID.String(),
		Name:         user.Name,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		ProfileImage: user.ProfileImage,
		Favorites:    []string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	return translateMongo(err)
}

func (r *MongoUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id.String()})
}

func (r *MongoUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": models.NormalizeEmail(email)})
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var doc userDoc
	if err := r.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, translateMongo(err)
	}
	return doc.model(), nil
}

func (r *MongoUserRepository) Update(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now().UTC()
	set := bson.M{
		"name":         user.Name,
		"email":        user.Email,
		"passwordHash": user.PasswordHash,
		"updatedAt":    user.UpdatedAt,
	}
	update := bson.M{"$set": set}
	if user.ProfileImage != "" {
		set["profileImage"] = user.ProfileImage
	} else {
		update["$unset"] = bson.M{"profileImage": ""}
	}

	res, err := r.users.UpdateByID(ctx, user.ID.String(), update)
	if err != nil {
		return translateMongo(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete cascades document by document; MongoDB gives no cross-document
// atomicity here, so a failure part way leaves the user in place for a retry.
func (r *MongoUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	uid := id.String()
	if err := r.users.FindOne(ctx, bson.M{"_id": uid}).Err(); err != nil {
		return translateMongo(err)
	}

	owned, err := r.recipes.Distinct(ctx, "_id", bson.M{"owner": uid})
	if err != nil {
		return err
	}
	if len(owned) > 0 {
		if _, err := r.recipes.DeleteMany(ctx, bson.M{"owner": uid}); err != nil {
			return err
		}
		if _, err := r.users.UpdateMany(ctx,
			bson.M{"favorites": bson.M{"$in": owned}},
			bson.M{"$pull": bson.M{"favorites": bson.M{"$in": owned}}},
		); err != nil {
			return err
		}
	}

	unlike := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{{Key: "likedBy", Value: bson.D{{Key: "$filter", Value: bson.D{
			{Key: "input", Value: "$likedBy"},
			{Key: "cond", Value: bson.D{{Key: "$ne", Value: bson.A{"$$this", uid}}}},
		}}}}}}},
		{{Key: "$set", Value: bson.D{{Key: "likes", Value: bson.D{{Key: "$size", Value: "$likedBy"}}}}}},
	}
	if _, err := r.recipes.UpdateMany(ctx, bson.M{"likedBy": uid}, unlike); err != nil {
		return err
	}

	_, err = r.users.DeleteOne(ctx, bson.M{"_id": uid})
	return err
}

func (r *MongoUserRepository) ToggleFavorite(ctx context.Context, userID, recipeID uuid.UUID) (bool, error) {
	var doc userDoc
	err := r.users.FindOneAndUpdate(ctx,
		bson.M{"_id": userID.String()},
		togglePipeline("favorites", recipeID.String(), ""),
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return false, translateMongo(err)
	}
	return contains(doc.Favorites, recipeID.String()), nil
}

func (r *MongoUserRepository) Stats(ctx context.Context, userID uuid.UUID) (models.Stats, error) {
	var stats models.Stats
	uid := userID.String()

	cur, err := r.recipes.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "owner", Value: uid}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "likes", Value: bson.D{{Key: "$sum", Value: "$likes"}}},
			{Key: "ids", Value: bson.D{{Key: "$push", Value: "$_id"}}},
		}}},
	})
	if err != nil {
		return stats, err
	}
	var groups []struct {
		Count int64    `bson:"count"`
		Likes int64    `bson:"likes"`
		IDs   []string `bson:"ids"`
	}
	if err := cur.All(ctx, &groups); err != nil {
		return stats, err
	}
	if len(groups) == 0 {
		return stats, nil
	}
	stats.RecipesCreated = groups[0].Count
	stats.TotalLikes = groups[0].Likes

	cur, err = r.users.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "favorites", Value: bson.D{{Key: "$in", Value: groups[0].IDs}}}}}},
		{{Key: "$project", Value: bson.D{{Key: "n", Value: bson.D{{Key: "$size", Value: bson.D{
			{Key: "$setIntersection", Value: bson.A{"$favorites", groups[0].IDs}},
		}}}}}}},
		{{Key: "$group", Value: bson.D{{Key: "_id", Value: nil}, {Key: "total", Value: bson.D{{Key: "$sum", Value: "$n"}}}}}},
	})
	if err != nil {
		return stats, err
	}
	var totals []struct {
		Total int64 `bson:"total"`
	}
	if err := cur.All(ctx, &totals); err != nil {
		return stats, err
	}
	if len(totals) > 0 {
		stats.TotalFavorites = totals[0].Total
	}
	return stats, nil
}
