package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/pageza/pantrypal/backend/internal/database"
	"github.com/pageza/pantrypal/backend/internal/models"
	"github.com/pageza/pantrypal/backend/internal/search"
)

// recipeDoc is the stored shape of a recipe. Ids are kept as uuid strings.
type recipeDoc struct {
	ID          string    `bson:"_id"`
	Title       string    `bson:"title"`
	Ingredients []string  `bson:"ingredients"`
	Steps       []string  `bson:"steps"`
	Cuisine     string    `bson:"cuisine"`
	DietType    string    `bson:"dietType"`
	CookingTime int       `bson:"cookingTime"`
	Images      []string  `bson:"images"`
	Likes       int       `bson:"likes"`
	LikedBy     []string  `bson:"likedBy"`
	Owner       string    `bson:"owner"`
	CreatedAt   time.Time `bson:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt"`
}

var bsonFields = map[search.Field]string{
	search.FieldTitle:       "title",
	search.FieldIngredients: "ingredients",
	search.FieldSteps:       "steps",
	search.FieldCuisine:     "cuisine",
	search.FieldDietType:    "dietType",
	search.FieldCookingTime: "cookingTime",
	search.FieldCreatedAt:   "createdAt",
	search.FieldLikes:       "likes",
}

func toRecipeDoc(r *models.Recipe) recipeDoc {
	return recipeDoc{
		ID:          r.ID.String(),
		Title:       r.Title,
		Ingredients: nonNil(r.Ingredients),
		Steps:       nonNil(r.Steps),
		Cuisine:     r.Cuisine,
		DietType:    r.DietType,
		CookingTime: r.CookingTime,
		Images:      nonNil(r.Images),
		Likes:       r.Likes,
		LikedBy:     idStrings(r.LikedBy),
		Owner:       r.OwnerID.String(),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func (d recipeDoc) model() models.Recipe {
	return models.Recipe{
		ID:          uuid.MustParse(d.ID),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
		Title:       d.Title,
		Ingredients: models.StringList(nonNil(d.Ingredients)),
		Steps:       models.StringList(nonNil(d.Steps)),
		Cuisine:     d.Cuisine,
		DietType:    d.DietType,
		CookingTime: d.CookingTime,
		Images:      models.StringList(nonNil(d.Images)),
		Likes:       d.Likes,
		LikedBy:     parseIDs(d.LikedBy),
		OwnerID:     uuid.MustParse(d.Owner),
	}
}

type MongoRecipeRepository struct {
	recipes *mongo.Collection
	users   *mongo.Collection
}

func NewMongoRecipeRepository(db *mongo.Database) *MongoRecipeRepository {
	return &MongoRecipeRepository{
		recipes: db.Collection(database.RecipesCollection),
		users:   db.Collection(database.UsersCollection),
	}
}

func (r *MongoRecipeRepository) Create(ctx context.Context, recipe *models.Recipe) error {
	now := time.Now().UTC()
	if recipe.CreatedAt.IsZero() {
		recipe.CreatedAt = now
	}
	recipe.UpdatedAt = now
	recipe.Likes = 0
	recipe.LikedBy = []uuid.UUID{}

	_, err := r.recipes.InsertOne(ctx, toRecipeDoc(recipe))
	return translateMongo(err)
}

func (r *MongoRecipeRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Recipe, error) {
	var doc recipeDoc
	if err := r.recipes.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc); err != nil {
		return nil, translateMongo(err)
	}
	recipes := []models.Recipe{doc.model()}
	if err := r.attachOwners(ctx, recipes); err != nil {
		return nil, err
	}
	return &recipes[0], nil
}

func (r *MongoRecipeRepository) Update(ctx context.Context, recipe *models.Recipe) error {
	recipe.UpdatedAt = time.Now().UTC()
	doc := toRecipeDoc(recipe)
	res, err := r.recipes.UpdateByID(ctx, doc.ID, bson.M{"$set": bson.M{
		"title":       doc.Title,
		"ingredients": doc.Ingredients,
		"steps":       doc.Steps,
		"cuisine":     doc.Cuisine,
		"dietType":    doc.DietType,
		"cookingTime": doc.CookingTime,
		"images":      doc.Images,
		"updatedAt":   doc.UpdatedAt,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRecipeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.recipes.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	_, err = r.users.UpdateMany(ctx,
		bson.M{"favorites": id.String()},
		bson.M{"$pull": bson.M{"favorites": id.String()}},
	)
	return err
}

func (r *MongoRecipeRepository) Search(ctx context.Context, q search.Query) ([]models.Recipe, int64, error) {
	filter := mongoFilter(q.Clauses)

	total, err := r.recipes.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	order := q.Order()
	dir := 1
	if order.Desc {
		dir = -1
	}
	opts := options.Find().
		SetSort(bson.D{{Key: bsonFields[order.Field], Value: dir}, {Key: "_id", Value: 1}}).
		SetSkip(int64(q.Offset())).
		SetLimit(int64(q.Limit))

	recipes, err := r.find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	return recipes, total, nil
}

// mongoFilter renders clauses as an $and of $regex / $lte predicates.
func mongoFilter(clauses []search.Clause) bson.M {
	if len(clauses) == 0 {
		return bson.M{}
	}
	and := bson.A{}
	for _, c := range clauses {
		if c.Kind == search.AtMost {
			and = append(and, bson.M{bsonFields[c.Fields[0]]: bson.M{"$lte": c.Bound}})
			continue
		}
		pattern := c.Pattern(search.PerlBoundary)
		or := bson.A{}
		for _, f := range c.Fields {
			or = append(or, bson.M{bsonFields[f]: bson.M{"$regex": pattern, "$options": "i"}})
		}
		and = append(and, bson.M{"$or": or})
	}
	return bson.M{"$and": and}
}

func (r *MongoRecipeRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Recipe, error) {
	return r.find(ctx, bson.M{"owner": ownerID.String()}, newestFirst())
}

func (r *MongoRecipeRepository) ListFavorites(ctx context.Context, userID uuid.UUID) ([]models.Recipe, error) {
	var user userDoc
	err := r.users.FindOne(ctx, bson.M{"_id": userID.String()},
		options.FindOne().SetProjection(bson.M{"favorites": 1})).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return []models.Recipe{}, nil
		}
		return nil, err
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": nonNil(user.Favorites)}}, newestFirst())
}

func (r *MongoRecipeRepository) ListLiked(ctx context.Context, userID uuid.UUID) ([]models.Recipe, error) {
	return r.find(ctx, bson.M{"likedBy": userID.String()}, newestFirst())
}

// ToggleLike adds or removes the user and recounts likes in one
// single-document pipeline update.
func (r *MongoRecipeRepository) ToggleLike(ctx context.Context, recipeID, userID uuid.UUID) (models.LikeResult, error) {
	var doc recipeDoc
	err := r.recipes.FindOneAndUpdate(ctx,
		bson.M{"_id": recipeID.String()},
		togglePipeline("likedBy", userID.String(), "likes"),
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return models.LikeResult{}, translateMongo(err)
	}
	return models.LikeResult{Liked: contains(doc.LikedBy, userID.String()), Likes: doc.Likes}, nil
}

// togglePipeline flips value's membership in the array field. When countField
// is set it is recomputed as the array's size in the same update.
func togglePipeline(field, value, countField string) mongo.Pipeline {
	current := bson.D{{Key: "$ifNull", Value: bson.A{"$" + field, bson.A{}}}}
	toggled := bson.D{{Key: "$cond", Value: bson.A{
		bson.D{{Key: "$in", Value: bson.A{value, current}}},
		bson.D{{Key: "$filter", Value: bson.D{
			{Key: "input", Value: current},
			{Key: "cond", Value: bson.D{{Key: "$ne", Value: bson.A{"$$this", value}}}},
		}}},
		bson.D{{Key: "$concatArrays", Value: bson.A{current, bson.A{value}}}},
	}}}

	pipeline := mongo.Pipeline{{{Key: "$set", Value: bson.D{{Key: field, Value: toggled}}}}}
	if countField != "" {
		pipeline = append(pipeline, bson.D{{Key: "$set", Value: bson.D{
			{Key: countField, Value: bson.D{{Key: "$size", Value: "$" + field}}},
		}}})
	}
	return pipeline
}

func (r *MongoRecipeRepository) find(ctx context.Context, filter interface{}, opts *options.FindOptions) ([]models.Recipe, error) {
	cur, err := r.recipes.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var docs []recipeDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	recipes := make([]models.Recipe, len(docs))
	for i, d := range docs {
		recipes[i] = d.model()
	}
	if err := r.attachOwners(ctx, recipes); err != nil {
		return nil, err
	}
	return recipes, nil
}

func (r *MongoRecipeRepository) attachOwners(ctx context.Context, recipes []models.Recipe) error {
	if len(recipes) == 0 {
		return nil
	}
	ids := make([]string, 0, len(recipes))
	for _, rec := range recipes {
		ids = append(ids, rec.OwnerID.String())
	}

	cur, err := r.users.Find(ctx, bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetProjection(bson.M{"name": 1, "email": 1}))
	if err != nil {
		return err
	}
	var owners []userDoc
	if err := cur.All(ctx, &owners); err != nil {
		return err
	}

	byID := make(map[string]*models.UserSummary, len(owners))
	for _, o := range owners {
		byID[o.ID] = &models.UserSummary{ID: uuid.MustParse(o.ID), Name: o.Name, Email: o.Email}
	}
	for i := range recipes {
		recipes[i].Owner = byID[recipes[i].OwnerID.String()]
	}
	return nil
}

func newestFirst() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}})
}

func translateMongo(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return ErrDuplicate
	default:
		return err
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func idStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func parseIDs(ss []string) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ss))
	for _, s := range ss {
		if id, err := uuid.Parse(s); err == nil {
			out = append(out, id)
		}
	}
	return out
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
