package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ayush/myflix/internal/common"
	"github.com/ayush/myflix/internal/models"
)

// MongoStore handles users and the movie catalog in MongoDB.
type MongoStore struct {
	users   *mongo.Collection
	movies  *mongo.Collection
	timeout time.Duration
}

func NewMongoStore(db *mongo.Database, timeout time.Duration) *MongoStore {
	return &MongoStore{
		users:   db.Collection("users"),
		movies:  db.Collection("movies"),
		timeout: timeout,
	}
}

type userDoc struct {
	ID             primitive.ObjectID   `bson:"_id,omitempty"`
	Username       string               `bson:"username"`
	Password       string               `bson:"password"`
	Email          string               `bson:"email,omitempty"`
	Birthday       string               `bson:"birthday,omitempty"`
	FavoriteMovies []primitive.ObjectID `bson:"favoriteMovies"`
}

func (d *userDoc) toModel() *models.User {
	favs := make([]string, 0, len(d.FavoriteMovies))
	for _, id := range d.FavoriteMovies {
		favs = append(favs, id.Hex())
	}
	return &models.User{
		ID:             d.ID.Hex(),
		Username:       d.Username,
		Password:       d.Password,
		Email:          d.Email,
		Birthday:       d.Birthday,
		FavoriteMovies: favs,
	}
}

type movieDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	models.Movie `bson:",inline"`
}

func (d *movieDoc) toModel() *models.Movie {
	m := d.Movie
	m.ID = d.ID.Hex()
	return &m
}

// EnsureIndexes creates the unique username index.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("mongo users index: %w", err)
	}
	return nil
}

// ── Users ───────────────────────────────────────────────────

func (s *MongoStore) CreateUser(ctx context.Context, u *models.User) (*models.User, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	doc := userDoc{
		Username:       u.Username,
		Password:       u.Password,
		Email:          u.Email,
		Birthday:       u.Birthday,
		FavoriteMovies: []primitive.ObjectID{},
	}
	res, err := s.users.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, common.ErrAlreadyExists
		}
		return nil, fmt.Errorf("mongo insert user: %w", err)
	}
	doc.ID = res.InsertedID.(primitive.ObjectID)
	return doc.toModel(), nil
}

func (s *MongoStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.findUser(ctx, bson.M{"username": username})
}

func (s *MongoStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, common.ErrNotFound
	}
	return s.findUser(ctx, bson.M{"_id": oid})
}

func (s *MongoStore) findUser(ctx context.Context, filter bson.M) (*models.User, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	var doc userDoc
	if err := s.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("mongo find user: %w", err)
	}
	return doc.toModel(), nil
}

func (s *MongoStore) UpdateUser(ctx context.Context, id string, upd models.UserUpdate) (*models.User, error) {
	set := bson.M{}
	if upd.Username != nil {
		set["username"] = *upd.Username
	}
	if upd.Password != nil {
		set["password"] = *upd.Password
	}
	if upd.Email != nil {
		set["email"] = *upd.Email
	}
	if upd.Birthday != nil {
		set["birthday"] = *upd.Birthday
	}
	if len(set) == 0 {
		return s.GetUserByID(ctx, id)
	}
	return s.modifyUser(ctx, id, bson.M{"$set": set})
}

func (s *MongoStore) DeleteUser(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return common.ErrNotFound
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.users.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("mongo delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return common.ErrNotFound
	}
	return nil
}

// AddFavorite adds movieID to the user's favorites; adding twice is a no-op.
func (s *MongoStore) AddFavorite(ctx context.Context, userID, movieID string) (*models.User, error) {
	mid, err := primitive.ObjectIDFromHex(movieID)
	if err != nil {
		return nil, common.ErrNotFound
	}
	return s.modifyUser(ctx, userID, bson.M{"$addToSet": bson.M{"favoriteMovies": mid}})
}

func (s *MongoStore) RemoveFavorite(ctx context.Context, userID, movieID string) (*models.User, error) {
	mid, err := primitive.ObjectIDFromHex(movieID)
	if err != nil {
		return nil, common.ErrNotFound
	}
	return s.modifyUser(ctx, userID, bson.M{"$pull": bson.M{"favoriteMovies": mid}})
}

func (s *MongoStore) modifyUser(ctx context.Context, id string, update bson.M) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, common.ErrNotFound
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc userDoc
	err = s.users.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return nil, common.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return nil, common.ErrAlreadyExists
	case err != nil:
		return nil, fmt.Errorf("mongo update user: %w", err)
	}
	return doc.toModel(), nil
}

// ── Movies ──────────────────────────────────────────────────

func (s *MongoStore) ListMovies(ctx context.Context) ([]models.Movie, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "title", Value: 1}})
	cur, err := s.movies.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo list movies: %w", err)
	}
	defer cur.Close(ctx)

	var docs []movieDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo decode movies: %w", err)
	}
	out := make([]models.Movie, 0, len(docs))
	for i := range docs {
		out = append(out, *docs[i].toModel())
	}
	return out, nil
}

func (s *MongoStore) GetMovieByTitle(ctx context.Context, title string) (*models.Movie, error) {
	return s.findMovie(ctx, bson.M{"title": title})
}

func (s *MongoStore) GetMovieByID(ctx context.Context, id string) (*models.Movie, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, common.ErrNotFound
	}
	return s.findMovie(ctx, bson.M{"_id": oid})
}

func (s *MongoStore) GetGenre(ctx context.Context, name string) (*models.Genre, error) {
	m, err := s.findMovie(ctx, bson.M{"genre.name": name})
	if err != nil {
		return nil, err
	}
	return &m.Genre, nil
}

func (s *MongoStore) GetDirector(ctx context.Context, name string) (*models.Director, error) {
	m, err := s.findMovie(ctx, bson.M{"director.name": name})
	if err != nil {
		return nil, err
	}
	return &m.Director, nil
}

func (s *MongoStore) findMovie(ctx context.Context, filter bson.M) (*models.Movie, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	var doc movieDoc
	if err := s.movies.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("mongo find movie: %w", err)
	}
	return doc.toModel(), nil
}
