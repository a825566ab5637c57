package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ShoaibAJ01/zameerrealstates/internal/apperrors"
	"github.com/ShoaibAJ01/zameerrealstates/internal/models"
)

// MongoStore implements Store on top of the chats, messages and users
// collections.
type MongoStore struct {
	client   *mongo.Client
	chats    *mongo.Collection
	messages *mongo.Collection
	users    *mongo.Collection
}

func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	db := client.Database(database)
	s := &MongoStore{
		client:   client,
		chats:    db.Collection("chats"),
		messages: db.Collection("messages"),
		users:    db.Collection("users"),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	// at-most-one chat per unordered participant set
	_, err := s.chats.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "participants_key", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("chats index: %w", err)
	}
	_, err = s.messages.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "chat_id", Value: 1}, {Key: "created_at", Value: 1}, {Key: "_id", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("messages index: %w", err)
	}
	return nil
}

func (s *MongoStore) Disconnect(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// ParticipantsKey canonicalizes an unordered participant set.
func ParticipantsKey(participants []string) string {
	sorted := append([]string(nil), participants...)
	sort.Strings(sorted)
	return strings.Join(sorted, "|")
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", apperrors.ErrStorage, op, err)
}

func (s *MongoStore) FindOrCreateChat(ctx context.Context, participants []string) (*models.Chat, error) {
	key := ParticipantsKey(participants)
	now := time.Now().UTC()
	counts := make(map[string]int, len(participants))
	for _, p := range participants {
		counts[p] = 0
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)
	update := bson.M{"$setOnInsert": bson.M{
		"_id":              primitive.NewObjectID().Hex(),
		"participants":     participants,
		"participants_key": key,
		"unread_count":     counts,
		"created_at":       now,
		"updated_at":       now,
	}}

	var chat models.Chat
	err := s.chats.FindOneAndUpdate(ctx, bson.M{"participants_key": key}, update, opts).Decode(&chat)
	if mongo.IsDuplicateKeyError(err) {
		// lost the upsert race; the winner's document is there now
		err = s.chats.FindOne(ctx, bson.M{"participants_key": key}).Decode(&chat)
	}
	if err != nil {
		return nil, storageErr("find or create chat", err)
	}
	return &chat, nil
}

func (s *MongoStore) GetChat(ctx context.Context, chatID string) (*models.Chat, error) {
	var chat models.Chat
	err := s.chats.FindOne(ctx, bson.M{"_id": chatID}).Decode(&chat)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, storageErr("get chat", err)
	}
	return &chat, nil
}

func (s *MongoStore) ChatsByUser(ctx context.Context, userID string) ([]models.Chat, error) {
	opts := options.Find().SetSort(bson.D{{Key: "last_message_time", Value: -1}})
	cur, err := s.chats.Find(ctx, bson.M{"participants": userID}, opts)
	if err != nil {
		return nil, storageErr("chats by user", err)
	}
	var chats []models.Chat
	if err := cur.All(ctx, &chats); err != nil {
		return nil, storageErr("chats by user", err)
	}
	return chats, nil
}

func (s *MongoStore) AllChats(ctx context.Context) ([]models.Chat, error) {
	opts := options.Find().SetSort(bson.D{{Key: "last_message_time", Value: -1}})
	cur, err := s.chats.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, storageErr("all chats", err)
	}
	var chats []models.Chat
	if err := cur.All(ctx, &chats); err != nil {
		return nil, storageErr("all chats", err)
	}
	return chats, nil
}

// ApplySend is one UpdateOne on the chat document: the summary $set and the
// per-recipient $inc land atomically, so concurrent sends interleave without
// losing increments.
func (s *MongoStore) ApplySend(ctx context.Context, chatID, summary string, at time.Time, recipients []string) error {
	inc := bson.M{}
	for _, r := range recipients {
		inc["unread_count."+r] = 1
	}
	update := bson.M{
		"$set": bson.M{
			"last_message":      summary,
			"last_message_time": at,
			"updated_at":        at,
		},
	}
	if len(inc) > 0 {
		update["$inc"] = inc
	}
	res, err := s.chats.UpdateOne(ctx, bson.M{"_id": chatID}, update)
	if err != nil {
		return storageErr("apply send", err)
	}
	if res.MatchedCount == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (s *MongoStore) ResetUnread(ctx context.Context, chatID, userID string) error {
	res, err := s.chats.UpdateOne(ctx,
		bson.M{"_id": chatID},
		bson.M{"$set": bson.M{"unread_count." + userID: 0}},
	)
	if err != nil {
		return storageErr("reset unread", err)
	}
	if res.MatchedCount == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (s *MongoStore) AssignChat(ctx context.Context, chatID, assigneeID string) (*models.Chat, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var chat models.Chat
	err := s.chats.FindOneAndUpdate(ctx,
		bson.M{"_id": chatID},
		bson.M{"$set": bson.M{"assigned_to": assigneeID, "updated_at": time.Now().UTC()}},
		opts,
	).Decode(&chat)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, storageErr("assign chat", err)
	}
	return &chat, nil
}

func (s *MongoStore) InsertMessage(ctx context.Context, m *models.Message) (*models.Message, error) {
	if m.ID == "" {
		m.ID = primitive.NewObjectID().Hex()
	}
	if _, err := s.messages.InsertOne(ctx, m); err != nil {
		return nil, storageErr("insert message", err)
	}
	return m, nil
}

func (s *MongoStore) GetMessage(ctx context.Context, messageID string) (*models.Message, error) {
	var m models.Message
	err := s.messages.FindOne(ctx, bson.M{"_id": messageID}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, storageErr("get message", err)
	}
	return &m, nil
}

func (s *MongoStore) MessagesByChat(ctx context.Context, chatID string) ([]models.Message, error) {
	// _id breaks exact created_at ties in insertion order
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.messages.Find(ctx, bson.M{"chat_id": chatID}, opts)
	if err != nil {
		return nil, storageErr("messages by chat", err)
	}
	var msgs []models.Message
	if err := cur.All(ctx, &msgs); err != nil {
		return nil, storageErr("messages by chat", err)
	}
	return msgs, nil
}

// MarkEdited only matches a live message; losing the filter race with a
// concurrent delete surfaces as ErrInvalidState.
func (s *MongoStore) MarkEdited(ctx context.Context, messageID, body string, at time.Time) (*models.Message, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var m models.Message
	err := s.messages.FindOneAndUpdate(ctx,
		bson.M{"_id": messageID, "deleted": false},
		bson.M{"$set": bson.M{"body": body, "edited": true, "edited_at": at}},
		opts,
	).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperrors.ErrInvalidState
	}
	if err != nil {
		return nil, storageErr("mark edited", err)
	}
	return &m, nil
}

func (s *MongoStore) MarkDeleted(ctx context.Context, messageID string, at time.Time) (*models.Message, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var m models.Message
	err := s.messages.FindOneAndUpdate(ctx,
		bson.M{"_id": messageID, "deleted": false},
		bson.M{"$set": bson.M{"deleted": true, "deleted_at": at, "body": ""}},
		opts,
	).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperrors.ErrInvalidState
	}
	if err != nil {
		return nil, storageErr("mark deleted", err)
	}
	return &m, nil
}

func (s *MongoStore) MarkRead(ctx context.Context, chatID, userID string, at time.Time) error {
	_, err := s.messages.UpdateMany(ctx,
		bson.M{"chat_id": chatID, "sender_id": bson.M{"$ne": userID}, "read": false},
		bson.M{"$set": bson.M{"read": true, "read_at": at}},
	)
	if err != nil {
		return storageErr("mark read", err)
	}
	return nil
}

func (s *MongoStore) GetUser(ctx context.Context, userID string) (*models.User, error) {
	var u models.User
	err := s.users.FindOne(ctx, bson.M{"_id": userID}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, storageErr("get user", err)
	}
	return &u, nil
}

func (s *MongoStore) UserExists(ctx context.Context, userID string) (bool, error) {
	n, err := s.users.CountDocuments(ctx, bson.M{"_id": userID}, options.Count().SetLimit(1))
	if err != nil {
		return false, storageErr("user exists", err)
	}
	return n > 0, nil
}

func (s *MongoStore) FindAdmin(ctx context.Context) (*models.User, error) {
	var u models.User
	err := s.users.FindOne(ctx, bson.M{"role": models.RoleAdmin}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, storageErr("find admin", err)
	}
	return &u, nil
}
