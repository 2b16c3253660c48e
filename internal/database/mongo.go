package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"coursemart/entity"
	"coursemart/internal/config"
)

const (
	collectionUsers    = "users"
	collectionCourses  = "courses"
	collectionCart     = "selected_courses"
	collectionPayments = "payments"
)

type MongoDB struct {
	clientOptions *options.ClientOptions
	database      string
}

func NewMongoClient(conf *config.Config) *MongoDB {
	if !conf.Mongo.Enabled {
		return nil
	}
	connectionUri := fmt.Sprintf("mongodb://%s:%s", conf.Mongo.Host, conf.Mongo.Port)
	clientOptions := options.Client().ApplyURI(connectionUri)
	if conf.Mongo.User != "" {
		clientOptions.SetAuth(options.Credential{
			Username:   conf.Mongo.User,
			Password:   conf.Mongo.Password,
			AuthSource: conf.Mongo.Database,
		})
	}
	return &MongoDB{
		clientOptions: clientOptions,
		database:      conf.Mongo.Database,
	}
}

func (m *MongoDB) connect(ctx context.Context) (*mongo.Client, error) {
	connection, err := mongo.Connect(ctx, m.clientOptions)
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}
	return connection, nil
}

func (m *MongoDB) disconnect(connection *mongo.Client) {
	_ = connection.Disconnect(context.Background())
}

func objectId(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: invalid id %q", entity.ErrNotFound, id)
	}
	return oid, nil
}

// Ping verifies connectivity at startup.
func (m *MongoDB) Ping(ctx context.Context) error {
	connection, err := m.connect(ctx)
	if err != nil {
		return err
	}
	defer m.disconnect(connection)
	return connection.Database(m.database).RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err()
}

// --- users ---

func (m *MongoDB) FindAllUsers(ctx context.Context) ([]*entity.User, error) {
	connection, err := m.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionUsers)
	cursor, err := collection.Find(ctx, bson.D{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []*entity.User
	if err = cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (m *MongoDB) FindUserByEmail(ctx context.Context, email string) (*entity.User, error) {
	connection, err := m.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionUsers)
	var user entity.User
	err = collection.FindOne(ctx, bson.D{{Key: "email", Value: email}}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mongodb find: %w", err)
	}
	return &user, nil
}

// UpsertUser creates or refreshes the account record keyed by email.
// Profile fields are overwritten, the role is preserved: re-login must
// not strip an admin or instructor grant.
func (m *MongoDB) UpsertUser(ctx context.Context, user *entity.User) error {
	connection, err := m.connect(ctx)
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionUsers)
	filter := bson.D{{Key: "email", Value: user.Email}}
	update := bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "name", Value: user.Name},
			{Key: "photo_url", Value: user.PhotoURL},
		}},
		{Key: "$setOnInsert", Value: bson.D{
			{Key: "email", Value: user.Email},
		}},
	}
	opts := options.Update().SetUpsert(true)
	_, err = collection.UpdateOne(ctx, filter, update, opts)
	return err
}

func (m *MongoDB) SetUserRole(ctx context.Context, id string, role entity.Role) error {
	oid, err := objectId(id)
	if err != nil {
		return err
	}
	connection, err := m.connect(ctx)
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionUsers)
	update := bson.D{{Key: "$set", Value: bson.D{{Key: "role", Value: role}}}}
	res, err := collection.UpdateOne(ctx, bson.D{{Key: "_id", Value: oid}}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return entity.ErrNotFound
	}
	return nil
}

func (m *MongoDB) DeleteUser(ctx context.Context, id string) error {
	oid, err := objectId(id)
	if err != nil {
		return err
	}
	connection, err := m.connect(ctx)
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionUsers)
	res, err := collection.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return entity.ErrNotFound
	}
	return nil
}

// --- courses ---

func (m *MongoDB) InsertCourse(ctx context.Context, course *entity.Course) (string, error) {
	connection, err := m.connect(ctx)
	if err != nil {
		return "", err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionCourses)
	res, err := collection.InsertOne(ctx, course)
	if err != nil {
		return "", err
	}
	oid, _ := res.InsertedID.(primitive.ObjectID)
	return oid.Hex(), nil
}

func (m *MongoDB) FindCourseById(ctx context.Context, id string) (*entity.Course, error) {
	oid, err := objectId(id)
	if err != nil {
		return nil, err
	}
	connection, err := m.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionCourses)
	var course entity.Course
	err = collection.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&course)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mongodb find: %w", err)
	}
	return &course, nil
}

func (m *MongoDB) findCourses(ctx context.Context, filter bson.D, opts ...*options.FindOptions) ([]*entity.Course, error) {
	connection, err := m.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionCourses)
	cursor, err := collection.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var courses []*entity.Course
	if err = cursor.All(ctx, &courses); err != nil {
		return nil, err
	}
	return courses, nil
}

func (m *MongoDB) FindAllCourses(ctx context.Context) ([]*entity.Course, error) {
	return m.findCourses(ctx, bson.D{})
}

func (m *MongoDB) FindCoursesByState(ctx context.Context, state entity.CourseState) ([]*entity.Course, error) {
	return m.findCourses(ctx, bson.D{{Key: "state", Value: state}})
}

func (m *MongoDB) FindCoursesByHost(ctx context.Context, email string) ([]*entity.Course, error) {
	return m.findCourses(ctx, bson.D{{Key: "host_email", Value: email}})
}

// PopularCourses returns approved courses ranked by all-time student
// count, a popularity metric independent of current seat counters.
func (m *MongoDB) PopularCourses(ctx context.Context, limit int64) ([]*entity.Course, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "total_students", Value: -1}}).
		SetLimit(limit)
	return m.findCourses(ctx, bson.D{{Key: "state", Value: entity.StateApproved}}, opts)
}

func (m *MongoDB) SetCourseState(ctx context.Context, id string, state entity.CourseState, feedback string) error {
	oid, err := objectId(id)
	if err != nil {
		return err
	}
	connection, err := m.connect(ctx)
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionCourses)
	set := bson.D{{Key: "state", Value: state}}
	if feedback != "" {
		set = append(set, bson.E{Key: "feedback", Value: feedback})
	}
	res, err := collection.UpdateOne(ctx, bson.D{{Key: "_id", Value: oid}}, bson.D{{Key: "$set", Value: set}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return entity.ErrNotFound
	}
	return nil
}

func (m *MongoDB) DeleteCourse(ctx context.Context, id string) error {
	oid, err := objectId(id)
	if err != nil {
		return err
	}
	connection, err := m.connect(ctx)
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionCourses)
	res, err := collection.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return entity.ErrNotFound
	}
	return nil
}

// AdjustSeats applies both counter deltas in a single update so that
// concurrent enrollments for the same course cannot lose updates.
// When seats are being taken the filter requires enough availability,
// keeping available_seats from going negative.
func (m *MongoDB) AdjustSeats(ctx context.Context, courseId string, deltaEnrolled, deltaAvailable int64) error {
	oid, err := objectId(courseId)
	if err != nil {
		return err
	}
	connection, err := m.connect(ctx)
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionCourses)
	filter := bson.D{{Key: "_id", Value: oid}}
	if deltaAvailable < 0 {
		filter = append(filter, bson.E{Key: "available_seats", Value: bson.D{{Key: "$gte", Value: -deltaAvailable}}})
	}
	update := bson.D{{Key: "$inc", Value: bson.D{
		{Key: "enrolled_students", Value: deltaEnrolled},
		{Key: "available_seats", Value: deltaAvailable},
		{Key: "total_students", Value: deltaEnrolled},
	}}}
	res, err := collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return entity.ErrNotFound
	}
	return nil
}

// --- cart ---

func (m *MongoDB) FindCartByUser(ctx context.Context, email string) ([]*entity.CartEntry, error) {
	connection, err := m.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionCart)
	cursor, err := collection.Find(ctx, bson.D{{Key: "user_email", Value: email}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []*entity.CartEntry
	if err = cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (m *MongoDB) InsertCartEntry(ctx context.Context, entry *entity.CartEntry) (string, error) {
	connection, err := m.connect(ctx)
	if err != nil {
		return "", err
	}
	defer m.disconnect(connection)

	if entry.Id == "" {
		entry.Id = uuid.NewString()
	}
	collection := connection.Database(m.database).Collection(collectionCart)
	if _, err = collection.InsertOne(ctx, entry); err != nil {
		return "", err
	}
	return entry.Id, nil
}

func (m *MongoDB) DeleteCartEntry(ctx context.Context, id string) error {
	connection, err := m.connect(ctx)
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionCart)
	res, err := collection.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return entity.ErrNotFound
	}
	return nil
}

// --- payments ---

func (m *MongoDB) AppendPayment(ctx context.Context, p *entity.Payment) (string, error) {
	connection, err := m.connect(ctx)
	if err != nil {
		return "", err
	}
	defer m.disconnect(connection)

	if p.Id == "" {
		p.Id = uuid.NewString()
	}
	collection := connection.Database(m.database).Collection(collectionPayments)
	if _, err = collection.InsertOne(ctx, p); err != nil {
		return "", err
	}
	return p.Id, nil
}

func (m *MongoDB) FindPaymentsByUser(ctx context.Context, email string) ([]*entity.Payment, error) {
	connection, err := m.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionPayments)
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := collection.Find(ctx, bson.D{{Key: "user_email", Value: email}}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var payments []*entity.Payment
	if err = cursor.All(ctx, &payments); err != nil {
		return nil, err
	}
	return payments, nil
}

func (m *MongoDB) SetPaymentStatus(ctx context.Context, transactionId, status string) error {
	connection, err := m.connect(ctx)
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionPayments)
	update := bson.D{{Key: "$set", Value: bson.D{{Key: "status", Value: status}}}}
	res, err := collection.UpdateOne(ctx, bson.D{{Key: "transaction_id", Value: transactionId}}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return entity.ErrNotFound
	}
	return nil
}
