package db

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"yt-harvest/pkg/domain"
)

// Collection names of the staging database.
const (
	ChannelsCollection  = "channels"
	PlaylistsCollection = "playlists"
	VideosCollection    = "videos"
	CommentsCollection  = "comments"
)

// ErrNotFound is returned when a lookup matches no document.
var ErrNotFound = errors.New("db: not found")

// Client wraps the MongoDB client and the four staging collections
type Client struct {
	mongoClient *mongo.Client
	database    *mongo.Database
	channels    *mongo.Collection
	playlists   *mongo.Collection
	videos      *mongo.Collection
	comments    *mongo.Collection
}

// NewClient creates a new database client
func NewClient(connectionString, databaseName string) *Client {
	clientOptions := options.Client().ApplyURI(connectionString)
	mongoClient, err := mongo.Connect(context.Background(), clientOptions)
	if err != nil {
		// Return client with nil - error will be caught during Connect()
		return &Client{}
	}

	database := mongoClient.Database(databaseName)

	return &Client{
		mongoClient: mongoClient,
		database:    database,
		channels:    database.Collection(ChannelsCollection),
		playlists:   database.Collection(PlaylistsCollection),
		videos:      database.Collection(VideosCollection),
		comments:    database.Collection(CommentsCollection),
	}
}

// Connect establishes connection to MongoDB
func (c *Client) Connect(ctx context.Context) error {
	if c.mongoClient == nil {
		return fmt.Errorf("mongo client not initialized")
	}
	return c.mongoClient.Ping(ctx, nil)
}

// Ping checks the server is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.Connect(ctx)
}

// Close closes the MongoDB connection
func (c *Client) Close(ctx context.Context) error {
	if c.mongoClient == nil {
		return nil
	}
	return c.mongoClient.Disconnect(ctx)
}

// SaveHarvest writes one harvest: the channel as a single document, then the
// playlists, videos and comments as bulk inserts. The four writes are not
// transactional; a failure leaves the earlier collections written.
func (c *Client) SaveHarvest(ctx context.Context, h *domain.Harvest) error {
	if c.channels == nil {
		return fmt.Errorf("collection not initialized")
	}

	if _, err := c.channels.InsertOne(ctx, h.Channel); err != nil {
		return fmt.Errorf("insert channel %s: %w", h.Channel.ID, err)
	}
	if err := insertMany(ctx, c.playlists, h.Playlists); err != nil {
		return fmt.Errorf("insert playlists: %w", err)
	}
	if err := insertMany(ctx, c.videos, h.Videos); err != nil {
		return fmt.Errorf("insert videos: %w", err)
	}
	if err := insertMany(ctx, c.comments, h.Comments); err != nil {
		return fmt.Errorf("insert comments: %w", err)
	}
	return nil
}

func insertMany[T any](ctx context.Context, coll *mongo.Collection, records []T) error {
	if len(records) == 0 {
		return nil
	}
	docs := make([]interface{}, len(records))
	for i := range records {
		docs[i] = records[i]
	}
	_, err := coll.InsertMany(ctx, docs)
	return err
}

// ChannelExists reports whether a channel document with the given id is staged.
func (c *Client) ChannelExists(ctx context.Context, channelID string) (bool, error) {
	if c.channels == nil {
		return false, fmt.Errorf("collection not initialized")
	}
	n, err := c.channels.CountDocuments(ctx, bson.M{"Channel_Id": channelID}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count channels: %w", err)
	}
	return n > 0, nil
}

// ChannelNames returns the display names of all staged channels.
func (c *Client) ChannelNames(ctx context.Context) ([]string, error) {
	if c.channels == nil {
		return nil, fmt.Errorf("collection not initialized")
	}

	cursor, err := c.channels.Find(ctx, bson.M{}, options.Find().SetProjection(bson.M{"Channel_Name": 1, "_id": 0}))
	if err != nil {
		return nil, fmt.Errorf("failed to query channel names: %w", err)
	}
	defer cursor.Close(ctx)

	names := make([]string, 0)
	for cursor.Next(ctx) {
		var result struct {
			Name string `bson:"Channel_Name"`
		}
		if err := cursor.Decode(&result); err != nil {
			continue // Skip invalid documents
		}
		names = append(names, result.Name)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return names, nil
}

// FindChannelByName returns the first staged channel with the given display name.
func (c *Client) FindChannelByName(ctx context.Context, name string) (*domain.Channel, error) {
	return c.findChannel(ctx, bson.M{"Channel_Name": name})
}

// FindChannelByID returns the staged channel with the given id.
func (c *Client) FindChannelByID(ctx context.Context, channelID string) (*domain.Channel, error) {
	return c.findChannel(ctx, bson.M{"Channel_Id": channelID})
}

func (c *Client) findChannel(ctx context.Context, filter bson.M) (*domain.Channel, error) {
	if c.channels == nil {
		return nil, fmt.Errorf("collection not initialized")
	}
	var ch domain.Channel
	err := c.channels.FindOne(ctx, filter).Decode(&ch)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find channel: %w", err)
	}
	return &ch, nil
}

// FindPlaylists returns the staged playlists of a channel.
func (c *Client) FindPlaylists(ctx context.Context, channelID string) ([]domain.Playlist, error) {
	return findAll[domain.Playlist](ctx, c.playlists, bson.M{"Channel_Id": channelID})
}

// FindVideos returns the staged videos of a channel.
func (c *Client) FindVideos(ctx context.Context, channelID string) ([]domain.Video, error) {
	return findAll[domain.Video](ctx, c.videos, bson.M{"Channel_Id": channelID})
}

// FindComments returns staged comments. A nil videoIDs returns every comment
// in the store regardless of channel; otherwise only comments on those videos.
func (c *Client) FindComments(ctx context.Context, videoIDs []string) ([]domain.Comment, error) {
	filter := bson.M{}
	if videoIDs != nil {
		filter = bson.M{"Video_Id": bson.M{"$in": videoIDs}}
	}
	return findAll[domain.Comment](ctx, c.comments, filter)
}

// VideoIDs returns the ids of a channel's staged videos.
func (c *Client) VideoIDs(ctx context.Context, channelID string) ([]string, error) {
	videos, err := c.FindVideos(ctx, channelID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(videos))
	for _, v := range videos {
		ids = append(ids, v.ID)
	}
	return ids, nil
}

// DeleteChannel removes a channel and everything staged under it, children first.
func (c *Client) DeleteChannel(ctx context.Context, channelID string) error {
	if c.channels == nil {
		return fmt.Errorf("collection not initialized")
	}

	videoIDs, err := c.VideoIDs(ctx, channelID)
	if err != nil {
		return err
	}
	if len(videoIDs) > 0 {
		if _, err := c.comments.DeleteMany(ctx, bson.M{"Video_Id": bson.M{"$in": videoIDs}}); err != nil {
			return fmt.Errorf("delete comments: %w", err)
		}
	}
	if _, err := c.videos.DeleteMany(ctx, bson.M{"Channel_Id": channelID}); err != nil {
		return fmt.Errorf("delete videos: %w", err)
	}
	if _, err := c.playlists.DeleteMany(ctx, bson.M{"Channel_Id": channelID}); err != nil {
		return fmt.Errorf("delete playlists: %w", err)
	}
	if _, err := c.channels.DeleteMany(ctx, bson.M{"Channel_Id": channelID}); err != nil {
		return fmt.Errorf("delete channel: %w", err)
	}
	return nil
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, filter bson.M) ([]T, error) {
	if coll == nil {
		return nil, fmt.Errorf("collection not initialized")
	}

	cursor, err := coll.Find(ctx, filter, options.Find().SetProjection(bson.M{"_id": 0}))
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", coll.Name(), err)
	}
	defer cursor.Close(ctx)

	out := make([]T, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", coll.Name(), err)
	}
	return out, nil
}
