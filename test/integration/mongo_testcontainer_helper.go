package integration

import (
	"context"
	"fmt"
	"net"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sandeepkv93/product-media-catalog/internal/config"
	"github.com/sandeepkv93/product-media-catalog/internal/database"
)

const defaultMongoTestImage = "docker.io/library/mongo:7.0"

type mongoIntegrationEnv struct {
	uri    string
	client *mongo.Client
	db     *mongo.Database
}

func newMongoIntegrationEnv(t *testing.T) *mongoIntegrationEnv {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping mongo container test in short mode")
	}

	ctx := context.Background()
	image := os.Getenv("MONGO_TEST_IMAGE")
	if strings.TrimSpace(image) == "" {
		image = defaultMongoTestImage
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        image,
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor: wait.ForListeningPort("27017/tcp").
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("start mongo test container: %v", err)
	}
	t.Cleanup(func() {
		_ = container.Terminate(ctx)
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("resolve mongo host: %v", err)
	}
	mappedPort, err := container.MappedPort(ctx, "27017/tcp")
	if err != nil {
		t.Fatalf("resolve mongo port: %v", err)
	}
	uri := "mongodb://" + net.JoinHostPort(host, mappedPort.Port())
	cfg := &config.Config{
		DatabaseDriver: config.DatabaseDriverMongo,
		MongoURI:       uri,
		MongoDatabase:  fmt.Sprintf("catalog_it_%d", time.Now().UnixNano()),
	}
	client, db, err := database.OpenMongo(ctx, cfg)
	if err != nil {
		t.Fatalf("open mongo: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Disconnect(context.Background())
	})
	if err := database.EnsureMongoIndexes(ctx, db); err != nil {
		t.Fatalf("ensure indexes: %v", err)
	}
	return &mongoIntegrationEnv{uri: uri, client: client, db: db}
}
