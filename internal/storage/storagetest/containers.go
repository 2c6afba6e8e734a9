package storagetest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Container is a started service container shared across a test run
type Container struct {
	container testcontainers.Container
	host      string
	port      string
}

type sharedContainer struct {
	once      sync.Once
	container *Container
	err       error
}

var (
	redisShared   sharedContainer
	surrealShared sharedContainer
)

// StartRedis starts one Redis container per process. Skips the test when
// running with -short or when Docker is unavailable.
func StartRedis(t *testing.T) *Container {
	t.Helper()
	return start(t, &redisShared, testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(60 * time.Second),
	}, "6379/tcp")
}

// StartSurrealDB starts one SurrealDB container per process
func StartSurrealDB(t *testing.T) *Container {
	t.Helper()
	return start(t, &surrealShared, testcontainers.ContainerRequest{
		Image:        "surrealdb/surrealdb:v2.2.1",
		ExposedPorts: []string{"8000/tcp"},
		Cmd:          []string{"start", "--user", "root", "--pass", "root"},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("8000/tcp"),
			wait.ForLog("Started web server"),
		).WithDeadline(60 * time.Second),
	}, "8000/tcp")
}

func start(t *testing.T, shared *sharedContainer, req testcontainers.ContainerRequest, port string) *Container {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	shared.once.Do(func() {
		ctx := context.Background()

		container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: req,
			Started:          true,
		})
		if err != nil {
			shared.err = fmt.Errorf("start %s container: %w", req.Image, err)
			return
		}

		host, err := container.Host(ctx)
		if err != nil {
			container.Terminate(ctx)
			shared.err = fmt.Errorf("get %s host: %w", req.Image, err)
			return
		}

		mappedPort, err := container.MappedPort(ctx, port)
		if err != nil {
			container.Terminate(ctx)
			shared.err = fmt.Errorf("get %s port: %w", req.Image, err)
			return
		}

		shared.container = &Container{container: container, host: host, port: mappedPort.Port()}
	})

	if shared.err != nil {
		t.Skipf("container unavailable: %v", shared.err)
	}
	return shared.container
}

// HostPort returns host:port for TCP clients
func (c *Container) HostPort() string {
	return fmt.Sprintf("%s:%s", c.host, c.port)
}

// WebSocketURL returns the SurrealDB RPC endpoint
func (c *Container) WebSocketURL() string {
	return fmt.Sprintf("ws://%s:%s/rpc", c.host, c.port)
}
