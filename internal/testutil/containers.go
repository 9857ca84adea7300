// containers.go
//
// An authenticating request gateway and content store for the BasicBlog backend
// Copyright (c) 2026 BasicBlog Gateway contributors
//
// This file is part of basicblog-gateway.
// basicblog-gateway is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// basicblog-gateway is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with basicblog-gateway.
// If not, see <https://www.gnu.org/licenses/>.

// Helper for running database-backed tests against a real MariaDB in a
// container. Used by the integration tests and by the cmd/testcontainers
// standalone runner. Expects environment variables to be loaded from .env
// files when customization is needed.

package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	_ "github.com/go-sql-driver/mysql"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/basicblog/gateway/internal/config"
)

const (
	defaultDBImage    = "mariadb:11"
	defaultDBPort     = "3306"
	defaultDBDatabase = "basicblog"
	defaultDBUser     = "gateway"
	defaultDBPassword = "gateway-test-pw"
	rootPassword      = "root-test-pw"
)

// DBContainer is a running MariaDB container with connection coordinates.
type DBContainer struct {
	Container testcontainers.Container
	Host      string
	Port      nat.Port
	Database  string
	User      string
	Password  string
}

// StartMariaDB creates and starts a MariaDB container, waits until it
// accepts connections, and returns its coordinates. Pass a nil *testing.T
// when running outside a test binary; failures then go to stderr and exit.
func StartMariaDB(t *testing.T) (*DBContainer, error) {
	ctx := context.Background()

	tcpPort, err := nat.NewPort("tcp", getEnv("DB_PORT", defaultDBPort))
	if err != nil {
		exitWithError(t, err, "Failed to create DB port")
	}

	dbc := &DBContainer{
		Port:     tcpPort,
		Database: getEnv("DB_DATABASE", defaultDBDatabase),
		User:     getEnv("DB_USER", defaultDBUser),
		Password: getEnv("DB_PASSWORD", defaultDBPassword),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        getEnv("DB_IMAGE", defaultDBImage),
			ExposedPorts: []string{string(tcpPort)},
			Env: map[string]string{
				"MYSQL_ROOT_PASSWORD": rootPassword,
				"MYSQL_DATABASE":      dbc.Database,
				"MYSQL_USER":          dbc.User,
				"MYSQL_PASSWORD":      dbc.Password,
			},
			WaitingFor: wait.ForListeningPort(tcpPort).WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		exitWithError(t, err, "Failed to start MariaDB")
	}
	dbc.Container = container

	host, _ := container.Host(ctx)
	mappedPort, _ := container.MappedPort(ctx, tcpPort)
	dbc.Host = host
	dbc.Port = mappedPort

	if err := dbc.waitReady(); err != nil {
		dbc.Terminate(t)
		exitWithError(t, err, "MariaDB not ready")
	}

	logMessage(t, "MariaDB testcontainer started at %s:%s", dbc.Host, dbc.Port.Port())
	return dbc, nil
}

// Terminate stops and removes the container.
func (dbc *DBContainer) Terminate(t *testing.T) {
	if dbc.Container == nil {
		return
	}
	if err := dbc.Container.Terminate(context.Background()); err != nil {
		logMessage(t, "Failed to terminate MariaDB: %v", err)
	}
}

// Config builds a gateway configuration pointing at the container.
func (dbc *DBContainer) Config() *config.Config {
	return &config.Config{
		Port:              "3000",
		Env:               "development",
		DBType:            "mysql",
		DBHost:            dbc.Host,
		DBPort:            dbc.Port.Port(),
		DBDatabase:        dbc.Database,
		DBUser:            dbc.User,
		DBPassword:        dbc.Password,
		DBConnectionLimit: 5,
		SessionTTL:        time.Hour,
		GatewaySecret:     "integration-test-secret",
		UpstreamBase:      "http://localhost:5000",
		UpstreamTimeout:   5 * time.Second,
	}
}

// waitReady pings with the raw driver until the server accepts connections.
// The container listens before the server is fully up, so the port wait
// alone is not enough.
func (dbc *DBContainer) waitReady() error {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s", dbc.User, dbc.Password, dbc.Host, dbc.Port.Port(), dbc.Database)
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	for i := 0; i < 30; i++ {
		err = db.Ping()
		if err == nil {
			return nil
		}
		time.Sleep(1 * time.Second)
	}
	return err
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func exitWithError(t *testing.T, err error, msg string) {
	if t != nil {
		t.Fatalf(msg+": %v", err)
	} else {
		fmt.Printf(msg+": %v\n", err)
		os.Exit(1)
	}
}

func logMessage(t *testing.T, format string, args ...any) {
	if t != nil {
		t.Logf(format, args...)
	} else {
		fmt.Printf(format+"\n", args...)
	}
}
