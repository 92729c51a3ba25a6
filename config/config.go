// config/config.go
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Configuration constants for the application
var (
	// Cassandra configuration
	CassandraHost     string
	CassandraUsername string
	CassandraPassword string
	CassandraKeyspace string
	CassandraPort     int

	// MongoDB configuration
	MongoURI      string
	MongoDatabase string

	// Redis configuration
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// ServerPort is the port on which the server will run
	ServerPort int

	// Matchmaking configuration
	MatchmakingInterval time.Duration
	LongWaitThreshold   time.Duration
	CleanupInterval     time.Duration
	LeftRetention       time.Duration

	// Application configuration
	AppName    = "QUESTMATCH"
	AppVersion = "1.0.0"
)

func init() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
	}

	// Cassandra configuration
	CassandraHost = getEnv("CASSANDRA_HOST", "localhost")
	CassandraUsername = getEnv("CASSANDRA_USERNAME", "cassandra")
	CassandraPassword = getEnv("CASSANDRA_PASSWORD", "cassandra")
	CassandraKeyspace = getEnv("CASSANDRA_KEYSPACE", "questmatch")
	CassandraPort = getEnvInt("CASSANDRA_PORT", 9042)

	// MongoDB configuration
	MongoURI = getEnv("MONGO_URI", "mongodb://localhost:27017")
	MongoDatabase = getEnv("MONGO_DATABASE", "questmatch")

	// Server configuration
	ServerPort = getEnvInt("SERVER_PORT", 8088)

	// Redis configuration
	RedisURL = getEnv("REDIS_URL", "localhost:6379")
	RedisPassword = getEnv("REDIS_PASSWORD", "")
	RedisDB = getEnvInt("REDIS_DB", 0)

	// Matchmaking configuration
	MatchmakingInterval = getEnvDuration("MATCHMAKING_INTERVAL", 10*time.Second)
	LongWaitThreshold = getEnvDuration("LONG_WAIT_THRESHOLD", 120*time.Second)
	CleanupInterval = getEnvDuration("CLEANUP_INTERVAL", 24*time.Hour)
	LeftRetention = getEnvDuration("LEFT_RETENTION", 24*time.Hour)
}

// getEnv gets environment variable with fallback default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable with fallback default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

// getEnvDuration gets a duration environment variable with fallback default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
