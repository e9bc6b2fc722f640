package config

import "time"

// Default configuration values.
const (
	DefaultHTTPAddr        = "127.0.0.1:8080"
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultBackend    = "memory"
	DefaultDataDir    = "./data"
	DefaultGCInterval = 10 * time.Minute

	DefaultRegion     = "us-east-1"
	DefaultUsersTable = "users"
	DefaultPostsTable = "posts"

	DefaultSessionTTL       = 7 * 24 * time.Hour
	DefaultTokenBytes       = 32
	DefaultHasher           = "pbkdf2-sha256"
	DefaultPBKDF2Iterations = 29000

	DefaultMaxVoteAttempts = 3

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			HTTP: HTTPConfig{
				Addr:         DefaultHTTPAddr,
				ReadTimeout:  DefaultReadTimeout,
				WriteTimeout: DefaultWriteTimeout,
				Audit:        true,
			},
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Storage: StorageSection{
			Backend: DefaultBackend,
			DataDir: DefaultDataDir,
			Badger: BadgerConfig{
				GCInterval: DefaultGCInterval,
				SyncWrites: true,
			},
			DynamoDB: DynamoDBConfig{
				Region:     DefaultRegion,
				UsersTable: DefaultUsersTable,
				PostsTable: DefaultPostsTable,
			},
		},
		Auth: AuthSection{
			SessionTTL:       DefaultSessionTTL,
			TokenBytes:       DefaultTokenBytes,
			Hasher:           DefaultHasher,
			PBKDF2Iterations: DefaultPBKDF2Iterations,
		},
		Posts: PostsSection{
			AutoUpvoteAuthor: true,
			MaxVoteAttempts:  DefaultMaxVoteAttempts,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
