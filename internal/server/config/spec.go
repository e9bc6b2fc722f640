package config

import "time"

// ServerConfig is the root configuration for postvote-server.
type ServerConfig struct {
	Server  ServerSection  `koanf:"server"`
	Storage StorageSection `koanf:"storage"`
	Auth    AuthSection    `koanf:"auth"`
	Posts   PostsSection   `koanf:"posts"`
	Log     LogSection     `koanf:"log"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	HTTP  HTTPConfig  `koanf:"http"`
	Local LocalConfig `koanf:"local"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// HTTPConfig configures the HTTP server. TLS is enabled when both files are set.
type HTTPConfig struct {
	Addr         string        `koanf:"addr"`
	TLSCertFile  string        `koanf:"tls_cert_file"`
	TLSKeyFile   string        `koanf:"tls_key_file"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`

	// CORSAllowedOrigins enables CORS for the listed origins ("*" allows any).
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`

	// Audit logs one line per request.
	Audit bool `koanf:"audit"`
}

// LocalConfig configures the local management socket.
type LocalConfig struct {
	// SocketPath is the Unix socket path (empty = disabled).
	SocketPath string `koanf:"socket_path"`
}

// StorageSection selects and configures the storage backend.
type StorageSection struct {
	// Backend is memory, badger or dynamodb.
	Backend string `koanf:"backend"`

	// DataDir is the badger database directory.
	DataDir string `koanf:"data_dir"`

	Badger   BadgerConfig   `koanf:"badger"`
	DynamoDB DynamoDBConfig `koanf:"dynamodb"`
}

// BadgerConfig tunes the badger backend.
type BadgerConfig struct {
	GCInterval time.Duration `koanf:"gc_interval"`
	SyncWrites bool          `koanf:"sync_writes"`
}

// DynamoDBConfig configures the dynamodb backend. Credentials default to the
// AWS SDK chain when the static keys are empty.
type DynamoDBConfig struct {
	Region          string `koanf:"region"`
	Endpoint        string `koanf:"endpoint"`
	UsersTable      string `koanf:"users_table"`
	PostsTable      string `koanf:"posts_table"`
	CreateTables    bool   `koanf:"create_tables"`
	AccessKeyID     string `koanf:"access_key_id"`
	SecretAccessKey string `koanf:"secret_access_key"`
}

// AuthSection configures sessions and hashing.
type AuthSection struct {
	SessionTTL       time.Duration `koanf:"session_ttl"`
	TokenBytes       int           `koanf:"token_bytes"`
	Hasher           string        `koanf:"hasher"`
	PBKDF2Iterations int           `koanf:"pbkdf2_iterations"`
}

// PostsSection configures posting and voting.
type PostsSection struct {
	AutoUpvoteAuthor bool `koanf:"auto_upvote_author"`
	MaxVoteAttempts  int  `koanf:"max_vote_attempts"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// TLSEnabled reports whether both TLS files are configured.
func (c HTTPConfig) TLSEnabled() bool {
	return c.TLSCertFile != "" && c.TLSKeyFile != ""
}
