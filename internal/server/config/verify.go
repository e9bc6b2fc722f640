package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
)

// Verify validates the configuration and reports every problem found.
func Verify(cfg *ServerConfig) error {
	return errors.Join(
		verifyServer(&cfg.Server),
		verifyStorage(&cfg.Storage),
		verifyAuth(&cfg.Auth),
		verifyPosts(&cfg.Posts),
		verifyLog(&cfg.Log),
	)
}

func verifyServer(cfg *ServerSection) error {
	var errs []error
	if _, _, err := net.SplitHostPort(cfg.HTTP.Addr); err != nil {
		errs = append(errs, fmt.Errorf("server.http.addr: %w", err))
	}
	if (cfg.HTTP.TLSCertFile == "") != (cfg.HTTP.TLSKeyFile == "") {
		errs = append(errs, errors.New("server.http.tls_cert_file and tls_key_file must be set together"))
	}
	for _, f := range []string{cfg.HTTP.TLSCertFile, cfg.HTTP.TLSKeyFile} {
		if f == "" {
			continue
		}
		if _, err := os.Stat(f); err != nil {
			errs = append(errs, fmt.Errorf("server.http tls file: %w", err))
		}
	}
	if p := cfg.Local.SocketPath; p != "" {
		if _, err := os.Stat(filepath.Dir(p)); err != nil {
			errs = append(errs, fmt.Errorf("server.local.socket_path: %w", err))
		}
	}
	if cfg.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("server.shutdown_timeout must be positive"))
	}
	return errors.Join(errs...)
}

func verifyStorage(cfg *StorageSection) error {
	switch cfg.Backend {
	case "memory":
		return nil
	case "badger":
		if cfg.DataDir == "" {
			return errors.New("storage.data_dir is required for the badger backend")
		}
		if err := os.MkdirAll(cfg.DataDir, 0o750); err != nil {
			return fmt.Errorf("cannot create data directory: %w", err)
		}
		if cfg.Badger.GCInterval < 0 {
			return errors.New("storage.badger.gc_interval must not be negative")
		}
		return nil
	case "dynamodb":
		var errs []error
		if cfg.DynamoDB.Region == "" {
			errs = append(errs, errors.New("storage.dynamodb.region is required"))
		}
		if cfg.DynamoDB.UsersTable == "" || cfg.DynamoDB.PostsTable == "" {
			errs = append(errs, errors.New("storage.dynamodb.users_table and posts_table are required"))
		}
		if cfg.DynamoDB.UsersTable == cfg.DynamoDB.PostsTable {
			errs = append(errs, errors.New("storage.dynamodb.users_table and posts_table must differ"))
		}
		if (cfg.DynamoDB.AccessKeyID == "") != (cfg.DynamoDB.SecretAccessKey == "") {
			errs = append(errs, errors.New("storage.dynamodb.access_key_id and secret_access_key must be set together"))
		}
		return errors.Join(errs...)
	}
	return fmt.Errorf("storage.backend %q is not one of memory, badger, dynamodb", cfg.Backend)
}

func verifyAuth(cfg *AuthSection) error {
	var errs []error
	if cfg.SessionTTL <= 0 {
		errs = append(errs, errors.New("auth.session_ttl must be positive"))
	}
	if cfg.TokenBytes < 16 {
		errs = append(errs, errors.New("auth.token_bytes must be at least 16"))
	}
	switch cfg.Hasher {
	case "pbkdf2-sha256", "argon2id":
	default:
		errs = append(errs, fmt.Errorf("auth.hasher %q is not one of pbkdf2-sha256, argon2id", cfg.Hasher))
	}
	if cfg.PBKDF2Iterations < 1000 {
		errs = append(errs, errors.New("auth.pbkdf2_iterations must be at least 1000"))
	}
	return errors.Join(errs...)
}

func verifyPosts(cfg *PostsSection) error {
	if cfg.MaxVoteAttempts < 1 {
		return errors.New("posts.max_vote_attempts must be at least 1")
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	var errs []error
	switch cfg.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is invalid", cfg.Level))
	}
	switch cfg.Format {
	case "json", "text", "console":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is invalid", cfg.Format))
	}
	return errors.Join(errs...)
}
