// Package confloader loads configuration with koanf.
//
// Sources, highest priority first:
//
//  1. Explicit overrides (LoadMap, e.g. command-line flags)
//  2. Environment variables (POSTVOTE_ prefix)
//  3. The YAML configuration file
//  4. Defaults already present in the target struct
//
// Environment variables map to keys by lower-casing and replacing "_" with
// ".". Keys that themselves contain underscores (storage.data_dir) are
// resolved against the koanf tags of the target struct, so
// POSTVOTE_STORAGE_DATA_DIR sets storage.data_dir.
//
// Watcher reports writes to the configuration file so callers can re-load
// the settings that are safe to change at runtime.
package confloader
