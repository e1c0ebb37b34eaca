// Package config provides layered, environment-aware configuration.
//
// A Store is a flat map from string keys to Values. Load reads up to three
// layer files from a directory and merges them in a fixed order, each layer
// overriding the keys of the one before:
//
//	default.yml      shared defaults
//	<ENV>.yml        the environment layer; ENV defaults to "production"
//	local.yml        machine-local overrides, usually not committed
//
// Each layer may also be written as .yaml, .json or .toml. Missing
// directories and missing layers are not errors. Loading a second directory
// layers it on top of what is already in the store.
//
// Keys are matched exactly; a dotted key such as "db.host" is one key, and
// Group("db") returns every "db.*" entry with the prefix stripped:
//
//	store := config.New()
//	_ = store.Load("./config")
//	host := store.GetString("db.host", "localhost")
//	db := store.Group("db") // {"host": ..., "port": ...}
//
// # Typed views
//
// Decode maps one group onto a struct using mapstructure tags, and Unmarshal
// projects the whole store through Viper (dotted keys become nested fields),
// applies PREFIX_* environment overrides and validates `validate` tags.
//
// # Process default
//
// Default returns a lazily created store that has already loaded
// <root>/config, where root is $REDKIT_ROOT or the working directory.
package config
