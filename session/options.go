package session

import "github.com/sirupsen/logrus"

// StoreOption is a functional option for configuring a session store.
type StoreOption func(*storeConfig)

// storeConfig holds configuration for session stores.
type storeConfig struct {
	codec Codec
	log   logrus.FieldLogger
}

// WithCipher encrypts every record with c.
func WithCipher(c Codec) StoreOption {
	return func(cfg *storeConfig) {
		cfg.codec = c
	}
}

// WithPlaintext stores records as plain JSON. Only suitable for mediums that
// isolate owners themselves.
func WithPlaintext() StoreOption {
	return func(cfg *storeConfig) {
		cfg.codec = plainCodec{}
	}
}

// WithLogger sets the logger used to report skipped records.
func WithLogger(log logrus.FieldLogger) StoreOption {
	return func(cfg *storeConfig) {
		cfg.log = log
	}
}
