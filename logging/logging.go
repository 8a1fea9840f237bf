// Package logging configures the process-wide structured logger.
package logging

import (
	"github.com/sirupsen/logrus"

	"shieldedledger/config"
)

// New builds a logrus logger from cfg, defaulting to info level and a
// text formatter if either setting is unrecognized.
func New(cfg *config.Config) *logrus.Logger {
	log := logrus.New()

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	if cfg.LogFormat == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return log
}
