// Package log is the structured logging facade used across cwship.
//
// Callers log a message plus typed fields:
//
//	logger.Info("batch delivered", log.Stream("app"), log.Int("records", n))
//
// FromZerolog backs the facade with a zerolog.Logger.
// NewNoopLogger drops everything and is the default for library users who
// pass no logger. With binds fields to every later call:
//
//	streamLog := log.With(logger, log.LogGroup(group), log.Stream(name))
//
// Any type with the four level methods of Logger can be passed in instead.
package log
