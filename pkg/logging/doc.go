// Package logging provides structured logging configuration for mocks-server.
//
// This package wraps log/slog to provide consistent logging across all
// components. Levels follow the names accepted by the "log" option: silly,
// debug, verbose, info, warn, error and silent.
//
// # Usage
//
//	logger, level := logging.NewDynamic(logging.Config{
//	    Level:  logging.ParseLevel("info"),
//	    Format: logging.FormatText,
//	})
//
//	logger.Info("server started", "port", 3100)
//	level.Set(logging.LevelDebug)
//
// A Store keeps the latest entries in memory; combine its handler with the
// output handler through NewMultiHandler.
//
// # Integration
//
// Components should accept a *slog.Logger in their constructor or via a setter.
// If no logger is provided, use logging.Nop() for a no-op logger.
package logging
