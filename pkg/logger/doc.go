// Package logger builds configured *slog.Logger instances for the session
// subsystem. Components accept a logger via options and default to a
// discarding logger, so library consumers opt in to output explicitly.
//
//	log := logger.New(
//		logger.WithFormat(logger.FormatJSON),
//		logger.WithLevel(slog.LevelDebug),
//		logger.WithAttr(slog.String("component", "session")),
//	)
package logger
