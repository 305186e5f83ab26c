// Package logging builds the structured loggers used across Shield.
//
// Loggers are plain *slog.Logger values. The handler chain adds scan pass,
// segment and trace identifiers from the context, and masks attributes that
// may carry page text:
//
//	logger, err := logging.New(logging.Config{
//	    Level:         "info",
//	    Format:        "json",
//	    RedactContent: true,
//	})
//
//	ctx = logging.WithPass(ctx, 12)
//	logger.InfoContext(ctx, "segment scored",
//	    "preview", text, // written as "*** (42 chars)"
//	)
package logging
