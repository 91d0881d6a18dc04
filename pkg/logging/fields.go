package logging

import "log/slog"

// Domain identifiers

func Connection(id string) slog.Attr {
	return slog.String("connection_id", id)
}

func Room(name string) slog.Attr {
	return slog.String("room", name)
}

func Topic(name string) slog.Attr {
	return slog.String("topic", name)
}

func Item(id int64) slog.Attr {
	return slog.Int64("item_id", id)
}

// Request / tracing

func RequestID(id string) slog.Attr {
	return slog.String("request_id", id)
}

func TraceID(id string) slog.Attr {
	return slog.String("trace_id", id)
}

// Error handling

func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}
