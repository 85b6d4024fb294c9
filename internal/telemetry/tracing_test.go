package telemetry

import (
	"context"
	"testing"
)

func TestInitDisabledIsNoop(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{})
	if err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown() error: %v", err)
	}
}

func TestInitStdoutExporter(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{Exporter: "stdout", ServiceName: "git-cas-test"})
	if err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	t.Cleanup(func() { _ = shutdown(context.Background()) })

	ctx, span := StartOperation(context.Background(), "store", "slug-1", "")
	span.End()
	if ctx == nil {
		t.Fatal("StartOperation returned nil context")
	}
}

func TestInitUnknownExporter(t *testing.T) {
	if _, err := Init(context.Background(), Config{Exporter: "bogus"}); err == nil {
		t.Fatal("expected error for unknown exporter")
	}
}
