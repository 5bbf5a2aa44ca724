package notify

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/bookbuddy/storefront/pkg/logger"
)

func TestRecorderCounts(t *testing.T) {
	var r Recorder
	r.Success(context.Background(), "Item Added to cart")
	r.Error(context.Background(), "service unavailable")
	r.Error(context.Background(), "service unavailable")

	if r.Count(LevelSuccess) != 1 || r.Count(LevelError) != 2 {
		t.Fatalf("unexpected counts %+v", r.Messages())
	}
	if r.Messages()[0].Text != "Item Added to cart" {
		t.Fatalf("unexpected first message %+v", r.Messages()[0])
	}
}

func TestLogNotifierWritesLevelField(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(logger.New(logger.Options{ServiceName: "storefront", Output: &buf}))
	n.Error(context.Background(), "Failed to update order status")

	line := buf.String()
	if !strings.Contains(line, `"notification":"error"`) || !strings.Contains(line, "Failed to update order status") {
		t.Fatalf("unexpected log line %s", line)
	}
}
