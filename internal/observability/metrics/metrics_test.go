package metrics

import (
	"testing"

	"go.opentelemetry.io/otel/attribute"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("vendor_id", "123"),
		attribute.String("waba_id", "456"),
		attribute.String("event_type", "FINISH"),
	)
	if len(attrs) != 2 {
		t.Fatalf("expected 2 attributes, got %d", len(attrs))
	}
	if attrs[0].Key != "vendor_id" && attrs[1].Key != "vendor_id" {
		t.Fatalf("expected vendor_id to be retained")
	}
	if attrs[0].Key != "event_type" && attrs[1].Key != "event_type" {
		t.Fatalf("expected event_type to be retained")
	}
}
