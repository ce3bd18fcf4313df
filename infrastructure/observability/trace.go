package observability

import (
	"go.opentelemetry.io/otel/attribute"

	"github.com/felixgeelhaar/agent-presence/domain/middleware"
	"github.com/felixgeelhaar/agent-presence/domain/presence"
)

// Span attribute keys used for deliveries.
const (
	AttrSource    = attribute.Key("feed.source")
	AttrSession   = attribute.Key("presence.session")
	AttrReported  = attribute.Key("presence.reported")
	AttrActivity  = attribute.Key("presence.activity")
	AttrFrom      = attribute.Key("presence.from")
	AttrState     = attribute.Key("presence.state")
	AttrChanged   = attribute.Key("presence.changed")
	AttrCanonical = attribute.Key("presence.canonical")
	AttrFallback  = attribute.Key("presence.fallback")
	AttrAccent    = attribute.Key("presence.accent")
	AttrHeight    = attribute.Key("presence.visualizer_height")
)

// DeliveryAttributes describes a delivery before it is handled.
func DeliveryAttributes(d *middleware.Delivery) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		AttrSource.String(d.Source),
		AttrSession.String(d.Session),
		AttrReported.String(string(d.Update.State)),
		AttrFrom.String(string(d.Current)),
	}
	if a, ok := d.Update.ActivityLevel(); ok {
		attrs = append(attrs, AttrActivity.Float64(a))
	}
	return attrs
}

// ResultAttributes describes the outcome of a delivery.
func ResultAttributes(r middleware.Result) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrState.String(string(r.Profile.State)),
		AttrChanged.Bool(r.Changed),
		AttrCanonical.Bool(r.Canonical),
		AttrFallback.Bool(r.Fallback),
		AttrAccent.String(string(r.Profile.Accent)),
		AttrHeight.Int(r.Profile.VisualizerHeight),
	}
}

// ProfileAttributes describes a derived profile on its own.
func ProfileAttributes(p presence.Profile) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrState.String(string(p.State)),
		AttrAccent.String(string(p.Accent)),
		AttrHeight.Int(p.VisualizerHeight),
	}
}
