package bridge

// Entity is a raw platform payload. The two platform families name their
// identifying fields differently and have drifted across versions, so
// accessors walk an ordered chain of candidate fields and settle for ""
// instead of erroring. Display code and completeness checks read through
// these; nothing in the panel assumes a fixed payload shape.
type Entity map[string]any

// ID resolves the remote identifier.
func (e Entity) ID() string {
	return e.First("id", "entity_id", "standard_id", "asset_id", "internal_id")
}

// Name resolves the display name. Observables carry values where domain
// objects carry names.
func (e Entity) Name() string {
	return e.First("name", "entity_name", "asset_name", "observable_value", "value")
}

// EntityType resolves the remote type name.
func (e Entity) EntityType() string {
	return e.First("entity_type", "type", "asset_type")
}

// Description resolves the long-form description, "" when the payload is
// the minimal cached form.
func (e Entity) Description() string {
	return e.First("description", "entity_description")
}

// First returns the first candidate field holding a non-empty string.
func (e Entity) First(candidates ...string) string {
	for _, c := range candidates {
		v, ok := e[c]
		if !ok {
			continue
		}
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// Map returns the entity as a plain map for callers that hold their own
// payload types. The map is shared, not copied.
func (e Entity) Map() map[string]any {
	return e
}
