package ir

// NOTE: These are store-layer types, not part of the plan wire schema.

// PlanRecord is one planning request persisted to the history store.
type PlanRecord struct {
	ID            string     `json:"id"`  // Request ID (UUIDv7)
	Seq           int64      `json:"seq"` // Logical insertion order, assigned by the store
	Command       Command    `json:"command"`
	SceneKey      string     `json:"scene_key"` // Catalog key the scene identifier resolved to
	SceneHash     string     `json:"scene_hash"`
	PlanHash      string     `json:"plan_hash"` // Content-addressed plan identity
	Plan          ActionPlan `json:"plan"`
	Model         string     `json:"model"` // Synthesizer that produced the plan
	SchemaVersion string     `json:"schema_version"`
}
