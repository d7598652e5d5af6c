package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainPlan  = "roboplan/plan/v1"
	DomainScene = "roboplan/scene/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// PlanHash computes the content-addressed identity of a plan.
// Two plans hash equal iff their canonical serializations are equal, so the
// hash is independent of compact vs indented output and map iteration order.
func PlanHash(p ActionPlan) (string, error) {
	canonical, err := MarshalCanonical(p)
	if err != nil {
		return "", fmt.Errorf("PlanHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainPlan, canonical), nil
}

// SceneHash computes the content-addressed identity of a scene.
func SceneHash(s Scene) (string, error) {
	objects := make(List, len(s.Objects))
	for i, obj := range s.Objects {
		objects[i] = Params{
			"name":        String(obj.Name),
			"object_type": String(obj.ObjectType),
			"position": Params{
				"x": Float(obj.Position.X),
				"y": Float(obj.Position.Y),
				"z": Float(obj.Position.Z),
			},
			"confidence": Float(obj.Confidence),
		}
	}
	obj := Params{"objects": objects}
	if s.Description != "" {
		obj["description"] = String(s.Description)
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("SceneHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainScene, canonical), nil
}

// MustPlanHash is like PlanHash but panics on error.
// Use only in tests or when the plan is known to be valid.
func MustPlanHash(p ActionPlan) string {
	hash, err := PlanHash(p)
	if err != nil {
		panic(err)
	}
	return hash
}
