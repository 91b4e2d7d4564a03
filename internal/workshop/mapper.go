package workshop

import (
	"errors"
	"strings"
	"time"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
)

// Coordinates of the Workshop custom resource owned by the operator.
const (
	Group   = "orchestra.io"
	Version = "v1"
	Kind    = "Workshop"
	Plural  = "workshops"
)

// GVR scopes every custom-object call this service makes.
var GVR = schema.GroupVersionResource{Group: Group, Version: Version, Resource: Plural}

// ManagedLabels marks resources created through this API so the operator
// and cleanup tooling can select them.
func ManagedLabels() map[string]any {
	return map[string]any{
		"app":        "orchestra-operator",
		"managed-by": "orchestra-api",
	}
}

// ToObject builds the wire document for a workshop spec. Optional blocks
// are included only when present; absent sub-fields are omitted, never
// emitted as null. Pure: no I/O, no clock.
func ToObject(spec Spec, namespace string) *unstructured.Unstructured {
	specMap := map[string]any{
		"name":     spec.Name,
		"duration": spec.Duration,
		"image":    spec.Image,
		"resources": map[string]any{
			"cpu":           spec.Resources.CPU,
			"memory":        spec.Resources.Memory,
			"cpuRequest":    spec.Resources.CPURequest,
			"memoryRequest": spec.Resources.MemoryRequest,
		},
	}

	if spec.Storage != nil {
		storage := map[string]any{"size": spec.Storage.Size}
		if spec.Storage.StorageClass != "" {
			storage["storageClass"] = spec.Storage.StorageClass
		}
		specMap["storage"] = storage
	}

	if spec.Ingress != nil {
		ingress := map[string]any{}
		if spec.Ingress.Host != "" {
			ingress["host"] = spec.Ingress.Host
		}
		if len(spec.Ingress.Annotations) > 0 {
			annotations := map[string]any{}
			for k, v := range spec.Ingress.Annotations {
				annotations[k] = v
			}
			ingress["annotations"] = annotations
		}
		specMap["ingress"] = ingress
	}

	return &unstructured.Unstructured{Object: map[string]any{
		"apiVersion": Group + "/" + Version,
		"kind":       Kind,
		"metadata": map[string]any{
			"name":      spec.Name,
			"namespace": namespace,
			"labels":    ManagedLabels(),
		},
		"spec": specMap,
	}}
}

// FromObject reads a wire document back into the domain representation,
// applying defaults for missing spec fields. The only hard requirement is
// metadata.name; everything else degrades to defaults or absence.
func FromObject(obj *unstructured.Unstructured) (Workshop, error) {
	name, _, _ := unstructured.NestedString(obj.Object, "metadata", "name")
	if name == "" {
		return Workshop{}, errors.New("document has no metadata.name")
	}
	namespace, _, _ := unstructured.NestedString(obj.Object, "metadata", "namespace")

	w := Workshop{
		Name:      name,
		Namespace: namespace,
		Spec:      specFromObject(obj),
		Status:    statusFromObject(obj),
	}

	if created, _, _ := unstructured.NestedString(obj.Object, "metadata", "creationTimestamp"); created != "" {
		w.CreatedAt = ParseTimestamp(created)
	}

	return w, nil
}

func specFromObject(obj *unstructured.Unstructured) Spec {
	spec := Spec{
		Name:     stringOr(obj, "", "spec", "name"),
		Duration: stringOr(obj, DefaultDuration, "spec", "duration"),
		Image:    stringOr(obj, DefaultImage, "spec", "image"),
		Resources: Resources{
			CPU:           stringOr(obj, DefaultCPULimit, "spec", "resources", "cpu"),
			Memory:        stringOr(obj, DefaultMemoryLimit, "spec", "resources", "memory"),
			CPURequest:    stringOr(obj, DefaultCPURequest, "spec", "resources", "cpuRequest"),
			MemoryRequest: stringOr(obj, DefaultMemoryRequest, "spec", "resources", "memoryRequest"),
		},
	}
	if spec.Name == "" {
		spec.Name = stringOr(obj, "", "metadata", "name")
	}

	if _, found, _ := unstructured.NestedMap(obj.Object, "spec", "storage"); found {
		spec.Storage = &Storage{
			Size:         stringOr(obj, DefaultStorageSize, "spec", "storage", "size"),
			StorageClass: stringOr(obj, "", "spec", "storage", "storageClass"),
		}
	}

	if _, found, _ := unstructured.NestedMap(obj.Object, "spec", "ingress"); found {
		ingress := &Ingress{Host: stringOr(obj, "", "spec", "ingress", "host")}
		if annotations, ok, _ := unstructured.NestedStringMap(obj.Object, "spec", "ingress", "annotations"); ok && len(annotations) > 0 {
			ingress.Annotations = annotations
		}
		spec.Ingress = ingress
	}

	return spec
}

func statusFromObject(obj *unstructured.Unstructured) Status {
	status := Status{Phase: PhasePending}

	raw, found, _ := unstructured.NestedMap(obj.Object, "status")
	if !found || len(raw) == 0 {
		return status
	}

	if phase, ok := raw["phase"].(string); ok && phase != "" {
		status.Phase = Phase(phase)
	}
	if url, ok := raw["url"].(string); ok {
		status.URL = url
	}
	if s, ok := raw["createdAt"].(string); ok {
		status.CreatedAt = ParseTimestamp(s)
	}
	if s, ok := raw["expiresAt"].(string); ok {
		status.ExpiresAt = ParseTimestamp(s)
	}

	// Conditions keep wire order.
	if items, ok, _ := unstructured.NestedSlice(obj.Object, "status", "conditions"); ok {
		for _, item := range items {
			cond, ok := item.(map[string]any)
			if !ok {
				continue
			}
			c := Condition{}
			if v, ok := cond["type"].(string); ok {
				c.Type = v
			}
			if v, ok := cond["status"].(string); ok {
				c.Status = v
			}
			if v, ok := cond["reason"].(string); ok {
				c.Reason = v
			}
			if v, ok := cond["message"].(string); ok {
				c.Message = v
			}
			if v, ok := cond["lastTransitionTime"].(string); ok {
				c.LastTransitionTime = ParseTimestamp(v)
			}
			status.Conditions = append(status.Conditions, c)
		}
	}

	return status
}

// ParseTimestamp parses an ISO-8601 timestamp. A trailing Z is normalized
// to an explicit +00:00 offset first. Malformed values map to nil;
// timestamps are always optional in the domain model, so best-effort is
// the contract here.
func ParseTimestamp(s string) *time.Time {
	if s == "" {
		return nil
	}
	if strings.HasSuffix(s, "Z") {
		s = strings.TrimSuffix(s, "Z") + "+00:00"
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

func stringOr(obj *unstructured.Unstructured, def string, fields ...string) string {
	if v, found, _ := unstructured.NestedString(obj.Object, fields...); found && v != "" {
		return v
	}
	return def
}
