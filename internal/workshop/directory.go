package workshop

import (
	"context"
	"fmt"
	"log/slog"

	"orchestra-api/internal/kube"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
)

// Directory is the CRUD façade over the cluster's custom-object API. It
// normalizes the error surface into three outcomes: success, not-found
// (a first-class return value, never an error), and everything else.
type Directory struct {
	store kube.ObjectStore
	log   *slog.Logger
}

func NewDirectory(store kube.ObjectStore, log *slog.Logger) *Directory {
	if log == nil {
		log = slog.Default()
	}
	return &Directory{store: store, log: log}
}

// Create submits a new workshop and maps the cluster's echo back. There is
// no retry: names are caller-chosen, so creation failures go back to the
// caller for a decision.
func (d *Directory) Create(ctx context.Context, spec Spec, namespace string) (*Workshop, error) {
	obj := ToObject(spec, namespace)

	created, err := d.store.Create(ctx, namespace, obj)
	if err != nil {
		d.log.Error("workshop create failed", "name", spec.Name, "namespace", namespace, "err", err)
		return nil, fmt.Errorf("creating workshop %s/%s: %w", namespace, spec.Name, err)
	}

	w, err := FromObject(created)
	if err != nil {
		return nil, fmt.Errorf("mapping created workshop %s/%s: %w", namespace, spec.Name, err)
	}

	d.log.Info("created workshop", "name", w.Name, "namespace", namespace)
	return &w, nil
}

// Get fetches a workshop by exact name. A cluster 404 returns (nil, nil):
// callers rely on the distinction between "does not exist" and "the
// backend is broken".
func (d *Directory) Get(ctx context.Context, name, namespace string) (*Workshop, error) {
	obj, err := d.store.Get(ctx, namespace, name)
	if err != nil {
		if apierrors.IsNotFound(err) {
			return nil, nil
		}
		d.log.Error("workshop get failed", "name", name, "namespace", namespace, "err", err)
		return nil, fmt.Errorf("getting workshop %s/%s: %w", namespace, name, err)
	}

	w, err := FromObject(obj)
	if err != nil {
		return nil, fmt.Errorf("mapping workshop %s/%s: %w", namespace, name, err)
	}
	return &w, nil
}

// List returns all workshops in the namespace, in the order the cluster
// returned them. A malformed item is skipped with a warning so one bad
// document cannot hide the rest.
func (d *Directory) List(ctx context.Context, namespace, labelSelector string) ([]Workshop, error) {
	result, err := d.store.List(ctx, namespace, labelSelector)
	if err != nil {
		d.log.Error("workshop list failed", "namespace", namespace, "err", err)
		return nil, fmt.Errorf("listing workshops in %s: %w", namespace, err)
	}

	workshops := make([]Workshop, 0, len(result.Items))
	for i := range result.Items {
		w, err := FromObject(&result.Items[i])
		if err != nil {
			d.log.Warn("skipping malformed workshop document", "namespace", namespace, "err", err)
			continue
		}
		workshops = append(workshops, w)
	}
	return workshops, nil
}

// Delete removes a workshop. A cluster 404 returns (false, nil): nothing
// was deleted, which is an idempotent outcome, not an error.
func (d *Directory) Delete(ctx context.Context, name, namespace string) (bool, error) {
	if err := d.store.Delete(ctx, namespace, name); err != nil {
		if apierrors.IsNotFound(err) {
			return false, nil
		}
		d.log.Error("workshop delete failed", "name", name, "namespace", namespace, "err", err)
		return false, fmt.Errorf("deleting workshop %s/%s: %w", namespace, name, err)
	}

	d.log.Info("deleted workshop", "name", name, "namespace", namespace)
	return true, nil
}

// Page selects the window [(page-1)*size, page*size) of items. The cluster
// API offers no server-side pagination for custom objects, and per-namespace
// workshop counts are human-scale, so in-memory windowing is acceptable.
func Page(items []Workshop, page, size int) []Workshop {
	start := (page - 1) * size
	if start >= len(items) {
		return []Workshop{}
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
