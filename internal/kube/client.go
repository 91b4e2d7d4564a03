// Package kube owns the connection to the cluster API. Everything above it
// talks through the ObjectStore interface so tests never need a cluster.
package kube

import (
	"context"
	"fmt"
	"log/slog"

	"orchestra-api/internal/config"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

// ObjectStore is the narrow capability the workshop directory needs from
// the cluster: namespaced CRUD on one custom resource. NotFound surfaces
// as the apierrors 404 from client-go; callers classify it themselves.
type ObjectStore interface {
	Create(ctx context.Context, namespace string, obj *unstructured.Unstructured) (*unstructured.Unstructured, error)
	Get(ctx context.Context, namespace, name string) (*unstructured.Unstructured, error)
	List(ctx context.Context, namespace, labelSelector string) (*unstructured.UnstructuredList, error)
	Delete(ctx context.Context, namespace, name string) error
}

type dynamicStore struct {
	client dynamic.Interface
	gvr    schema.GroupVersionResource
}

// NewObjectStore connects to the cluster and scopes a store to one
// group/version/resource.
func NewObjectStore(cfg config.KubeConfig, gvr schema.GroupVersionResource, log *slog.Logger) (ObjectStore, error) {
	restCfg, err := resolveRESTConfig(cfg, log)
	if err != nil {
		return nil, err
	}
	restCfg.Timeout = cfg.RequestTimeout

	client, err := dynamic.NewForConfig(restCfg)
	if err != nil {
		return nil, fmt.Errorf("creating dynamic client: %w", err)
	}

	return &dynamicStore{client: client, gvr: gvr}, nil
}

// resolveRESTConfig tries in-cluster service identity first and falls back
// to a kubeconfig.
func resolveRESTConfig(cfg config.KubeConfig, log *slog.Logger) (*rest.Config, error) {
	if restCfg, err := rest.InClusterConfig(); err == nil {
		log.Info("loaded in-cluster kubernetes configuration")
		return restCfg, nil
	}

	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	if cfg.KubeconfigPath != "" {
		rules.ExplicitPath = cfg.KubeconfigPath
	}
	clientConfig := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(rules, &clientcmd.ConfigOverrides{})

	restCfg, err := clientConfig.ClientConfig()
	if err != nil {
		return nil, fmt.Errorf("loading kubeconfig: %w", err)
	}
	log.Info("loaded local kubernetes configuration")
	return restCfg, nil
}

func (s *dynamicStore) Create(ctx context.Context, namespace string, obj *unstructured.Unstructured) (*unstructured.Unstructured, error) {
	return s.client.Resource(s.gvr).Namespace(namespace).Create(ctx, obj, metav1.CreateOptions{})
}

func (s *dynamicStore) Get(ctx context.Context, namespace, name string) (*unstructured.Unstructured, error) {
	return s.client.Resource(s.gvr).Namespace(namespace).Get(ctx, name, metav1.GetOptions{})
}

func (s *dynamicStore) List(ctx context.Context, namespace, labelSelector string) (*unstructured.UnstructuredList, error) {
	return s.client.Resource(s.gvr).Namespace(namespace).List(ctx, metav1.ListOptions{LabelSelector: labelSelector})
}

func (s *dynamicStore) Delete(ctx context.Context, namespace, name string) error {
	return s.client.Resource(s.gvr).Namespace(namespace).Delete(ctx, name, metav1.DeleteOptions{})
}
