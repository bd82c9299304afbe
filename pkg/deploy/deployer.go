package deploy

import (
	"context"
	"fmt"
	"time"

	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	rbacv1 "k8s.io/api/rbac/v1"
	"k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/client-go/kubernetes"
	"k8s.io/utils/ptr"
)

// Deployer applies smoke-test manifests into a single namespace.
type Deployer struct {
	client    kubernetes.Interface
	namespace string

	// Wait parameters for Job recreation, overridable in tests.
	jobGoneInterval time.Duration
	jobGoneTimeout  time.Duration
}

// NewDeployer creates a Deployer targeting the given namespace. Namespaced
// objects without an explicit namespace in the manifest are created there.
func NewDeployer(client kubernetes.Interface, namespace string) *Deployer {
	return &Deployer{
		client:          client,
		namespace:       namespace,
		jobGoneInterval: time.Second,
		jobGoneTimeout:  30 * time.Second,
	}
}

// Apply creates every object of the manifest. Supporting objects are created
// idempotently; an existing Job is deleted and recreated for clean state.
func (d *Deployer) Apply(ctx context.Context, objs []runtime.Object) error {
	for _, obj := range objs {
		if err := d.applyObject(ctx, obj); err != nil {
			return err
		}
	}
	return nil
}

func (d *Deployer) applyObject(ctx context.Context, obj runtime.Object) error {
	switch o := obj.(type) {
	case *corev1.ServiceAccount:
		o.Namespace = d.defaultNamespace(o.Namespace)
		_, err := d.client.CoreV1().ServiceAccounts(o.Namespace).Create(ctx, o, metav1.CreateOptions{})
		if err := ignoreAlreadyExists(err); err != nil {
			return fmt.Errorf("failed to create ServiceAccount %s: %w", o.Name, err)
		}

	case *corev1.ConfigMap:
		o.Namespace = d.defaultNamespace(o.Namespace)
		_, err := d.client.CoreV1().ConfigMaps(o.Namespace).Create(ctx, o, metav1.CreateOptions{})
		if err := ignoreAlreadyExists(err); err != nil {
			return fmt.Errorf("failed to create ConfigMap %s: %w", o.Name, err)
		}

	case *corev1.Secret:
		o.Namespace = d.defaultNamespace(o.Namespace)
		_, err := d.client.CoreV1().Secrets(o.Namespace).Create(ctx, o, metav1.CreateOptions{})
		if err := ignoreAlreadyExists(err); err != nil {
			return fmt.Errorf("failed to create Secret %s: %w", o.Name, err)
		}

	case *rbacv1.Role:
		o.Namespace = d.defaultNamespace(o.Namespace)
		_, err := d.client.RbacV1().Roles(o.Namespace).Create(ctx, o, metav1.CreateOptions{})
		if err := ignoreAlreadyExists(err); err != nil {
			return fmt.Errorf("failed to create Role %s: %w", o.Name, err)
		}

	case *rbacv1.RoleBinding:
		o.Namespace = d.defaultNamespace(o.Namespace)
		_, err := d.client.RbacV1().RoleBindings(o.Namespace).Create(ctx, o, metav1.CreateOptions{})
		if err := ignoreAlreadyExists(err); err != nil {
			return fmt.Errorf("failed to create RoleBinding %s: %w", o.Name, err)
		}

	case *rbacv1.ClusterRole:
		_, err := d.client.RbacV1().ClusterRoles().Create(ctx, o, metav1.CreateOptions{})
		if err := ignoreAlreadyExists(err); err != nil {
			return fmt.Errorf("failed to create ClusterRole %s: %w", o.Name, err)
		}

	case *rbacv1.ClusterRoleBinding:
		_, err := d.client.RbacV1().ClusterRoleBindings().Create(ctx, o, metav1.CreateOptions{})
		if err := ignoreAlreadyExists(err); err != nil {
			return fmt.Errorf("failed to create ClusterRoleBinding %s: %w", o.Name, err)
		}

	case *batchv1.Job:
		o.Namespace = d.defaultNamespace(o.Namespace)
		if err := d.ensureJob(ctx, o); err != nil {
			return fmt.Errorf("failed to create Job %s: %w", o.Name, err)
		}

	default:
		return fmt.Errorf("unsupported object kind %T in manifest", obj)
	}
	return nil
}

// ensureJob creates the Job, replacing any leftover Job from a previous run.
func (d *Deployer) ensureJob(ctx context.Context, job *batchv1.Job) error {
	jobs := d.client.BatchV1().Jobs(job.Namespace)

	_, err := jobs.Create(ctx, job, metav1.CreateOptions{})
	if err == nil {
		return nil
	}
	if !errors.IsAlreadyExists(err) {
		return err
	}

	deleteOpts := metav1.DeleteOptions{
		PropagationPolicy: ptr.To(metav1.DeletePropagationBackground),
	}
	if err := ignoreNotFound(jobs.Delete(ctx, job.Name, deleteOpts)); err != nil {
		return fmt.Errorf("delete previous Job: %w", err)
	}

	err = wait.PollUntilContextTimeout(ctx, d.jobGoneInterval, d.jobGoneTimeout, true,
		func(ctx context.Context) (bool, error) {
			_, err := jobs.Get(ctx, job.Name, metav1.GetOptions{})
			if errors.IsNotFound(err) {
				return true, nil
			}
			return false, err
		})
	if err != nil {
		return fmt.Errorf("previous Job was not removed: %w", err)
	}

	_, err = jobs.Create(ctx, job, metav1.CreateOptions{})
	return err
}

func (d *Deployer) defaultNamespace(ns string) string {
	if ns == "" {
		return d.namespace
	}
	return ns
}

// ignoreAlreadyExists returns nil if the error is "already exists", otherwise returns the error.
// Used to make resource creation idempotent.
func ignoreAlreadyExists(err error) error {
	if errors.IsAlreadyExists(err) {
		return nil
	}
	return err
}

// ignoreNotFound returns nil if the error is "not found", otherwise returns the error.
// Used to make resource deletion idempotent.
func ignoreNotFound(err error) error {
	if errors.IsNotFound(err) {
		return nil
	}
	return err
}
