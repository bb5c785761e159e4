package middleware

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// detectServiceInfo resolves the service name and namespace for telemetry.
// OTEL_SERVICE_NAME wins over the configured name; the namespace comes from
// OTEL_RESOURCE_ATTRIBUTES, the Kubernetes service account, POD_NAMESPACE, then "default".
func detectServiceInfo(configured string) (serviceName, namespace string) {
	serviceName = os.Getenv("OTEL_SERVICE_NAME")
	if serviceName == "" {
		serviceName = configured
	}

	if attrs := os.Getenv("OTEL_RESOURCE_ATTRIBUTES"); attrs != "" {
		for _, attr := range strings.Split(attrs, ",") {
			kv := strings.SplitN(attr, "=", 2)
			if len(kv) == 2 && kv[0] == "service.namespace" {
				return serviceName, kv[1]
			}
		}
	}

	if data, err := os.ReadFile("/var/run/secrets/kubernetes.io/serviceaccount/namespace"); err == nil {
		return serviceName, strings.TrimSpace(string(data))
	}

	if ns := os.Getenv("POD_NAMESPACE"); ns != "" {
		return serviceName, ns
	}

	return serviceName, "default"
}

// CreateResource creates an OpenTelemetry resource describing this process
func CreateResource(ctx context.Context, configured, version string) (*resource.Resource, error) {
	serviceName, namespace := detectServiceInfo(configured)

	res, err := resource.New(
		ctx,
		resource.WithFromEnv(),
		resource.WithProcess(),
		resource.WithOS(),
		resource.WithContainer(),
		resource.WithHost(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceNamespaceKey.String(namespace),
			semconv.ServiceVersionKey.String(version),
		),
	)
	if err != nil {
		return resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceNamespaceKey.String(namespace),
		), fmt.Errorf("resource detection partial failure (using fallback): %w", err)
	}

	return res, nil
}
