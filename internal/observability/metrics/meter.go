// Copyright 2026 The OpenTrusty Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

// Config holds metrics configuration
type Config struct {
	Enabled        bool
	ServiceVersion string

	// Reader replaces the periodic OTLP HTTP reader when set
	Reader sdkmetric.Reader
}

// Rollback outcomes
const (
	OutcomeCompensated = "compensated"
	OutcomeOrphaned    = "orphaned"
)

// Meter wraps OpenTelemetry meter
type Meter struct {
	meter    metric.Meter
	provider *sdkmetric.MeterProvider
}

// New creates a new meter instance. When disabled every instrument is a no-op.
// When enabled it installs an SDK provider as the global meter provider.
func New(ctx context.Context, cfg Config, serviceName string) (*Meter, error) {
	if !cfg.Enabled {
		return &Meter{meter: noop.NewMeterProvider().Meter(serviceName)}, nil
	}

	reader := cfg.Reader
	if reader == nil {
		// Endpoint and headers come from the standard OTEL_EXPORTER_OTLP_* variables
		exporter, err := otlpmetrichttp.New(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP metric exporter: %w", err)
		}
		reader = sdkmetric.NewPeriodicReader(exporter)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(reader),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(provider)

	return &Meter{meter: provider.Meter(serviceName), provider: provider}, nil
}

// Shutdown flushes pending measurements and stops the provider
func (m *Meter) Shutdown(ctx context.Context) error {
	if m != nil && m.provider != nil {
		return m.provider.Shutdown(ctx)
	}
	return nil
}

// CreateCounter creates a new counter metric
func (m *Meter) CreateCounter(name, description string) (metric.Int64Counter, error) {
	counter, err := m.meter.Int64Counter(
		name,
		metric.WithDescription(description),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create counter %s: %w", name, err)
	}
	return counter, nil
}

// Account holds the account provisioning instruments
type Account struct {
	adminCreated metric.Int64Counter
	rollbacks    metric.Int64Counter
	denied       metric.Int64Counter
}

// NewAccount registers the account instruments on m
func NewAccount(m *Meter) (*Account, error) {
	adminCreated, err := m.CreateCounter("account.admin.created", "Admin accounts provisioned")
	if err != nil {
		return nil, err
	}
	rollbacks, err := m.CreateCounter("account.identity.rollbacks", "Identity compensations after a failed profile insert")
	if err != nil {
		return nil, err
	}
	denied, err := m.CreateCounter("account.access.denied", "Operations denied by the policy gate")
	if err != nil {
		return nil, err
	}
	return &Account{adminCreated: adminCreated, rollbacks: rollbacks, denied: denied}, nil
}

// AdminCreated counts a provisioned admin of the given role. Nil-safe.
func (a *Account) AdminCreated(ctx context.Context, role string) {
	if a == nil {
		return
	}
	a.adminCreated.Add(ctx, 1, metric.WithAttributes(attribute.String("role", role)))
}

// Rollback counts a compensation with its outcome. Nil-safe.
func (a *Account) Rollback(ctx context.Context, outcome string) {
	if a == nil {
		return
	}
	a.rollbacks.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// AccessDenied counts a denied operation. Nil-safe.
func (a *Account) AccessDenied(ctx context.Context, operation string) {
	if a == nil {
		return
	}
	a.denied.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", operation)))
}
