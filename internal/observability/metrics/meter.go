// Copyright 2026 The Timesheet Authors
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
	"go.opentelemetry.io/otel/metric"
)

// Config holds metrics configuration
type Config struct {
	Enabled bool
}

// Meter wraps OpenTelemetry meter
type Meter struct {
	meter metric.Meter
}

// New creates a new meter instance from the global meter provider. Until an
// exporter is installed the provider is a no-op.
func New(cfg Config, serviceName string) *Meter {
	if !cfg.Enabled {
		return &Meter{meter: otel.Meter("noop")}
	}
	return &Meter{meter: otel.Meter(serviceName)}
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

// Workflow records approval workflow outcomes.
type Workflow struct {
	transitions metric.Int64Counter
}

// NewWorkflow creates the workflow instruments.
func (m *Meter) NewWorkflow() (*Workflow, error) {
	transitions, err := m.CreateCounter("timesheet.transitions", "Time entry workflow operations by outcome")
	if err != nil {
		return nil, err
	}
	return &Workflow{transitions: transitions}, nil
}

// RecordTransition counts one workflow operation. outcome is "ok" or the
// error class that stopped it.
func (w *Workflow) RecordTransition(ctx context.Context, transition, outcome string) {
	w.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("transition", transition),
		attribute.String("outcome", outcome),
	))
}
