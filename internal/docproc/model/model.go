// Package model holds the documentation processing documents and the state
// passed between pipeline nodes.
package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Collection names.
const (
	ProviderSettingsCollection = "provider_settings"
	ProviderVersionsCollection = "provider_versions"
)

// Collections lists every collection the database initialises.
var Collections = []string{
	ProviderSettingsCollection,
	ProviderVersionsCollection,
}

// ProviderSettings enables processing of one Terraform provider.
type ProviderSettings struct {
	Namespace string `bson:"namespace" json:"namespace"`
	Name      string `bson:"name" json:"name"`
	Enabled   bool   `bson:"enabled" json:"enabled"`
}

// ProviderVersionDocument records a processed provider version.
type ProviderVersionDocument struct {
	Namespace         string    `bson:"namespace" json:"namespace"`
	Name              string    `bson:"name" json:"name"`
	Version           string    `bson:"version" json:"version"`
	ProviderVersionID string    `bson:"provider_version_id" json:"provider_version_id"`
	PipelineRunID     string    `bson:"pipeline_run_id" json:"pipeline_run_id"`
	Documents         []string  `bson:"documents" json:"documents"`
	ProcessedAt       time.Time `bson:"processed_at" json:"processed_at"`
}

// ProviderConfig identifies a provider.
type ProviderConfig struct {
	Namespace string
	Name      string
}

// Slug returns "namespace/name".
func (p ProviderConfig) Slug() string {
	return fmt.Sprintf("%s/%s", p.Namespace, p.Name)
}

// ProviderVersion is a provider version selected for processing.
type ProviderVersion struct {
	Provider          ProviderConfig
	Version           string
	ProviderVersionID string
}

// Label returns "namespace_name_version", used for output names.
func (v ProviderVersion) Label() string {
	return fmt.Sprintf("%s_%s_%s", v.Provider.Namespace, v.Provider.Name, v.Version)
}

// PipelineState flows through the documentation pipeline.
type PipelineState struct {
	RunID             uuid.UUID
	Providers         []ProviderConfig
	VersionsToProcess []ProviderVersion
	WorkspaceRoot     string
}

// NewPipelineState starts a run with a fresh run ID.
func NewPipelineState(workspaceRoot string) *PipelineState {
	return &PipelineState{
		RunID:         uuid.New(),
		WorkspaceRoot: workspaceRoot,
	}
}
