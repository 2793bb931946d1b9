package handler

import (
	"tenant-service/internal/schema"
	"tenant-service/internal/tenant"
)

// Package-level dependencies, wired once at startup from main.
var (
	directory *tenant.Directory
	lifecycle *tenant.Lifecycle
	schemas   *schema.Store
)

// Initialize wires the handler package dependencies
func Initialize(dir *tenant.Directory, lc *tenant.Lifecycle, store *schema.Store) {
	directory = dir
	lifecycle = lc
	schemas = store
}
