// Package configs provides embedded configuration templates for LocalFinderX.
//
// How Configuration Templates Work:
//
// Templates are embedded at build time using Go's //go:embed directive.
// This ensures they are available in every distribution of the binary,
// source builds included.
//
// The templates are used by:
//   - cmd/localfinderx/cmd/init.go → writes .localfinderx.yaml into a data directory
//   - cmd/localfinderx/cmd/config.go → creates the user config at ~/.config/localfinderx/config.yaml
//
// Template files:
//   - project-config.example.yaml: per-data-dir overrides (paths, search, performance)
//   - user-config.example.yaml: machine-specific settings (embedder provider, logging)
//
// Configuration Hierarchy (see internal/config/config.go Load()):
//  1. Hardcoded defaults (internal/config/config.go NewConfig())
//  2. User config (~/.config/localfinderx/config.yaml)
//  3. Data-dir config (.localfinderx.yaml)
//  4. Environment variables (LOCALFINDERX_*)
//
// To modify templates, edit the .yaml files in this directory and rebuild.
package configs

import _ "embed"

// UserConfigTemplate is the template for user/machine-level configuration.
// Created by: `localfinderx config init` at ~/.config/localfinderx/config.yaml
// Contains: machine-specific settings such as the embedder provider and logging level.
//
//go:embed user-config.example.yaml
var UserConfigTemplate string

// ProjectConfigTemplate is the template for data-dir-level configuration.
// Created by: `localfinderx init` at .localfinderx.yaml in the app-data directory.
// Contains: paths.include/exclude, search and performance overrides.
//
//go:embed project-config.example.yaml
var ProjectConfigTemplate string
