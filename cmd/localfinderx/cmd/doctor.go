package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Ryan-gw-park/local-file-search/internal/embed"
	"github.com/Ryan-gw-park/local-file-search/internal/schema"
)

// checkResult is one diagnostic outcome.
type checkResult struct {
	Name     string `json:"name"`
	OK       bool   `json:"ok"`
	Detail   string `json:"detail"`
	Critical bool   `json:"critical"`
}

func newDoctorCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check that LocalFinderX can operate correctly",
		Long: `Doctor verifies the data directory is writable, the embedder is
available, and the on-disk schema version matches this build.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd, jsonOutput)
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func runDoctor(cmd *cobra.Command, jsonOutput bool) error {
	ctx := cmd.Context()

	layout, err := resolveLayout()
	if err != nil {
		return err
	}

	results := []checkResult{
		checkWritable(layout.DataDir()),
		checkEmbedder(ctx),
		checkSchemaVersion(layout),
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	critical := false
	for _, r := range results {
		status := "ok"
		if !r.OK {
			status = "fail"
			if r.Critical {
				critical = true
			}
		}
		fmt.Fprintf(out, "[%s] %-24s %s\n", status, r.Name, r.Detail)
	}
	if critical {
		return fmt.Errorf("one or more critical checks failed")
	}
	return nil
}

func checkWritable(dataDir string) checkResult {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return checkResult{Name: "data directory writable", Critical: true, Detail: err.Error()}
	}
	probe := filepath.Join(dataDir, ".doctor-write-probe")
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		return checkResult{Name: "data directory writable", Critical: true, Detail: err.Error()}
	}
	_ = os.Remove(probe)
	return checkResult{Name: "data directory writable", OK: true, Detail: dataDir}
}

func checkEmbedder(ctx context.Context) checkResult {
	embedder, err := embed.NewDefaultEmbedder(ctx)
	if err != nil {
		return checkResult{Name: "embedder available", Critical: false, Detail: err.Error()}
	}
	defer func() { _ = embedder.Close() }()

	info := embed.GetInfo(ctx, embedder)
	if !info.Available {
		return checkResult{
			Name:   "embedder available",
			Detail: fmt.Sprintf("provider %s unavailable, falls back to static embeddings", info.Provider),
		}
	}
	return checkResult{
		Name:   "embedder available",
		OK:     true,
		Detail: fmt.Sprintf("%s, model %s, %d dims", info.Provider, info.Model, info.Dimensions),
	}
}

func checkSchemaVersion(layout interface{ SchemaVersionPath() string }) checkResult {
	data, err := os.ReadFile(layout.SchemaVersionPath())
	if err != nil {
		return checkResult{Name: "schema version", OK: true, Detail: "no prior index (nothing to check)"}
	}
	var marker struct {
		SchemaVersion string `json:"schema_version"`
	}
	if err := json.Unmarshal(data, &marker); err != nil {
		return checkResult{Name: "schema version", Critical: true, Detail: "schema_version.json is corrupt"}
	}
	if marker.SchemaVersion != schema.CurrentSchemaVersion {
		return checkResult{
			Name:     "schema version",
			Critical: true,
			Detail:   fmt.Sprintf("on-disk schema %s does not match build schema %s, reindex required", marker.SchemaVersion, schema.CurrentSchemaVersion),
		}
	}
	return checkResult{Name: "schema version", OK: true, Detail: marker.SchemaVersion}
}
