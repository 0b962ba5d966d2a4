package build

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"lukechampine.com/blake3"
)

const (
	manifestFile = "package.py"

	// markerFile tells external tooling the variant is already built.
	markerFile = "build.rxt"

	// recordFile describes the last successful build of the build
	// directory. It is removed by the next clean.
	recordFile = "usdbuild.json"
)

// Record is written next to the marker after a successful install.
type Record struct {
	RunID          string    `json:"run_id"`
	Name           string    `json:"name"`
	Version        string    `json:"version"`
	Python         string    `json:"python"`
	InstallRoot    string    `json:"install_root"`
	ManifestDigest string    `json:"manifest_digest"`
	BuildTime      time.Time `json:"build_time"`
}

func (o *Orchestrator) postInstall(p *plan) error {
	src := filepath.Join(p.inv.SourcePath, manifestFile)
	dst := filepath.Join(o.opts.Profile.InstallBase, p.inv.Name, p.inv.Version, manifestFile)
	digest, copied, err := copyManifest(src, dst)
	if err != nil {
		return fmt.Errorf("publish %s: %w", manifestFile, err)
	}
	if copied {
		o.logger.Info("published package manifest", "dst", dst, "blake3", digest)
	} else {
		o.logger.Info("package manifest up to date", "dst", dst, "blake3", digest)
	}

	marker := filepath.Join(p.inv.BuildPath, markerFile)
	if err := touch(marker); err != nil {
		return fmt.Errorf("write build marker: %w", err)
	}

	rec := Record{
		RunID:          o.opts.RunID,
		Name:           p.inv.Name,
		Version:        p.inv.Version,
		Python:         p.inv.PythonVersion(),
		InstallRoot:    p.install.Root,
		ManifestDigest: digest,
		BuildTime:      time.Now(),
	}
	if err := saveRecord(filepath.Join(p.inv.BuildPath, recordFile), &rec); err != nil {
		return fmt.Errorf("write build record: %w", err)
	}
	return nil
}

// copyManifest copies src to dst unless dst already has the same content.
// It returns the BLAKE3 digest of src and whether dst was written.
func copyManifest(src, dst string) (digest string, copied bool, err error) {
	data, err := os.ReadFile(src)
	if err != nil {
		return "", false, err
	}
	digest = digestBytes(data)

	existing, err := os.ReadFile(dst)
	switch {
	case err == nil && digestBytes(existing) == digest:
		return digest, false, nil
	case err != nil && !errors.Is(err, fs.ErrNotExist):
		return digest, false, err
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return digest, false, err
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+manifestFile+".*")
	if err != nil {
		return digest, false, err
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, bytes.NewReader(data)); err != nil {
		tmp.Close()
		return digest, false, err
	}
	if err := tmp.Close(); err != nil {
		return digest, false, err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return digest, false, err
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return digest, false, err
	}
	return digest, true, nil
}

func digestBytes(data []byte) string {
	h := blake3.New(32, nil)
	h.Write(data)
	return fmt.Sprintf("%x", h.Sum(nil))
}

// touch creates path if needed without changing existing content.
func touch(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	return f.Close()
}

func saveRecord(path string, rec *Record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// LoadRecord reads the build record of buildDir.
func LoadRecord(buildDir string) (*Record, error) {
	data, err := os.ReadFile(filepath.Join(buildDir, recordFile))
	if err != nil {
		return nil, err
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parse build record: %w", err)
	}
	return &rec, nil
}
