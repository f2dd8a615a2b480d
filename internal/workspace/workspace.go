// Package workspace manages the work folder tree and the naming convention of
// every artifact a CTC run produces.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/five82/avctc/internal/clip"
	"github.com/five82/avctc/internal/config"
)

// Workspace holds the sub-folders of a work path.
type Workspace struct {
	fs   afero.Fs
	Root string

	Bitstreams        string
	DecodedYUVs       string
	QualityLogs       string
	TestLogs          string
	CfgFiles          string
	ScaledYUVs        string
	RDResults         string
	ConvexHullResults string
	Summary           string
}

// New returns the workspace rooted at root. Nothing is created until Setup.
func New(fs afero.Fs, root string) *Workspace {
	return &Workspace{
		fs:                fs,
		Root:              root,
		Bitstreams:        filepath.Join(root, "bistreams"),
		DecodedYUVs:       filepath.Join(root, "decodedYUVs"),
		QualityLogs:       filepath.Join(root, "qualityLogs"),
		TestLogs:          filepath.Join(root, "testLogs"),
		CfgFiles:          filepath.Join(root, "configFiles"),
		ScaledYUVs:        filepath.Join(root, "scaledYUVs"),
		RDResults:         filepath.Join(root, "RDResults"),
		ConvexHullResults: filepath.Join(root, "convexhullResults"),
		Summary:           filepath.Join(root, "summary"),
	}
}

// Fs returns the file system the workspace lives on.
func (w *Workspace) Fs() afero.Fs {
	return w.fs
}

func (w *Workspace) folders() []string {
	return []string{
		w.Bitstreams, w.DecodedYUVs, w.QualityLogs, w.TestLogs, w.CfgFiles,
		w.ScaledYUVs, w.RDResults, w.ConvexHullResults, w.Summary,
	}
}

// Setup creates every sub-folder.
func (w *Workspace) Setup() error {
	for _, dir := range w.folders() {
		if err := w.fs.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return nil
}

// Clean empties the folders holding generated artifacts. Result and summary
// folders are kept.
func (w *Workspace) Clean() error {
	for _, dir := range []string{w.Bitstreams, w.DecodedYUVs, w.QualityLogs, w.TestLogs, w.CfgFiles, w.ScaledYUVs} {
		if err := CleanFolder(w.fs, dir); err != nil {
			return err
		}
	}
	return nil
}

// CleanIntermediate empties decoded YUVs and generated config files.
func (w *Workspace) CleanIntermediate() error {
	for _, dir := range []string{w.DecodedYUVs, w.CfgFiles} {
		if err := CleanFolder(w.fs, dir); err != nil {
			return err
		}
	}
	return nil
}

// CleanDecoded empties the decoded YUV folder.
func (w *Workspace) CleanDecoded() error {
	return CleanFolder(w.fs, w.DecodedYUVs)
}

// CleanFolder removes everything inside dir and keeps dir itself. A missing
// folder is not an error.
func CleanFolder(fs afero.Fs, dir string) error {
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading %s: %w", dir, err)
	}
	for _, e := range entries {
		if err := fs.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return fmt.Errorf("removing %s: %w", e.Name(), err)
		}
	}
	return nil
}

// EncodeID identifies one encoder setup in artifact names.
type EncodeID struct {
	Method  string
	Codec   string
	Preset  string
	TestCfg config.TestConfiguration
}

func (id EncodeID) stem(c clip.Clip, qp int) string {
	return fmt.Sprintf("%s_%s_%s_%s_Preset_%s_QP_%d", c.BaseName(), id.Method, id.Codec, id.TestCfg, id.Preset, qp)
}

// BitstreamPath returns the encoded bitstream path of a clip at a QP.
func (w *Workspace) BitstreamPath(id EncodeID, c clip.Clip, qp int) string {
	return filepath.Join(w.Bitstreams, id.stem(c, qp)+".ivf")
}

// DecodedPath returns the reconstructed y4m path of a clip at a QP.
func (w *Workspace) DecodedPath(id EncodeID, c clip.Clip, qp int) string {
	return filepath.Join(w.DecodedYUVs, id.stem(c, qp)+"_Decoded.y4m")
}

// QualityLogPath returns the quality tool log of a decoded file.
func (w *Workspace) QualityLogPath(decoded string) string {
	return filepath.Join(w.QualityLogs, clip.ShortContentName(decoded, false)+"_quality.json")
}

// RDResultCSVPath returns the per-run CSV of an encoder setup.
func (w *Workspace) RDResultCSVPath(id EncodeID) string {
	name := fmt.Sprintf("RDResults_%s_%s_%s_Preset_%s.csv", id.Method, id.Codec, id.TestCfg, id.Preset)
	return filepath.Join(w.RDResults, name)
}

// ContentResultPath returns the per-content convex hull result workbook.
func (w *Workspace) ContentResultPath(id EncodeID, c clip.Clip) string {
	name := fmt.Sprintf("%s_ConvexHullRD_%s_%s_%s_Preset_%s.xlsx", c.BaseName(), id.Method, id.Codec, id.TestCfg, id.Preset)
	return filepath.Join(w.ConvexHullResults, name)
}
