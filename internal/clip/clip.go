// Package clip provides the test clip registry.
package clip

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/five82/avctc/internal/discovery"
	ctcerrors "github.com/five82/avctc/internal/errors"
)

// Clip describes one input sequence. Clips are created once from the registry
// and never mutated.
type Clip struct {
	FilePath string `yaml:"path"`
	FileName string `yaml:"-"`
	Class    string `yaml:"class"`
	Format   string `yaml:"format"`
	Width    int    `yaml:"width"`
	Height   int    `yaml:"height"`
	BitDepth int    `yaml:"bit_depth"`
	FPSNum   int    `yaml:"fps_num"`
	FPSDenom int    `yaml:"fps_denom"`
}

// FPS returns the frame rate as a float.
func (c Clip) FPS() float64 {
	if c.FPSDenom == 0 {
		return 0
	}
	return float64(c.FPSNum) / float64(c.FPSDenom)
}

// BaseName returns the file name without extension.
func (c Clip) BaseName() string {
	return ShortContentName(c.FileName, false)
}

// ShortName returns the content key used to match result files.
func (c Clip) ShortName() string {
	return ShortContentName(c.FileName, true)
}

// ShortContentName returns the file name without directory and extension. With
// short set it returns only the leading token before the first underscore, the
// key that identifies a content across result files.
func ShortContentName(name string, short bool) string {
	base := filepath.Base(name)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if !short {
		return base
	}
	if idx := strings.Index(base, "_"); idx > 0 {
		return base[:idx]
	}
	return base
}

// ClassGroup is the ordered list of contents belonging to one class.
type ClassGroup struct {
	Class    string
	Contents []Clip
}

// GroupByClass groups clips by class, keeping the order in which classes and
// contents first appear.
func GroupByClass(clips []Clip) []ClassGroup {
	var groups []ClassGroup
	index := make(map[string]int)
	for _, c := range clips {
		i, ok := index[c.Class]
		if !ok {
			i = len(groups)
			index[c.Class] = i
			groups = append(groups, ClassGroup{Class: c.Class})
		}
		groups[i].Contents = append(groups[i].Contents, c)
	}
	return groups
}

// CreateClipList builds clips from <contentPath>/<class>/*.y4m. Classes are
// visited in the given order; when classes is empty every sub-directory is a
// class, in name order.
func CreateClipList(fs afero.Fs, contentPath string, classes []string) ([]Clip, error) {
	if len(classes) == 0 {
		dirs, err := discovery.FindDirs(fs, contentPath)
		if err != nil {
			return nil, ctcerrors.NewIOError(fmt.Sprintf("cannot read content path %s", contentPath), err)
		}
		classes = dirs
	}

	var clips []Clip
	for _, class := range classes {
		dir := filepath.Join(contentPath, class)
		names, err := discovery.FindFiles(fs, dir, ".y4m")
		if err != nil {
			return nil, ctcerrors.NewIOError(fmt.Sprintf("cannot read class folder %s", dir), err)
		}

		for _, name := range names {
			c, err := clipFromY4M(fs, filepath.Join(dir, name), class)
			if err != nil {
				return nil, err
			}
			clips = append(clips, c)
		}
	}

	if len(clips) == 0 {
		return nil, ctcerrors.NewClipError(fmt.Sprintf("no y4m clips found in %s", contentPath), nil)
	}
	return clips, nil
}

// clipListFile is the YAML layout of an explicit clip list.
type clipListFile struct {
	Clips []Clip `yaml:"clips"`
}

// LoadClipList reads an explicit clip list. Entries pointing at .y4m files with
// no geometry take it from the file header; raw .yuv entries must carry it.
func LoadClipList(fs afero.Fs, path string) ([]Clip, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, ctcerrors.NewIOError(fmt.Sprintf("cannot read clip list %s", path), err)
	}

	var list clipListFile
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, ctcerrors.NewClipError(fmt.Sprintf("cannot parse clip list %s", path), err)
	}

	clips := make([]Clip, 0, len(list.Clips))
	for _, c := range list.Clips {
		if c.Width == 0 && strings.EqualFold(filepath.Ext(c.FilePath), ".y4m") {
			parsed, err := clipFromY4M(fs, c.FilePath, c.Class)
			if err != nil {
				return nil, err
			}
			clips = append(clips, parsed)
			continue
		}

		c.FileName = filepath.Base(c.FilePath)
		if c.Format == "" {
			c.Format = "420"
		}
		if c.BitDepth == 0 {
			c.BitDepth = 8
		}
		if c.FPSDenom == 0 {
			c.FPSDenom = 1
		}
		if c.Width <= 0 || c.Height <= 0 || c.FPSNum <= 0 {
			return nil, ctcerrors.NewClipError(fmt.Sprintf("clip %s is missing geometry or frame rate", c.FilePath), nil)
		}
		clips = append(clips, c)
	}
	return clips, nil
}

func clipFromY4M(fs afero.Fs, path, class string) (Clip, error) {
	f, err := fs.Open(path)
	if err != nil {
		return Clip{}, ctcerrors.NewIOError(fmt.Sprintf("cannot open %s", path), err)
	}
	defer func() { _ = f.Close() }()

	hdr, err := ParseY4MHeader(f)
	if err != nil {
		return Clip{}, ctcerrors.NewClipError(fmt.Sprintf("bad y4m header in %s", path), err)
	}

	return Clip{
		FilePath: path,
		FileName: filepath.Base(path),
		Class:    class,
		Format:   hdr.Format,
		Width:    hdr.Width,
		Height:   hdr.Height,
		BitDepth: hdr.BitDepth,
		FPSNum:   hdr.FPSNum,
		FPSDenom: hdr.FPSDenom,
	}, nil
}
