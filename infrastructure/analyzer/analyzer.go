// Package analyzer walks a cloned repository's working tree, classifies its
// files by language, and surfaces the manifests and entrypoints the
// Documentation Generator (C6) and the knowledge graph's pattern detectors
// (C4) use as structural hints. It is the Repository Structure Analyzer
// (C2): it runs after a repository is connected and cloned (C1) and before
// the Code Entity Extractor (C3) parses individual files.
package analyzer

import (
	"bytes"
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sourcelore/sourcelore/domain/entity"
	"github.com/sourcelore/sourcelore/domain/repository"
	"github.com/sourcelore/sourcelore/infrastructure/extractor"
	"github.com/sourcelore/sourcelore/infrastructure/git"
)

// manifestNames maps well-known dependency/build manifest filenames to the
// ecosystem they describe, used to surface a repository's build tooling to
// the documentation generator without parsing the manifest contents.
var manifestNames = map[string]string{
	"go.mod":              "go",
	"package.json":        "node",
	"pyproject.toml":      "python",
	"requirements.txt":    "python",
	"setup.py":            "python",
	"Cargo.toml":          "rust",
	"pom.xml":             "java (maven)",
	"build.gradle":        "java (gradle)",
	"Gemfile":             "ruby",
	"composer.json":       "php",
	"Dockerfile":          "docker",
	"docker-compose.yml":  "docker",
}

// importantBasenames are files the documentation generator should read in
// full, regardless of language, because they typically explain the
// repository's purpose or entrypoints.
var importantBasenames = []string{
	"README.md", "README", "README.rst", "README.txt",
	"CONTRIBUTING.md", "ARCHITECTURE.md", "CHANGELOG.md",
}

// maxFileSize bounds how large a file the analyzer will read into memory
// for extraction; larger files are counted in statistics but skipped for
// content (typically vendored assets or generated code).
const maxFileSize = 2 << 20 // 2 MiB

// Manifest describes a discovered build/dependency manifest.
type Manifest struct {
	Path      string
	Ecosystem string
}

// Structure is the result of analyzing a repository's working tree.
type Structure struct {
	Statistics     repository.Statistics
	Manifests      []Manifest
	ImportantFiles []string
	Files          []extractor.File
}

// Analyzer walks a local clone and classifies its contents.
type Analyzer struct {
	langs      entity.Language
	extractCfg extractor.LanguageConfig
}

// NewAnalyzer creates a new Analyzer. extractCfg determines which files are
// collected for the Code Entity Extractor (C3); it is typically
// extractor.NewLanguageConfig().
func NewAnalyzer(extractCfg extractor.LanguageConfig) *Analyzer {
	return &Analyzer{extractCfg: extractCfg}
}

// Analyze walks rootPath (a local repository clone), skipping anything
// infrastructure/git.IgnorePattern would exclude from indexing, and returns
// its structural breakdown plus the parseable source files ready for the
// Code Entity Extractor (C3).
func (a *Analyzer) Analyze(ctx context.Context, rootPath string) (Structure, error) {
	ignore, err := git.NewIgnorePattern(rootPath)
	if err != nil {
		return Structure{}, err
	}

	lineCounts := make(map[string]int)
	fileCounts := make(map[string]int)
	totalFiles := 0
	totalLines := 0

	var manifests []Manifest
	var important []string
	var files []extractor.File

	extToLang := a.langs.ExtensionToLanguageMap()

	walkErr := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if ignore.ShouldIgnore(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		base := d.Name()
		if ecosystem, ok := manifestNames[base]; ok {
			rel, _ := filepath.Rel(rootPath, path)
			manifests = append(manifests, Manifest{Path: rel, Ecosystem: ecosystem})
		}
		for _, name := range importantBasenames {
			if strings.EqualFold(base, name) {
				rel, _ := filepath.Rel(rootPath, path)
				important = append(important, rel)
				break
			}
		}

		ext := strings.TrimPrefix(filepath.Ext(base), ".")
		lang, recognized := extToLang[ext]
		if !recognized {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}

		totalFiles++
		fileCounts[lang]++

		if info.Size() > maxFileSize {
			return nil
		}

		lines, content, err := readAndCountLines(path)
		if err != nil {
			return nil
		}
		totalLines += lines
		lineCounts[lang] += lines

		rel, err := filepath.Rel(rootPath, path)
		if err != nil {
			rel = path
		}
		if _, ok := a.extractCfg.ByExtension("." + ext); ok {
			files = append(files, extractor.NewFile(rel, content))
		}

		return nil
	})
	if walkErr != nil {
		return Structure{}, walkErr
	}

	breakdown := make(map[string]repository.LanguageStat, len(fileCounts))
	for lang, count := range fileCounts {
		pct := 0.0
		if totalLines > 0 {
			pct = float64(lineCounts[lang]) / float64(totalLines) * 100
		}
		breakdown[lang] = repository.NewLanguageStat(count, lineCounts[lang], pct)
	}

	stats, err := repository.NewStatistics(totalFiles, totalLines, breakdown)
	if err != nil {
		return Structure{}, err
	}

	sort.Strings(important)

	return Structure{
		Statistics:     stats,
		Manifests:      manifests,
		ImportantFiles: important,
		Files:          files,
	}, nil
}

func readAndCountLines(path string) (int, []byte, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, nil, err
	}
	lines := bytes.Count(content, []byte("\n"))
	if len(content) > 0 && content[len(content)-1] != '\n' {
		lines++
	}
	return lines, content, nil
}
