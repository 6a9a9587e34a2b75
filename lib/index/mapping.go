package index

import (
	"os"
	"path/filepath"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
)

const lockFileName = "write.lock"

// buildIndexMapping returns the shared mapping for all namespaces. Every
// field is stored and indexed verbatim (keyword analysis) so exact filters
// match; only the contents catch-all field is tokenized for free text.
func buildIndexMapping() mapping.IndexMapping {
	m := bleve.NewIndexMapping()
	m.DefaultAnalyzer = keyword.Name

	doc := bleve.NewDocumentMapping()

	contents := bleve.NewTextFieldMapping()
	contents.Analyzer = standard.Name
	contents.Store = true
	doc.AddFieldMappingsAt("contents", contents)

	m.DefaultMapping = doc
	return m
}

// openIndex opens the namespace index directory, creating it on first use.
func openIndex(path string) (bleve.Index, error) {
	idx, err := bleve.Open(path)
	if err == nil {
		return idx, nil
	}
	if err != bleve.ErrorIndexPathDoesNotExist {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return bleve.New(path, buildIndexMapping())
}

func lockFilePath(nsPath string) string {
	return filepath.Join(nsPath, lockFileName)
}

func hasLockFile(nsPath string) bool {
	_, err := os.Stat(lockFilePath(nsPath))
	return err == nil
}

func createLockFile(nsPath string) error {
	f, err := os.OpenFile(lockFilePath(nsPath), os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	return f.Close()
}

func removeLockFile(nsPath string) error {
	err := os.Remove(lockFilePath(nsPath))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
