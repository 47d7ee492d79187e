package gherkin_parser

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	gherkin "github.com/cucumber/gherkin/go/v26"
	messages "github.com/cucumber/messages/go/v21"
	"github.com/google/uuid"
)

const (
	FeatureExtension = ".feature"
)

// SearchFeatureFilesIn walks every directory and returns the feature files it
// finds, sorted so runs are reproducible. A path that names a feature file is
// returned as is.
func SearchFeatureFilesIn(directories []string) ([]string, error) {
	featureFiles := make([]string, 0)

	for _, directory := range directories {
		err := filepath.WalkDir(directory, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.HasSuffix(d.Name(), FeatureExtension) {
				featureFiles = append(featureFiles, filepath.ToSlash(path))
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("could not search %s: %w", directory, err)
		}
	}

	sort.Strings(featureFiles)
	return featureFiles, nil
}

// NewID is the id generator shared by documents and the pickles compiled from
// them.
func NewID() string {
	return uuid.NewString()
}

// ParseGherkinFile parses one feature source. The returned document has no URI.
func ParseGherkinFile(reader io.Reader) (*messages.GherkinDocument, error) {
	document, err := gherkin.ParseGherkinDocument(reader, NewID)
	if err != nil {
		return nil, err
	}
	return document, nil
}

// ParseFeatureFile reads and parses the feature file at path and records path
// as the document URI.
func ParseFeatureFile(path string) (*messages.GherkinDocument, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	document, err := ParseGherkinFile(file)
	if err != nil {
		return nil, fmt.Errorf("could not parse %s: %w", path, err)
	}
	document.Uri = path
	return document, nil
}
