// Package catalogimport reads career catalog files and checks their
// prerequisite graph before they reach storage.
package catalogimport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/alem-hub/curriculum-hub/internal/domain/curriculum"
	"github.com/alem-hub/curriculum-hub/internal/domain/shared"
)

// Format of an import document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the format from a file extension. Unknown extensions are read as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Decode reads one career import document.
// careerName overrides the name in the document when non-empty.
func Decode(r io.Reader, format Format, careerName string) (curriculum.CareerImport, error) {
	var data curriculum.CareerImport

	raw, err := io.ReadAll(r)
	if err != nil {
		return data, fmt.Errorf("read import document: %w", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return data, shared.WrapError("catalogimport", "Decode", shared.ErrInvalidInput, "empty import document", nil)
	}

	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(raw, &data)
	case FormatJSON, "":
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()
		err = dec.Decode(&data)
	default:
		return data, shared.WrapError("catalogimport", "Decode", shared.ErrInvalidInput, "unsupported format: "+string(format), nil)
	}
	if err != nil {
		return data, shared.WrapError("catalogimport", "Decode", shared.ErrInvalidInput, "malformed import document", err)
	}

	if careerName != "" {
		data.CareerName = careerName
	}
	for i := range data.Courses {
		data.Courses[i].ID = curriculum.CourseID(strings.TrimSpace(data.Courses[i].ID.String()))
		data.Courses[i].Code = strings.TrimSpace(data.Courses[i].Code)
	}

	return data, nil
}

// DecodeFile opens path and decodes it, recording the base name as the source file.
func DecodeFile(path, careerName string) (curriculum.CareerImport, error) {
	f, err := os.Open(path)
	if err != nil {
		return curriculum.CareerImport{}, fmt.Errorf("open import file: %w", err)
	}
	defer f.Close()

	data, err := Decode(f, FormatFromPath(path), careerName)
	if err != nil {
		return data, fmt.Errorf("%s: %w", path, err)
	}
	if data.SourceFile == "" {
		data.SourceFile = filepath.Base(path)
	}
	if data.CareerName == "" {
		data.CareerName = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return data, nil
}
