package membership

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/contribnet/pkg/errors"
)

// Marshal encodes r as indented JSON in canonical form: groups sorted by
// key and member lists deduplicated and sorted. Equal relations always
// produce identical bytes, which makes the output usable as a cache key.
func Marshal(r Relation) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(r, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write encodes r as canonical JSON to w.
func Write(r Relation, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r.Normalize()); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteFile writes r as canonical JSON to path.
func WriteFile(r Relation, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Write(r, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Read decodes a relation of the form {"group": ["member", ...]} and
// validates it. Null member entries decode as empty strings and are
// rejected with ErrCodeMalformedInput.
func Read(r io.Reader) (Relation, error) {
	var rel Relation
	if err := json.NewDecoder(r).Decode(&rel); err != nil {
		return nil, errors.Wrap(errors.ErrCodeMalformedInput, err, "decode membership")
	}
	if rel == nil {
		return nil, errors.New(errors.ErrCodeMalformedInput, "membership document is null")
	}
	if err := rel.Validate(); err != nil {
		return nil, err
	}
	return rel, nil
}

// ReadFile reads and validates a relation from a JSON file.
func ReadFile(path string) (Relation, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}
