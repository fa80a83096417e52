package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/readlater/internal/model"
)

// RecordError reports one record that was skipped.
type RecordError struct {
	Index int
	ID    string
	Err   error
}

func (e *RecordError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("record %d (%s): %v", e.Index, e.ID, e.Err)
	}
	return fmt.Sprintf("record %d: %v", e.Index, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

// Result is the outcome of decoding one file.
type Result struct {
	Records []model.RecordDescriptor
	Skipped []*RecordError
}

// scalar keeps the raw text of a YAML scalar, whatever type it resolves to.
type scalar string

func (s *scalar) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a scalar", value.Line)
	}
	*s = scalar(value.Value)
	return nil
}

type fileRecord struct {
	Kind        string   `yaml:"kind"`
	ID          string   `yaml:"id"`
	Title       string   `yaml:"title"`
	URL         string   `yaml:"url"`
	Status      scalar   `yaml:"status"`
	TimeAdded   scalar   `yaml:"time_added"`
	TimeUpdated scalar   `yaml:"time_updated"`
	Favorite    bool     `yaml:"favorite"`
	Tags        []string `yaml:"tags"`
	MergeTags   bool     `yaml:"merge_tags"`
}

type fileDoc struct {
	Records []fileRecord `yaml:"records"`
}

// Decode reads one record file. Only a document that cannot be parsed at
// all is an error; bad records land in Result.Skipped.
func Decode(r io.Reader) (Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Result{}, fmt.Errorf("read records: %w", err)
	}

	raw, err := parse(data)
	if err != nil {
		return Result{}, fmt.Errorf("parse records: %w", err)
	}

	res := Result{Records: make([]model.RecordDescriptor, 0, len(raw))}
	for i, fr := range raw {
		rec, err := fr.descriptor()
		if err != nil {
			res.Skipped = append(res.Skipped, &RecordError{Index: i, ID: fr.ID, Err: err})
			continue
		}
		res.Records = append(res.Records, rec)
	}
	return res, nil
}

// DecodeFile decodes the record file at path.
func DecodeFile(path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, err
	}
	defer f.Close()

	res, err := Decode(f)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", path, err)
	}
	return res, nil
}

// parse accepts a top-level list or a mapping with a records key.
func parse(data []byte) ([]fileRecord, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	if root.Kind == 0 {
		// Empty document.
		return nil, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if len(root.Content) > 0 && root.Content[0].Kind == yaml.SequenceNode {
		var list []fileRecord
		if err := dec.Decode(&list); err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		return list, nil
	}

	var doc fileDoc
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return doc.Records, nil
}

func (fr fileRecord) descriptor() (model.RecordDescriptor, error) {
	// Unknown kinds and status codes are passed through: the pipeline drops
	// them as malformed and removes anything stored under the same id.
	kind, err := model.ParseKind(fr.Kind)
	if err != nil {
		kind = model.Kind(fr.Kind)
	}
	if kind == model.KindTag {
		return model.TagRecord(fr.ID), nil
	}

	rec := model.RecordDescriptor{
		Kind:      kind,
		ID:        fr.ID,
		Title:     fr.Title,
		URL:       fr.URL,
		Favorite:  fr.Favorite,
		Tags:      fr.Tags,
		MergeTags: fr.MergeTags,
	}

	if fr.Status != "" {
		status, err := model.ParseStatus(string(fr.Status))
		if err != nil {
			if _, numErr := strconv.Atoi(string(fr.Status)); numErr != nil {
				return model.RecordDescriptor{}, err
			}
		}
		rec.Status = status
	}
	if rec.TimeAdded, err = parseTime(string(fr.TimeAdded)); err != nil {
		return model.RecordDescriptor{}, fmt.Errorf("time_added: %w", err)
	}
	if rec.TimeUpdated, err = parseTime(string(fr.TimeUpdated)); err != nil {
		return model.RecordDescriptor{}, fmt.Errorf("time_updated: %w", err)
	}
	return rec, nil
}

// parseTime accepts unix seconds or RFC 3339. Empty is the zero time.
func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q is neither unix seconds nor RFC 3339", s)
	}
	return t.UTC(), nil
}
