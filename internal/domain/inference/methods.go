package inference

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/okian/tourcheck/internal/domain/model"
)

// Method names and result sources.
const (
	MethodLexicon   = "lexicon"
	MethodFrequency = "frequency"
	MethodHeuristic = "heuristic"

	SourceLexiconEN  = "lexicon_en"
	SourceLexiconAll = "lexicon_all"
	SourceCache      = "cache"
	SourceInvalid    = "invalid_input"
	SourceNone       = "none"
)

// Lexicon confidences.
const (
	lexiconEnglishConfidence = 0.85
	lexiconAnyConfidence     = 0.80
	frequencyFallbackShare   = 0.5
)

//go:embed data/lexicon.yaml
var lexiconYAML []byte

//go:embed data/frequency.yaml
var frequencyYAML []byte

// Method is one independent way of classifying a first name. Implementations
// may fail; the resolver treats failures as an unknown, zero-confidence result.
type Method interface {
	Name() string
	Infer(firstName string) (model.InferenceResult, error)
}

// genderLists groups names by classification.
type genderLists struct {
	Female []string `yaml:"female"`
	Male   []string `yaml:"male"`
}

// Lexicon looks names up in a multi-language first-name list. An English
// hit is trusted more than a hit in any other language.
type Lexicon struct {
	english map[string]string
	other   map[string]string
}

// NewLexicon builds the lexicon from the embedded data.
func NewLexicon() (*Lexicon, error) {
	return ParseLexicon(lexiconYAML)
}

// ParseLexicon builds a lexicon from YAML with "english" and "other" sections.
func ParseLexicon(raw []byte) (*Lexicon, error) {
	var doc struct {
		English genderLists `yaml:"english"`
		Other   genderLists `yaml:"other"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: lexicon: %w", ErrBadData, err)
	}
	return &Lexicon{english: index(doc.English), other: index(doc.Other)}, nil
}

func index(l genderLists) map[string]string {
	m := make(map[string]string, len(l.Female)+len(l.Male))
	for _, n := range l.Female {
		m[strings.ToLower(n)] = model.GenderFemale
	}
	for _, n := range l.Male {
		m[strings.ToLower(n)] = model.GenderMale
	}
	return m
}

// Name implements Method.
func (l *Lexicon) Name() string { return MethodLexicon }

// Infer implements Method.
func (l *Lexicon) Infer(firstName string) (model.InferenceResult, error) {
	if g, ok := l.english[firstName]; ok {
		return model.InferenceResult{Gender: g, Confidence: lexiconEnglishConfidence, Source: SourceLexiconEN}, nil
	}
	if g, ok := l.other[firstName]; ok {
		return model.InferenceResult{Gender: g, Confidence: lexiconAnyConfidence, Source: SourceLexiconAll}, nil
	}
	return model.InferenceResult{Gender: model.GenderUnknown, Source: MethodLexicon}, nil
}

// frequencyRecord is the majority classification of a name and its share.
type frequencyRecord struct {
	Gender string  `yaml:"gender"`
	Share  float64 `yaml:"share"`
}

// Frequency classifies from historical birth-name frequencies; the
// confidence is the share of the majority classification.
type Frequency struct {
	table map[string]frequencyRecord
}

// NewFrequency builds the table from the embedded data.
func NewFrequency() (*Frequency, error) {
	return ParseFrequency(frequencyYAML)
}

// ParseFrequency builds a table from a YAML map of name to {gender, share}.
func ParseFrequency(raw []byte) (*Frequency, error) {
	table := map[string]frequencyRecord{}
	if err := yaml.Unmarshal(raw, &table); err != nil {
		return nil, fmt.Errorf("%w: frequency: %w", ErrBadData, err)
	}
	for name, rec := range table {
		if rec.Share < 0 || rec.Share > 1 {
			return nil, fmt.Errorf("%w: frequency share for %q out of range", ErrBadData, name)
		}
	}
	return &Frequency{table: table}, nil
}

// Name implements Method.
func (f *Frequency) Name() string { return MethodFrequency }

// Infer implements Method.
func (f *Frequency) Infer(firstName string) (model.InferenceResult, error) {
	rec, ok := f.table[firstName]
	if !ok {
		return model.InferenceResult{Gender: model.GenderUnknown, Source: MethodFrequency}, nil
	}
	gender := model.GenderUnknown
	switch strings.ToLower(rec.Gender) {
	case "f", model.GenderFemale:
		gender = model.GenderFemale
	case "m", model.GenderMale:
		gender = model.GenderMale
	}
	share := rec.Share
	if share == 0 {
		share = frequencyFallbackShare
	}
	return model.InferenceResult{Gender: gender, Confidence: share, Source: MethodFrequency}, nil
}
