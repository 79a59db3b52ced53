package model

import "sort"

// Record is the persisted outcome for one source image, keyed by its filename.
type Record struct {
	CommonName     string     `json:"common_name" yaml:"common_name"`
	ScientificName string     `json:"scientific_name" yaml:"scientific_name"`
	Folder         string     `json:"folder" yaml:"folder"`
	Confidence     Confidence `json:"confidence" yaml:"confidence"`
	Score          float64    `json:"score" yaml:"score"`
	OriginalFile   string     `json:"original_file" yaml:"original_file"`
	SortedPath     *string    `json:"sorted_path" yaml:"sorted_path"` // nil in preview mode
}

// NewRecord builds a manifest record from a classification. sortedPath is
// empty when the file was not copied.
func NewRecord(file string, c Classification, sortedPath string) Record {
	r := Record{
		CommonName:     c.CommonName,
		ScientificName: c.ScientificName,
		Folder:         c.FolderName,
		Confidence:     c.Confidence,
		Score:          c.Score,
		OriginalFile:   file,
	}
	if sortedPath != "" {
		r.SortedPath = &sortedPath
	}
	return r
}

// Manifest maps original filenames to their records.
type Manifest map[string]Record

// Has reports whether name has already been recorded.
func (m Manifest) Has(name string) bool {
	_, ok := m[name]
	return ok
}

// Clone returns a shallow copy of the manifest.
func (m Manifest) Clone() Manifest {
	out := make(Manifest, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// SpeciesCount is the number of records sharing a folder.
type SpeciesCount struct {
	Folder string `json:"folder" yaml:"folder"`
	Label  string `json:"label" yaml:"label"`
	Count  int    `json:"count" yaml:"count"`
}

// Species groups records by folder, sorted by folder name. The label is the
// common name of the first record (by filename) in each folder.
func (m Manifest) Species() []SpeciesCount {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	idx := make(map[string]int)
	var out []SpeciesCount
	for _, name := range names {
		rec := m[name]
		i, ok := idx[rec.Folder]
		if !ok {
			label := rec.CommonName
			if label == "" {
				label = rec.Folder
			}
			idx[rec.Folder] = len(out)
			out = append(out, SpeciesCount{Folder: rec.Folder, Label: label})
			i = len(out) - 1
		}
		out[i].Count++
	}

	sort.Slice(out, func(a, b int) bool { return out[a].Folder < out[b].Folder })
	return out
}
