// Package cardgap reports documentation gaps in Hugging Face model cards.
// It harvests cards for topic tags, extracts their markdown section headers
// into JSON snapshots, and shows which common sections a selected model is
// missing relative to its peers.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., sqlite/, goquery/, gemini/).
package cardgap

// DefaultTags are the topic tags offered by the dashboard.
var DefaultTags = []string{"medical", "biomedical", "clinical"}

// DefaultTopK is the number of most common headers considered when
// computing missing sections.
const DefaultTopK = 10

// DefaultBatchSize is the number of records flushed per intermediate
// snapshot file during a harvest.
const DefaultBatchSize = 250
