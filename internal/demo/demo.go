// Package demo holds the hand-authored corpus used by `trialrag demo`.
package demo

import "github.com/ziadkadry99/trialrag/internal/document"

// MelanomaDocID is the ID assigned to the demo application document.
const MelanomaDocID = "My new document id!"

// MelanomaApplication returns a single FDA application document with custom
// presentation rules. The excluded LLM key "file_name" does not match the
// "filename" metadata key, so every pair stays visible to the model.
func MelanomaApplication() *document.Document {
	return document.New(
		"Full text of application document for melanoma goes here. Only suitable for children over 10 years of age.",
		map[string]string{
			"filename": "FDA Applications",
			"category": "US - FDA",
			"author":   "TrialTwin",
			"sponsor":  "Acme, Inc.",
			"label":    "melanoma",
			"date":     "2024-02-01",
		},
		document.WithID(MelanomaDocID),
		document.WithExcludedLLMKeys("file_name"),
		document.WithMetadataSeparator("::"),
		document.WithMetadataTemplate("{key}=>{value}"),
		document.WithTextTemplate("Metadata: {metadata_str}\n-----\nContent: {content}"),
	)
}
