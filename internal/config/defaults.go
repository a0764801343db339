package config

import "time"

// DefaultRequestTimeout is generous because local models on laptops are slow.
const DefaultRequestTimeout = 360 * time.Second

// DefaultOllamaBaseURL is where a stock Ollama install listens.
const DefaultOllamaBaseURL = "http://localhost:11434"

// KnownModels lists generation models the wizard offers. Each must be pulled
// with `ollama pull <name>` before use.
var KnownModels = []string{
	"codegemma",
	"command-r",
	"command-r-plus",
	"duckdb-nsql",
	"gemma:2b",
	"gemma:7b",
	"llama-pro",
	"llama2",
	"llama3",
	"llama3-chatqa",
	"llama3-gradient",
	"llama3:70b",
	"llama3:70b-text",
	"llama3:text",
	"meditron",
	"medllama2",
	"orca-mini",
	"phi3:medium",
	"phi3:mini",
	"tinyllama",
	"wizardlm2:7b",
	"wizardlm2:8x22b",
}

// DefaultSponsors are the sponsors with published TrialTwin SQLite extracts.
var DefaultSponsors = []string{
	"Abbott",
	"Abbvie",
	"AstraZeneca",
	"Bayer",
	"Bristol_Myers_Squibb",
	"Johnson_Johnson",
	"Pfizer",
	"Roche",
	"Sanofi",
}

// DefaultTrialColumns is the fixed clinical-trial column enumeration selected
// from every sponsor table.
var DefaultTrialColumns = []string{
	"nct_id", "nlm_download_date_description", "study_first_submitted_date",
	"results_first_submitted_date", "disposition_first_submitted_date",
	"last_update_submitted_date", "study_first_submitted_qc_date",
	"study_first_posted_date", "study_first_posted_date_type",
	"results_first_submitted_qc_date", "results_first_posted_date",
	"results_first_posted_date_type", "disposition_first_submitted_qc_date",
	"disposition_first_posted_date", "disposition_first_posted_date_type",
	"last_update_submitted_qc_date", "last_update_posted_date",
	"last_update_posted_date_type", "start_month_year", "start_date_type",
	"start_date", "verification_month_year", "verification_date",
	"completion_month_year", "completion_date_type", "completion_date",
	"primary_completion_month_year", "primary_completion_date_type",
	"primary_completion_date", "target_duration", "study_type", "acronym",
	"baseline_population", "brief_title", "official_title", "overall_status",
	"last_known_status", "phase", "enrollment", "enrollment_type", "source",
	"limitations_and_caveats", "number_of_arms", "number_of_groups",
	"why_stopped", "has_expanded_access", "expanded_access_type_individual",
	"expanded_access_type_intermediate", "expanded_access_type_treatment",
	"has_dmc", "is_fda_regulated_drug", "is_fda_regulated_device",
	"is_unapproved_device", "is_ppsd", "is_us_export", "biospec_retention",
	"biospec_description", "ipd_time_frame", "ipd_access_criteria", "ipd_url",
	"plan_to_share_ipd", "plan_to_share_ipd_description", "created_at",
	"updated_at", "source_class", "delayed_posting", "expanded_access_nctid",
	"expanded_access_status_for_nctid", "fdaaa801_violation",
	"baseline_type_units_analyzed", "datasdr_brief_summaries__description",
	"datasdr_downcase_name_list", "datasdr_baseline_counts__count",
	"datasdr_baseline_counts__ctgov_group_code",
	"datasdr_baseline_counts__result_group_id",
	"datasdr_baseline_counts__scope", "datasdr_baseline_counts__units",
	"datasdr_code_biospec_retention", "datasdr_code_enrollment_type",
	"datasdr_code_expanded_access_status_for_nctid",
	"datasdr_code_last_known_status", "datasdr_code_overall_status",
	"datasdr_code_phase", "datasdr_code_plan_to_share_ipd",
	"datasdr_code_source_class", "datasdr_code_study_type",
	"datasdr_pdf_file_contents", "datasdr_pdf_file_number_pages",
	"datasdr_pdf_document_type", "lead_or_collaborator", "name",
}

// DefaultExcludes are glob patterns skipped when reading the PDF data dir.
var DefaultExcludes = []string{
	"*.zip",
	"*.sqlite3",
	".DS_Store",
}

// DefaultConfig returns the stock configuration: a local Ollama with llama3
// and nomic-embed-text, and the nine published sponsors.
func DefaultConfig() *Config {
	return &Config{
		Provider:            ProviderOllama,
		BaseURL:             DefaultOllamaBaseURL,
		Model:               "llama3",
		EmbeddingModel:      "nomic-embed-text",
		EmbeddingDimensions: 768,
		RequestTimeout:      DefaultRequestTimeout.String(),
		SimilarityTopK:      2,
		ChunkSize:           1024,
		ChunkOverlap:        200,
		EmbedConcurrency:    1,
		PDF: PDFConfig{
			DataDir:  "_data",
			IndexDir: "_index",
			Include:  []string{"**"},
			Exclude:  clone(DefaultExcludes),
			Questions: []string{
				"Describe the protocol about Thrombosis?",
				"What do you know about elastography from the context?",
				"What do you know about Heplisav B from the context?",
			},
		},
		Trials: TrialsConfig{
			SQLiteDir:    "_Datafiles",
			FilePattern:  "TrialTwin_%s.sqlite3",
			Sponsors:     clone(DefaultSponsors),
			LimitRecords: 10,
			OrderBy:      "nct_id",
			Columns:      clone(DefaultTrialColumns),
			Questions: []string{
				"How many studies has this sponsor conducted?",
				"How many studies of type 'Interventional'?",
				"How many studies have an overall status of 'Completed'?",
			},
			StopAfterFirst: true,
		},
		Demo: DemoConfig{
			Questions: []string{
				"When was the melanoma drug approved?",
				"Who is the sponsor for the melanoma drug?",
				"Are there any age restrictions on the melanoma drug?",
			},
		},
		Server: ServerConfig{
			Port:             8080,
			IndexIdleTimeout: "30m",
		},
	}
}

// clone copies a default slice so that unmarshalling over a Config never
// writes into the package-level defaults.
func clone(s []string) []string {
	return append([]string(nil), s...)
}
