package api

// GradeReq asks a worker to grade one submission against an autograder
// bundle. Files are referenced by sha256 for the worker's file store, with a
// url to download from if the store does not have them yet; small
// submissions may be sent inline instead.
type GradeReq struct {
	JobUuid string `json:"job_uuid"`

	SubmFname string `json:"subm_fname"`
	// Sha256 to check if the file exists in the store
	SubmSha256 *string `json:"subm_sha256"`
	// URL to download the file if missing
	SubmUrl *string `json:"subm_url"`
	// Content directly as an alternative to URL
	SubmContent *string `json:"subm_content"`

	BundleSha256 *string `json:"bundle_sha256"`
	BundleUrl    *string `json:"bundle_url"`

	// Interpreter overrides the default python3 used to replay sessions.
	Interpreter []string `json:"interpreter,omitempty"`

	ResSqsUrl string `json:"res_sqs_url"`
}
