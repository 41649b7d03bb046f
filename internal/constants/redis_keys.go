package constants

// Redis key constants, using the naming scheme app:{module}:{entity}.
const (
	AppPrefix = "app"

	FileModulePrefix = "file"

	EntityDedupSet = "dedup_set"

	// KeyResumeFileMD5Set holds the MD5s of every raw resume file accepted so far (SET).
	// Format: app:file:dedup_set
	KeyResumeFileMD5Set = AppPrefix + ":" + FileModulePrefix + ":" + EntityDedupSet
)
