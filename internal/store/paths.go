package store

// Document tree layout. Public data (metadata, indexes, annotations, audit)
// lives under transcripts/public/{category}; the work queue and worker auth
// codes live under transcripts/private/{category}.
const (
	publicRoot  = "transcripts/public"
	privateRoot = "transcripts/private"

	// AdminScope is the pseudo-category whose auth codes gate claim and
	// release across all categories.
	AdminScope = "_admin"

	// enabledSentinel is the exact value the <enabled> flag must hold for a
	// category to accept writes.
	enabledSentinel = 1
)

func categoryPath(category string) string {
	return publicRoot + "/" + category
}

func privatePath(category string) string {
	return privateRoot + "/" + category
}

func enabledPath(category string) string {
	return categoryPath(category) + "/<enabled>"
}

func metadataPath(category string) string {
	return categoryPath(category) + "/metadata"
}

func metadataRecordPath(category, videoID string) string {
	return metadataPath(category) + "/" + videoID
}

func dateIndexPath(category, day, videoID string) string {
	return categoryPath(category) + "/index/date/" + day + "/" + videoID
}

func speakerInfoPath(category, videoID string) string {
	return categoryPath(category) + "/v/" + videoID + "/speakerInfo"
}

func existingPath(category string) string {
	return categoryPath(category) + "/existing"
}

func auditPath(category, txnID string) string {
	return categoryPath(category) + "/audit/" + txnID
}

func auditRootPath(category string) string {
	return categoryPath(category) + "/audit"
}

func queuePath(category string) string {
	return privatePath(category) + "/new_vids"
}

func queueEntryPath(category, videoID string) string {
	return queuePath(category) + "/" + videoID
}

func authCodePath(scope, userID string) string {
	return privatePath(scope) + "/vast/" + userID
}
