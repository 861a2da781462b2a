package cache

// Batch Keys
func KeyBatch(batchID string) string {
	return Key("batches", batchID)
}

// File Keys
func KeyFile(fileID string) string {
	return Key("files", fileID)
}

// Setting Keys
func KeySetting(name string) string {
	return Key("settings", name)
}
