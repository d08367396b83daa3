package models

type GenericResponse struct {
	Message string `json:"message"`
}

type QueryComparison struct {
	InMemoryMs    int64 `json:"in_memory_ms"`
	InMemoryCount int   `json:"in_memory_count"`
	DatabaseMs    int64 `json:"database_ms"`
	DatabaseCount int   `json:"database_count"`
}

type LoadingComparison struct {
	JoinedMs int64 `json:"joined_ms"`
	SplitMs  int64 `json:"split_ms"`
	Count    int   `json:"count"`
}
