package model

// CategoryCount is one row of the per-category breakdown.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

// Statistics is the aggregate returned by the statistics endpoint.
// ByStatus only contains statuses that have at least one equipment;
// consumers must treat missing keys as zero.
type Statistics struct {
	TotalEquipments int64            `json:"totalEquipments"`
	ByStatus        map[string]int64 `json:"byStatus"`
	ByCategory      []CategoryCount  `json:"byCategory"`
	RecentActivity  []ActivityEntry  `json:"recentActivity"`
}

// Pagination describes one page of a list response.
type Pagination struct {
	CurrentPage  int   `json:"currentPage"`
	TotalPages   int   `json:"totalPages"`
	TotalItems   int64 `json:"totalItems"`
	ItemsPerPage int   `json:"itemsPerPage"`
	HasNextPage  bool  `json:"hasNextPage"`
	HasPrevPage  bool  `json:"hasPrevPage"`
}
