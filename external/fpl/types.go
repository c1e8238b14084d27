package fpl

type bootstrapEnvelope struct {
	Teams        []teamItem        `json:"teams"`
	ElementTypes []elementTypeItem `json:"element_types"`
	Elements     []elementItem     `json:"elements"`
}

type teamItem struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type elementTypeItem struct {
	ID                int    `json:"id"`
	SingularNameShort string `json:"singular_name_short"`
}

type elementItem struct {
	ID                int    `json:"id"`
	WebName           string `json:"web_name"`
	Team              int    `json:"team"`
	ElementType       int    `json:"element_type"`
	NowCost           int    `json:"now_cost"`
	TotalPoints       int    `json:"total_points"`
	SelectedByPercent string `json:"selected_by_percent"`
}

type elementSummaryEnvelope struct {
	History []historyItem `json:"history"`
}

type historyItem struct {
	Round       int `json:"round"`
	TotalPoints int `json:"total_points"`
	Minutes     int `json:"minutes"`
}
