package dto

type LinkEquivalentsRequest struct {
	EquivalentIDs []string `json:"equivalentIds" validate:"required,min=1,max=100,dive,uuid"`
}

type LinkEquivalentsResponse struct {
	ProductID string `json:"productId"`
	Created   int    `json:"created"`
	Existing  int    `json:"existing"`
}

type EquivalentsResponse struct {
	ProductID   string            `json:"productId"`
	Equivalents []ProductResponse `json:"equivalents"`
}
