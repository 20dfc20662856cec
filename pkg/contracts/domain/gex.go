package domain

import "time"

// GEXRow is the gamma exposure of one strike in yen per one yen move of
// the underlying. Call exposure is positive and put exposure negative.
type GEXRow struct {
	StrikePrice int     `json:"strike_price"`
	PutOI       float64 `json:"put_oi"`
	CallOI      float64 `json:"call_oi"`
	CallGEX     float64 `json:"call_gex"`
	PutGEX      float64 `json:"put_gex"`
	NetGEX      float64 `json:"net_gex"`
}

// GEXProfile is the gamma exposure across strikes for one contract month.
// FlipPoint is the interpolated strike where net exposure changes sign
// nearest the spot price, absent when it never does.
type GEXProfile struct {
	ContractMonth string    `json:"contract_month"`
	AsOf          time.Time `json:"as_of"`
	Expiry        time.Time `json:"expiry"`
	DaysToExpiry  int       `json:"days_to_expiry"`
	Spot          float64   `json:"spot"`
	Sigma         float64   `json:"sigma"`
	Rows          []GEXRow  `json:"rows"`
	FlipPoint     Quantity  `json:"flip_point"`
	TotalCallGEX  float64   `json:"total_call_gex"`
	TotalPutGEX   float64   `json:"total_put_gex"`
	TotalNetGEX   float64   `json:"total_net_gex"`
}

// GEXSurface is net gamma exposure over a grid of spot prices and strikes.
// Net[i][j] belongs to Spots[i] and Strikes[j].
type GEXSurface struct {
	Spots   []float64   `json:"spots"`
	Strikes []int       `json:"strikes"`
	Net     [][]float64 `json:"net"`
}
