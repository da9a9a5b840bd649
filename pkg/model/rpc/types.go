package rpc

// Deal mirrors one entry of the Filecoin.StateMarketDeals response.
type Deal struct {
	Proposal DealProposal
	State    DealState
}

type Cid struct {
	Root string `json:"/" mapstructure:"/"`
}

type DealProposal struct {
	PieceCID     *Cid `json:",omitempty"`
	PieceSize    uint64
	VerifiedDeal bool
	Client       string
	Provider     string
	Label        string `json:",omitempty"`
	StartEpoch   int64
	EndEpoch     int64
}

type DealState struct {
	SectorStartEpoch int64
	LastUpdatedEpoch int64
	SlashEpoch       int64
}

// IsActive reports whether the deal has been sealed and not slashed.
func (s DealState) IsActive() bool {
	return s.SectorStartEpoch > 0 && s.SlashEpoch <= 0
}
