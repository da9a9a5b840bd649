package model

import (
	"time"
)

// RetrievableDeal is a deal judged eligible for retrieval checks.
// Started and Expires are Unix milliseconds.
type RetrievableDeal struct {
	Provider   string `json:"provider" bson:"provider"`
	Client     string `json:"client" bson:"client"`
	PieceCID   string `json:"pieceCID" bson:"piece_cid"`
	PieceSize  uint64 `json:"pieceSize" bson:"piece_size"`
	PayloadCID string `json:"payloadCID" bson:"payload_cid"`
	Started    int64  `json:"started" bson:"started"`
	Expires    int64  `json:"expires" bson:"expires"`
}

func (d RetrievableDeal) StartedAt() time.Time {
	return time.UnixMilli(d.Started).UTC()
}

func (d RetrievableDeal) ExpiresAt() time.Time {
	return time.UnixMilli(d.Expires).UTC()
}
