package eligibility

import (
	"strings"
	"time"

	"github.com/CheckerNetwork/fil-deal-ingester/pkg/dealerror"
	"github.com/CheckerNetwork/fil-deal-ingester/pkg/model"
	"github.com/ipfs/go-cid"
	"golang.org/x/exp/slices"
)

type Reason string

const (
	Eligible           Reason = ""
	NotVerified        Reason = "not_verified"
	MissingPieceCID    Reason = "missing_piece_cid"
	StartedTooRecently Reason = "started_too_recently"
	ExpiringSoon       Reason = "expiring_soon"
	MissingLabel       Reason = "missing_label"
	UnsupportedLabel   Reason = "unsupported_label"
	EmptyPayload       Reason = "empty_payload"
	LabelNotCID        Reason = "label_not_cid"
)

const DefaultMargin = 24 * time.Hour

var payloadCIDPrefixes = []string{"bafy", "bafk", "Qm"}

// Identity CID of the empty payload. IPNI has no records for it, so a
// retrieval check against it can never pass.
var unretrievableLabels = []string{"bafkqaaa"}

// Verdict is the outcome of evaluating one deal: either a Deal or the Reason
// it was left out.
type Verdict struct {
	Deal   *model.RetrievableDeal
	Reason Reason
}

func (v Verdict) Eligible() bool {
	return v.Deal != nil
}

func excluded(reason Reason) Verdict {
	return Verdict{Reason: reason}
}

type Filter struct {
	now          func() time.Time
	minAge       time.Duration
	minRemaining time.Duration
	strictLabel  bool
}

type Option func(*Filter)

func WithClock(now func() time.Time) Option {
	return func(f *Filter) {
		f.now = now
	}
}

// WithMinAge sets how long ago a deal must have started to be eligible.
func WithMinAge(d time.Duration) Option {
	return func(f *Filter) {
		f.minAge = d
	}
}

// WithMinRemaining sets how long a deal must still be active to be eligible.
func WithMinRemaining(d time.Duration) Option {
	return func(f *Filter) {
		f.minRemaining = d
	}
}

// WithStrictLabel additionally requires the label to decode as a CID.
func WithStrictLabel(strict bool) Option {
	return func(f *Filter) {
		f.strictLabel = strict
	}
}

func New(opts ...Option) *Filter {
	f := &Filter{
		now:          time.Now,
		minAge:       DefaultMargin,
		minRemaining: DefaultMargin,
	}
	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Evaluate decides whether a decoded deal record is eligible for retrieval
// checks. Exclusions are reported in the Verdict; an error is returned only
// when a field the decision depends on has the wrong type.
func (f *Filter) Evaluate(record interface{}) (Verdict, error) {
	deal, ok := record.(map[string]interface{})
	if !ok {
		return Verdict{}, malformed(record, "deal", "an object", record)
	}

	proposal, ok := deal["Proposal"].(map[string]interface{})
	if !ok {
		return Verdict{}, malformed(record, "Proposal", "an object", deal["Proposal"])
	}

	return f.evaluateProposal(proposal)
}

//nolint:cyclop
func (f *Filter) evaluateProposal(proposal map[string]interface{}) (Verdict, error) {
	verified, ok := proposal["VerifiedDeal"].(bool)
	if !ok {
		return Verdict{}, malformed(proposal, "VerifiedDeal", "a boolean", proposal["VerifiedDeal"])
	}
	if !verified {
		return excluded(NotVerified), nil
	}

	// Known upstream gap: a handful of deals carry no PieceCID at all
	if isEmpty(proposal["PieceCID"]) {
		return excluded(MissingPieceCID), nil
	}

	now := f.now().UnixMilli()

	startEpoch, err := epochField(proposal, "StartEpoch")
	if err != nil {
		return Verdict{}, err
	}

	// IPNI needs time to ingest the advertisement of a new deal
	started := model.EpochToUnixMilli(startEpoch)
	if now-started < f.minAge.Milliseconds() {
		return excluded(StartedTooRecently), nil
	}

	endEpoch, err := epochField(proposal, "EndEpoch")
	if err != nil {
		return Verdict{}, err
	}

	expires := model.EpochToUnixMilli(endEpoch)
	if expires < now+f.minRemaining.Milliseconds() {
		return excluded(ExpiringSoon), nil
	}

	label, err := labelField(proposal)
	if err != nil {
		return Verdict{}, err
	}
	if label == "" {
		return excluded(MissingLabel), nil
	}
	if !hasPayloadCIDPrefix(label) {
		return excluded(UnsupportedLabel), nil
	}
	if slices.Contains(unretrievableLabels, label) {
		return excluded(EmptyPayload), nil
	}
	if f.strictLabel {
		if _, err := cid.Decode(label); err != nil {
			return excluded(LabelNotCID), nil
		}
	}

	provider, err := stringField(proposal, "Provider")
	if err != nil {
		return Verdict{}, err
	}

	pieceCID, err := cidLinkField(proposal, "PieceCID")
	if err != nil {
		return Verdict{}, err
	}

	client, err := stringField(proposal, "Client")
	if err != nil {
		return Verdict{}, err
	}

	pieceSize, err := sizeField(proposal, "PieceSize")
	if err != nil {
		return Verdict{}, err
	}

	return Verdict{Deal: &model.RetrievableDeal{
		Provider:   provider,
		Client:     client,
		PieceCID:   pieceCID,
		PieceSize:  pieceSize,
		PayloadCID: label,
		Started:    started,
		Expires:    expires,
	}}, nil
}

func hasPayloadCIDPrefix(label string) bool {
	return slices.IndexFunc(payloadCIDPrefixes, func(prefix string) bool {
		return strings.HasPrefix(label, prefix)
	}) >= 0
}

func malformed(proposal interface{}, field string, expected string, got interface{}) error {
	return dealerror.MalformedRecordError{
		Field:    field,
		Expected: expected,
		Got:      got,
		Proposal: proposal,
	}
}
