package access

import "github.com/moyoez/sharegate/types"

// ValidatedShare is a share record that passed ValidateShare. Downstream code
// can rely on a supported item type and on owner and source being set.
type ValidatedShare struct {
	record types.ShareRecord
}

// Record returns a copy of the validated record.
func (v *ValidatedShare) Record() types.ShareRecord {
	return v.record
}

func (v *ValidatedShare) ShareID() string          { return v.record.ShareID }
func (v *ValidatedShare) OwnerID() string          { return v.record.OwnerID }
func (v *ValidatedShare) SourceID() string         { return v.record.SourceID }
func (v *ValidatedShare) ItemType() types.ItemType { return v.record.ItemType }

// ValidateShare checks that a resolved record points at a file or folder and
// carries what later stages need. A nil record means the lookup found nothing.
//
// The three checks stay separate so each failure logs its own message, even
// though all of them surface as KindNotFound.
func ValidateShare(rec *types.ShareRecord) (*ValidatedShare, error) {
	if err := checkShareExists(rec); err != nil {
		return nil, err
	}
	if err := checkShareIsComplete(rec); err != nil {
		return nil, err
	}
	if err := checkItemType(rec); err != nil {
		return nil, err
	}
	return &ValidatedShare{record: *rec}, nil
}

func checkShareExists(rec *types.ShareRecord) error {
	if rec == nil || (rec.ItemType != "" && !rec.ItemType.Supported()) {
		return notFoundf("Passed token parameter is not valid")
	}
	return nil
}

func checkShareIsComplete(rec *types.ShareRecord) error {
	if rec.OwnerID == "" || rec.SourceID == "" {
		return notFoundf("Passed token seems to be valid, but it does not contain all necessary information (%q)", rec.Token)
	}
	return nil
}

func checkItemType(rec *types.ShareRecord) error {
	if rec.ItemType == "" {
		return notFoundf("No item type set for share id: %s", rec.ShareID)
	}
	return nil
}
