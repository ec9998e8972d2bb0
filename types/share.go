package types

import "time"

// ItemType is the kind of resource a share points at.
type ItemType string

const (
	ItemTypeFile   ItemType = "file"
	ItemTypeFolder ItemType = "folder"
)

// Supported reports whether the item type can be served through a public link.
func (t ItemType) Supported() bool {
	return t == ItemTypeFile || t == ItemTypeFolder
}

// ShareType follows the numbering used by ownCloud style share tables.
type ShareType int

const (
	ShareTypeUser   ShareType = 0
	ShareTypeGroup  ShareType = 1
	ShareTypeLink   ShareType = 3
	ShareTypeEmail  ShareType = 4
	ShareTypeRemote ShareType = 6
)

func (t ShareType) String() string {
	switch t {
	case ShareTypeUser:
		return "user"
	case ShareTypeGroup:
		return "group"
	case ShareTypeLink:
		return "link"
	case ShareTypeEmail:
		return "email"
	case ShareTypeRemote:
		return "remote"
	default:
		return "unknown"
	}
}

// ShareRecord is a capability grant as returned by a share store.
// Empty strings mean the field is absent in the underlying record.
type ShareRecord struct {
	ShareID    string    `json:"id" yaml:"id"`
	Token      string    `json:"token" yaml:"token"`
	ItemType   ItemType  `json:"itemType" yaml:"itemType"`
	OwnerID    string    `json:"ownerId" yaml:"ownerId"`
	SourceID   string    `json:"sourceId" yaml:"sourceId"`
	ShareType  ShareType `json:"shareType" yaml:"shareType"`
	SecretHash string    `json:"-" yaml:"secretHash,omitempty"`
	ShareWith  string    `json:"shareWith,omitempty" yaml:"shareWith,omitempty"`
	FileTarget string    `json:"fileTarget,omitempty" yaml:"fileTarget,omitempty"`
	CreatedAt  time.Time `json:"createdAt" yaml:"createdAt"`
	ExpiresAt  time.Time `json:"expiresAt,omitzero" yaml:"expiresAt,omitempty"`
}

// PasswordProtected reports whether a stored password hash is attached to the share.
func (r *ShareRecord) PasswordProtected() bool {
	return r.SecretHash != ""
}

// CreateShareRequest is the body accepted by the owner API when publishing a path.
type CreateShareRequest struct {
	Path      string `json:"path"`
	Password  string `json:"password,omitempty"`
	ExpiresIn int    `json:"expiresIn,omitempty"` // seconds, 0 never expires on its own
	ShareType string `json:"shareType,omitempty"` // see ParseShareType
	ShareWith string `json:"shareWith,omitempty"`
}

// CreateShareResponse is returned once a share has been stored.
type CreateShareResponse struct {
	ShareID string `json:"shareId"`
	Token   string `json:"token"`
	Link    string `json:"link"`
}

// ShareInfoResponse is what a public page learns about the share it unlocked.
type ShareInfoResponse struct {
	Token     string    `json:"token"`
	ItemType  ItemType  `json:"itemType"`
	Name      string    `json:"name"`
	Size      int64     `json:"size,omitempty"`
	Protected bool      `json:"protected"`
	ExpiresAt time.Time `json:"expiresAt,omitzero"`
}

// ParseShareType accepts the names returned by ShareType.String. Empty means link.
func ParseShareType(s string) (ShareType, bool) {
	switch s {
	case "", "link":
		return ShareTypeLink, true
	case "user":
		return ShareTypeUser, true
	case "group":
		return ShareTypeGroup, true
	case "email":
		return ShareTypeEmail, true
	case "remote":
		return ShareTypeRemote, true
	default:
		return 0, false
	}
}
