package reimbursement

import (
	"database/sql/driver"
	"encoding/json"
	"path"
	"strings"
)

// Receipt is an uploaded proof of purchase.
//
// Records written by this service always use the storage shape (FileName, URL, StoragePath).
// Older records may carry only the drive shape (DriveFileID, DriveURL); those are read
// and displayed but never produced.
type Receipt struct {
	FileName    string `json:"fileName,omitempty"`
	URL         string `json:"url,omitempty"`
	StoragePath string `json:"storagePath,omitempty"`

	DriveFileID string `json:"driveFileId,omitempty"`
	DriveURL    string `json:"driveUrl,omitempty"`
}

// IsLegacy reports whether the receipt only has the drive shape
func (r Receipt) IsLegacy() bool {
	return r.StoragePath == "" && (r.DriveFileID != "" || r.DriveURL != "")
}

// Href returns the link a viewer should follow
func (r Receipt) Href() string {
	if r.URL != "" {
		return r.URL
	}
	return r.DriveURL
}

// DisplayName returns a name for listings, falling back to the path base or drive id
func (r Receipt) DisplayName() string {
	switch {
	case r.FileName != "":
		return r.FileName
	case r.StoragePath != "":
		return path.Base(r.StoragePath)
	default:
		return r.DriveFileID
	}
}

// Ext returns the lower-case extension without the dot
func (r Receipt) Ext() string {
	ext := path.Ext(r.DisplayName())
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsPDF reports whether the receipt looks like a PDF document
func (r Receipt) IsPDF() bool {
	return r.Ext() == "pdf"
}

// key identifies the stored file behind a receipt
func (r Receipt) key() string {
	switch {
	case r.StoragePath != "":
		return "s:" + r.StoragePath
	case r.DriveFileID != "":
		return "d:" + r.DriveFileID
	default:
		return "u:" + r.Href()
	}
}

// Receipts is the JSONB-backed list of receipts
type Receipts []Receipt

// Contains reports whether rs already references the same stored file as r
func (rs Receipts) Contains(r Receipt) bool {
	k := r.key()
	for _, x := range rs {
		if x.key() == k {
			return true
		}
	}
	return false
}

// AnyNew reports whether candidates reference a file rs does not
func (rs Receipts) AnyNew(candidates []Receipt) bool {
	for _, c := range candidates {
		if !rs.Contains(c) {
			return true
		}
	}
	return false
}

// Value implements driver.Valuer for JSONB storage
func (r Receipts) Value() (driver.Value, error) {
	if r == nil {
		return "[]", nil
	}
	b, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for JSONB storage
func (r *Receipts) Scan(value any) error {
	b, err := jsonBytes(value)
	if err != nil {
		return err
	}
	if len(b) == 0 {
		*r = Receipts{}
		return nil
	}
	return json.Unmarshal(b, r)
}
