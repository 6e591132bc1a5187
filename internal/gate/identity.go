package gate

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Identity is the normalized {userId, permitId, userName} triple extracted
// from a scan. Fields may be empty; callers must validate before use.
type Identity struct {
	UserID   string `json:"userId"`
	PermitID string `json:"permitId"`
	UserName string `json:"userName"`
}

// Payload is the raw inbound scan. Either the three direct fields are set, or
// QRData carries a JSON object (with aliased keys) or a bare user id string.
type Payload struct {
	QRData   string `json:"qrData"`
	UserID   string `json:"userId"`
	PermitID string `json:"permitId"`
	UserName string `json:"userName"`
}

// Fallback supplies values for pieces the scan itself is missing, e.g. kiosk
// context about the person standing at the gate.
type Fallback struct {
	UserID   string `json:"userId"`
	PermitID string `json:"permitId"`
	UserName string `json:"userName"`
}

// Accepted key aliases for each identity field inside a JSON qrData object.
var (
	userIDKeys   = []string{"userId", "id", "user_id"}
	permitIDKeys = []string{"permitId", "permit", "permit_id"}
	userNameKeys = []string{"userName", "name", "user_name", "fullName"}
)

// ExtractIdentity normalizes a scan payload into an Identity. Direct fields
// win over qrData content; missing pieces are backfilled from the fallback.
// All values are stringified and trimmed. Extraction never fails: incomplete
// scans simply yield empty fields for validation to reject.
func ExtractIdentity(p Payload, fb *Fallback) Identity {
	id := Identity{
		UserID:   strings.TrimSpace(p.UserID),
		PermitID: strings.TrimSpace(p.PermitID),
		UserName: strings.TrimSpace(p.UserName),
	}

	if qr := strings.TrimSpace(p.QRData); qr != "" {
		if obj, ok := decodeQRObject(qr); ok {
			if id.UserID == "" {
				id.UserID = pickAlias(obj, userIDKeys)
			}
			if id.PermitID == "" {
				id.PermitID = pickAlias(obj, permitIDKeys)
			}
			if id.UserName == "" {
				id.UserName = pickAlias(obj, userNameKeys)
			}
		} else if id.UserID == "" {
			// A non-JSON payload is treated as a bare user id.
			id.UserID = qr
		}
	}

	if fb != nil {
		if id.UserID == "" {
			id.UserID = strings.TrimSpace(fb.UserID)
		}
		if id.PermitID == "" {
			id.PermitID = strings.TrimSpace(fb.PermitID)
		}
		if id.UserName == "" {
			id.UserName = strings.TrimSpace(fb.UserName)
		}
	}

	return id
}

// decodeQRObject attempts to parse qrData as a JSON object.
func decodeQRObject(qr string) (map[string]any, bool) {
	dec := json.NewDecoder(strings.NewReader(qr))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, false
	}
	return obj, true
}

// pickAlias returns the first non-empty stringified value among the aliases.
func pickAlias(obj map[string]any, keys []string) string {
	for _, k := range keys {
		if v, ok := obj[k]; ok {
			if s := stringify(v); s != "" {
				return s
			}
		}
	}
	return ""
}

// stringify converts scalar JSON values to their string form. Objects and
// arrays are not meaningful identity values and map to empty.
func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}
