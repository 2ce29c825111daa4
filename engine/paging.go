package engine

import "github.com/ldapdrv/ldapdrv/protocol"

// CookieExtractor extracts the next continuation cookie from the response
// controls of a terminated search page. Engines differ in how they expose
// the paged results response control; both extractors below implement the
// same contract: return the next cookie, or report that no paged results
// control was present.
type CookieExtractor interface {
	// NextCookie returns the continuation cookie carried by the paged
	// results response control in ctrls. found is false when no such
	// control is present. A zero length cookie means the sequence is
	// exhausted.
	NextCookie(ctrls []Control) (cookie []byte, found bool, err error)
}

// FindControlExtractor locates the paged results control by OID and reads
// its cookie, mirroring engines that expose a control lookup primitive.
type FindControlExtractor struct{}

// NextCookie implements CookieExtractor.
func (FindControlExtractor) NextCookie(ctrls []Control) ([]byte, bool, error) {
	for i := range ctrls {
		if ctrls[i].OID == protocol.PagedResultsOID {
			return append([]byte(nil), ctrls[i].Value...), true, nil
		}
	}
	return nil, false, nil
}

// ScanListExtractor walks the whole control list and keeps the cookie of
// the last paged results control, mirroring engines that parse the entire
// list in one call.
type ScanListExtractor struct{}

// NextCookie implements CookieExtractor.
func (ScanListExtractor) NextCookie(ctrls []Control) ([]byte, bool, error) {
	var cookie []byte
	found := false
	for i := range ctrls {
		if ctrls[i].OID == protocol.PagedResultsOID {
			cookie = append(cookie[:0], ctrls[i].Value...)
			found = true
		}
	}
	if !found {
		return nil, false, nil
	}
	return append([]byte(nil), cookie...), true, nil
}

// DefaultCookieExtractor returns the extractor used when the client is not
// configured with one.
func DefaultCookieExtractor() CookieExtractor {
	return FindControlExtractor{}
}
