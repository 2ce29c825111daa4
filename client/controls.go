package client

import (
	"github.com/ldapdrv/ldapdrv/engine"
)

// buildSearchControls builds the transient server controls for one search
// submission: a paging control when the page size is above one, a sort
// control when a sort specification is configured. The two are independent
// and combine freely. Controls live only until the submission returns;
// they are never retained. A construction failure is fatal and aborts
// before any network call.
func buildSearchControls(sess engine.Session, pageSize int, cookie []byte, sortSpec []engine.SortKey) ([]engine.Control, error) {
	count := 0
	if pageSize > 1 {
		count++
	}
	if len(sortSpec) > 0 {
		count++
	}
	if count == 0 {
		return nil, nil
	}

	ctrls := make([]engine.Control, 0, count)

	if pageSize > 1 {
		pageCtrl, err := sess.BuildPagingControl(pageSize, cookie)
		if err != nil {
			return nil, newProtocolError("E_CONTROL_BUILD",
				"failed to build paged results control",
				map[string]interface{}{"pageSize": pageSize, "cause": err.Error()})
		}
		ctrls = append(ctrls, pageCtrl)
	}

	if len(sortSpec) > 0 {
		sortCtrl, err := sess.BuildSortControl(sortSpec)
		if err != nil {
			return nil, newProtocolError("E_CONTROL_BUILD",
				"failed to build server side sort control",
				map[string]interface{}{"attrs": len(sortSpec), "cause": err.Error()})
		}
		ctrls = append(ctrls, sortCtrl)
	}

	return ctrls, nil
}
